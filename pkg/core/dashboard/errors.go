package dashboard

import (
	"context"
	"errors"
	"fmt"

	"financial_dashboard/pkg/client"
	"financial_dashboard/pkg/core/series"
)

var (
	// ErrNoInput means neither symbol nor filename was supplied.
	ErrNoInput = client.ErrNoInput
	// ErrEmptyResult means the response parsed but carried no rows.
	ErrEmptyResult = errors.New("result is empty")
	// ErrNoNumericData means rows exist but none of their metrics is a number.
	ErrNoNumericData = errors.New("result has no numeric data to chart")
	// ErrNoData is returned by tab switches before any data was loaded.
	ErrNoData = errors.New("no financial data loaded")
)

// StatusKind classifies a status line.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the single user-facing line the dashboard shows after an action.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// StatusFor maps an action error onto the message shown to the user.
// A nil error is a success.
func StatusFor(err error) Status {
	if err == nil {
		return Status{Kind: StatusSuccess, Message: "Data loaded"}
	}

	var he *client.HTTPError
	switch {
	case errors.Is(err, ErrNoInput):
		return Status{Kind: StatusError, Message: "Enter a symbol or a filename"}
	case errors.Is(err, ErrEmptyResult):
		return Status{Kind: StatusError, Message: "The result is empty"}
	case errors.Is(err, ErrNoNumericData):
		return Status{Kind: StatusError, Message: "The result has no numbers to chart"}
	case errors.Is(err, series.ErrDuplicateYear):
		return Status{Kind: StatusError, Message: "The result repeats a year: " + err.Error()}
	case errors.Is(err, ErrNoData):
		return Status{Kind: StatusError, Message: "Load data first"}
	case errors.As(err, &he):
		return Status{Kind: StatusError, Message: fmt.Sprintf("Request failed: %s", he.Error())}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Status{Kind: StatusError, Message: "Request timed out"}
	default:
		return Status{Kind: StatusError, Message: "Request failed: " + err.Error()}
	}
}
