// Package client talks to the financials API on behalf of the dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"financial_dashboard/pkg/models"
)

// ErrNoInput is returned before any request is made when neither a symbol
// nor a filename was given.
var ErrNoInput = errors.New("symbol or filename is required")

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client is a small JSON client for the financials API.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

// WithClock overrides the cache-bust timestamp source.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Financials fetches the result rows for a symbol and/or a records file.
// The symbol is upper-cased; a ts parameter defeats intermediary caches.
func (c *Client) Financials(ctx context.Context, symbol, filename string) (*models.FinancialsResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	filename = strings.TrimSpace(filename)
	if symbol == "" && filename == "" {
		return nil, ErrNoInput
	}

	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if filename != "" {
		q.Set("filename", filename)
	}
	q.Set("ts", strconv.FormatInt(c.now().UnixMilli(), 10))

	var out models.FinancialsResponse
	if err := c.do(ctx, http.MethodGet, "/api/financials?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RawFinancials fetches the unprocessed statement sections of a symbol.
func (c *Client) RawFinancials(ctx context.Context, symbol string) (*models.RawFinancialsResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoInput
	}
	var out models.RawFinancialsResponse
	if err := c.do(ctx, http.MethodGet, "/api/raw_financials?symbol="+url.QueryEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analysis asks the API for an AI commentary on the given rows.
func (c *Client) Analysis(ctx context.Context, rows models.RecordSet) (*models.AnalysisResponse, error) {
	body, err := json.Marshal(models.AnalysisRequest{Result: rows})
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}
	var out models.AnalysisResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai-analysis", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Company fetches the AI business description of a symbol.
func (c *Client) Company(ctx context.Context, symbol, name string) (*models.CompanyResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoInput
	}
	q := url.Values{"symbol": {symbol}}
	if name = strings.TrimSpace(name); name != "" {
		q.Set("name", name)
	}
	var out models.CompanyResponse
	if err := c.do(ctx, http.MethodGet, "/api/company?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the API liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]interface{}
	return c.do(ctx, http.MethodGet, "/health", nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		he := &HTTPError{StatusCode: res.StatusCode}
		var env models.ErrorResponse
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			he.Message = env.Error
		} else {
			he.Message = strings.TrimSpace(string(raw))
		}
		return he
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
