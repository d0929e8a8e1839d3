// Package financials serves computed ratio rows and raw statements.
package financials

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"financial_dashboard/pkg/api/respond"
	"financial_dashboard/pkg/core/calc"
	"financial_dashboard/pkg/core/ingest"
	"financial_dashboard/pkg/core/pipeline"
	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/core/valuation"
	"financial_dashboard/pkg/logging"
	"financial_dashboard/pkg/models"
)

// Runner runs the statements pipeline for a symbol.
type Runner interface {
	RunForSymbol(ctx context.Context, symbol string, years []int, refresh bool) (*pipeline.Run, error)
}

// RecordsSource reads a precomputed records file.
type RecordsSource interface {
	Load(filename string) (models.RecordSet, string, error)
}

// Handler holds dependencies for the financials endpoints.
type Handler struct {
	runner     Runner
	statements pipeline.StatementSource
	records    RecordsSource
	cache      *cache.Cache
	now        func() time.Time
}

// NewHandler creates a financials handler. Encoded responses are cached for ttl;
// ttl <= 0 disables caching.
func NewHandler(runner Runner, statements pipeline.StatementSource, records RecordsSource, ttl time.Duration) *Handler {
	h := &Handler{
		runner:     runner,
		statements: statements,
		records:    records,
		now:        time.Now,
	}
	if ttl > 0 {
		h.cache = cache.New(ttl, 2*ttl)
	}
	return h
}

// cacheKey ignores ts, which only defeats browser caches.
func cacheKey(symbol, filename string, years []int) string {
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, strconv.Itoa(y))
	}
	return "financials|" + symbol + "|" + filename + "|" + strings.Join(parts, ",")
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

// HandleFinancials serves GET /api/financials.
func (h *Handler) HandleFinancials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := strings.ToUpper(strings.TrimSpace(q.Get("symbol")))
	filename := strings.TrimSpace(q.Get("filename"))
	if symbol == "" && filename == "" {
		respond.Error(w, r, http.StatusBadRequest, "symbol or filename is required")
		return
	}

	var years []int
	if raw := strings.TrimSpace(q.Get("years")); raw != "" {
		var err error
		if years, err = calc.ParseYears(raw, h.now()); err != nil {
			respond.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	refresh := parseBool(q.Get("refresh"))

	key := cacheKey(symbol, filename, years)
	if h.cache != nil {
		if refresh {
			h.cache.Delete(key)
		} else if v, ok := h.cache.Get(key); ok {
			respond.Raw(w, r, http.StatusOK, v.([]byte))
			return
		}
	}

	var (
		resp *models.FinancialsResponse
		err  error
	)
	if filename != "" {
		resp, err = h.fromRecords(symbol, filename, years)
	} else {
		resp, err = h.fromStatements(r.Context(), symbol, years, refresh)
	}
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).Error("financials failed",
				zap.String("symbol", symbol), zap.String("filename", filename), zap.Error(err))
		}
		respond.Error(w, r, status, err.Error())
		return
	}
	if len(resp.Result.Records) == 0 {
		respond.Error(w, r, http.StatusNotFound, "no rows for the requested symbol")
		return
	}

	body, err := respond.Marshal(resp)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to encode financials",
			zap.String("symbol", symbol), zap.String("filename", filename), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "failed to encode response")
		return
	}
	if h.cache != nil {
		h.cache.Set(key, body, cache.DefaultExpiration)
	}
	respond.Raw(w, r, http.StatusOK, body)
}

func (h *Handler) fromStatements(ctx context.Context, symbol string, years []int, refresh bool) (*models.FinancialsResponse, error) {
	run, err := h.runner.RunForSymbol(ctx, symbol, years, refresh)
	if err != nil {
		return nil, err
	}
	resp := buildResponse(run.Symbol, run.SourceFile, valuation.FilterSymbol(run.Rows, run.Symbol))
	if run.Valuation != nil {
		resp.Valuation = run.Valuation
	} else if run.ValuationError != "" {
		resp.Valuation = map[string]string{"error": run.ValuationError}
	}
	return resp, nil
}

func (h *Handler) fromRecords(symbol, filename string, years []int) (*models.FinancialsResponse, error) {
	rs, path, err := h.records.Load(filename)
	if err != nil {
		return nil, err
	}
	rows := series.SortRecords(rs)
	if symbol != "" {
		rows = valuation.FilterSymbol(rs, symbol)
	}
	rows = filterYears(rows, years)

	resp := buildResponse(symbol, path, rows)
	if symbol != "" && rows.Len() > 0 {
		if res, err := valuation.RunForSymbol(symbol, rows); err != nil {
			resp.Valuation = map[string]string{"error": err.Error()}
		} else {
			resp.Valuation = res
		}
	}
	return resp, nil
}

func buildResponse(symbol, source string, rows models.RecordSet) *models.FinancialsResponse {
	resp := &models.FinancialsResponse{
		Symbol:     symbol,
		SourceFile: source,
		Result:     rows,
		Years:      series.Years(rows),
		Ratios:     series.RowsToRatios(rows),
	}
	if n := rows.Len(); n > 0 {
		resp.Latest = rows.Records[n-1]
	}
	return resp
}

func filterYears(rs models.RecordSet, years []int) models.RecordSet {
	if len(years) == 0 {
		return rs
	}
	keep := make(map[string]bool, len(years))
	for _, y := range years {
		keep[strconv.Itoa(y)] = true
	}
	out := models.RecordSet{Columns: rs.Columns}
	for _, r := range rs.Records {
		if keep[series.YearLabel(r)] {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ingest.ErrInvalidSymbol),
		errors.Is(err, ingest.ErrUnsafePath),
		errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrStatementsNotFound),
		errors.Is(err, ingest.ErrRecordsNotFound),
		errors.Is(err, calc.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrMissingSections):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandleRawFinancials serves GET /api/raw_financials.
func (h *Handler) HandleRawFinancials(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		respond.Error(w, r, http.StatusBadRequest, "symbol is required")
		return
	}
	f, err := h.statements.Load(r.Context(), symbol, parseBool(r.URL.Query().Get("refresh")))
	if err != nil {
		respond.Error(w, r, statusOf(err), err.Error())
		return
	}
	respond.JSON(w, r, http.StatusOK, models.RawFinancialsResponse{
		Symbol:            f.Symbol,
		IncomeStatement:   f.Statements.Income,
		BalanceSheet:      f.Statements.Balance,
		CashFlowStatement: f.Statements.CashFlow,
		BasicInfo:         f.Statements.BasicInfo,
	})
}
