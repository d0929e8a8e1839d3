// Package analysis serves the AI commentary and company description endpoints.
package analysis

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"financial_dashboard/pkg/api/respond"
	coreAnalysis "financial_dashboard/pkg/core/analysis"
	"financial_dashboard/pkg/logging"
	"financial_dashboard/pkg/models"
)

// MaxBodyBytes bounds the ai-analysis request body.
const MaxBodyBytes = 4 << 20

// Analyzer is implemented by *analysis.Engine.
type Analyzer interface {
	Analyze(ctx context.Context, rows models.RecordSet, valuation interface{}) (*models.AnalysisResponse, error)
	Describe(ctx context.Context, symbol, name string) (*models.CompanyResponse, error)
}

var _ Analyzer = (*coreAnalysis.Engine)(nil)

// Handler holds dependencies for AI endpoints.
type Handler struct {
	engine  Analyzer
	timeout time.Duration
	company *cache.Cache
}

// NewHandler creates an AI handler. Each provider call is bounded by timeout;
// company descriptions are cached for descriptionTTL.
func NewHandler(engine Analyzer, timeout, descriptionTTL time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if descriptionTTL <= 0 {
		descriptionTTL = time.Hour
	}
	return &Handler{
		engine:  engine,
		timeout: timeout,
		company: cache.New(descriptionTTL, 2*descriptionTTL),
	}
}

// HandleAnalysis serves POST /api/ai-analysis.
func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := respond.Decode(w, r, MaxBodyBytes, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Result.Records) == 0 {
		respond.Error(w, r, http.StatusBadRequest, "result is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.engine.Analyze(ctx, req.Result, req.Valuation)
	if err != nil {
		respond.Error(w, r, statusOf(err), err.Error())
		return
	}
	respond.JSON(w, r, http.StatusOK, resp)
}

// HandleCompany serves GET /api/company.
func (h *Handler) HandleCompany(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		respond.Error(w, r, http.StatusBadRequest, "symbol is required")
		return
	}
	if v, ok := h.company.Get(symbol); ok {
		respond.JSON(w, r, http.StatusOK, v)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.engine.Describe(ctx, symbol, strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		logging.FromContext(r.Context()).Warn("company description failed", zap.String("symbol", symbol), zap.Error(err))
		respond.Error(w, r, statusOf(err), err.Error())
		return
	}
	h.company.Set(symbol, resp, cache.DefaultExpiration)
	respond.JSON(w, r, http.StatusOK, resp)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, coreAnalysis.ErrEmptyResult):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, coreAnalysis.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
