// Package api wires the HTTP handlers into a chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"financial_dashboard/pkg/api/analysis"
	"financial_dashboard/pkg/api/config"
	"financial_dashboard/pkg/api/financials"
	"financial_dashboard/pkg/api/respond"
)

// HealthVersion identifies the response contract in /health.
const HealthVersion = "result-json-mode"

// Options configures the router middleware.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	RateLimitRPS   float64 // <= 0 disables rate limiting
	RateLimitBurst int
	RequestTimeout time.Duration
}

// NewRouter registers every endpoint. A nil handler leaves its routes out.
func NewRouter(fin *financials.Handler, ai *analysis.Handler, cfg *config.Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors(opts.AllowedOrigins))
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusNotFound, "not found")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]interface{}{"ok": true, "v": HealthVersion})
	})

	r.Route("/api", func(r chi.Router) {
		if fin != nil {
			r.Group(func(r chi.Router) {
				if opts.RequestTimeout > 0 {
					r.Use(middleware.Timeout(opts.RequestTimeout))
				}
				r.Get("/financials", fin.HandleFinancials)
				r.Get("/raw_financials", fin.HandleRawFinancials)
			})
		}
		if ai != nil {
			r.Post("/ai-analysis", ai.HandleAnalysis)
			r.Get("/company", ai.HandleCompany)
		}
		if cfg != nil {
			r.Get("/config", cfg.HandleConfig)
			r.Post("/config/switch", cfg.HandleSwitch)
		}
	})

	return r
}
