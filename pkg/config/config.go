// Package config loads application settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"financial_dashboard/pkg/core/calc"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string
	LogDev   bool

	// Data locations
	DataDir     string // <SYMBOL>_financials.json files
	ExportDir   string // result.json / valuation.json output
	ResultsDir  string // where ?filename= is resolved
	SnapshotDir string // file snapshots when no database is set
	DatabaseURL string

	// HTTP
	CacheTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	AllowedOrigins  []string

	// Quotes
	EnableQuotes bool
	QuoteRPS     float64

	// LLM
	ModelsConfig string
	PromptsDir   string
	AITimeout    time.Duration

	// Valuation assumptions
	TaxRate      float64
	RiskFreeRate float64
	Beta         float64

	// Dashboard client
	DashboardAPIURL string

	// Warnings lists values that were invalid and fell back to defaults.
	Warnings []string
}

// Load reads .env (current, then parent directory) and the environment.
// A missing .env file is not an error.
func Load() *AppConfig {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../.env")
	}

	l := &loader{}
	exportDir := l.getEnv("EXPORT_DIR", "exports")
	cfg := &AppConfig{
		Port:     l.getEnv("PORT", "8080"),
		LogLevel: l.getEnv("LOG_LEVEL", "info"),
		LogDev:   l.getEnvAsBool("LOG_DEV", false),

		DataDir:     l.getEnv("DATA_DIR", "data"),
		ExportDir:   exportDir,
		ResultsDir:  l.getEnv("RESULTS_DIR", exportDir),
		SnapshotDir: l.getEnv("SNAPSHOT_DIR", ""),
		DatabaseURL: l.getEnv("DATABASE_URL", ""),

		CacheTTL:        l.getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		RequestTimeout:  l.getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: l.getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPS:    l.getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  l.getEnvAsInt("RATE_LIMIT_BURST", 10),
		AllowedOrigins:  l.getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		EnableQuotes: l.getEnvAsBool("ENABLE_QUOTES", false),
		QuoteRPS:     l.getEnvAsFloat("QUOTE_RPS", 2),

		ModelsConfig: l.getEnv("MODELS_CONFIG", "config/models.yaml"),
		PromptsDir:   l.getEnv("PROMPTS_DIR", "config/prompts"),
		AITimeout:    l.getEnvAsDuration("AI_TIMEOUT", 90*time.Second),

		TaxRate:      l.getEnvAsFloat("TAX_RATE", 0.21),
		RiskFreeRate: l.getEnvAsFloat("RISK_FREE_RATE", 0.03),
		Beta:         l.getEnvAsFloat("BETA", 1.0),

		DashboardAPIURL: l.getEnv("DASHBOARD_API_URL", "http://localhost:8080"),
	}
	cfg.Warnings = l.warnings
	return cfg
}

// Assumptions returns the market assumptions used by the ratio calculation.
func (c *AppConfig) Assumptions() calc.Assumptions {
	a := calc.DefaultAssumptions()
	a.TaxRate, a.RiskFreeRate, a.Beta = c.TaxRate, c.RiskFreeRate, c.Beta
	return a
}

type loader struct {
	warnings []string
}

func (l *loader) warn(key, value, fallback string) {
	l.warnings = append(l.warnings, fmt.Sprintf("invalid value for %s (%q), using default: %s", key, value, fallback))
}

// getEnv retrieves an environment variable or returns a fallback value.
// Blank values count as unset.
func (l *loader) getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (l *loader) getEnvAsInt(key string, fallback int) int {
	valueStr := l.getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	l.warn(key, valueStr, strconv.Itoa(fallback))
	return fallback
}

func (l *loader) getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := l.getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	l.warn(key, valueStr, strconv.FormatFloat(fallback, 'g', -1, 64))
	return fallback
}

func (l *loader) getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := l.getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	l.warn(key, valueStr, fallback.String())
	return fallback
}

func (l *loader) getEnvAsBool(key string, fallback bool) bool {
	valueStr := l.getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	l.warn(key, valueStr, strconv.FormatBool(fallback))
	return fallback
}

// getEnvAsList parses a comma-separated list, dropping empty entries.
func (l *loader) getEnvAsList(key string, fallback []string) []string {
	valueStr := l.getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
