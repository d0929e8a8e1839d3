package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"financial_dashboard/pkg/api"
	aiHandler "financial_dashboard/pkg/api/analysis"
	configHandler "financial_dashboard/pkg/api/config"
	"financial_dashboard/pkg/api/financials"
	"financial_dashboard/pkg/config"
	"financial_dashboard/pkg/core/agent"
	"financial_dashboard/pkg/core/analysis"
	"financial_dashboard/pkg/core/ingest"
	"financial_dashboard/pkg/core/pipeline"
	"financial_dashboard/pkg/core/prompt"
	"financial_dashboard/pkg/core/store"
	"financial_dashboard/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.Init(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	if cfg.LogDev {
		if dev, err := zap.NewDevelopment(); err == nil {
			logging.Set(dev)
			logger = dev
		}
	}
	defer logging.Sync()
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("detail", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prompt library
	prompts := prompt.NewRegistry()
	if n, err := prompt.LoadFromDirectory(prompts, cfg.PromptsDir); err != nil {
		logger.Warn("failed to load prompt library, using built-in prompts", zap.Error(err))
	} else {
		logger.Info("prompts loaded", zap.Int("files", n), zap.Int("total", prompts.Count()), zap.String("dir", cfg.PromptsDir))
	}

	// LLM providers
	agentCfg, err := agent.LoadConfig(cfg.ModelsConfig)
	if err != nil {
		logger.Warn("failed to load models config, using defaults", zap.Error(err))
	}
	agentMgr := agent.NewManager(agentCfg, logger.Named("agent"))

	// Statements, ratios and valuation
	var quotes ingest.QuoteSource
	if cfg.EnableQuotes {
		quotes = ingest.NewYahooQuotes(cfg.QuoteRPS)
	}
	statements := ingest.NewStatementLoader(cfg.DataDir, quotes, logger.Named("ingest"))
	orchestrator := pipeline.NewOrchestrator(statements, store.NewExporter(cfg.ExportDir), cfg.Assumptions(), logger.Named("pipeline"))

	var db store.DB
	if cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("database unavailable, snapshots fall back to files", zap.Error(err))
		} else {
			defer store.Close()
			db = store.GetPool()
			if err := store.EnsureSchema(ctx, db); err != nil {
				logger.Error("failed to create schema", zap.Error(err))
				db = nil
			}
		}
	}
	if db != nil || cfg.SnapshotDir != "" {
		orchestrator.SetSnapshots(store.NewSnapshotRepo(db, cfg.SnapshotDir))
	}

	router := api.NewRouter(
		financials.NewHandler(orchestrator, statements, ingest.NewRecordsLoader(cfg.ResultsDir), cfg.CacheTTL),
		aiHandler.NewHandler(analysis.NewEngine(agentMgr, prompts, logger.Named("analysis")), cfg.AITimeout, 0),
		configHandler.NewHandler(agentMgr),
		api.Options{
			Logger:         logger.Named("http"),
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			RequestTimeout: cfg.RequestTimeout,
		},
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("address", server.Addr),
			zap.String("active_provider", agentMgr.GetActiveProvider()),
			zap.String("data_dir", cfg.DataDir),
			zap.Bool("database", db != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed to start", zap.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
