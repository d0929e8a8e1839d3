// Package pipeline runs the statements-to-valuation flow for one symbol:
// load, validate, compute ratios, export, value, snapshot.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"financial_dashboard/pkg/core/calc"
	"financial_dashboard/pkg/core/ingest"
	"financial_dashboard/pkg/core/store"
	"financial_dashboard/pkg/core/valuation"
	"financial_dashboard/pkg/models"
)

// StatementSource loads the raw statements of a symbol.
type StatementSource interface {
	Load(ctx context.Context, symbol string, refresh bool) (*ingest.StatementsFile, error)
}

// SnapshotSaver persists the outcome of a run.
type SnapshotSaver interface {
	Save(ctx context.Context, s *store.Snapshot) error
}

// ValidationConfig sets the balance sheet check behaviour.
type ValidationConfig struct {
	EnableStrictValidation bool    // a failed check aborts the run
	BalanceSheetTolerance  float64 // percent of total assets
}

// Run is the outcome of one pipeline run.
type Run struct {
	Symbol         string
	SourceFile     string
	Statements     models.Statements
	Rows           models.RecordSet // stamped with the symbol, rounded
	Valuation      *valuation.Result
	ValuationError string
	Exported       []string
	Warnings       []string
	Took           time.Duration
}

// Orchestrator manages the end-to-end data flow.
type Orchestrator struct {
	source      StatementSource
	exporter    *store.Exporter
	snapshots   SnapshotSaver
	assumptions calc.Assumptions
	validation  ValidationConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrchestrator creates an orchestrator. exporter may be nil to skip file
// exports.
func NewOrchestrator(source StatementSource, exporter *store.Exporter, a calc.Assumptions, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:      source,
		exporter:    exporter,
		assumptions: a,
		validation: ValidationConfig{
			BalanceSheetTolerance: calc.DefaultBalanceTolerance,
		},
		logger: logger,
		now:    time.Now,
	}
}

// SetSnapshots enables snapshot persistence.
func (o *Orchestrator) SetSnapshots(s SnapshotSaver) {
	o.snapshots = s
}

// SetValidationConfig updates the validation configuration
func (o *Orchestrator) SetValidationConfig(config ValidationConfig) {
	o.validation = config
}

// RunForSymbol executes the pipeline. Export and snapshot failures are
// returned; a valuation failure is recorded in Run.ValuationError instead.
func (o *Orchestrator) RunForSymbol(ctx context.Context, symbol string, years []int, refresh bool) (*Run, error) {
	start := o.now()

	file, err := o.source.Load(ctx, symbol, refresh)
	if err != nil {
		return nil, err
	}
	run := &Run{Symbol: file.Symbol, SourceFile: file.Path, Statements: file.Statements}
	log := o.logger.With(zap.String("symbol", run.Symbol))

	if err := o.validate(run, log); err != nil {
		return nil, err
	}

	rows, err := calc.CalculateRatiosByYear(file.Statements, years, o.assumptions, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", run.Symbol, err)
	}
	run.Rows = store.PrepareResults(run.Symbol, rows)

	if o.exporter != nil {
		paths, err := o.exporter.WriteResults(run.Rows)
		if err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
		run.Exported = append(run.Exported, paths...)
	}

	res, err := valuation.RunForSymbol(run.Symbol, run.Rows)
	if err != nil {
		run.ValuationError = err.Error()
		log.Warn("valuation failed", zap.Error(err))
	} else {
		run.Valuation = res
		if o.exporter != nil {
			paths, err := o.exporter.WriteValuation([]*valuation.Result{res})
			if err != nil {
				return nil, fmt.Errorf("export failed: %w", err)
			}
			run.Exported = append(run.Exported, paths...)
		}
	}

	if o.snapshots != nil {
		err := o.snapshots.Save(ctx, &store.Snapshot{
			Symbol:     run.Symbol,
			SourceFile: run.SourceFile,
			Result:     run.Rows,
			Valuation:  run.Valuation,
		})
		if err != nil {
			return nil, fmt.Errorf("storage failed: %w", err)
		}
	}

	run.Took = o.now().Sub(start)
	log.Info("pipeline completed",
		zap.Int("years", run.Rows.Len()),
		zap.Bool("valuation", run.Valuation != nil),
		zap.Int("warnings", len(run.Warnings)),
		zap.Duration("took", run.Took),
	)
	return run, nil
}

// validate runs the balance sheet equation per year. Mismatches become
// warnings, or an error under strict validation.
func (o *Orchestrator) validate(run *Run, log *zap.Logger) error {
	for _, c := range calc.CheckBalanceSheets(run.Statements.Balance) {
		if c.Within(o.validation.BalanceSheetTolerance) {
			continue
		}
		msg := fmt.Sprintf("%s: balance sheet mismatch > %.2f%% tolerance (assets %.2f, liabilities+equity %.2f, diff %.2f)",
			c.Year, o.validation.BalanceSheetTolerance, c.TotalAssets, c.TotalLiabilities+c.TotalEquity, c.Diff)
		if o.validation.EnableStrictValidation {
			return fmt.Errorf("validation failed: %s", msg)
		}
		log.Warn("validation warning", zap.String("detail", msg))
		run.Warnings = append(run.Warnings, msg)
	}
	return nil
}
