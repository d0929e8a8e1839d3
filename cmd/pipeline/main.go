package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"financial_dashboard/pkg/config"
	"financial_dashboard/pkg/core/calc"
	"financial_dashboard/pkg/core/ingest"
	"financial_dashboard/pkg/core/pipeline"
	"financial_dashboard/pkg/core/store"
	"financial_dashboard/pkg/logging"
)

var (
	symbols     []string
	yearsFlag   string
	refresh     bool
	strict      bool
	tolerance   float64
	concurrency int
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Compute ratios and valuations from statements files",
	Long: `Reads <DATA_DIR>/<SYMBOL>_financials.json for each symbol, checks the
balance sheets, computes the per-year ratios, runs the DCF and writes
result.json/result.csv and valuation.json/valuation.csv under EXPORT_DIR.
With several symbols each one is exported to EXPORT_DIR/<SYMBOL>.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPipeline,
}

func init() {
	rootCmd.Flags().StringSliceVarP(&symbols, "symbol", "s", nil, "Ticker(s) to process, repeatable or comma separated")
	rootCmd.Flags().StringVar(&yearsFlag, "years", "", `Years to keep, e.g. "2019-2023" or "2021,2023" (default: all)`)
	rootCmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch a live quote before computing")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "Fail a symbol whose balance sheet does not balance")
	rootCmd.Flags().Float64Var(&tolerance, "tolerance", calc.DefaultBalanceTolerance, "Balance sheet tolerance in percent of total assets")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Symbols processed in parallel")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkFlagRequired("symbol")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.Init(level)
	if err != nil {
		return err
	}
	defer logging.Sync()

	var years []int
	if strings.TrimSpace(yearsFlag) != "" {
		if years, err = calc.ParseYears(yearsFlag, time.Now()); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var quotes ingest.QuoteSource
	if refresh {
		quotes = ingest.NewYahooQuotes(cfg.QuoteRPS)
	}
	statements := ingest.NewStatementLoader(cfg.DataDir, quotes, logger.Named("ingest"))

	var snapshots pipeline.SnapshotSaver
	if cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
			return err
		}
		snapshots = store.NewSnapshotRepo(store.GetPool(), cfg.SnapshotDir)
	} else if cfg.SnapshotDir != "" {
		snapshots = store.NewSnapshotRepo(nil, cfg.SnapshotDir)
	}

	unique := dedupe(symbols)
	var (
		mu   sync.Mutex
		runs []*pipeline.Run
		fail []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, sym := range unique {
		g.Go(func() error {
			exportDir := cfg.ExportDir
			if len(unique) > 1 {
				exportDir = filepath.Join(cfg.ExportDir, sym)
			}
			o := pipeline.NewOrchestrator(statements, store.NewExporter(exportDir), cfg.Assumptions(), logger.Named("pipeline"))
			o.SetValidationConfig(pipeline.ValidationConfig{EnableStrictValidation: strict, BalanceSheetTolerance: tolerance})
			if snapshots != nil {
				o.SetSnapshots(snapshots)
			}

			run, err := o.RunForSymbol(gctx, sym, years, refresh)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("pipeline failed", zap.String("symbol", sym), zap.Error(err))
				fail = append(fail, fmt.Sprintf("%s: %v", sym, err))
				return nil
			}
			runs = append(runs, run)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Symbol < runs[j].Symbol })
	out := cmd.OutOrStdout()
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %d year(s)  %s\n", r.Symbol, r.Rows.Len(), summary(r))
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		for _, p := range r.Exported {
			fmt.Fprintf(out, "  wrote %s\n", p)
		}
	}
	if len(fail) > 0 {
		sort.Strings(fail)
		for _, f := range fail {
			fmt.Fprintf(out, "FAILED %s\n", f)
		}
		return fmt.Errorf("%d of %d symbol(s) failed", len(fail), len(unique))
	}
	return nil
}

func summary(r *pipeline.Run) string {
	if r.Valuation == nil {
		return "valuation: " + r.ValuationError
	}
	v := r.Valuation
	s := fmt.Sprintf("sector %s, WACC %.2f%%, g %.2f%%, equity %.0f", v.Sector, v.WACCUsed*100, v.TerminalGrowthUsed*100, v.IntrinsicEquityValue)
	if v.IntrinsicValuePerShare != nil {
		s += fmt.Sprintf(", %.2f/share", *v.IntrinsicValuePerShare)
	}
	return s
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
