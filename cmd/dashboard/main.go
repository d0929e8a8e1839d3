package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"financial_dashboard/pkg/client"
	"financial_dashboard/pkg/config"
	"financial_dashboard/pkg/core/chart"
	"financial_dashboard/pkg/core/dashboard"
	"financial_dashboard/pkg/logging"
)

var (
	apiURL   string
	symbol   string
	filename string
	tab      string
	plain    bool
	timeout  time.Duration
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "Terminal dashboard for the financials API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		_, err := logging.Init(level)
		return err
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Load a symbol or results file and print the table, KPIs and charts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := load(cmd.Context())
		if s == nil {
			return err
		}
		if tab != "" {
			if _, terr := s.SelectTab(tab); terr != nil {
				return terr
			}
		}
		if rerr := dashboard.Render(cmd.OutOrStdout(), styles(), s.View(), s.Status()); rerr != nil {
			return rerr
		}
		if errors.Is(err, dashboard.ErrNoNumericData) {
			return nil
		}
		return err
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Load a symbol and print the AI analysis of its latest year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := load(cmd.Context())
		if s == nil {
			return err
		}
		a, err := s.Analyze(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), dashboard.RenderAnalysis(styles(), a))
		return nil
	},
}

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Print the AI business description of a symbol",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		resp, err := newClient().Company(ctx, symbol, "")
		if err != nil {
			return err
		}
		st := styles()
		fmt.Fprintln(cmd.OutOrStdout(), st.Title.Render(resp.Symbol)+"  "+st.Muted.Render(resp.Source))
		fmt.Fprintln(cmd.OutOrStdout(), resp.Description)
		return nil
	},
}

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Print the raw statement sections of a symbol as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		resp, err := newClient().RawFinancials(ctx, symbol)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	cfg := config.Load()

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", cfg.DashboardAPIURL, "Financials API base URL")
	rootCmd.PersistentFlags().StringVarP(&symbol, "symbol", "s", "", "Ticker symbol")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Disable colors")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, c := range []*cobra.Command{showCmd, analyzeCmd} {
		c.Flags().StringVarP(&filename, "file", "f", "", "Results file under the API's results directory")
	}
	showCmd.Flags().StringVarP(&tab, "tab", "t", "", fmt.Sprintf("Ratio tab (default %q)", chart.RatioTabs[0].Name))

	rootCmd.AddCommand(showCmd, analyzeCmd, companyCmd, rawCmd)
}

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(apiURL, client.WithLogger(logging.Named("client")))
}

func styles() dashboard.Styles {
	if plain {
		return dashboard.PlainStyles()
	}
	return dashboard.DefaultStyles()
}

// load submits the symbol/file once. It returns a nil session only when
// nothing can be rendered.
func load(ctx context.Context) (*dashboard.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s := dashboard.NewSession(newClient(), nil, logging.Named("dashboard"))
	_, err := s.Submit(ctx, symbol, filename)
	if err != nil && s.View() == nil {
		logging.L().Debug("load failed", zap.Error(err))
		return nil, fmt.Errorf("%s", s.Status().Message)
	}
	return s, err
}
