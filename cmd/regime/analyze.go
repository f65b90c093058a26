package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoPolymarket/polymarket-regime/internal/app"
)

var (
	analyzeEvents    []string
	analyzeCompanies []string
	analyzeRefresh   bool
	analyzeVerbose   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis and print the result as JSON",
	Example: `  regime analyze --events us_recession_2026,fed_rate_cuts_2026 --companies NVDA
  regime analyze --events nvidia_february_2026 --companies NVDA --refresh --verbose`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeEvents, "events", nil, "event keys to read (see 'regime events')")
	analyzeCmd.Flags().StringSliceVar(&analyzeCompanies, "companies", nil, "company tickers to score")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "ignore the market snapshot and fetch live")
	analyzeCmd.Flags().BoolVar(&analyzeVerbose, "verbose", false, "print signals and corrections alongside the report")
	_ = analyzeCmd.MarkFlagRequired("events")
	_ = analyzeCmd.MarkFlagRequired("companies")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newDeps(ctx)
	if err != nil {
		return err
	}
	res, err := rt.app.Analyze(ctx, app.Request{
		Events:    analyzeEvents,
		Companies: analyzeCompanies,
		Refresh:   analyzeRefresh,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if analyzeVerbose {
		return enc.Encode(res)
	}
	return enc.Encode(res.Payload())
}
