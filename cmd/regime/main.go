package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the regime CLI.
var rootCmd = &cobra.Command{
	Use:   "regime",
	Short: "Macro regime assessment from Polymarket prediction markets",
	Long: `regime reads a catalog of Polymarket events, normalizes their market prices
into probabilities, derives rate-cut and company signals, asks a language model
for a structured regime report and corrects that report against hard rules.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, analyzeCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
