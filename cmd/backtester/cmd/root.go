package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A rule-based trading strategy backtester",
	Long: `Backtester simulates declarative trading strategies against historical
OHLCV bars and reports performance analytics.

It provides tools for:
  - Running a strategy definition over a bar dataset
  - Sweeping many strategy files concurrently over one dataset
  - Journaling runs, trades, and equity curves to SQLite
  - Exporting the trade ledger as CSV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
