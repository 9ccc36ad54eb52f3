package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategy"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run every strategy file in a directory against one dataset",
	Long: `Sweep loads every strategy definition (*.yaml, *.yml, *.json) in a
directory and backtests them concurrently against the same bar CSV.

Example:
  backtester sweep --data bars.csv --strategies ./strategies`,
	RunE: runSweep,
}

var (
	sweepDataPath string
	sweepDir      string
	sweepCapital  float64
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepDataPath, "data", "t", "", "path to bar CSV (required)")
	sweepCmd.Flags().StringVarP(&sweepDir, "strategies", "s", "", "directory of strategy files (required)")
	sweepCmd.Flags().Float64VarP(&sweepCapital, "capital", "b", 100_000, "initial capital per run")

	sweepCmd.MarkFlagRequired("data")
	sweepCmd.MarkFlagRequired("strategies")
}

func runSweep(cmd *cobra.Command, args []string) error {
	bars, err := market.LoadCSV(sweepDataPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	entries, err := os.ReadDir(sweepDir)
	if err != nil {
		return err
	}

	var defs []strategy.Definition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		def, err := config.LoadStrategy(filepath.Join(sweepDir, e.Name()))
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return fmt.Errorf("no strategy files in %s", sweepDir)
	}

	cfg := backtest.Config{InitialCapital: sweepCapital, CloseAtEnd: true}
	results := backtest.Sweep(cmd.Context(), bars, defs, cfg)

	sort.Slice(results, func(i, j int) bool {
		return results[i].Result.Metrics.TotalPnL > results[j].Result.Metrics.TotalPnL
	})

	fmt.Printf("%-24s %8s %10s %8s %8s %8s\n", "STRATEGY", "TRADES", "PNL", "WIN%", "SHARPE", "MAXDD%")
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-24s error: %v\n", r.Name, r.Err)
			continue
		}
		m := r.Result.Metrics
		fmt.Printf("%-24s %8d %10.2f %8.2f %8.3f %8.2f\n",
			r.Name, m.TotalTrades, m.TotalPnL, m.WinRate, m.Sharpe, m.MaxDrawdownPercent)
	}
	return nil
}
