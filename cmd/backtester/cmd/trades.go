package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Query journaled runs and trades",
	Long: `Trades queries the SQLite journal written by 'run --db'.

Without arguments it lists recent runs. With a run ID it lists that run's
trades, optionally as CSV.

Examples:
  backtester trades --db runs.sqlite
  backtester trades --db runs.sqlite 01JC...
  backtester trades --db runs.sqlite 01JC... --csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrades,
}

var (
	tradesDBPath string
	tradesCSV    bool
)

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVarP(&tradesDBPath, "db", "d", "./backtester.sqlite", "path to SQLite journal DB")
	tradesCmd.Flags().BoolVar(&tradesCSV, "csv", false, "emit trades as CSV")
}

func runTrades(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(tradesDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	if len(args) == 0 {
		runs, err := j.ListRuns(20)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs journaled")
			return nil
		}
		fmt.Printf("%-26s %-20s %-16s %7s %10s %8s\n", "RUN", "CREATED", "STRATEGY", "TRADES", "PNL", "WIN%")
		for _, r := range runs {
			fmt.Printf("%-26s %-20s %-16s %7d %10.2f %8.2f\n",
				r.RunID, r.Created.Format(time.DateTime), r.Strategy, r.Trades, r.TotalPnL, r.WinRate)
		}
		return nil
	}

	runID := args[0]
	trades, err := j.ListTrades(runID)
	if err != nil {
		return err
	}

	if tradesCSV {
		return journal.ExportTrades(os.Stdout, trades)
	}

	run, err := j.GetRun(runID)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: %s on %s (%d trades)\n\n", run.RunID, run.Strategy, run.Dataset, run.Trades)
	fmt.Printf("%-26s %-6s %10s %10s %10s %8s %-12s\n", "TRADE", "SIDE", "ENTRY", "EXIT", "PNL", "PNL%", "REASON")
	for _, t := range trades {
		fmt.Printf("%-26s %-6s %10.4f %10.4f %10.2f %8.2f %-12s\n",
			t.TradeID, t.Side, t.EntryPrice, t.ExitPrice, t.PnL, t.PnLPercent, t.Reason)
	}
	return nil
}
