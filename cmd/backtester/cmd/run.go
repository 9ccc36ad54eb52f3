package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/analytics"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a strategy backtest over a bar dataset",
	Long: `Run simulates one strategy definition against a historical bar CSV and
prints a performance report.

Either point it at a full run configuration:
  backtester run --config run.yaml

or name the pieces directly:
  backtester run --data bars.csv --strategy ema-trend.yaml --capital 50000`,
	RunE: runRun,
}

var (
	runConfigPath   string
	runDataPath     string
	runStrategyPath string
	runCapital      float64
	runCloseEnd     bool
	runDBPath       string
	runBenchmark    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to run configuration (YAML or JSON)")
	runCmd.Flags().StringVarP(&runDataPath, "data", "t", "", "path to bar CSV (time,open,high,low,close,volume)")
	runCmd.Flags().StringVarP(&runStrategyPath, "strategy", "s", "", "path to strategy definition (YAML or JSON)")
	runCmd.Flags().Float64VarP(&runCapital, "capital", "b", 100_000, "initial capital")
	runCmd.Flags().BoolVar(&runCloseEnd, "close-end", true, "force-close an open position at the final bar")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "journal the run to this SQLite DB")
	runCmd.Flags().BoolVar(&runBenchmark, "benchmark", true, "print buy-and-hold benchmark comparison")
}

func runRun(cmd *cobra.Command, args []string) error {
	var (
		dataPath string
		def      strategy.Definition
		btCfg    backtest.Config
		dbPath   = runDBPath
		err      error
	)

	switch {
	case runConfigPath != "":
		cfg, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return err
		}
		def, err = cfg.Strategy.Definition()
		if err != nil {
			return err
		}
		dataPath = cfg.Data.CSV
		btCfg = backtest.Config{
			InitialCapital: cfg.Backtest.InitialCapital,
			CloseAtEnd:     cfg.Backtest.CloseEnd(),
		}
		if dbPath == "" && cfg.Journal.Type == "sqlite" {
			dbPath = cfg.Journal.DBPath
		}

	case runDataPath != "" && runStrategyPath != "":
		def, err = config.LoadStrategy(runStrategyPath)
		if err != nil {
			return err
		}
		dataPath = runDataPath
		btCfg = backtest.Config{
			InitialCapital: runCapital,
			CloseAtEnd:     runCloseEnd,
		}

	default:
		return fmt.Errorf("either --config or both --data and --strategy are required")
	}

	bars, err := market.LoadCSV(dataPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	res, err := backtest.Run(bars, def, btCfg)
	if err != nil {
		return err
	}

	backtest.WriteReport(os.Stdout, def.Name, res)
	if runBenchmark && len(res.Equity) > 1 {
		cmp := analytics.CompareBenchmark(res.Values(), res.BenchmarkValues(), btCfg.Metrics)
		backtest.WriteBenchmarkReport(os.Stdout, cmp)
	}

	if dbPath != "" {
		j, err := journal.NewSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()

		runID, err := journal.Record(j, def.Name, dataPath, btCfg.InitialCapital, res)
		if err != nil {
			return fmt.Errorf("journal run: %w", err)
		}
		fmt.Printf("\nJournaled run %s to %s\n", runID, dbPath)
	}
	return nil
}
