package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/backtester/analytics"
)

// WriteReport prints a human-readable run summary.
func WriteReport(w io.Writer, name string, res Result) {
	m := res.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Strategy:      %s\n", name)

	if len(res.Equity) > 0 {
		fmt.Fprintf(w, "Start:         %s\n", res.Equity[0].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", res.Equity[len(res.Equity)-1].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "Bars:          %d\n", len(res.Equity))
		fmt.Fprintf(w, "Final Equity:  %.2f\n", res.Equity[len(res.Equity)-1].Value)
	} else {
		fmt.Fprintln(w, "No bars simulated (series shorter than indicator warm-up)")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total P&L:     %.2f (%.2f%%)\n", m.TotalPnL, m.TotalPnLPercent)
	fmt.Fprintf(w, "CAGR:          %.2f%%\n", m.CAGR*100)
	fmt.Fprintf(w, "Sharpe:        %.3f\n", m.Sharpe)
	fmt.Fprintf(w, "Sortino:       %.3f\n", m.Sortino)
	fmt.Fprintf(w, "Calmar:        %.3f\n", m.Calmar)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", m.MaxDrawdownPercent)
	fmt.Fprintf(w, "VaR 95:        %.2f%%\n", m.VaR95)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", m.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", m.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate)
	fmt.Fprintf(w, "Profit Factor: %.3f\n", m.ProfitFactor)
	fmt.Fprintf(w, "Expectancy:    %.2f%%\n", m.Expectancy)
	fmt.Fprintf(w, "Avg Duration:  %.1f days\n", m.AvgTradeDurationDays)
	fmt.Fprintf(w, "Best/Worst:    %.2f%% / %.2f%%\n", m.BestTradePercent, m.WorstTradePercent)
	fmt.Fprintln(w, "==================================================")
}

// WriteBenchmarkReport prints the buy-and-hold comparison section.
func WriteBenchmarkReport(w io.Writer, cmp analytics.BenchmarkComparison) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Benchmark (buy & hold)")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Strategy:      %.2f%%\n", cmp.StrategyReturnPct)
	fmt.Fprintf(w, "Benchmark:     %.2f%%\n", cmp.BenchmarkReturnPct)
	fmt.Fprintf(w, "Excess:        %.2f%%\n", cmp.ExcessReturnPct)
	fmt.Fprintf(w, "Beta:          %.3f\n", cmp.Beta)
	fmt.Fprintf(w, "Alpha:         %.2f%%\n", cmp.Alpha)
	fmt.Fprintf(w, "Correlation:   %.3f\n", cmp.Correlation)
	fmt.Fprintf(w, "Tracking Err:  %.2f%%\n", cmp.TrackingError)
	fmt.Fprintf(w, "Info Ratio:    %.3f\n", cmp.InformationRatio)
}
