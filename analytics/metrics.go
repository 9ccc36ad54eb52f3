// Package analytics reduces a closed trade ledger and equity curve into
// summary performance statistics. Every function is pure; degenerate inputs
// (no trades, zero variance, zero drawdown) produce documented zero values
// rather than NaN or Inf.
package analytics

import (
	"math"
	"sort"
	"time"
)

// PeriodsPerYear is the default annualization base: 252 trading days.
const PeriodsPerYear = 252.0

// Options adjusts the aggregation. The zero value selects the defaults.
type Options struct {
	// PeriodsPerYear overrides the annualization base when positive.
	PeriodsPerYear float64

	// RiskFreeRate is the annual risk-free rate used by the benchmark
	// comparison (alpha). Fractional, e.g. 0.02 for 2%.
	RiskFreeRate float64
}

func (o Options) periods() float64 {
	if o.PeriodsPerYear > 0 {
		return o.PeriodsPerYear
	}
	return PeriodsPerYear
}

// TradeReturn is the per-trade view the aggregator consumes: realized P&L,
// the percentage return on the capital committed, and holding time.
type TradeReturn struct {
	PnL       float64
	ReturnPct float64
	Duration  time.Duration
}

// Metrics is the stateless summary computed once at the end of a run.
// Ratios follow the usual conventions: CAGR is fractional, everything with a
// Pct/Percent suffix is in percent.
type Metrics struct {
	TotalPnL        float64
	TotalPnLPercent float64
	CAGR            float64

	Sharpe  float64
	Sortino float64
	Calmar  float64

	MaxDrawdownPercent float64
	VaR95              float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	AvgTradeDurationDays float64

	ProfitFactor      float64
	Expectancy        float64
	AvgWinPercent     float64
	AvgLossPercent    float64
	BestTradePercent  float64
	WorstTradePercent float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
}

// Compute aggregates trades, the equity curve, and the aligned fractional
// drawdown series into a Metrics snapshot. With zero trades every field is
// zero; no ratio ever divides by zero.
func Compute(trades []TradeReturn, equity, drawdown []float64, initialCapital float64, opts Options) Metrics {
	var m Metrics
	if len(trades) == 0 {
		return m
	}

	periods := opts.periods()

	returns := make([]float64, len(trades))
	var totalDuration time.Duration
	var grossProfit, grossLoss float64
	var streakWins, streakLosses int
	m.BestTradePercent = math.Inf(-1)
	m.WorstTradePercent = math.Inf(1)

	for i, t := range trades {
		returns[i] = t.ReturnPct
		m.TotalPnL += t.PnL
		totalDuration += t.Duration

		if t.PnL > 0 {
			m.WinningTrades++
			grossProfit += t.PnL
			streakWins++
			streakLosses = 0
		} else {
			m.LosingTrades++
			grossLoss += -t.PnL
			streakLosses++
			streakWins = 0
		}
		if streakWins > m.MaxConsecutiveWins {
			m.MaxConsecutiveWins = streakWins
		}
		if streakLosses > m.MaxConsecutiveLosses {
			m.MaxConsecutiveLosses = streakLosses
		}
		if t.ReturnPct > m.BestTradePercent {
			m.BestTradePercent = t.ReturnPct
		}
		if t.ReturnPct < m.WorstTradePercent {
			m.WorstTradePercent = t.ReturnPct
		}
	}

	m.TotalTrades = len(trades)
	if initialCapital > 0 {
		m.TotalPnLPercent = m.TotalPnL / initialCapital * 100
	}
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	m.AvgTradeDurationDays = totalDuration.Hours() / 24 / float64(m.TotalTrades)

	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	}
	m.Expectancy = mean(returns)

	var winPcts, lossPcts []float64
	for i, t := range trades {
		if t.PnL > 0 {
			winPcts = append(winPcts, returns[i])
		} else {
			lossPcts = append(lossPcts, returns[i])
		}
	}
	m.AvgWinPercent = mean(winPcts)
	m.AvgLossPercent = mean(lossPcts)

	m.CAGR = cagr(equity, periods)
	m.MaxDrawdownPercent = maxDrawdownPercent(drawdown)
	m.Sharpe = sharpe(returns, periods)
	m.Sortino = sortino(returns, periods)
	if m.MaxDrawdownPercent > 0 {
		m.Calmar = m.CAGR * 100 / m.MaxDrawdownPercent
	}
	m.VaR95 = valueAtRisk95(returns)

	return m
}

// cagr is the compound growth rate of the equity curve, annualized over
// periodsPerYear observations per year.
func cagr(equity []float64, periodsPerYear float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	first, last := equity[0], equity[len(equity)-1]
	if first <= 0 || last <= 0 {
		return 0
	}
	return math.Pow(last/first, periodsPerYear/float64(len(equity))) - 1
}

func maxDrawdownPercent(drawdown []float64) float64 {
	max := 0.0
	for _, d := range drawdown {
		if d > max {
			max = d
		}
	}
	return max * 100
}

// sharpe is mean/stddev of per-trade percent returns scaled by the square
// root of the annualization base. Zero when the sample standard deviation
// is zero or undefined.
func sharpe(returns []float64, periodsPerYear float64) float64 {
	sd := sampleStddev(returns)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(periodsPerYear)
}

// sortino replaces the denominator with the population standard deviation
// of the negative returns only. Zero when there are no negative returns or
// the downside deviation is zero.
func sortino(returns []float64, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sd := populationStddev(downside)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(periodsPerYear)
}

// valueAtRisk95 is the 5th percentile of the sorted per-trade return
// distribution, at index floor(n*0.05).
func valueAtRisk95(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	return sorted[int(math.Floor(float64(len(sorted))*0.05))]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func populationStddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
