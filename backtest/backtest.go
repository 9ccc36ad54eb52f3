// Package backtest simulates a rule-based strategy over a historical bar
// series: a strictly sequential bar-by-bar state machine holding at most one
// open position, emitting closed trades, and tracking the equity curve.
package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/analytics"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/strategy"
)

// Exit reasons recorded on closed trades.
const (
	ReasonExitSignal = "exit-signal"
	ReasonStopLoss   = "stop-loss"
	ReasonTakeProfit = "take-profit"
	ReasonEndOfData  = "end-of-data"
)

// Config controls one run.
type Config struct {
	// InitialCapital is the starting portfolio value. Must be positive.
	InitialCapital float64

	// CloseAtEnd force-closes a position still open at the final bar
	// (reason end-of-data). When false the open position is discarded and
	// never reaches the trade ledger. The two policies are never mixed.
	CloseAtEnd bool

	// Cache memoizes indicator series across runs. Optional; a run without
	// one computes indicators directly, with identical results.
	Cache *indicators.Cache

	// Metrics options (annualization base, risk-free rate).
	Metrics analytics.Options
}

// DefaultConfig returns the standard run configuration: 100k starting
// capital and force-close at the end of the data.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100_000,
		CloseAtEnd:     true,
	}
}

func (c Config) validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("backtest: initial capital must be positive, got %g", c.InitialCapital)
	}
	return nil
}

// Position is the ephemeral state held while a trade is open. At most one
// exists at any bar; it never outlives a run.
type Position struct {
	Side       strategy.Direction
	EntryPrice float64
	EntryTime  time.Time
	EntryIndex int
	Quantity   float64
}

// Trade is the immutable record emitted when a position closes.
// PnL is exactly (exit-entry) * quantity * sign(side).
type Trade struct {
	ID         string
	Side       strategy.Direction
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	Quantity   float64
	PnL        float64
	PnLPercent float64
	Reason     string
}

// EquityPoint is one portfolio valuation, recorded per simulated bar from
// the warm-up offset onward.
type EquityPoint struct {
	Index int
	Time  time.Time
	Value float64
}

// Result is everything one run produces. Either the full set is returned or
// the run fails before any output; there is no partial-failure mode.
type Result struct {
	Trades  []Trade
	Metrics analytics.Metrics

	// Equity, Drawdown, and Benchmark are aligned index-for-index.
	// Drawdown is fractional decline from the running equity peak.
	// Benchmark is buy-and-hold of the same bars scaled to initial capital.
	Equity    []EquityPoint
	Drawdown  []float64
	Benchmark []EquityPoint
}

// Values returns the bare equity curve.
func (r Result) Values() []float64 {
	return equityValues(r.Equity)
}

// BenchmarkValues returns the bare benchmark curve.
func (r Result) BenchmarkValues() []float64 {
	return equityValues(r.Benchmark)
}

func equityValues(points []EquityPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
