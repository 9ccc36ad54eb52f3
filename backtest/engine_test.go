package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategy"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// sma1 tracks the raw close, which makes price thresholds directly testable.
func sma1(op strategy.Operator, threshold float64) strategy.Condition {
	return strategy.Condition{
		Indicator: indicators.Spec{Kind: indicators.KindSMA, Period: 1},
		Op:        op,
		Threshold: threshold,
	}
}

func testConfig(capital float64) Config {
	return Config{InitialCapital: capital, CloseAtEnd: true}
}

// assertLedgerConsistent checks the accounting identities every closed trade
// and final equity value must satisfy.
func assertLedgerConsistent(t *testing.T, res Result, initialCapital float64) {
	t.Helper()

	var total float64
	for _, tr := range res.Trades {
		want := (tr.ExitPrice - tr.EntryPrice) * tr.Quantity * float64(tr.Side)
		assert.InDelta(t, want, tr.PnL, 1e-9)
		assert.NotEmpty(t, tr.ID)
		assert.False(t, tr.ExitTime.Before(tr.EntryTime))
		total += tr.PnL
	}

	require.NotEmpty(t, res.Equity)
	final := res.Equity[len(res.Equity)-1].Value
	assert.InDelta(t, initialCapital+total, final, 1e-6,
		"final equity must equal initial capital plus realized P&L")

	require.Equal(t, len(res.Equity), len(res.Drawdown))
	require.Equal(t, len(res.Equity), len(res.Benchmark))
	for _, d := range res.Drawdown {
		assert.GreaterOrEqual(t, d, 0.0)
	}
}

func TestRunSeriesShorterThanWarmup(t *testing.T) {
	def := strategy.Definition{
		Name:      "too-short",
		Direction: strategy.Long,
		Entry: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindEMA, Period: 20},
			Op:        strategy.OpGT,
		}},
		Risk: strategy.RiskManagement{PositionSizePct: 100},
	}

	res, err := Run(market.Ramp(10, 100, 1, testStart), def, testConfig(100_000))
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.Empty(t, res.Equity)
	assert.Zero(t, res.Metrics.TotalTrades)
}

func TestRunNoEntrySignal(t *testing.T) {
	def := strategy.Definition{
		Name:      "never",
		Direction: strategy.Long,
		Entry: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindSMA, Period: 5},
			Op:        strategy.OpGT,
			Threshold: 105, // flat series never reaches this
		}},
		Risk: strategy.RiskManagement{PositionSizePct: 100},
	}

	res, err := Run(market.Flat(30, 100, testStart), def, testConfig(50_000))
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	require.Len(t, res.Equity, 26) // 30 bars minus 4 warm-up
	for i, p := range res.Equity {
		assert.Equal(t, 50_000.0, p.Value)
		assert.Zero(t, res.Drawdown[i])
	}
	assert.Zero(t, res.Metrics.TotalTrades)
}

func TestRunUptrendHoldToEnd(t *testing.T) {
	// 60 rising closes 100..159. The entry arms at the EMA warm-up; the RSI
	// exit never fires on constant unit gains, so the position rides to the
	// final bar and is force-closed there.
	bars := market.Ramp(60, 100, 1, testStart)
	def := strategy.Definition{
		Name:      "trend",
		Direction: strategy.Long,
		Entry: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindEMA, Period: 20},
			Op:        strategy.OpGT,
		}},
		Exit: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindRSI, Period: 14},
			Op:        strategy.OpGT,
			Threshold: 70,
		}},
		Risk: strategy.RiskManagement{PositionSizePct: 100},
	}

	res, err := Run(bars, def, testConfig(100_000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, bars[19].Time, tr.EntryTime)
	assert.Equal(t, 119.0, tr.EntryPrice)
	assert.Equal(t, 159.0, tr.ExitPrice)
	assert.Equal(t, ReasonEndOfData, tr.Reason)
	assert.InDelta(t, 100_000.0/119*40, tr.PnL, 1e-6)

	assert.InDelta(t, 100, res.Metrics.WinRate, 1e-12)
	assertLedgerConsistent(t, res, 100_000)

	// Fully invested from the warm-up bar: the curve matches buy-and-hold.
	assert.InDelta(t,
		res.Benchmark[len(res.Benchmark)-1].Value,
		res.Equity[len(res.Equity)-1].Value, 1e-6)
	for _, d := range res.Drawdown {
		assert.Zero(t, d, "monotonic equity has zero drawdown")
	}
}

func TestRunRSIExitFires(t *testing.T) {
	// Accelerating gains keep the average loss at zero and drive RSI far
	// above 70, so every position closes on the exit signal the bar after it
	// opens, and a new one opens the bar after that.
	closes := make([]float64, 30)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] + float64(i)
	}
	bars := market.FromCloses(closes, testStart)

	def := strategy.Definition{
		Name:      "rsi-exit",
		Direction: strategy.Long,
		Entry: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindEMA, Period: 5},
			Op:        strategy.OpGT,
		}},
		Exit: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindRSI, Period: 14},
			Op:        strategy.OpGT,
			Threshold: 70,
		}},
		Risk: strategy.RiskManagement{PositionSizePct: 100},
	}

	res, err := Run(bars, def, testConfig(100_000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 8) // opens on bars 14,16,...,28
	for _, tr := range res.Trades {
		assert.Equal(t, ReasonExitSignal, tr.Reason)
		assert.Greater(t, tr.PnL, 0.0)
		assert.Equal(t, 24*time.Hour, tr.ExitTime.Sub(tr.EntryTime))
	}
	assertLedgerConsistent(t, res, 100_000)
}

func TestRunStopLoss(t *testing.T) {
	bars := market.FromCloses([]float64{100, 100, 94, 100}, testStart)
	def := strategy.Definition{
		Name:      "stopped",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGE, 100)},
		Risk:      strategy.RiskManagement{StopLossPct: 5, PositionSizePct: 100},
	}

	res, err := Run(bars, def, testConfig(1000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, ReasonStopLoss, res.Trades[0].Reason)
	assert.InDelta(t, -60, res.Trades[0].PnL, 1e-9) // 10 units, 6 against

	// Re-entry on the last bar is closed by the end-of-data policy.
	assert.Equal(t, ReasonEndOfData, res.Trades[1].Reason)
	assert.InDelta(t, 0, res.Trades[1].PnL, 1e-9)
	assertLedgerConsistent(t, res, 1000)
}

func TestRunTakeProfit(t *testing.T) {
	bars := market.FromCloses([]float64{100, 103, 106}, testStart)
	def := strategy.Definition{
		Name:      "target",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGE, 100)},
		Risk:      strategy.RiskManagement{TakeProfitPct: 5, PositionSizePct: 100},
	}

	res, err := Run(bars, def, testConfig(1000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ReasonTakeProfit, res.Trades[0].Reason)
	assert.InDelta(t, 60, res.Trades[0].PnL, 1e-9)
}

func TestRunExitSignalBeatsStopLoss(t *testing.T) {
	// Bar 1 trips both the rule exit and the stop-loss; the rule exit wins.
	bars := market.FromCloses([]float64{100, 90, 92}, testStart)
	def := strategy.Definition{
		Name:      "priority",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGE, 100)},
		Exit:      []strategy.Condition{sma1(strategy.OpLT, 95)},
		Risk:      strategy.RiskManagement{StopLossPct: 5, PositionSizePct: 100},
	}

	res, err := Run(bars, def, testConfig(1000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ReasonExitSignal, res.Trades[0].Reason)
}

func TestRunLongShortSymmetry(t *testing.T) {
	bars := market.FromCloses([]float64{100, 90, 95, 108, 100}, testStart)
	def := strategy.Definition{
		Name:      "dip",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpLT, 95)},
		Exit:      []strategy.Condition{sma1(strategy.OpGT, 105)},
		Risk:      strategy.RiskManagement{PositionSizePct: 50},
	}

	long, err := Run(bars, def, testConfig(10_000))
	require.NoError(t, err)

	def.Direction = strategy.Short
	short, err := Run(bars, def, testConfig(10_000))
	require.NoError(t, err)

	require.Len(t, long.Trades, 1)
	require.Len(t, short.Trades, 1)

	assert.InDelta(t, 1000, long.Trades[0].PnL, 1e-9) // 5000/90 units, 18 in favor
	assert.InDelta(t, -1000, short.Trades[0].PnL, 1e-9)
	assert.InDelta(t, 20, long.Trades[0].PnLPercent, 1e-9)
	assert.InDelta(t, -20, short.Trades[0].PnLPercent, 1e-9)

	assertLedgerConsistent(t, long, 10_000)
	assertLedgerConsistent(t, short, 10_000)
}

func TestRunSameBarEntryExitConditions(t *testing.T) {
	// Entry and exit both always true: a position closed on a bar cannot
	// re-open until the next, so trades alternate open/close bars.
	bars := market.Flat(10, 100, testStart)
	def := strategy.Definition{
		Name:      "churn",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGT, 0)},
		Exit:      []strategy.Condition{sma1(strategy.OpGT, 0)},
		Risk:      strategy.RiskManagement{PositionSizePct: 100},
	}

	cfg := testConfig(1000)
	cfg.CloseAtEnd = false
	res, err := Run(bars, def, cfg)
	require.NoError(t, err)

	require.Len(t, res.Trades, 5)
	for _, tr := range res.Trades {
		assert.Equal(t, 24*time.Hour, tr.ExitTime.Sub(tr.EntryTime))
		assert.InDelta(t, 0, tr.PnL, 1e-9)
	}
	assertLedgerConsistent(t, res, 1000)
}

func TestRunDowntrendDrawdown(t *testing.T) {
	bars := market.Ramp(10, 100, -1, testStart) // 100 down to 91
	def := strategy.Definition{
		Name:      "hold",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGT, 0)},
		Risk:      strategy.RiskManagement{PositionSizePct: 100},
	}

	res, err := Run(bars, def, testConfig(1000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.InDelta(t, -90, res.Trades[0].PnL, 1e-9)
	assert.InDelta(t, 9, res.Metrics.MaxDrawdownPercent, 1e-9)
	require.Len(t, res.Drawdown, 10)
	assert.InDelta(t, 0.09, res.Drawdown[9], 1e-12)
	assertLedgerConsistent(t, res, 1000)
}

func TestRunCloseAtEndDisabled(t *testing.T) {
	bars := market.Ramp(10, 100, 1, testStart)
	def := strategy.Definition{
		Name:      "discard",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGT, 0)},
		Risk:      strategy.RiskManagement{PositionSizePct: 100},
	}

	cfg := testConfig(1000)
	cfg.CloseAtEnd = false
	res, err := Run(bars, def, cfg)
	require.NoError(t, err)

	// The open position never reaches the ledger, but the equity curve still
	// reflects its mark-to-market value.
	assert.Empty(t, res.Trades)
	assert.InDelta(t, 1090, res.Equity[len(res.Equity)-1].Value, 1e-9)
	assert.Zero(t, res.Metrics.TotalTrades)
}

func TestRunWithCacheIsIdentical(t *testing.T) {
	bars := market.Ramp(60, 100, 1, testStart)
	def := strategy.Definition{
		Name:      "cached",
		Direction: strategy.Long,
		Entry: []strategy.Condition{{
			Indicator: indicators.Spec{Kind: indicators.KindEMA, Period: 20},
			Op:        strategy.OpGT,
		}},
		Risk: strategy.RiskManagement{PositionSizePct: 100},
	}

	plain, err := Run(bars, def, testConfig(100_000))
	require.NoError(t, err)

	cfg := testConfig(100_000)
	cfg.Cache = indicators.NewCache(0)
	cached, err := Run(bars, def, cfg)
	require.NoError(t, err)

	assert.Equal(t, plain.Equity, cached.Equity)
	assert.Equal(t, plain.Drawdown, cached.Drawdown)
	assert.Equal(t, plain.Metrics, cached.Metrics)

	require.Equal(t, len(plain.Trades), len(cached.Trades))
	for i := range plain.Trades {
		a, b := plain.Trades[i], cached.Trades[i]
		a.ID, b.ID = "", "" // trade IDs are unique per run
		assert.Equal(t, a, b)
	}
}

func TestRunValidation(t *testing.T) {
	bars := market.Ramp(10, 100, 1, testStart)
	def := strategy.Definition{
		Name:      "ok",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGT, 0)},
		Risk:      strategy.RiskManagement{PositionSizePct: 100},
	}

	_, err := Run(bars, def, Config{InitialCapital: 0})
	assert.Error(t, err, "non-positive capital")

	bad := def
	bad.Entry = nil
	_, err = Run(bars, bad, testConfig(1000))
	assert.Error(t, err, "no entry conditions")

	unordered := market.Ramp(10, 100, 1, testStart)
	unordered[5].Time = unordered[4].Time
	_, err = Run(unordered, def, testConfig(1000))
	assert.Error(t, err, "unordered bars")
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	def := strategy.Definition{
		Name:      "cancelled",
		Direction: strategy.Long,
		Entry:     []strategy.Condition{sma1(strategy.OpGT, 0)},
		Risk:      strategy.RiskManagement{PositionSizePct: 100},
	}
	_, err := RunContext(ctx, market.Ramp(10, 100, 1, testStart), def, testConfig(1000))
	assert.ErrorIs(t, err, context.Canceled)
}
