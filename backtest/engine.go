package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/analytics"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategy"
)

// boundCondition is a condition resolved against its computed series once,
// before the loop starts. Nothing is re-resolved per bar.
type boundCondition struct {
	cond   strategy.Condition
	series indicators.Series
}

// Run simulates def over bars. Bars are processed strictly in timestamp
// order with no look-ahead; indicator state is carried bar to bar, so a
// single run is sequential. Independent runs may execute concurrently and
// share cfg.Cache.
func Run(bars market.Series, def strategy.Definition, cfg Config) (Result, error) {
	return RunContext(context.Background(), bars, def, cfg)
}

// RunContext is Run with cooperative cancellation. The context is checked
// once per run, not per bar: cancelling aborts runs that have not started,
// which is the granularity parameter sweeps need.
func RunContext(ctx context.Context, bars market.Series, def strategy.Definition, cfg Config) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if err := def.Validate(); err != nil {
		return Result{}, err
	}
	if err := bars.Validate(); err != nil {
		return Result{}, err
	}

	closes := bars.Closes()
	entry, err := bindConditions(def.Entry, closes, cfg.Cache)
	if err != nil {
		return Result{}, err
	}
	exit, err := bindConditions(def.Exit, closes, cfg.Cache)
	if err != nil {
		return Result{}, err
	}

	warmup := def.Warmup()
	if len(bars) == 0 || warmup >= len(bars) {
		// Degenerate input: too short for any signal. Not an error.
		return Result{}, nil
	}

	sim := simulation{
		bars:    bars,
		def:     def,
		cfg:     cfg,
		entry:   entry,
		exit:    exit,
		cash:    cfg.InitialCapital,
		peak:    cfg.InitialCapital,
		baseBar: warmup,
	}

	for i := warmup; i < len(bars); i++ {
		sim.step(i)
	}
	sim.finish()

	res := Result{
		Trades:    sim.trades,
		Equity:    sim.equity,
		Drawdown:  sim.drawdown,
		Benchmark: sim.benchmark,
	}
	res.Metrics = analytics.Compute(
		tradeReturns(sim.trades),
		res.Values(),
		res.Drawdown,
		cfg.InitialCapital,
		cfg.Metrics,
	)
	return res, nil
}

// simulation is the per-run mutable state. Nothing here outlives the run.
type simulation struct {
	bars  market.Series
	def   strategy.Definition
	cfg   Config
	entry []boundCondition
	exit  []boundCondition

	cash    float64
	pos     *Position
	peak    float64
	baseBar int

	trades    []Trade
	equity    []EquityPoint
	drawdown  []float64
	benchmark []EquityPoint
}

// step processes bar i: exit checks first, then entry, then the equity
// snapshot. A position closed on this bar cannot re-open until the next.
func (s *simulation) step(i int) {
	bar := s.bars[i]
	closedThisBar := false

	if s.pos != nil {
		if reason, triggered := s.exitTriggered(i, bar.Close); triggered {
			s.closePosition(bar.Close, bar.Time, reason)
			closedThisBar = true
		}
	}

	if s.pos == nil && !closedThisBar && evalAll(s.entry, i) {
		s.openPosition(i, bar)
	}

	s.record(i, bar)
}

// exitTriggered evaluates rule exits, then the stop-loss, then the
// take-profit, all against the bar close. Rule exits only apply when the
// definition has exit conditions; an empty list leaves the position to the
// risk limits.
func (s *simulation) exitTriggered(i int, price float64) (string, bool) {
	if len(s.exit) > 0 && evalAll(s.exit, i) {
		return ReasonExitSignal, true
	}

	// Percentage move in favor of the position.
	favorable := float64(s.pos.Side) * (price - s.pos.EntryPrice) / s.pos.EntryPrice * 100
	if s.def.Risk.StopLossPct > 0 && favorable <= -s.def.Risk.StopLossPct {
		return ReasonStopLoss, true
	}
	if s.def.Risk.TakeProfitPct > 0 && favorable >= s.def.Risk.TakeProfitPct {
		return ReasonTakeProfit, true
	}
	return "", false
}

// openPosition allocates PositionSizePct of current portfolio value at the
// bar close. Shorts book the sale proceeds into cash and carry the
// liability in mark-to-market.
func (s *simulation) openPosition(i int, bar market.Bar) {
	alloc := s.cash * s.def.Risk.PositionSizePct / 100
	qty := alloc / bar.Close
	if qty <= 0 {
		return
	}
	s.pos = &Position{
		Side:       s.def.Direction,
		EntryPrice: bar.Close,
		EntryTime:  bar.Time,
		EntryIndex: i,
		Quantity:   qty,
	}
	s.cash -= float64(s.pos.Side) * qty * bar.Close
}

func (s *simulation) closePosition(price float64, when time.Time, reason string) {
	p := s.pos
	s.pos = nil
	s.cash += float64(p.Side) * p.Quantity * price

	pnl := (price - p.EntryPrice) * p.Quantity * float64(p.Side)
	s.trades = append(s.trades, Trade{
		ID:         id.New(),
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		EntryTime:  p.EntryTime,
		ExitTime:   when,
		Quantity:   p.Quantity,
		PnL:        pnl,
		PnLPercent: pnl / (p.EntryPrice * p.Quantity) * 100,
		Reason:     reason,
	})
}

// record appends the bar's equity, drawdown, and benchmark points.
func (s *simulation) record(i int, bar market.Bar) {
	eq := s.cash + s.markToMarket(bar.Close)
	if eq > s.peak {
		s.peak = eq
	}
	s.equity = append(s.equity, EquityPoint{Index: i, Time: bar.Time, Value: eq})
	s.drawdown = append(s.drawdown, (s.peak-eq)/s.peak)

	base := s.bars[s.baseBar].Close
	s.benchmark = append(s.benchmark, EquityPoint{
		Index: i,
		Time:  bar.Time,
		Value: s.cfg.InitialCapital * bar.Close / base,
	})
}

func (s *simulation) markToMarket(price float64) float64 {
	if s.pos == nil {
		return 0
	}
	return float64(s.pos.Side) * s.pos.Quantity * price
}

// finish applies the end-of-data policy to a position still open at the
// final bar. Closing at the final close leaves the recorded equity value
// unchanged, so only the ledger is touched.
func (s *simulation) finish() {
	if s.pos == nil {
		return
	}
	if !s.cfg.CloseAtEnd {
		s.pos = nil
		return
	}
	last := s.bars[len(s.bars)-1]
	s.closePosition(last.Close, last.Time, ReasonEndOfData)
}

// bindConditions computes (through the cache when present) the series every
// condition references. Unknown indicators and malformed parameters fail
// here, before the first bar.
func bindConditions(conds []strategy.Condition, closes []float64, cache *indicators.Cache) ([]boundCondition, error) {
	bound := make([]boundCondition, 0, len(conds))
	for _, c := range conds {
		var (
			series indicators.Series
			err    error
		)
		if cache != nil {
			series, err = cache.Compute(c.Indicator, closes)
		} else {
			series, err = c.Indicator.Compute(closes)
		}
		if err != nil {
			return nil, fmt.Errorf("backtest: resolve %s: %w", c.Indicator.Name(), err)
		}
		bound = append(bound, boundCondition{cond: c, series: series})
	}
	return bound, nil
}

// evalAll is the logical AND over bound conditions at bar i. An undefined
// indicator value means no signal. An empty list passes vacuously.
func evalAll(conds []boundCondition, i int) bool {
	for _, bc := range conds {
		v, ok := bc.series.At(i)
		if !ok || !bc.cond.Eval(v) {
			return false
		}
	}
	return true
}

func tradeReturns(trades []Trade) []analytics.TradeReturn {
	out := make([]analytics.TradeReturn, len(trades))
	for i, t := range trades {
		out[i] = analytics.TradeReturn{
			PnL:       t.PnL,
			ReturnPct: t.PnLPercent,
			Duration:  t.ExitTime.Sub(t.EntryTime),
		}
	}
	return out
}
