// Package journal persists backtest runs, their closed trades, and their
// equity curves. The engine itself never journals; callers hand a finished
// result to a Journal.
package journal

import (
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/internal/id"
)

// RunRecord summarizes one backtest run.
type RunRecord struct {
	RunID          string
	Created        time.Time
	Strategy       string
	Dataset        string
	Bars           int
	InitialCapital float64
	FinalEquity    float64
	Trades         int
	Wins           int
	Losses         int
	WinRate        float64
	TotalPnL       float64
	MaxDrawdownPct float64
	Sharpe         float64
	CAGR           float64
}

// TradeRecord is one closed trade belonging to a run.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Side       string
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	Quantity   float64
	PnL        float64
	PnLPercent float64
	Reason     string
}

// EquityRecord is one equity curve point belonging to a run.
type EquityRecord struct {
	RunID    string
	BarIndex int
	Time     time.Time
	Equity   float64
	Drawdown float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// Record writes a complete run (summary, trades, equity curve) to j and
// returns the generated run ID.
func Record(j Journal, strategyName, dataset string, initialCapital float64, res backtest.Result) (string, error) {
	runID := id.New()

	finalEquity := initialCapital
	if n := len(res.Equity); n > 0 {
		finalEquity = res.Equity[n-1].Value
	}

	run := RunRecord{
		RunID:          runID,
		Created:        time.Now().UTC(),
		Strategy:       strategyName,
		Dataset:        dataset,
		Bars:           len(res.Equity),
		InitialCapital: initialCapital,
		FinalEquity:    finalEquity,
		Trades:         res.Metrics.TotalTrades,
		Wins:           res.Metrics.WinningTrades,
		Losses:         res.Metrics.LosingTrades,
		WinRate:        res.Metrics.WinRate,
		TotalPnL:       res.Metrics.TotalPnL,
		MaxDrawdownPct: res.Metrics.MaxDrawdownPercent,
		Sharpe:         res.Metrics.Sharpe,
		CAGR:           res.Metrics.CAGR,
	}
	if err := j.RecordRun(run); err != nil {
		return "", err
	}

	for _, t := range res.Trades {
		if err := j.RecordTrade(TradeRecord{
			TradeID:    t.ID,
			RunID:      runID,
			Side:       t.Side.String(),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			Quantity:   t.Quantity,
			PnL:        t.PnL,
			PnLPercent: t.PnLPercent,
			Reason:     t.Reason,
		}); err != nil {
			return "", err
		}
	}

	for i, p := range res.Equity {
		if err := j.RecordEquity(EquityRecord{
			RunID:    runID,
			BarIndex: p.Index,
			Time:     p.Time,
			Equity:   p.Value,
			Drawdown: res.Drawdown[i],
		}); err != nil {
			return "", err
		}
	}
	return runID, nil
}
