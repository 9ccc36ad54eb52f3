package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, dataset, bars, initial_capital, final_equity,
		 trades, wins, losses, win_rate, total_pnl, max_drawdown_pct, sharpe, cagr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Dataset, r.Bars, r.InitialCapital,
		r.FinalEquity, r.Trades, r.Wins, r.Losses, r.WinRate, r.TotalPnL,
		r.MaxDrawdownPct, r.Sharpe, r.CAGR,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, side, entry_price, exit_price, entry_time, exit_time,
		 quantity, pnl, pnl_percent, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Side, t.EntryPrice, t.ExitPrice, t.EntryTime,
		t.ExitTime, t.Quantity, t.PnL, t.PnLPercent, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, bar_index, time, equity, drawdown)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.BarIndex, e.Time, e.Equity, e.Drawdown,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
