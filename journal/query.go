package journal

import (
	"database/sql"
	"fmt"
)

// GetRun returns a single run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, dataset, bars, initial_capital, final_equity,
		       trades, wins, losses, win_rate, total_pnl, max_drawdown_pct, sharpe, cagr
		FROM runs
		WHERE run_id = ?`, runID)

	err := scanRun(row.Scan, &rec)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent run summaries, newest first.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
		SELECT run_id, created, strategy, dataset, bars, initial_capital, final_equity,
		       trades, wins, losses, win_rate, total_pnl, max_drawdown_pct, sharpe, cagr
		FROM runs
		ORDER BY created DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := scanRun(rows.Scan, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTrades returns every trade of a run in entry order.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, side, entry_price, exit_price, entry_time, exit_time,
		       quantity, pnl, pnl_percent, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY entry_time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.RunID,
			&rec.Side,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.EntryTime,
			&rec.ExitTime,
			&rec.Quantity,
			&rec.PnL,
			&rec.PnLPercent,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRun(scan func(...any) error, rec *RunRecord) error {
	return scan(
		&rec.RunID,
		&rec.Created,
		&rec.Strategy,
		&rec.Dataset,
		&rec.Bars,
		&rec.InitialCapital,
		&rec.FinalEquity,
		&rec.Trades,
		&rec.Wins,
		&rec.Losses,
		&rec.WinRate,
		&rec.TotalPnL,
		&rec.MaxDrawdownPct,
		&rec.Sharpe,
		&rec.CAGR,
	)
}
