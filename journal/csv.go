package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ExportTrades writes trade records as CSV, header first.
func ExportTrades(w io.Writer, trades []TradeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"trade_id", "run_id", "side", "entry_price", "exit_price",
		"entry_time", "exit_time", "quantity", "pnl", "pnl_percent", "reason",
	}); err != nil {
		return err
	}

	for _, t := range trades {
		if err := cw.Write([]string{
			t.TradeID,
			t.RunID,
			t.Side,
			f(t.EntryPrice),
			f(t.ExitPrice),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			f(t.Quantity),
			f(t.PnL),
			f(t.PnLPercent),
			t.Reason,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
