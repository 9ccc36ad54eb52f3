package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads canonical bar CSV rows:
//
//	time,open,high,low,close,volume
//
// where time is RFC3339, RFC3339Nano, or a unix-seconds integer.
// A single header row ("time,...") is allowed; empty rows are skipped.
// The returned series is validated before it is handed back.
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses bar rows from r. See LoadCSV for the row format.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		bars     Series
		sawFirst bool
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row.
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bars = append(bars, b)
	}

	if err := bars.Validate(); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseBarRow(row []string) (Bar, bool, error) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return Bar{}, false, nil
	}

	ts, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, false, fmt.Errorf("market: parse time %q: %w", row[0], err)
	}

	vals := make([]float64, 0, 5)
	for _, field := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("market: parse field %q: %w", field, err)
		}
		vals = append(vals, v)
		if len(vals) == 5 {
			break
		}
	}

	b := Bar{
		Time:  ts,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
	}
	if len(vals) > 4 {
		b.Volume = vals[4]
	}
	return b, true, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp")
}
