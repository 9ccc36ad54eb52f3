// Package market defines OHLCV bars and the ordered series the engine
// consumes.
package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is a single OHLCV observation for a fixed interval. Bars are produced
// by data loaders and consumed read-only by the engine.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Source selects which price a bar contributes to an indicator input.
type Source int

const (
	SourceClose Source = iota
	SourceOpen
	SourceHigh
	SourceLow
	SourceHL2  // (high+low)/2
	SourceHLC3 // (high+low+close)/3
	SourceOHLC4
)

func (s Source) String() string {
	switch s {
	case SourceClose:
		return "close"
	case SourceOpen:
		return "open"
	case SourceHigh:
		return "high"
	case SourceLow:
		return "low"
	case SourceHL2:
		return "hl2"
	case SourceHLC3:
		return "hlc3"
	case SourceOHLC4:
		return "ohlc4"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Value extracts the source price from a bar.
func (s Source) Value(b Bar) float64 {
	switch s {
	case SourceOpen:
		return b.Open
	case SourceHigh:
		return b.High
	case SourceLow:
		return b.Low
	case SourceHL2:
		return (b.High + b.Low) / 2
	case SourceHLC3:
		return (b.High + b.Low + b.Close) / 3
	case SourceOHLC4:
		return (b.Open + b.High + b.Low + b.Close) / 4
	default:
		return b.Close
	}
}

// Series is an ordered bar sequence. Gaps (weekends, holidays) are permitted
// and never interpolated; order is enforced by Validate.
type Series []Bar

// Validate checks the loader contract: strictly increasing timestamps, no
// duplicates, and finite positive prices. An empty series is valid; the
// engine treats it as a degenerate input, not an error.
func (s Series) Validate() error {
	for i, b := range s {
		for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return fmt.Errorf("market: bar %d at %s has non-positive or non-finite price", i, b.Time.Format(time.RFC3339))
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("market: bar %d at %s has high < low", i, b.Time.Format(time.RFC3339))
		}
		if i > 0 && !s[i-1].Time.Before(b.Time) {
			return fmt.Errorf("market: bar %d at %s does not advance past previous bar %s",
				i, b.Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes returns the close price of every bar.
func (s Series) Closes() []float64 {
	return s.Prices(SourceClose)
}

// Prices extracts the chosen source price from every bar.
func (s Series) Prices(src Source) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = src.Value(b)
	}
	return out
}
