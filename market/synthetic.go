package market

import "time"

// Synthetic series builders used by tests and the demo command.

// Flat returns n daily bars with a constant close.
func Flat(n int, price float64, start time.Time) Series {
	bars := make(Series, n)
	for i := range bars {
		bars[i] = Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}

// Ramp returns n daily bars whose closes start at first and change by step
// per bar.
func Ramp(n int, first, step float64, start time.Time) Series {
	bars := make(Series, n)
	c := first
	for i := range bars {
		bars[i] = Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
		c += step
	}
	return bars
}

// FromCloses builds daily bars from an explicit close sequence. Open, high,
// and low mirror the close, which is all the close-driven engine needs.
func FromCloses(closes []float64, start time.Time) Series {
	bars := make(Series, len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}
