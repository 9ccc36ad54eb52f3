// Package indicators computes technical indicator series over price data.
// Each indicator returns a Series carrying an explicit defined-from index
// instead of sentinel values, so warm-up gaps are visible to callers.
package indicators

// Series is one computed indicator aligned index-for-index with its input
// prices. Values before the defined-from index are warm-up and must not be
// read. Series is immutable after construction and safe to share.
type Series struct {
	values []float64
	from   int
}

// NewSeries wraps a value slice defined from index from. A from equal to
// len(values) means the series is never defined, which is how indicators
// report inputs shorter than their warm-up.
func NewSeries(values []float64, from int) Series {
	if from < 0 {
		from = 0
	}
	if from > len(values) {
		from = len(values)
	}
	return Series{values: values, from: from}
}

// At returns the value at index i and whether the series is defined there.
func (s Series) At(i int) (float64, bool) {
	if i < s.from || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// From returns the first defined index.
func (s Series) From() int {
	return s.from
}

// Len returns the length of the underlying input alignment.
func (s Series) Len() int {
	return len(s.values)
}

// Defined reports whether index i holds a computed value.
func (s Series) Defined(i int) bool {
	_, ok := s.At(i)
	return ok
}
