package indicators

import "sync"

// DefaultCacheSize bounds the memo table at a size comfortably above what a
// parameter sweep over one dataset requests.
const DefaultCacheSize = 256

type cacheKey struct {
	spec Spec
	n    int // input length; same spec over a longer series is a new entry
}

// Cache memoizes computed series keyed by (spec, input length). It is an
// optimization only: a hit returns exactly the value a recomputation would
// produce, and disabling the cache never changes simulation results.
//
// The table is bounded; when full, the least recently inserted entry is
// evicted. Safe for concurrent use, so parallel runs over the same dataset
// can share one cache.
type Cache struct {
	mu    sync.Mutex
	limit int
	table map[cacheKey]Series
	order []cacheKey // insertion order, oldest first
}

// NewCache returns a cache bounded to limit entries. A non-positive limit
// falls back to DefaultCacheSize.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	return &Cache{
		limit: limit,
		table: make(map[cacheKey]Series, limit),
	}
}

// Compute returns the memoized series for spec over prices, computing and
// inserting it on a miss. Callers must treat the returned Series as
// read-only; Series exposes no mutating API.
func (c *Cache) Compute(spec Spec, prices []float64) (Series, error) {
	key := cacheKey{spec: spec, n: len(prices)}

	c.mu.Lock()
	if s, ok := c.table[key]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	// Compute outside the lock; concurrent duplicate work is harmless
	// because the computation is pure.
	s, err := spec.Compute(prices)
	if err != nil {
		return Series{}, err
	}

	c.mu.Lock()
	if _, ok := c.table[key]; !ok {
		if len(c.table) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.table, oldest)
		}
		c.table[key] = s
		c.order = append(c.order, key)
	}
	c.mu.Unlock()
	return s, nil
}

// Len reports the current number of memoized entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}
