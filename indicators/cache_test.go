package indicators

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMatchesDirectCompute(t *testing.T) {
	prices := ramp(100, 50, 0.5)
	spec := Spec{Kind: KindRSI, Period: 14}

	direct, err := spec.Compute(prices)
	require.NoError(t, err)

	c := NewCache(0)
	for i := 0; i < 3; i++ {
		cached, err := c.Compute(spec, prices)
		require.NoError(t, err)
		assert.Equal(t, direct, cached, "cached series must be bit-identical")
	}
	assert.Equal(t, 1, c.Len())
}

func TestCacheKeyedByInputLength(t *testing.T) {
	prices := ramp(50, 100, 1)
	spec := Spec{Kind: KindSMA, Period: 5}

	c := NewCache(0)
	full, err := c.Compute(spec, prices)
	require.NoError(t, err)

	truncated, err := c.Compute(spec, prices[:30])
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 50, full.Len())
	assert.Equal(t, 30, truncated.Len())
}

func TestCacheEviction(t *testing.T) {
	prices := ramp(40, 100, 1)

	c := NewCache(2)
	for _, p := range []int{3, 5, 8} {
		_, err := c.Compute(Spec{Kind: KindSMA, Period: p}, prices)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len(), "cache must stay within its bound")
}

func TestCacheConcurrentAccess(t *testing.T) {
	prices := ramp(200, 100, 0.25)
	specs := []Spec{
		{Kind: KindSMA, Period: 10},
		{Kind: KindEMA, Period: 21},
		{Kind: KindRSI, Period: 14},
	}

	c := NewCache(0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, spec := range specs {
				s, err := c.Compute(spec, prices)
				assert.NoError(t, err)
				assert.Equal(t, 200, s.Len())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(specs), c.Len())
}

func TestCachePropagatesErrors(t *testing.T) {
	c := NewCache(0)
	_, err := c.Compute(Spec{Kind: KindSMA, Period: -1}, ramp(10, 100, 1))
	assert.Error(t, err)
	assert.Zero(t, c.Len(), "failed computations are not cached")
}
