package backtest

import (
	"context"
	"sync"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategy"
)

// SweepResult is one strategy's outcome within a sweep.
type SweepResult struct {
	Name   string
	Result Result
	Err    error
}

// Sweep runs every definition against the same bar series concurrently.
// Runs share only the read-only bars and the indicator cache, which is safe
// for concurrent use, so a common cache is installed when the config has
// none. Cancellation is cooperative per run: runs not yet started return
// the context error, runs in flight complete.
func Sweep(ctx context.Context, bars market.Series, defs []strategy.Definition, cfg Config) []SweepResult {
	if cfg.Cache == nil {
		cfg.Cache = indicators.NewCache(0)
	}

	results := make([]SweepResult, len(defs))
	var wg sync.WaitGroup
	for i, def := range defs {
		wg.Add(1)
		go func(i int, def strategy.Definition) {
			defer wg.Done()
			res, err := RunContext(ctx, bars, def, cfg)
			results[i] = SweepResult{Name: def.Name, Result: res, Err: err}
		}(i, def)
	}
	wg.Wait()
	return results
}
