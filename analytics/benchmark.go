package analytics

import "math"

// BenchmarkComparison relates a strategy equity curve to a buy-and-hold
// benchmark curve over the same bars.
type BenchmarkComparison struct {
	StrategyReturnPct  float64
	BenchmarkReturnPct float64
	ExcessReturnPct    float64

	// TrackingError is the annualized standard deviation of per-bar excess
	// returns, in percent.
	TrackingError    float64
	InformationRatio float64

	Correlation float64

	// Beta defaults to the neutral 1.0 when the benchmark variance cannot
	// support the estimate; Alpha and Correlation default to 0.
	Beta  float64
	Alpha float64
}

// CompareBenchmark computes CAPM-style comparison statistics from two
// equity curves sampled on the same bars.
func CompareBenchmark(strategyEq, benchmarkEq []float64, opts Options) BenchmarkComparison {
	cmp := BenchmarkComparison{Beta: 1.0}

	cmp.StrategyReturnPct = totalReturnPct(strategyEq)
	cmp.BenchmarkReturnPct = totalReturnPct(benchmarkEq)
	cmp.ExcessReturnPct = cmp.StrategyReturnPct - cmp.BenchmarkReturnPct

	n := len(strategyEq)
	if len(benchmarkEq) < n {
		n = len(benchmarkEq)
	}
	if n < 3 { // need at least two per-bar returns
		return cmp
	}

	periods := opts.periods()
	sr := barReturns(strategyEq[:n])
	br := barReturns(benchmarkEq[:n])

	excess := make([]float64, len(sr))
	for i := range sr {
		excess[i] = sr[i] - br[i]
	}
	te := sampleStddev(excess) * math.Sqrt(periods)
	cmp.TrackingError = te * 100
	if te > 0 {
		cmp.InformationRatio = mean(excess) * periods / te
	}

	bVar := populationVariance(br)
	if bVar > 0 {
		cov := covariance(sr, br)
		cmp.Beta = cov / bVar

		rfPerBar := opts.RiskFreeRate / periods
		cmp.Alpha = (mean(sr) - rfPerBar - cmp.Beta*(mean(br)-rfPerBar)) * periods * 100

		sSd := populationStddev(sr)
		bSd := populationStddev(br)
		if sSd > 0 && bSd > 0 {
			cmp.Correlation = cov / (sSd * bSd)
		}
	}
	return cmp
}

func totalReturnPct(equity []float64) float64 {
	if len(equity) < 2 || equity[0] <= 0 {
		return 0
	}
	return (equity[len(equity)-1]/equity[0] - 1) * 100
}

// barReturns is the fractional change of each equity point from the one
// before it.
func barReturns(equity []float64) []float64 {
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

func populationVariance(xs []float64) float64 {
	sd := populationStddev(xs)
	return sd * sd
}

func covariance(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n == 0 {
		return 0
	}
	mx := mean(xs[:n])
	my := mean(ys[:n])
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n)
}
