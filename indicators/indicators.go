package indicators

import (
	"fmt"
	"math"
)

// SMA computes the simple moving average: the arithmetic mean of the
// trailing period values. Defined from index period-1.
func SMA(prices []float64, period int) (Series, error) {
	if period <= 0 {
		return Series{}, fmt.Errorf("indicators: sma period must be positive, got %d", period)
	}

	n := len(prices)
	values := make([]float64, n)
	if n < period {
		return NewSeries(values, n), nil
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	values[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		sum += prices[i] - prices[i-period]
		values[i] = sum / float64(period)
	}
	return NewSeries(values, period-1), nil
}

// EMA computes the exponential moving average. The value at index period-1
// is seeded with the SMA of the first period prices; later values follow
//
//	ema[i] = (price[i] - ema[i-1])*k + ema[i-1],  k = 2/(period+1)
//
// Defined from index period-1.
func EMA(prices []float64, period int) (Series, error) {
	if period <= 0 {
		return Series{}, fmt.Errorf("indicators: ema period must be positive, got %d", period)
	}

	n := len(prices)
	values := make([]float64, n)
	if n < period {
		return NewSeries(values, n), nil
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	k := 2.0 / float64(period+1)
	ema := sum / float64(period)
	values[period-1] = ema
	for i := period; i < n; i++ {
		ema = (prices[i]-ema)*k + ema
		values[i] = ema
	}
	return NewSeries(values, period-1), nil
}

// RSI computes Wilder's relative strength index over signed price deltas.
// The average gain and loss are seeded with the mean of the first period
// deltas and smoothed thereafter:
//
//	avgGain = (avgGain*(period-1) + gain) / period
//
// A zero average loss is treated as a denominator of 1, so RSI saturates
// toward 100 on a pure uptrend instead of dividing by zero. Defined from
// index period.
func RSI(prices []float64, period int) (Series, error) {
	if period <= 0 {
		return Series{}, fmt.Errorf("indicators: rsi period must be positive, got %d", period)
	}

	n := len(prices)
	values := make([]float64, n)
	if n < period+1 {
		return NewSeries(values, n), nil
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gainSum += d
		} else {
			lossSum += -d
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	values[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		d := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		values[i] = rsiValue(avgGain, avgLoss)
	}
	return NewSeries(values, period), nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	denom := avgLoss
	if denom == 0 {
		denom = 1
	}
	rs := avgGain / denom
	return 100 - 100/(1+rs)
}

// MACD computes the moving average convergence divergence triple. The macd
// line is EMA(fast)-EMA(slow) where both are defined (from slow-1). The
// signal line is EMA(signal) applied to the compacted macd sub-series and
// realigned, so it is defined from slow+signal-2, as is the histogram.
func MACD(prices []float64, fast, slow, signal int) (line, sig, hist Series, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return Series{}, Series{}, Series{}, fmt.Errorf("indicators: macd periods must be positive, got (%d,%d,%d)", fast, slow, signal)
	}
	if fast >= slow {
		return Series{}, Series{}, Series{}, fmt.Errorf("indicators: macd fast period %d must be less than slow period %d", fast, slow)
	}

	fastEMA, err := EMA(prices, fast)
	if err != nil {
		return Series{}, Series{}, Series{}, err
	}
	slowEMA, err := EMA(prices, slow)
	if err != nil {
		return Series{}, Series{}, Series{}, err
	}

	n := len(prices)
	lineVals := make([]float64, n)
	lineFrom := slowEMA.From()
	for i := lineFrom; i < n; i++ {
		f, _ := fastEMA.At(i)
		s, _ := slowEMA.At(i)
		lineVals[i] = f - s
	}
	line = NewSeries(lineVals, lineFrom)

	sigVals := make([]float64, n)
	histVals := make([]float64, n)
	sigFrom := n
	if lineFrom < n {
		sub, err := EMA(lineVals[lineFrom:], signal)
		if err != nil {
			return Series{}, Series{}, Series{}, err
		}
		sigFrom = lineFrom + sub.From()
		for i := sub.From(); i < sub.Len(); i++ {
			v, _ := sub.At(i)
			sigVals[lineFrom+i] = v
			histVals[lineFrom+i] = lineVals[lineFrom+i] - v
		}
	}
	sig = NewSeries(sigVals, sigFrom)
	hist = NewSeries(histVals, sigFrom)
	return line, sig, hist, nil
}

// BollingerWidth computes stdDev multiples of the population standard
// deviation of the trailing period prices against their SMA. Defined from
// index period-1.
func BollingerWidth(prices []float64, period int, stdDev float64) (Series, error) {
	if period <= 0 {
		return Series{}, fmt.Errorf("indicators: bollinger period must be positive, got %d", period)
	}
	if math.IsNaN(stdDev) || math.IsInf(stdDev, 0) || stdDev < 0 {
		return Series{}, fmt.Errorf("indicators: bollinger stddev multiplier must be finite and non-negative, got %v", stdDev)
	}

	n := len(prices)
	values := make([]float64, n)
	if n < period {
		return NewSeries(values, n), nil
	}

	for i := period - 1; i < n; i++ {
		window := prices[i-period+1 : i+1]
		mean := 0.0
		for _, p := range window {
			mean += p
		}
		mean /= float64(period)

		variance := 0.0
		for _, p := range window {
			d := p - mean
			variance += d * d
		}
		variance /= float64(period)
		values[i] = stdDev * math.Sqrt(variance)
	}
	return NewSeries(values, period-1), nil
}
