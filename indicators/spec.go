package indicators

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a configuration names an indicator this
// engine does not implement.
var ErrUnknownKind = errors.New("indicators: unknown indicator kind")

// Kind is the closed set of supported indicators. Configurations are
// resolved to a Kind once at validation time; nothing is dispatched by
// string name during a run.
type Kind int

const (
	KindSMA Kind = iota
	KindEMA
	KindRSI
	KindMACD
	KindBollingerWidth
)

func (k Kind) String() string {
	switch k {
	case KindSMA:
		return "sma"
	case KindEMA:
		return "ema"
	case KindRSI:
		return "rsi"
	case KindMACD:
		return "macd"
	case KindBollingerWidth:
		return "bollinger-width"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromString resolves a configured indicator name.
func KindFromString(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sma":
		return KindSMA, nil
	case "ema":
		return KindEMA, nil
	case "rsi":
		return KindRSI, nil
	case "macd":
		return KindMACD, nil
	case "bollinger-width", "bollinger_width", "bb-width", "bbwidth":
		return KindBollingerWidth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MACDOutput selects which MACD component a condition reads.
type MACDOutput int

const (
	MACDLine MACDOutput = iota
	MACDSignal
	MACDHistogram
)

func (o MACDOutput) String() string {
	switch o {
	case MACDLine:
		return "line"
	case MACDSignal:
		return "signal"
	case MACDHistogram:
		return "histogram"
	}
	return fmt.Sprintf("output(%d)", int(o))
}

// MACDOutputFromString resolves a configured MACD output name. The empty
// string means the macd line.
func MACDOutputFromString(s string) (MACDOutput, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "line", "macd":
		return MACDLine, nil
	case "signal":
		return MACDSignal, nil
	case "histogram", "hist":
		return MACDHistogram, nil
	}
	return 0, fmt.Errorf("indicators: unknown macd output %q", s)
}

// Spec fully identifies one indicator series: the kind plus every parameter
// that affects its values. Specs are comparable and double as cache keys.
type Spec struct {
	Kind   Kind
	Period int // SMA, EMA, RSI, BollingerWidth

	// MACD only.
	Fast   int
	Slow   int
	Signal int
	Output MACDOutput

	// BollingerWidth only.
	StdDev float64
}

// Name returns a stable identifier like "EMA(20)" or "MACD(12,26,9).signal".
func (s Spec) Name() string {
	switch s.Kind {
	case KindMACD:
		if s.Output == MACDLine {
			return fmt.Sprintf("MACD(%d,%d,%d)", s.Fast, s.Slow, s.Signal)
		}
		return fmt.Sprintf("MACD(%d,%d,%d).%s", s.Fast, s.Slow, s.Signal, s.Output)
	case KindBollingerWidth:
		return fmt.Sprintf("BBW(%d,%g)", s.Period, s.StdDev)
	default:
		return fmt.Sprintf("%s(%d)", strings.ToUpper(s.Kind.String()), s.Period)
	}
}

// Validate fails fast on malformed parameters so a bad configuration never
// reaches the simulation loop.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindSMA, KindEMA, KindRSI:
		if s.Period <= 0 {
			return fmt.Errorf("indicators: %s period must be positive, got %d", s.Kind, s.Period)
		}
	case KindMACD:
		if s.Fast <= 0 || s.Slow <= 0 || s.Signal <= 0 {
			return fmt.Errorf("indicators: macd periods must be positive, got (%d,%d,%d)", s.Fast, s.Slow, s.Signal)
		}
		if s.Fast >= s.Slow {
			return fmt.Errorf("indicators: macd fast period %d must be less than slow period %d", s.Fast, s.Slow)
		}
	case KindBollingerWidth:
		if s.Period <= 0 {
			return fmt.Errorf("indicators: bollinger period must be positive, got %d", s.Period)
		}
		if s.StdDev < 0 {
			return fmt.Errorf("indicators: bollinger stddev multiplier must be non-negative, got %g", s.StdDev)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(s.Kind))
	}
	return nil
}

// Warmup returns the first input index at which the series is defined,
// given a sufficiently long input.
func (s Spec) Warmup() int {
	switch s.Kind {
	case KindSMA, KindEMA, KindBollingerWidth:
		return s.Period - 1
	case KindRSI:
		return s.Period
	case KindMACD:
		if s.Output == MACDLine {
			return s.Slow - 1
		}
		return s.Slow + s.Signal - 2
	}
	return 0
}

// Compute evaluates the spec against a price series without memoization.
func (s Spec) Compute(prices []float64) (Series, error) {
	switch s.Kind {
	case KindSMA:
		return SMA(prices, s.Period)
	case KindEMA:
		return EMA(prices, s.Period)
	case KindRSI:
		return RSI(prices, s.Period)
	case KindBollingerWidth:
		return BollingerWidth(prices, s.Period, s.StdDev)
	case KindMACD:
		line, sig, hist, err := MACD(prices, s.Fast, s.Slow, s.Signal)
		if err != nil {
			return Series{}, err
		}
		switch s.Output {
		case MACDSignal:
			return sig, nil
		case MACDHistogram:
			return hist, nil
		default:
			return line, nil
		}
	}
	return Series{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(s.Kind))
}
