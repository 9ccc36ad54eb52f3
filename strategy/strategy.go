// Package strategy defines the declarative rule model a backtest executes:
// indicator-backed entry and exit conditions plus risk limits.
package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/backtester/indicators"
)

// EqualityEpsilon is the absolute tolerance used by the = and != operators.
// Exact floating comparison would turn accumulated rounding error into false
// negatives.
const EqualityEpsilon = 1e-6

// Operator is one of the six supported comparisons.
type Operator string

const (
	OpGT Operator = ">"
	OpLT Operator = "<"
	OpGE Operator = ">="
	OpLE Operator = "<="
	OpEQ Operator = "="
	OpNE Operator = "!="
)

// OperatorFromString resolves a configured comparison operator.
func OperatorFromString(s string) (Operator, error) {
	switch Operator(strings.TrimSpace(s)) {
	case OpGT:
		return OpGT, nil
	case OpLT:
		return OpLT, nil
	case OpGE:
		return OpGE, nil
	case OpLE:
		return OpLE, nil
	case OpEQ, Operator("=="):
		return OpEQ, nil
	case OpNE:
		return OpNE, nil
	}
	return "", fmt.Errorf("strategy: unsupported operator %q", s)
}

// Compare applies the operator to an indicator value and a threshold.
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGT:
		return value > threshold
	case OpLT:
		return value < threshold
	case OpGE:
		return value >= threshold
	case OpLE:
		return value <= threshold
	case OpEQ:
		return math.Abs(value-threshold) < EqualityEpsilon
	case OpNE:
		return math.Abs(value-threshold) >= EqualityEpsilon
	}
	return false
}

func (op Operator) valid() bool {
	switch op {
	case OpGT, OpLT, OpGE, OpLE, OpEQ, OpNE:
		return true
	}
	return false
}

// Direction is the side a strategy trades. +1 long, -1 short.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return fmt.Sprintf("direction(%d)", int8(d))
}

// DirectionFromString resolves a configured direction; empty means long.
func DirectionFromString(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return 0, fmt.Errorf("strategy: unknown direction %q", s)
}

// Condition compares one indicator series against a threshold at a bar
// index. The indicator reference is fully resolved at validation time.
type Condition struct {
	Indicator indicators.Spec
	Op        Operator
	Threshold float64
}

// Eval applies the condition to a single indicator value.
func (c Condition) Eval(value float64) bool {
	return c.Op.Compare(value, c.Threshold)
}

func (c Condition) validate() error {
	if err := c.Indicator.Validate(); err != nil {
		return err
	}
	if !c.Op.valid() {
		return fmt.Errorf("strategy: unsupported operator %q", string(c.Op))
	}
	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
		return fmt.Errorf("strategy: condition %s threshold is not finite", c.Indicator.Name())
	}
	return nil
}

// RiskManagement holds the percentage limits applied while a position is
// open, plus the sizing fraction used to open one.
type RiskManagement struct {
	// StopLossPct closes a position once it has moved this percentage
	// against the entry. 0 disables the stop.
	StopLossPct float64

	// TakeProfitPct closes a position once it has moved this percentage in
	// favor of the entry. 0 disables the target.
	TakeProfitPct float64

	// PositionSizePct of current portfolio value is allocated on entry.
	// Must be in (0, 100].
	PositionSizePct float64
}

func (r RiskManagement) validate() error {
	for name, v := range map[string]float64{
		"stop_loss_pct":     r.StopLossPct,
		"take_profit_pct":   r.TakeProfitPct,
		"position_size_pct": r.PositionSizePct,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("strategy: %s is not finite", name)
		}
	}
	if r.StopLossPct < 0 {
		return fmt.Errorf("strategy: stop_loss_pct must be >= 0, got %g", r.StopLossPct)
	}
	if r.TakeProfitPct < 0 {
		return fmt.Errorf("strategy: take_profit_pct must be >= 0, got %g", r.TakeProfitPct)
	}
	if r.PositionSizePct <= 0 || r.PositionSizePct > 100 {
		return fmt.Errorf("strategy: position_size_pct must be in (0, 100], got %g", r.PositionSizePct)
	}
	return nil
}

// Definition is a complete trading rule set. Entry conditions are ANDed to
// open a position; exit conditions are ANDed to close one, alongside the
// stop-loss/take-profit limits. A definition with no exit conditions relies
// on risk limits alone.
type Definition struct {
	Name      string
	Direction Direction
	Entry     []Condition
	Exit      []Condition
	Risk      RiskManagement
}

// Validate fails fast on any configuration error so a malformed definition
// never starts a simulation.
func (d Definition) Validate() error {
	if d.Direction != Long && d.Direction != Short {
		return fmt.Errorf("strategy: %q has invalid direction %d", d.Name, int8(d.Direction))
	}
	if len(d.Entry) == 0 {
		return fmt.Errorf("strategy: %q has no entry conditions", d.Name)
	}
	for i, c := range d.Entry {
		if err := c.validate(); err != nil {
			return fmt.Errorf("strategy: %q entry condition %d: %w", d.Name, i, err)
		}
	}
	for i, c := range d.Exit {
		if err := c.validate(); err != nil {
			return fmt.Errorf("strategy: %q exit condition %d: %w", d.Name, i, err)
		}
	}
	return d.Risk.validate()
}

// Warmup returns the number of leading bars on which no condition can
// produce a signal: the maximum warm-up across every referenced indicator.
func (d Definition) Warmup() int {
	max := 0
	for _, c := range d.Entry {
		if w := c.Indicator.Warmup(); w > max {
			max = w
		}
	}
	for _, c := range d.Exit {
		if w := c.Indicator.Warmup(); w > max {
			max = w
		}
	}
	return max
}
