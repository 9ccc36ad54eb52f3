package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/indicators"
)

func validDefinition() Definition {
	return Definition{
		Name:      "ema-cross",
		Direction: Long,
		Entry: []Condition{
			{Indicator: indicators.Spec{Kind: indicators.KindEMA, Period: 20}, Op: OpGT, Threshold: 0},
		},
		Exit: []Condition{
			{Indicator: indicators.Spec{Kind: indicators.KindRSI, Period: 14}, Op: OpGT, Threshold: 70},
		},
		Risk: RiskManagement{StopLossPct: 5, TakeProfitPct: 10, PositionSizePct: 100},
	}
}

func TestOperatorCompare(t *testing.T) {
	assert.True(t, OpGT.Compare(2, 1))
	assert.False(t, OpGT.Compare(1, 1))
	assert.True(t, OpGE.Compare(1, 1))
	assert.True(t, OpLT.Compare(1, 2))
	assert.True(t, OpLE.Compare(2, 2))
}

func TestOperatorEqualityEpsilon(t *testing.T) {
	// Within the tolerance the values compare equal.
	assert.True(t, OpEQ.Compare(1.0, 1.0+5e-7))
	assert.False(t, OpNE.Compare(1.0, 1.0+5e-7))

	// At or beyond it they do not.
	assert.False(t, OpEQ.Compare(1.0, 1.0+2e-6))
	assert.True(t, OpNE.Compare(1.0, 1.0+2e-6))
}

func TestOperatorFromString(t *testing.T) {
	op, err := OperatorFromString(">=")
	require.NoError(t, err)
	assert.Equal(t, OpGE, op)

	// Double-equals is accepted as an alias.
	op, err = OperatorFromString("==")
	require.NoError(t, err)
	assert.Equal(t, OpEQ, op)

	_, err = OperatorFromString("<>")
	assert.Error(t, err)
}

func TestDirectionFromString(t *testing.T) {
	d, err := DirectionFromString("")
	require.NoError(t, err)
	assert.Equal(t, Long, d)

	d, err = DirectionFromString("short")
	require.NoError(t, err)
	assert.Equal(t, Short, d)

	_, err = DirectionFromString("sideways")
	assert.Error(t, err)
}

func TestDefinitionValidate(t *testing.T) {
	assert.NoError(t, validDefinition().Validate())
}

func TestDefinitionRejectsEmptyEntry(t *testing.T) {
	d := validDefinition()
	d.Entry = nil
	assert.Error(t, d.Validate())
}

func TestDefinitionAllowsEmptyExit(t *testing.T) {
	// Risk limits alone are a legal exit policy.
	d := validDefinition()
	d.Exit = nil
	assert.NoError(t, d.Validate())
}

func TestDefinitionRejectsBadIndicator(t *testing.T) {
	d := validDefinition()
	d.Entry[0].Indicator.Period = 0
	assert.Error(t, d.Validate())
}

func TestDefinitionRejectsBadOperator(t *testing.T) {
	d := validDefinition()
	d.Exit[0].Op = Operator("~")
	assert.Error(t, d.Validate())
}

func TestDefinitionRejectsBadRisk(t *testing.T) {
	for _, risk := range []RiskManagement{
		{PositionSizePct: 0},
		{PositionSizePct: 150},
		{PositionSizePct: 50, StopLossPct: -1},
		{PositionSizePct: 50, TakeProfitPct: -2},
	} {
		d := validDefinition()
		d.Risk = risk
		assert.Error(t, d.Validate(), "risk %+v", risk)
	}
}

func TestDefinitionRejectsZeroDirection(t *testing.T) {
	d := validDefinition()
	d.Direction = 0
	assert.Error(t, d.Validate())
}

func TestDefinitionWarmup(t *testing.T) {
	d := validDefinition()
	// EMA(20) needs 19 bars, RSI(14) needs 14; the maximum wins.
	assert.Equal(t, 19, d.Warmup())

	d.Exit = []Condition{
		{Indicator: indicators.Spec{Kind: indicators.KindMACD, Fast: 12, Slow: 26, Signal: 9, Output: indicators.MACDSignal}, Op: OpLT, Threshold: 0},
	}
	assert.Equal(t, 33, d.Warmup())
}
