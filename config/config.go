// Package config loads run and strategy configuration files. Files are
// parsed as YAML first with a JSON fallback, and every failure surfaces
// before a simulation starts.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/strategy"
)

// Config is the complete run configuration.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal,omitempty" yaml:"journal,omitempty"`
	Strategy StrategyFile   `json:"strategy" yaml:"strategy"`
}

// DataConfig names the bar dataset.
type DataConfig struct {
	CSV string `json:"csv" yaml:"csv"`
}

// BacktestConfig mirrors the engine configuration.
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	CloseAtEnd     *bool   `json:"close_at_end,omitempty" yaml:"close_at_end,omitempty"`
}

// CloseEnd returns the configured end-of-data policy, defaulting to
// force-close.
func (b BacktestConfig) CloseEnd() bool {
	if b.CloseAtEnd == nil {
		return true
	}
	return *b.CloseAtEnd
}

// JournalConfig controls run persistence.
type JournalConfig struct {
	Type   string `json:"type,omitempty" yaml:"type,omitempty"` // "sqlite" or empty
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StrategyFile is the on-disk strategy schema. Indicator kinds, operators,
// and directions are plain strings here and resolved exactly once by
// Definition; nothing downstream ever re-parses them.
type StrategyFile struct {
	Name      string          `json:"name" yaml:"name"`
	Direction string          `json:"direction,omitempty" yaml:"direction,omitempty"`
	Entry     []ConditionFile `json:"entry" yaml:"entry"`
	Exit      []ConditionFile `json:"exit,omitempty" yaml:"exit,omitempty"`
	Risk      RiskFile        `json:"risk" yaml:"risk"`
}

type ConditionFile struct {
	Indicator IndicatorFile `json:"indicator" yaml:"indicator"`
	Op        string        `json:"op" yaml:"op"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
}

type IndicatorFile struct {
	Kind   string  `json:"kind" yaml:"kind"`
	Period int     `json:"period,omitempty" yaml:"period,omitempty"`
	Fast   int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow   int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Signal int     `json:"signal,omitempty" yaml:"signal,omitempty"`
	Output string  `json:"output,omitempty" yaml:"output,omitempty"`
	StdDev float64 `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`
}

type RiskFile struct {
	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	PositionSizePct float64 `json:"position_size_pct" yaml:"position_size_pct"`
}

// LoadFromFile loads a complete run configuration (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	if err := unmarshalFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Data.CSV == "" {
		return nil, fmt.Errorf("config: %s: data.csv is required", path)
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 100_000
	}
	if _, err := cfg.Strategy.Definition(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadStrategy loads a standalone strategy file (YAML or JSON) and resolves
// it to a validated definition.
func LoadStrategy(path string) (strategy.Definition, error) {
	var sf StrategyFile
	if err := unmarshalFile(path, &sf); err != nil {
		return strategy.Definition{}, err
	}
	def, err := sf.Definition()
	if err != nil {
		return strategy.Definition{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return def, nil
}

// Definition resolves the file schema to a validated strategy definition.
func (sf StrategyFile) Definition() (strategy.Definition, error) {
	dir, err := strategy.DirectionFromString(sf.Direction)
	if err != nil {
		return strategy.Definition{}, err
	}

	entry, err := conditions(sf.Entry)
	if err != nil {
		return strategy.Definition{}, fmt.Errorf("entry: %w", err)
	}
	exit, err := conditions(sf.Exit)
	if err != nil {
		return strategy.Definition{}, fmt.Errorf("exit: %w", err)
	}

	def := strategy.Definition{
		Name:      sf.Name,
		Direction: dir,
		Entry:     entry,
		Exit:      exit,
		Risk: strategy.RiskManagement{
			StopLossPct:     sf.Risk.StopLossPct,
			TakeProfitPct:   sf.Risk.TakeProfitPct,
			PositionSizePct: sf.Risk.PositionSizePct,
		},
	}
	if err := def.Validate(); err != nil {
		return strategy.Definition{}, err
	}
	return def, nil
}

func conditions(files []ConditionFile) ([]strategy.Condition, error) {
	var out []strategy.Condition
	for i, cf := range files {
		c, err := cf.condition()
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (cf ConditionFile) condition() (strategy.Condition, error) {
	spec, err := cf.Indicator.spec()
	if err != nil {
		return strategy.Condition{}, err
	}
	op, err := strategy.OperatorFromString(cf.Op)
	if err != nil {
		return strategy.Condition{}, err
	}
	return strategy.Condition{Indicator: spec, Op: op, Threshold: cf.Threshold}, nil
}

func (f IndicatorFile) spec() (indicators.Spec, error) {
	kind, err := indicators.KindFromString(f.Kind)
	if err != nil {
		return indicators.Spec{}, err
	}
	out, err := indicators.MACDOutputFromString(f.Output)
	if err != nil {
		return indicators.Spec{}, err
	}

	spec := indicators.Spec{
		Kind:   kind,
		Period: f.Period,
		Fast:   f.Fast,
		Slow:   f.Slow,
		Signal: f.Signal,
		Output: out,
		StdDev: f.StdDev,
	}
	if kind == indicators.KindMACD && spec.Fast == 0 && spec.Slow == 0 && spec.Signal == 0 {
		// Conventional defaults when the file names MACD without periods.
		spec.Fast, spec.Slow, spec.Signal = 12, 26, 9
	}
	if kind == indicators.KindBollingerWidth && spec.StdDev == 0 {
		spec.StdDev = 2
	}
	return spec, spec.Validate()
}

func unmarshalFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	// Try YAML first, fall back to JSON.
	if yerr := yaml.Unmarshal(data, v); yerr != nil {
		if jerr := json.Unmarshal(data, v); jerr != nil {
			return fmt.Errorf("config: parse %s (tried YAML and JSON): %w", path, yerr)
		}
	}
	return nil
}
