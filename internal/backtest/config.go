package backtest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"chartscan/internal/model"
)

// Config controls one backtest run. Zero values for TrailingStopPct and
// StopLossATRMult disable those features; an empty SignalTypes admits all
// signal types. Validation of ranges is the caller's responsibility.
type Config struct {
	InitialCapital  float64            `yaml:"initial_capital" json:"initial_capital"`
	RiskPerTrade    float64            `yaml:"risk_per_trade" json:"risk_per_trade"`
	MaxHoldingDays  int                `yaml:"max_holding_days" json:"max_holding_days"`
	TrailingStopPct float64            `yaml:"trailing_stop_pct" json:"trailing_stop_pct"`
	SignalTypes     []model.SignalType `yaml:"signal_types" json:"signal_types"`
	CooldownDays    int                `yaml:"cooldown_days" json:"cooldown_days"`
	TrendFilter     bool               `yaml:"trend_filter" json:"trend_filter"`
	StopLossATRMult float64            `yaml:"stop_loss_atr_mult" json:"stop_loss_atr_mult"`
}

// DefaultConfig returns the standard run parameters.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  100000,
		RiskPerTrade:    0.02,
		MaxHoldingDays:  60,
		CooldownDays:    15,
		StopLossATRMult: 2.0,
	}
}

// LoadConfig reads a YAML config file over the defaults, so omitted fields
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("backtest config read: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("backtest config parse: %w", err)
	}
	return cfg, nil
}

// allowsSignal reports whether the configured signal-type subset admits t.
func (c Config) allowsSignal(t model.SignalType) bool {
	if len(c.SignalTypes) == 0 {
		return true
	}
	for _, st := range c.SignalTypes {
		if st == t {
			return true
		}
	}
	return false
}
