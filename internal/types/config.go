package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

var validate = validator.New()

// DefaultEquitySampleInterval is the candle stride between equity samples.
const DefaultEquitySampleInterval = 24

// BacktestConfig holds the options of a single replay run. It is validated once
// at run start and never changes while the run is in progress.
type BacktestConfig struct {
	// InitialBalance is the seed cash.
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" jsonschema:"title=Initial Balance,description=Starting cash balance,minimum=0" validate:"gt=0"`
	// CommissionRate is charged on the notional of each leg.
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" jsonschema:"title=Commission Rate,description=Fraction of notional charged per leg,minimum=0,maximum=1" validate:"gte=0,lt=1"`
	// SlippageRate adjusts entry prices against the position.
	SlippageRate float64 `yaml:"slippage_rate" json:"slippage_rate" jsonschema:"title=Slippage Rate,description=Adverse fractional adjustment of entry prices,minimum=0,maximum=1" validate:"gte=0,lt=1"`
	// PositionSizeFraction is the share of the current cash balance committed per entry.
	PositionSizeFraction float64 `yaml:"position_size_fraction" json:"position_size_fraction" jsonschema:"title=Position Size Fraction,description=Fraction of cash committed per entry,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	// MaxOpenPositions caps concurrently open positions.
	MaxOpenPositions int `yaml:"max_open_positions" json:"max_open_positions" jsonschema:"title=Max Open Positions,description=Maximum number of concurrently open positions,minimum=1" validate:"gte=1"`
	// EquitySampleInterval is the number of candles between equity curve samples.
	EquitySampleInterval int `yaml:"equity_sample_interval" json:"equity_sample_interval" jsonschema:"title=Equity Sample Interval,description=Candles between equity samples,minimum=1,default=24" validate:"gte=1"`
	// RiskFreeRate is the annual risk free rate used by Sharpe and Sortino.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk free rate as a fraction,minimum=0" validate:"gte=0"`
}

// WithDefaults fills optional fields that were left at their zero value.
func (c BacktestConfig) WithDefaults() BacktestConfig {
	if c.EquitySampleInterval == 0 {
		c.EquitySampleInterval = DefaultEquitySampleInterval
	}

	return c
}

// Validate validates the BacktestConfig struct.
func (c *BacktestConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return nil
}
