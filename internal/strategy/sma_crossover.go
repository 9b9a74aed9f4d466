package strategy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/montanaflynn/stats"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// SMACrossoverConfig configures SMACrossover.
type SMACrossoverConfig struct {
	FastPeriod int `yaml:"fast_period" json:"fast_period" validate:"gte=1"`
	SlowPeriod int `yaml:"slow_period" json:"slow_period" validate:"gtfield=FastPeriod"`
	// StopLossPct places the stop this many percent away from the entry. Zero disables it.
	StopLossPct float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gte=0,lt=100"`
	// TakeProfitPct places the target this many percent away from the entry. Zero disables it.
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gte=0"`
	// AllowShort opens shorts on a death cross instead of only closing longs.
	AllowShort bool `yaml:"allow_short" json:"allow_short"`
}

var validate = validator.New()

// SMACrossover goes long when the fast SMA crosses above the slow SMA and
// closes on the opposite cross. With AllowShort it also shorts the death cross.
type SMACrossover struct {
	config SMACrossoverConfig

	prevFast float64
	prevSlow float64
	primed   bool
	opened   int
}

// NewSMACrossover creates a new SMA crossover strategy with the given parameters
func NewSMACrossover(config SMACrossoverConfig) (*SMACrossover, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid sma crossover config", err)
	}

	return &SMACrossover{
		config:   config,
		prevFast: 0,
		prevSlow: 0,
		primed:   false,
		opened:   0,
	}, nil
}

// Name returns the name of the strategy
func (s *SMACrossover) Name() string {
	return fmt.Sprintf("SMA_Cross_%d_%d", s.config.FastPeriod, s.config.SlowPeriod)
}

// Reset implements Strategy.
func (s *SMACrossover) Reset() {
	s.prevFast = 0
	s.prevSlow = 0
	s.primed = false
	s.opened = 0
}

// OnPositionOpened implements PositionObserver.
func (s *SMACrossover) OnPositionOpened(_ types.Position) {
	s.opened++
}

// PositionsOpened returns how many positions the engine opened for this strategy in the current run.
func (s *SMACrossover) PositionsOpened() int {
	return s.opened
}

// Analyze implements Strategy.
func (s *SMACrossover) Analyze(candle types.Candle, ctx Context) (optional.Option[types.Signal], error) {
	history := ctx.History()
	if len(history) < s.config.SlowPeriod {
		return optional.None[types.Signal](), nil
	}

	fast, err := closingAverage(history, s.config.FastPeriod)
	if err != nil {
		return optional.None[types.Signal](), err
	}

	slow, err := closingAverage(history, s.config.SlowPeriod)
	if err != nil {
		return optional.None[types.Signal](), err
	}

	prevFast, prevSlow, primed := s.prevFast, s.prevSlow, s.primed
	s.prevFast, s.prevSlow, s.primed = fast, slow, true

	if !primed {
		return optional.None[types.Signal](), nil
	}

	crossedUp := fast > slow && prevFast <= prevSlow
	crossedDown := fast < slow && prevFast >= prevSlow

	switch {
	case crossedUp && ctx.HasOpenPosition():
		return optional.Some(s.signal(types.SignalTypeClose, candle.Close, "fast sma crossed above slow sma")), nil
	case crossedUp:
		return optional.Some(s.signal(types.SignalTypeBuy, candle.Close, "fast sma crossed above slow sma")), nil
	case crossedDown && ctx.HasOpenPosition():
		return optional.Some(s.signal(types.SignalTypeClose, candle.Close, "fast sma crossed below slow sma")), nil
	case crossedDown && s.config.AllowShort:
		return optional.Some(s.signal(types.SignalTypeSell, candle.Close, "fast sma crossed below slow sma")), nil
	}

	return optional.None[types.Signal](), nil
}

func (s *SMACrossover) signal(signalType types.SignalType, price float64, reason string) types.Signal {
	signal := types.Signal{
		Type:       signalType,
		Price:      price,
		StopLoss:   optional.None[float64](),
		TakeProfit: optional.None[float64](),
		Reason:     reason,
		Confidence: 1,
	}

	if signalType == types.SignalTypeClose {
		return signal
	}

	// shorts mirror the levels
	direction := 1.0
	if signalType == types.SignalTypeSell {
		direction = -1.0
	}

	if s.config.StopLossPct > 0 {
		signal.StopLoss = optional.Some(price * (1 - direction*s.config.StopLossPct/100))
	}

	if s.config.TakeProfitPct > 0 {
		signal.TakeProfit = optional.Some(price * (1 + direction*s.config.TakeProfitPct/100))
	}

	return signal
}

// closingAverage calculates the simple moving average of the last period closes.
func closingAverage(candles []types.Candle, period int) (float64, error) {
	closes := make(stats.Float64Data, 0, period)
	for _, c := range candles[len(candles)-period:] {
		closes = append(closes, c.Close)
	}

	return stats.Mean(closes)
}
