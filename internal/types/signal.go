package types

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

type SignalType string

const (
	// SignalTypeBuy opens a long position
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell opens a short position
	SignalTypeSell SignalType = "SELL"
	// SignalTypeClose closes the open positions
	SignalTypeClose SignalType = "CLOSE"
)

// Signal is what a strategy returns for a candle. A strategy that wants no
// action returns optional.None[Signal]().
type Signal struct {
	// Type is the action to take
	Type SignalType `yaml:"type" json:"type" validate:"required,oneof=BUY SELL CLOSE"`
	// Price is the reference price, usually the candle close
	Price float64 `yaml:"price" json:"price" validate:"gt=0"`
	// StopLoss is the absolute stop price, fixed at open time
	StopLoss optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	// TakeProfit is the absolute target price, fixed at open time
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
	// Reason is a human readable explanation
	Reason string `yaml:"reason" json:"reason"`
	// Confidence is a score between 0 and 1
	Confidence float64 `yaml:"confidence" json:"confidence" validate:"gte=0,lte=1"`
}

// Validate checks the signal fields and that the stop and target sit on the
// correct side of the reference price for the signal direction. The engine
// treats a failure as a strategy error and aborts the run.
func (s *Signal) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid signal", err)
	}

	if s.Type == SignalTypeClose {
		return nil
	}

	if s.StopLoss.IsSome() {
		sl := s.StopLoss.Unwrap()
		if sl <= 0 || (s.Type == SignalTypeBuy && sl >= s.Price) || (s.Type == SignalTypeSell && sl <= s.Price) {
			return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop loss %v is on the wrong side of %s price %v", sl, s.Type, s.Price)
		}
	}

	if s.TakeProfit.IsSome() {
		tp := s.TakeProfit.Unwrap()
		if tp <= 0 || (s.Type == SignalTypeBuy && tp <= s.Price) || (s.Type == SignalTypeSell && tp >= s.Price) {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit, "take profit %v is on the wrong side of %s price %v", tp, s.Type, s.Price)
		}
	}

	return nil
}

// PositionSide returns the side of the position a BUY or SELL signal opens.
func (s *Signal) PositionSide() PositionSide {
	if s.Type == SignalTypeSell {
		return PositionSideShort
	}

	return PositionSideLong
}

// SignalOutcome is what the engine did with a signal.
type SignalOutcome string

const (
	// SignalOutcomeOpened means a BUY or SELL opened a position
	SignalOutcomeOpened SignalOutcome = "OPENED"
	// SignalOutcomeRejected means a BUY or SELL was dropped at the position cap
	SignalOutcomeRejected SignalOutcome = "REJECTED"
	// SignalOutcomeClosed means a CLOSE closed at least one position
	SignalOutcomeClosed SignalOutcome = "CLOSED"
	// SignalOutcomeIgnored means a CLOSE arrived with nothing open
	SignalOutcomeIgnored SignalOutcome = "IGNORED"
)
