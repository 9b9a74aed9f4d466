package engine

import (
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/shopspring/decimal"
)

// entryFillPrice applies slippage against the position: longs fill higher,
// shorts fill lower.
func entryFillPrice(side types.PositionSide, price float64, slippageRate float64) float64 {
	adjustment := decimal.NewFromFloat(1).Add(decimal.NewFromFloat(slippageRate))
	if side == types.PositionSideShort {
		adjustment = decimal.NewFromFloat(1).Sub(decimal.NewFromFloat(slippageRate))
	}

	fill, _ := decimal.NewFromFloat(price).Mul(adjustment).Float64()

	return fill
}

// exitFillPrice returns the price a position closes at for the given reason.
// Stops and targets fill exactly at their level; everything else at the close.
func exitFillPrice(position types.Position, candle types.Candle, reason types.ExitReason) float64 {
	switch reason {
	case types.ExitReasonTakeProfit:
		return position.TakeProfit.Unwrap()
	case types.ExitReasonStopLoss:
		return position.StopLoss.Unwrap()
	default:
		return candle.Close
	}
}

// positionSize returns the notional committed and the resulting quantity.
func positionSize(balance float64, fraction float64, entryPrice float64) (float64, float64) {
	notionalDec := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(fraction))
	sizeDec := notionalDec.Div(decimal.NewFromFloat(entryPrice))

	notional, _ := notionalDec.Float64()
	size, _ := sizeDec.Float64()

	return notional, size
}

// grossPnL is the price move times size, before commission. Shorts profit when price falls.
func grossPnL(side types.PositionSide, entryPrice float64, exitPrice float64, size float64) float64 {
	move := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entryPrice))
	if side == types.PositionSideShort {
		move = move.Neg()
	}

	pnl, _ := move.Mul(decimal.NewFromFloat(size)).Float64()

	return pnl
}

// exitTrigger evaluates stop and target for one candle. The stop is checked
// first and a triggered stop suppresses the target check, so a candle whose
// range covers both levels always exits at the stop.
func exitTrigger(position types.Position, candle types.Candle) (types.ExitReason, bool) {
	if position.StopLoss.IsSome() {
		sl := position.StopLoss.Unwrap()
		if (position.Side == types.PositionSideLong && candle.Low <= sl) ||
			(position.Side == types.PositionSideShort && candle.High >= sl) {
			return types.ExitReasonStopLoss, true
		}
	}

	if position.TakeProfit.IsSome() {
		tp := position.TakeProfit.Unwrap()
		if (position.Side == types.PositionSideLong && candle.High >= tp) ||
			(position.Side == types.PositionSideShort && candle.Low <= tp) {
			return types.ExitReasonTakeProfit, true
		}
	}

	return "", false
}
