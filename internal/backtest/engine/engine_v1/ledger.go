package engine

import (
	"sort"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger owns the cash balance, the open positions and the closed trades of one run.
//
// Cash accounting: opening a position only debits the entry commission; the
// notional stays in the cash balance. Closing credits the gross PnL minus the
// exit commission. The net effect of a round trip on cash is therefore exactly
// Trade.PnL, which nets the commission of both legs.
type Ledger struct {
	balance      float64
	positions    map[int]*types.Position
	trades       []types.Trade
	nextID       int
	maxOpen      int
	sizeFraction float64
	slippageRate float64
	commission   commission_fee.CommissionFee
	log          *logger.Logger
}

// ApplyResult describes what a signal did to the ledger.
type ApplyResult struct {
	// Opened is set when the signal opened a position
	Opened optional.Option[types.Position]
	// Closed holds the trades produced by a CLOSE signal
	Closed []types.Trade
	// Rejected is true when an entry was dropped because the position cap was reached
	Rejected bool
}

// Outcome summarizes the result for signal reporting.
func (r ApplyResult) Outcome() types.SignalOutcome {
	switch {
	case r.Opened.IsSome():
		return types.SignalOutcomeOpened
	case r.Rejected:
		return types.SignalOutcomeRejected
	case len(r.Closed) > 0:
		return types.SignalOutcomeClosed
	default:
		return types.SignalOutcomeIgnored
	}
}

// NewLedger creates an empty ledger seeded with the config's initial balance.
func NewLedger(config types.BacktestConfig, log *logger.Logger) *Ledger {
	return &Ledger{
		balance:      config.InitialBalance,
		positions:    make(map[int]*types.Position),
		trades:       make([]types.Trade, 0),
		nextID:       1,
		maxOpen:      config.MaxOpenPositions,
		sizeFraction: config.PositionSizeFraction,
		slippageRate: config.SlippageRate,
		commission:   commission_fee.GetCommissionFeeHandler(config.CommissionRate),
		log:          log,
	}
}

// Balance returns the cash balance.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	return len(l.positions)
}

// OpenPositions returns copies of the open positions ordered by id.
func (l *Ledger) OpenPositions() []types.Position {
	positions := make([]types.Position, 0, len(l.positions))
	for _, id := range l.openIDs() {
		positions = append(positions, *l.positions[id])
	}

	return positions
}

// Trades returns the closed trades in closing order.
func (l *Ledger) Trades() []types.Trade {
	trades := make([]types.Trade, len(l.trades))
	copy(trades, l.trades)

	return trades
}

// Equity returns cash plus the unrealized PnL of every open position.
func (l *Ledger) Equity() float64 {
	equity := decimal.NewFromFloat(l.balance)
	for _, position := range l.positions {
		equity = equity.Add(decimal.NewFromFloat(position.UnrealizedPnL))
	}

	result, _ := equity.Float64()

	return result
}

// ApplySignal applies a strategy signal. CLOSE closes every open position with
// reason SIGNAL; BUY and SELL open a new position unless the cap is reached.
func (l *Ledger) ApplySignal(signal types.Signal, candle types.Candle) (ApplyResult, error) {
	result := ApplyResult{
		Opened:   optional.None[types.Position](),
		Closed:   nil,
		Rejected: false,
	}

	if signal.Type == types.SignalTypeClose {
		trades, err := l.CloseAll(candle, types.ExitReasonSignal)
		if err != nil {
			return result, err
		}

		result.Closed = trades

		return result, nil
	}

	position, ok := l.Open(signal, candle)
	if !ok {
		result.Rejected = true

		return result, nil
	}

	result.Opened = optional.Some(position)

	return result, nil
}

// Open opens a position for a BUY or SELL signal. It is a no-op returning
// false when the open position cap is reached.
func (l *Ledger) Open(signal types.Signal, candle types.Candle) (types.Position, bool) {
	if len(l.positions) >= l.maxOpen {
		l.log.Debug("Entry rejected, position cap reached",
			zap.Int("open", len(l.positions)),
			zap.Int("max", l.maxOpen),
		)

		return types.Position{}, false
	}

	side := signal.PositionSide()
	entryPrice := entryFillPrice(side, signal.Price, l.slippageRate)
	notional, size := positionSize(l.balance, l.sizeFraction, entryPrice)
	entryCommission := l.commission.Calculate(notional)

	l.balance = sub(l.balance, entryCommission)

	position := &types.Position{
		ID:              l.nextID,
		Side:            side,
		EntryPrice:      entryPrice,
		EntryTime:       candle.Time,
		Size:            size,
		StopLoss:        signal.StopLoss,
		TakeProfit:      signal.TakeProfit,
		CurrentPrice:    candle.Close,
		UnrealizedPnL:   grossPnL(side, entryPrice, candle.Close, size),
		EntryCommission: entryCommission,
		Reason:          signal.Reason,
	}
	l.positions[position.ID] = position
	l.nextID++

	l.log.Debug("Position opened",
		zap.Int("id", position.ID),
		zap.String("side", string(side)),
		zap.Float64("entry_price", entryPrice),
		zap.Float64("size", size),
		zap.Float64("commission", entryCommission),
		zap.Float64("balance", l.balance),
	)

	return *position, true
}

// Close closes the position with the given id and records the trade.
func (l *Ledger) Close(id int, candle types.Candle, reason types.ExitReason) (types.Trade, error) {
	position, ok := l.positions[id]
	if !ok {
		return types.Trade{}, errors.Newf(errors.ErrCodePositionNotFound, "position %d is not open", id)
	}

	exitPrice := exitFillPrice(*position, candle, reason)
	gross := grossPnL(position.Side, position.EntryPrice, exitPrice, position.Size)
	exitCommission := l.commission.Calculate(mul(exitPrice, position.Size))

	cashDelta := sub(gross, exitCommission)
	pnl := sub(cashDelta, position.EntryCommission)

	pnlPct := 0.0
	if notional := position.Notional(); notional != 0 {
		pnlPct = pnl / notional * 100
	}

	trade := types.Trade{
		ID:         position.ID,
		Side:       position.Side,
		EntryPrice: position.EntryPrice,
		EntryTime:  position.EntryTime,
		ExitPrice:  exitPrice,
		ExitTime:   candle.Time,
		Size:       position.Size,
		PnL:        pnl,
		PnLPct:     pnlPct,
		Duration:   candle.Time.Sub(position.EntryTime),
		ExitReason: reason,
		Commission: add(position.EntryCommission, exitCommission),
	}

	l.balance = add(l.balance, cashDelta)
	l.trades = append(l.trades, trade)
	delete(l.positions, id)

	l.log.Debug("Position closed",
		zap.Int("id", trade.ID),
		zap.String("reason", string(reason)),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("pnl", pnl),
		zap.Float64("balance", l.balance),
	)

	return trade, nil
}

// Mark updates the current price and unrealized PnL of every open position.
func (l *Ledger) Mark(candle types.Candle) {
	for _, position := range l.positions {
		position.CurrentPrice = candle.Close
		position.UnrealizedPnL = grossPnL(position.Side, position.EntryPrice, candle.Close, position.Size)
	}
}

// CheckExits marks the open positions at the candle and closes those whose
// stop or target was hit, in id order.
func (l *Ledger) CheckExits(candle types.Candle) ([]types.Trade, error) {
	l.Mark(candle)

	var closed []types.Trade

	for _, id := range l.openIDs() {
		reason, hit := exitTrigger(*l.positions[id], candle)
		if !hit {
			continue
		}

		trade, err := l.Close(id, candle, reason)
		if err != nil {
			return closed, err
		}

		closed = append(closed, trade)
	}

	return closed, nil
}

// CloseAll closes every open position at the candle close, in id order.
func (l *Ledger) CloseAll(candle types.Candle, reason types.ExitReason) ([]types.Trade, error) {
	var closed []types.Trade

	for _, id := range l.openIDs() {
		trade, err := l.Close(id, candle, reason)
		if err != nil {
			return closed, err
		}

		closed = append(closed, trade)
	}

	return closed, nil
}

func (l *Ledger) openIDs() []int {
	ids := make([]int, 0, len(l.positions))
	for id := range l.positions {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

func add(a, b float64) float64 {
	result, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Float64()

	return result
}

func sub(a, b float64) float64 {
	result, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Float64()

	return result
}

func mul(a, b float64) float64 {
	result, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Float64()

	return result
}
