package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "SL"
	ExitReasonTakeProfit ExitReason = "TP"
	ExitReasonSignal     ExitReason = "SIGNAL"
	ExitReasonEnd        ExitReason = "END"
)

// Position is an open simulated position. It is owned by the ledger while open;
// strategies only ever see copies. Size is fixed at open time, CurrentPrice is
// the last close the position was marked at and EntryCommission was debited
// from cash when the position opened.
type Position struct {
	ID              int                      `yaml:"id" json:"id"`
	Side            PositionSide             `yaml:"side" json:"side"`
	EntryPrice      float64                  `yaml:"entry_price" json:"entry_price"`
	EntryTime       time.Time                `yaml:"entry_time" json:"entry_time"`
	Size            float64                  `yaml:"size" json:"size"`
	StopLoss        optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit      optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
	CurrentPrice    float64                  `yaml:"current_price" json:"current_price"`
	UnrealizedPnL   float64                  `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	EntryCommission float64                  `yaml:"entry_commission" json:"entry_commission"`
	Reason          string                   `yaml:"reason" json:"reason"`
}

// Notional is the entry value of the position.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Size
}

// Trade is a closed position. Trades are never modified after creation.
//
// PnL is net of the commission paid on both legs. For example, a long of 10
// units from 100 to 110 with 1.0 commission per leg has a PnL of
// (110-100)*10 - 2 = 98. PnLPct is PnL as a percentage of the entry notional
// and Commission is the total paid on entry and exit.
type Trade struct {
	ID         int           `yaml:"id" json:"id" csv:"id"`
	Side       PositionSide  `yaml:"side" json:"side" csv:"side"`
	EntryPrice float64       `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryTime  time.Time     `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitPrice  float64       `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	ExitTime   time.Time     `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	Size       float64       `yaml:"size" json:"size" csv:"size"`
	PnL        float64       `yaml:"pnl" json:"pnl" csv:"pnl"`
	PnLPct     float64       `yaml:"pnl_pct" json:"pnl_pct" csv:"pnl_pct"`
	Duration   time.Duration `yaml:"duration" json:"duration" csv:"duration"`
	ExitReason ExitReason    `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
	Commission float64       `yaml:"commission" json:"commission" csv:"commission"`
}

// IsWin reports whether the trade made money after commission.
func (t *Trade) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports whether the trade lost money after commission.
func (t *Trade) IsLoss() bool {
	return t.PnL < 0
}
