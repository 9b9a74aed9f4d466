package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/types"
)

// Context is the read-only view of the run a strategy receives for each candle.
type Context struct {
	// Candles is the full series. Strategies must only look at
	// Candles[:CurrentIndex+1]; later candles are the future.
	Candles []types.Candle
	// CurrentIndex is the index of the candle being analyzed
	CurrentIndex int
	// Balance is the current cash balance
	Balance float64
	// OpenPositions are copies of the open positions ordered by id
	OpenPositions []types.Position
}

// History returns the candles up to and including the current one.
func (c Context) History() []types.Candle {
	return c.Candles[:c.CurrentIndex+1]
}

// HasOpenPosition reports whether any position is open.
func (c Context) HasOpenPosition() bool {
	return len(c.OpenPositions) > 0
}

// Strategy is the decision maker driven by the replay engine.
// Strategies may keep indicator state between Analyze calls of one run;
// Reset is called before every run and must clear it.
type Strategy interface {
	// Name returns the name of the strategy
	Name() string
	// Analyze returns the signal for the candle, or None for no action
	Analyze(candle types.Candle, ctx Context) (optional.Option[types.Signal], error)
	// Reset clears internal state
	Reset()
}

// PositionObserver is implemented by strategies that want to be told when a
// position they asked for is actually opened.
type PositionObserver interface {
	OnPositionOpened(position types.Position)
}
