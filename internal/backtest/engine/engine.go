package engine

import (
	"github.com/rxtech-lab/argo-replay/internal/strategy"
	"github.com/rxtech-lab/argo-replay/internal/types"
)

// Lifecycle callback types for a replay run. Callbacks are notifications only;
// a run cannot be aborted from a callback.

// OnRunStartCallback is called once the run has been validated and before the first candle.
type OnRunStartCallback func(strategyName string, symbol string, timeframe string, totalCandles int)

// OnProcessDataCallback is called after each candle is processed.
type OnProcessDataCallback func(current int, total int)

// OnSignalCallback is called for every signal the strategy emits, after it was applied.
type OnSignalCallback func(index int, candle types.Candle, signal types.Signal, outcome types.SignalOutcome)

// OnTradeCallback is called for every closed trade, in closing order.
type OnTradeCallback func(trade types.Trade)

// OnRunEndCallback is called after metrics are computed.
type OnRunEndCallback func(result types.Result)

// LifecycleCallbacks holds all lifecycle callback functions for the replay engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnSignal      *OnSignalCallback
	OnTrade       *OnTradeCallback
	OnRunEnd      *OnRunEndCallback
}

type Engine interface {
	// Initialize parses and validates the YAML engine configuration.
	Initialize(config string) error
	// InitializeWithConfig validates and uses an already built configuration.
	InitializeWithConfig(config types.BacktestConfig) error
	// SetCallbacks registers lifecycle callbacks for subsequent runs.
	SetCallbacks(callbacks LifecycleCallbacks)
	// Run replays the candles through the strategy and returns the result with
	// its metrics. Every call starts from a clean ledger and resets the strategy.
	Run(strategy strategy.Strategy, candles []types.Candle, symbol string, timeframe string) (types.Result, error)
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
