package engine

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/backtest/engine"
	"github.com/rxtech-lab/argo-replay/internal/backtest/metrics"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/strategy"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

type BacktestEngineV1 struct {
	config      types.BacktestConfig
	log         *logger.Logger
	callbacks   engine.LifecycleCallbacks
	initialized bool
}

// NewBacktestEngineV1 creates an engine that must be initialized before running.
// A nil logger discards all output.
func NewBacktestEngineV1(log *logger.Logger) engine.Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:      EmptyConfig(),
		log:         log,
		callbacks:   engine.LifecycleCallbacks{},
		initialized: false,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		b.log.Error("Failed to parse config", zap.Error(err))

		return err
	}

	return b.InitializeWithConfig(parsed)
}

// InitializeWithConfig implements engine.Engine.
func (b *BacktestEngineV1) InitializeWithConfig(config types.BacktestConfig) error {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		b.log.Error("Invalid config", zap.Error(err))

		return err
	}

	b.config = config
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_balance", config.InitialBalance),
		zap.Float64("commission_rate", config.CommissionRate),
		zap.Float64("slippage_rate", config.SlippageRate),
		zap.Float64("position_size_fraction", config.PositionSizeFraction),
		zap.Int("max_open_positions", config.MaxOpenPositions),
		zap.Int("equity_sample_interval", config.EquitySampleInterval),
	)

	return nil
}

// SetCallbacks implements engine.Engine.
func (b *BacktestEngineV1) SetCallbacks(callbacks engine.LifecycleCallbacks) {
	b.callbacks = callbacks
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	schema, err := GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(strat strategy.Strategy, candles []types.Candle, symbol string, timeframe string) (types.Result, error) {
	if err := b.preRunCheck(strat, candles, symbol, timeframe); err != nil {
		return types.Result{}, err
	}

	total := len(candles)
	ledger := NewLedger(b.config, b.log)
	strat.Reset()

	b.log.Info("Replay started",
		zap.String("strategy", strat.Name()),
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("candles", total),
	)

	if b.callbacks.OnRunStart != nil {
		(*b.callbacks.OnRunStart)(strat.Name(), symbol, timeframe, total)
	}

	equityCurve := []types.EquityPoint{{Time: candles[0].Time, Balance: b.config.InitialBalance}}

	for i, candle := range candles {
		exits, err := ledger.CheckExits(candle)
		if err != nil {
			return types.Result{}, err
		}

		b.notifyTrades(exits)

		signal, err := b.analyze(strat, candles, i, ledger)
		if err != nil {
			b.log.Error("Strategy failed",
				zap.String("strategy", strat.Name()),
				zap.Int("candle", i),
				zap.Error(err),
			)

			return types.Result{}, err
		}

		if signal.IsSome() {
			applied, err := ledger.ApplySignal(signal.Unwrap(), candle)
			if err != nil {
				return types.Result{}, err
			}

			if applied.Opened.IsSome() {
				if observer, ok := strat.(strategy.PositionObserver); ok {
					observer.OnPositionOpened(applied.Opened.Unwrap())
				}
			}

			if b.callbacks.OnSignal != nil {
				(*b.callbacks.OnSignal)(i, candle, signal.Unwrap(), applied.Outcome())
			}

			b.notifyTrades(applied.Closed)
		}

		if i > 0 && i%b.config.EquitySampleInterval == 0 {
			equityCurve = append(equityCurve, types.EquityPoint{Time: candle.Time, Balance: ledger.Equity()})
		}

		if b.callbacks.OnProcessData != nil {
			(*b.callbacks.OnProcessData)(i+1, total)
		}
	}

	last := candles[total-1]

	finalTrades, err := ledger.CloseAll(last, types.ExitReasonEnd)
	if err != nil {
		return types.Result{}, err
	}

	b.notifyTrades(finalTrades)

	finalBalance := ledger.Balance()
	equityCurve = appendFinalPoint(equityCurve, types.EquityPoint{Time: last.Time, Balance: finalBalance})

	result := buildResult(b.config, symbol, timeframe, candles, ledger.Trades(), equityCurve, finalBalance)
	result.Metrics = metrics.Compute(result)

	b.log.Info("Replay finished",
		zap.String("strategy", strat.Name()),
		zap.Int("trades", result.TotalTrades),
		zap.Float64("final_balance", result.FinalBalance),
		zap.Float64("total_return_pct", result.Metrics.TotalReturnPct),
	)

	if b.callbacks.OnRunEnd != nil {
		(*b.callbacks.OnRunEnd)(result)
	}

	return result, nil
}

// Run replays candles with a one-off engine built from the config.
func Run(strat strategy.Strategy, candles []types.Candle, symbol string, timeframe string, config types.BacktestConfig, log *logger.Logger) (types.Result, error) {
	backtest := NewBacktestEngineV1(log)
	if err := backtest.InitializeWithConfig(config); err != nil {
		return types.Result{}, err
	}

	return backtest.Run(strat, candles, symbol, timeframe)
}

// analyze calls the strategy for candle i, turning errors, panics and invalid
// signals into a StrategyError. A signal is invalid when Signal.Validate
// rejects it, which includes a stop loss or take profit on the wrong side of
// the reference price. Such a signal aborts the run rather than being dropped.
func (b *BacktestEngineV1) analyze(strat strategy.Strategy, candles []types.Candle, i int, ledger *Ledger) (signal optional.Option[types.Signal], err error) {
	candle := candles[i]

	defer func() {
		if recovered := recover(); recovered != nil {
			signal = optional.None[types.Signal]()
			err = errors.NewStrategyError(strat.Name(), i, candle.Time, fmt.Errorf("panic: %v", recovered))
		}
	}()

	ctx := strategy.Context{
		Candles:       candles,
		CurrentIndex:  i,
		Balance:       ledger.Balance(),
		OpenPositions: ledger.OpenPositions(),
	}

	signal, err = strat.Analyze(candle, ctx)
	if err != nil {
		return optional.None[types.Signal](), errors.NewStrategyError(strat.Name(), i, candle.Time, err)
	}

	if signal.IsSome() {
		emitted := signal.Unwrap()
		if err := emitted.Validate(); err != nil {
			return optional.None[types.Signal](), errors.NewStrategyError(strat.Name(), i, candle.Time, err)
		}
	}

	return signal, nil
}

func (b *BacktestEngineV1) notifyTrades(trades []types.Trade) {
	if b.callbacks.OnTrade == nil {
		return
	}

	for _, trade := range trades {
		(*b.callbacks.OnTrade)(trade)
	}
}

func (b *BacktestEngineV1) preRunCheck(strat strategy.Strategy, candles []types.Candle, symbol string, timeframe string) error {
	if !b.initialized {
		b.log.Error("Engine not initialized")

		return errors.New(errors.ErrCodeBacktestNotInitialized, "backtest engine is not initialized")
	}

	if strat == nil {
		b.log.Error("No strategy loaded")

		return errors.New(errors.ErrCodeStrategyNotLoaded, "no strategy loaded")
	}

	if len(candles) == 0 {
		b.log.Error("No candles to replay",
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe),
		)

		return errors.NewEmptyDataError(symbol, timeframe)
	}

	if ok, index := types.IsChronological(candles); !ok {
		b.log.Error("Candles are not in chronological order", zap.Int("index", index))

		return errors.Newf(errors.ErrCodeUnorderedData, "candle %d at %s is not after the previous candle", index, candles[index].Time)
	}

	return nil
}

// appendFinalPoint appends the closing balance, replacing the last sample
// when it already has the same timestamp. Point 0 always keeps the initial
// balance, so a one candle run ends up with two points at the same time.
func appendFinalPoint(curve []types.EquityPoint, point types.EquityPoint) []types.EquityPoint {
	if n := len(curve); n > 1 && curve[n-1].Time.Equal(point.Time) {
		curve[n-1] = point

		return curve
	}

	return append(curve, point)
}

func buildResult(
	config types.BacktestConfig,
	symbol string,
	timeframe string,
	candles []types.Candle,
	trades []types.Trade,
	equityCurve []types.EquityPoint,
	finalBalance float64,
) types.Result {
	result := types.Result{
		Config:         config,
		Symbol:         symbol,
		Timeframe:      timeframe,
		Period:         types.Period{Start: candles[0].Time, End: candles[len(candles)-1].Time},
		InitialBalance: config.InitialBalance,
		FinalBalance:   finalBalance,
		TotalTrades:    len(trades),
		WinningTrades:  0,
		LosingTrades:   0,
		GrossProfit:    0,
		GrossLoss:      0,
		Trades:         trades,
		EquityCurve:    equityCurve,
		Metrics:        types.AdvancedMetrics{},
	}

	for _, trade := range trades {
		switch {
		case trade.IsWin():
			result.WinningTrades++
			result.GrossProfit = add(result.GrossProfit, trade.PnL)
		case trade.IsLoss():
			result.LosingTrades++
			result.GrossLoss = sub(result.GrossLoss, trade.PnL)
		}
	}

	return result
}
