package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/olekukonko/tablewriter"
	"github.com/rxtech-lab/argo-replay/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-replay/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-replay/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-replay/internal/backtest/engine/engine_v1/writers"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/strategy"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runParams holds everything one CLI invocation needs.
type runParams struct {
	DataPath    string
	ConfigPath  string
	ResultsPath string
	Symbol      string
	Timeframe   string
	Start       optional.Option[time.Time]
	End         optional.Option[time.Time]
	Strategy    strategy.SMACrossoverConfig
	ShowBar     bool
}

// runOutput is what a completed run leaves behind.
type runOutput struct {
	RunID  string
	Folder string
	Result types.Result
}

// runBacktest loads the candles, replays them through an SMA crossover and
// writes the results into a fresh run folder.
func runBacktest(params runParams, log *logger.Logger) (runOutput, error) {
	configContent, err := os.ReadFile(params.ConfigPath)
	if err != nil {
		return runOutput{}, fmt.Errorf("failed to read config: %w", err)
	}

	ds, err := datasource.NewDataSourceForPath(params.DataPath, log)
	if err != nil {
		return runOutput{}, err
	}
	defer ds.Close()

	candles, err := datasource.LoadCandles(ds, params.DataPath, params.Start, params.End)
	if err != nil {
		return runOutput{}, fmt.Errorf("failed to load candles: %w", err)
	}

	strat, err := strategy.NewSMACrossover(params.Strategy)
	if err != nil {
		return runOutput{}, err
	}

	journal, err := engine_v1.NewBacktestJournal(log)
	if err != nil {
		return runOutput{}, err
	}
	defer journal.Close()

	backtest := engine_v1.NewBacktestEngineV1(log)
	if err := backtest.Initialize(string(configContent)); err != nil {
		return runOutput{}, fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	backtest.SetCallbacks(callbacks(journal, len(candles), params.ShowBar))

	result, err := backtest.Run(strat, candles, params.Symbol, params.Timeframe)
	if err != nil {
		return runOutput{}, fmt.Errorf("backtest failed: %w", err)
	}

	runID := uuid.New().String()
	folder := filepath.Join(params.ResultsPath, strat.Name(), runID)

	if err := writers.WriteResult(folder, runID, strat.Name(), result); err != nil {
		return runOutput{}, err
	}

	if err := journal.Write(folder); err != nil {
		return runOutput{}, err
	}

	return runOutput{RunID: runID, Folder: folder, Result: result}, nil
}

func callbacks(journal *engine_v1.BacktestJournal, total int, showBar bool) engine.LifecycleCallbacks {
	onSignal := engine.OnSignalCallback(journal.Callback())
	lifecycle := engine.LifecycleCallbacks{OnSignal: &onSignal}

	if !showBar {
		return lifecycle
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Replaying candles"),
		progressbar.OptionShowCount(),
	)
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) {
		_ = bar.Set(current)
	})
	lifecycle.OnProcessData = &onProcessData

	return lifecycle
}

// summaryTable renders the headline numbers of a run.
func summaryTable(result types.Result) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	metrics := result.Metrics
	rows := [][]string{
		{"Symbol", fmt.Sprintf("%s %s", result.Symbol, result.Timeframe)},
		{"Period", fmt.Sprintf("%s - %s", result.Period.Start.Format(time.RFC3339), result.Period.End.Format(time.RFC3339))},
		{"Initial balance", fmt.Sprintf("%.2f", result.InitialBalance)},
		{"Final balance", fmt.Sprintf("%.2f", result.FinalBalance)},
		{"Total return", fmt.Sprintf("%.2f%%", metrics.TotalReturnPct)},
		{"Annualized return", fmt.Sprintf("%.2f%%", metrics.AnnualizedReturnPct)},
		{"Trades", fmt.Sprintf("%d (%d won, %d lost)", result.TotalTrades, result.WinningTrades, result.LosingTrades)},
		{"Win rate", fmt.Sprintf("%.2f%%", metrics.WinRate)},
		{"Profit factor", fmt.Sprintf("%.2f", metrics.ProfitFactor)},
		{"Sharpe ratio", fmt.Sprintf("%.2f", metrics.SharpeRatio)},
		{"Sortino ratio", fmt.Sprintf("%.2f", metrics.SortinoRatio)},
		{"Max drawdown", fmt.Sprintf("%.2f (%.2f%%)", metrics.MaxDrawdown, metrics.MaxDrawdownPct)},
		{"Commission", fmt.Sprintf("%.2f", metrics.TotalCommission)},
	}

	table.AppendBulk(rows)
	table.Render()

	return display.String()
}

func backtestAction(_ context.Context, cmd *cli.Command) error {
	params := runParams{
		DataPath:    cmd.String("data"),
		ConfigPath:  cmd.String("config"),
		ResultsPath: cmd.String("results"),
		Symbol:      cmd.String("symbol"),
		Timeframe:   cmd.String("timeframe"),
		Start:       optional.None[time.Time](),
		End:         optional.None[time.Time](),
		Strategy: strategy.SMACrossoverConfig{
			FastPeriod:    cmd.Int("fast"),
			SlowPeriod:    cmd.Int("slow"),
			StopLossPct:   cmd.Float("sl"),
			TakeProfitPct: cmd.Float("tp"),
			AllowShort:    cmd.Bool("allow-short"),
		},
		ShowBar: !cmd.Bool("quiet"),
	}

	if cmd.IsSet("start") {
		params.Start = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		params.End = optional.Some(cmd.Timestamp("end"))
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = appLogger.Sync() }()

	output, err := runBacktest(params, appLogger)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(summaryTable(output.Result))
	appLogger.Info("Results written", zap.String("run_id", output.RunID), zap.String("folder", output.Folder))

	return nil
}

func main() {
	timeConfig := cli.TimestampConfig{
		Layouts: []string{"2006-01-02", time.RFC3339},
	}

	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical candles through an SMA crossover strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Candle file (.csv or .parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Backtest engine YAML config",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "results",
				Usage: "Folder the run results are written to",
				Value: "results",
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Instrument name recorded in the result",
				Value: "UNKNOWN",
			},
			&cli.StringFlag{
				Name:  "timeframe",
				Usage: "Candle timeframe recorded in the result",
				Value: "1h",
			},
			&cli.TimestampFlag{
				Name:   "start",
				Usage:  "Only replay candles at or after `YYYY-MM-DD`",
				Config: timeConfig,
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "Only replay candles at or before `YYYY-MM-DD`",
				Config: timeConfig,
			},
			&cli.IntFlag{
				Name:  "fast",
				Usage: "Fast SMA period",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "slow",
				Usage: "Slow SMA period",
				Value: 30,
			},
			&cli.FloatFlag{
				Name:  "sl",
				Usage: "Stop loss distance in percent, 0 disables it",
				Value: 2,
			},
			&cli.FloatFlag{
				Name:  "tp",
				Usage: "Take profit distance in percent, 0 disables it",
				Value: 4,
			},
			&cli.BoolFlag{
				Name:  "allow-short",
				Usage: "Short the death cross instead of only closing longs",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
