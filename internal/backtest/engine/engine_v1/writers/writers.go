package writers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	StatsFile       = "stats.yaml"
	TradesFile      = "trades.csv"
	EquityCurveFile = "equity_curve.csv"
)

// RunStats is the document written to stats.yaml. Trades and the equity curve
// go to their own CSV files.
type RunStats struct {
	RunID          string                `yaml:"run_id"`
	Strategy       string                `yaml:"strategy"`
	Symbol         string                `yaml:"symbol"`
	Timeframe      string                `yaml:"timeframe"`
	Period         types.Period          `yaml:"period"`
	Config         types.BacktestConfig  `yaml:"config"`
	InitialBalance float64               `yaml:"initial_balance"`
	FinalBalance   float64               `yaml:"final_balance"`
	TotalTrades    int                   `yaml:"total_trades"`
	WinningTrades  int                   `yaml:"winning_trades"`
	LosingTrades   int                   `yaml:"losing_trades"`
	GrossProfit    float64               `yaml:"gross_profit"`
	GrossLoss      float64               `yaml:"gross_loss"`
	Metrics        types.AdvancedMetrics `yaml:"metrics"`
}

// NewRunStats extracts the summary of a result.
func NewRunStats(runID string, strategy string, result types.Result) RunStats {
	return RunStats{
		RunID:          runID,
		Strategy:       strategy,
		Symbol:         result.Symbol,
		Timeframe:      result.Timeframe,
		Period:         result.Period,
		Config:         result.Config,
		InitialBalance: result.InitialBalance,
		FinalBalance:   result.FinalBalance,
		TotalTrades:    result.TotalTrades,
		WinningTrades:  result.WinningTrades,
		LosingTrades:   result.LosingTrades,
		GrossProfit:    result.GrossProfit,
		GrossLoss:      result.GrossLoss,
		Metrics:        result.Metrics,
	}
}

// tradeRow flattens a trade for CSV. Duration is written in hours.
type tradeRow struct {
	ID            int       `csv:"id"`
	Side          string    `csv:"side"`
	EntryTime     time.Time `csv:"entry_time"`
	EntryPrice    float64   `csv:"entry_price"`
	ExitTime      time.Time `csv:"exit_time"`
	ExitPrice     float64   `csv:"exit_price"`
	Size          float64   `csv:"size"`
	PnL           float64   `csv:"pnl"`
	PnLPct        float64   `csv:"pnl_pct"`
	DurationHours float64   `csv:"duration_hours"`
	ExitReason    string    `csv:"exit_reason"`
	Commission    float64   `csv:"commission"`
}

// WriteResult writes stats.yaml, trades.csv and equity_curve.csv into folder,
// creating it when needed.
func WriteResult(folder string, runID string, strategy string, result types.Result) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create results folder %s", folder)
	}

	if err := WriteStats(filepath.Join(folder, StatsFile), NewRunStats(runID, strategy, result)); err != nil {
		return err
	}

	if err := WriteTrades(filepath.Join(folder, TradesFile), result.Trades); err != nil {
		return err
	}

	return WriteEquityCurve(filepath.Join(folder, EquityCurveFile), result.EquityCurve)
}

// WriteStats writes the run summary as YAML.
func WriteStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to marshal stats to YAML", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats to file", err)
	}

	return nil
}

// ReadStats reads a stats file written by WriteStats.
func ReadStats(path string) (RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunStats{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read stats file %s", path)
	}

	var stats RunStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return RunStats{}, fmt.Errorf("failed to parse stats file: %w", err)
	}

	return stats, nil
}

// WriteTrades writes one CSV row per trade in closing order.
func WriteTrades(path string, trades []types.Trade) error {
	rows := make([]tradeRow, 0, len(trades))
	for _, trade := range trades {
		rows = append(rows, tradeRow{
			ID:            trade.ID,
			Side:          string(trade.Side),
			EntryTime:     trade.EntryTime,
			EntryPrice:    trade.EntryPrice,
			ExitTime:      trade.ExitTime,
			ExitPrice:     trade.ExitPrice,
			Size:          trade.Size,
			PnL:           trade.PnL,
			PnLPct:        trade.PnLPct,
			DurationHours: trade.Duration.Hours(),
			ExitReason:    string(trade.ExitReason),
			Commission:    trade.Commission,
		})
	}

	return writeCSV(path, &rows)
}

// WriteEquityCurve writes the sampled equity curve.
func WriteEquityCurve(path string, curve []types.EquityPoint) error {
	rows := curve
	if rows == nil {
		rows = []types.EquityPoint{}
	}

	return writeCSV(path, &rows)
}

func writeCSV(path string, rows any) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
