package writers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type WritersTestSuite struct {
	suite.Suite
	dir    string
	result types.Result
}

func TestWritersSuite(t *testing.T) {
	suite.Run(t, new(WritersTestSuite))
}

func (suite *WritersTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.result = types.Result{
		Config:         types.BacktestConfig{InitialBalance: 10000, PositionSizeFraction: 0.1, MaxOpenPositions: 1, EquitySampleInterval: 24},
		Symbol:         "BTCUSDT",
		Timeframe:      "1h",
		Period:         types.Period{Start: start, End: start.Add(48 * time.Hour)},
		InitialBalance: 10000,
		FinalBalance:   10050,
		TotalTrades:    2,
		WinningTrades:  1,
		LosingTrades:   1,
		GrossProfit:    80,
		GrossLoss:      30,
		Trades: []types.Trade{
			{
				ID: 1, Side: types.PositionSideLong, EntryPrice: 100, EntryTime: start,
				ExitPrice: 108, ExitTime: start.Add(6 * time.Hour), Size: 10, PnL: 80, PnLPct: 8,
				Duration: 6 * time.Hour, ExitReason: types.ExitReasonTakeProfit, Commission: 0,
			},
			{
				ID: 2, Side: types.PositionSideShort, EntryPrice: 110, EntryTime: start.Add(10 * time.Hour),
				ExitPrice: 113, ExitTime: start.Add(40 * time.Hour), Size: 10, PnL: -30, PnLPct: -2.7272,
				Duration: 30 * time.Hour, ExitReason: types.ExitReasonStopLoss, Commission: 0,
			},
		},
		EquityCurve: []types.EquityPoint{
			{Time: start, Balance: 10000},
			{Time: start.Add(24 * time.Hour), Balance: 10060},
			{Time: start.Add(48 * time.Hour), Balance: 10050},
		},
		Metrics: types.AdvancedMetrics{
			TotalReturnPct:      0.5,
			WinRate:             50,
			ProfitFactor:        80.0 / 30.0,
			MaxDrawdownDuration: 24 * time.Hour,
		},
	}
}

func (suite *WritersTestSuite) TestWriteResult() {
	folder := filepath.Join(suite.dir, "run")
	suite.Require().NoError(WriteResult(folder, "run-1", "SMA_Cross_2_3", suite.result))

	for _, name := range []string{StatsFile, TradesFile, EquityCurveFile} {
		_, err := os.Stat(filepath.Join(folder, name))
		suite.NoError(err, name)
	}

	stats, err := ReadStats(filepath.Join(folder, StatsFile))
	suite.Require().NoError(err)
	suite.Equal("run-1", stats.RunID)
	suite.Equal("SMA_Cross_2_3", stats.Strategy)
	suite.Equal("BTCUSDT", stats.Symbol)
	suite.Equal(10050.0, stats.FinalBalance)
	suite.Equal(2, stats.TotalTrades)
	suite.Equal(50.0, stats.Metrics.WinRate)
	suite.Equal(24*time.Hour, stats.Metrics.MaxDrawdownDuration)
	suite.True(stats.Period.End.Equal(suite.result.Period.End))
}

func (suite *WritersTestSuite) TestWriteTrades() {
	path := filepath.Join(suite.dir, TradesFile)
	suite.Require().NoError(WriteTrades(path, suite.result.Trades))

	file, err := os.Open(path)
	suite.Require().NoError(err)

	defer file.Close()

	var rows []tradeRow
	suite.Require().NoError(gocsv.UnmarshalFile(file, &rows))
	suite.Require().Len(rows, 2)

	suite.Equal(1, rows[0].ID)
	suite.Equal("LONG", rows[0].Side)
	suite.Equal("TP", rows[0].ExitReason)
	suite.Equal(6.0, rows[0].DurationHours)
	suite.Equal(-30.0, rows[1].PnL)
	suite.Equal("SL", rows[1].ExitReason)
	suite.True(rows[1].ExitTime.Equal(suite.result.Trades[1].ExitTime))
}

func (suite *WritersTestSuite) TestWriteEquityCurve() {
	path := filepath.Join(suite.dir, EquityCurveFile)
	suite.Require().NoError(WriteEquityCurve(path, suite.result.EquityCurve))

	file, err := os.Open(path)
	suite.Require().NoError(err)

	defer file.Close()

	var points []types.EquityPoint
	suite.Require().NoError(gocsv.UnmarshalFile(file, &points))
	suite.Require().Len(points, 3)
	suite.Equal(10000.0, points[0].Balance)
	suite.Equal(10050.0, points[2].Balance)
}

func (suite *WritersTestSuite) TestWriteResultUnwritableFolder() {
	blocker := filepath.Join(suite.dir, "file")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))

	err := WriteResult(filepath.Join(blocker, "run"), "run-1", "s", suite.result)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeResultWriteFailed))
}

func (suite *WritersTestSuite) TestReadStatsMissing() {
	_, err := ReadStats(filepath.Join(suite.dir, "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
