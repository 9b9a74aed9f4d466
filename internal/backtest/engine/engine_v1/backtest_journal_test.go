package engine

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/backtest/engine"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/mocks"
	"github.com/stretchr/testify/suite"
)

type BacktestJournalTestSuite struct {
	suite.Suite
	journal *BacktestJournal
	logger  *logger.Logger
	start   time.Time
}

func TestBacktestJournalSuite(t *testing.T) {
	suite.Run(t, new(BacktestJournalTestSuite))
}

func (suite *BacktestJournalTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *BacktestJournalTestSuite) SetupTest() {
	journal, err := NewBacktestJournal(suite.logger)
	suite.Require().NoError(err)

	suite.journal = journal
}

func (suite *BacktestJournalTestSuite) TearDownTest() {
	suite.NoError(suite.journal.Close())
}

func (suite *BacktestJournalTestSuite) TestRecordAndRead() {
	candles := mocks.CandlesFromCloses(suite.start, 100, 101)

	buy := types.Signal{
		Type:       types.SignalTypeBuy,
		Price:      100,
		StopLoss:   optional.Some(95.0),
		TakeProfit: optional.None[float64](),
		Confidence: 0.8,
		Reason:     "golden cross",
	}
	closeSignal := types.Signal{
		Type:       types.SignalTypeClose,
		Price:      101,
		StopLoss:   optional.None[float64](),
		TakeProfit: optional.None[float64](),
		Confidence: 1,
		Reason:     "death cross",
	}

	suite.Require().NoError(suite.journal.Record(1, candles[1], closeSignal, types.SignalOutcomeClosed))
	suite.Require().NoError(suite.journal.Record(0, candles[0], buy, types.SignalOutcomeOpened))

	records, err := suite.journal.Signals()
	suite.Require().NoError(err)
	suite.Require().Len(records, 2)

	suite.Equal(0, records[0].CandleIndex)
	suite.Equal(2, records[0].ID)
	suite.True(records[0].Time.Equal(candles[0].Time))
	suite.Equal(100.0, records[0].Close)
	suite.Equal(types.SignalTypeBuy, records[0].Signal.Type)
	suite.Equal(optional.Some(95.0), records[0].Signal.StopLoss)
	suite.True(records[0].Signal.TakeProfit.IsNone())
	suite.Equal(0.8, records[0].Signal.Confidence)
	suite.Equal("golden cross", records[0].Signal.Reason)
	suite.Equal(types.SignalOutcomeOpened, records[0].Outcome)

	suite.Equal(1, records[1].CandleIndex)
	suite.Equal(types.SignalTypeClose, records[1].Signal.Type)
	suite.Equal(types.SignalOutcomeClosed, records[1].Outcome)
}

func (suite *BacktestJournalTestSuite) TestJournalsAReplay() {
	backtest := NewBacktestEngineV1(suite.logger)
	config := TestConfig()
	config.CommissionRate = 0
	config.SlippageRate = 0
	suite.Require().NoError(backtest.InitializeWithConfig(config))

	onSignal := engine.OnSignalCallback(suite.journal.Callback())
	backtest.SetCallbacks(engine.LifecycleCallbacks{OnSignal: &onSignal})

	strat := newScriptedStrategy(map[int]types.Signal{
		0: {Type: types.SignalTypeBuy, Price: 100, StopLoss: optional.None[float64](), TakeProfit: optional.None[float64]()},
		1: {Type: types.SignalTypeBuy, Price: 102, StopLoss: optional.None[float64](), TakeProfit: optional.None[float64]()},
		2: {Type: types.SignalTypeClose, Price: 104},
	})

	_, err := backtest.Run(strat, mocks.CandlesFromCloses(suite.start, 100, 102, 104), "BTCUSDT", "1h")
	suite.Require().NoError(err)

	records, err := suite.journal.Signals()
	suite.Require().NoError(err)
	suite.Require().Len(records, 3)
	suite.Equal(types.SignalOutcomeOpened, records[0].Outcome)
	suite.Equal(types.SignalOutcomeRejected, records[1].Outcome)
	suite.Equal(types.SignalOutcomeClosed, records[2].Outcome)
}

func (suite *BacktestJournalTestSuite) TestWrite() {
	candles := mocks.CandlesFromCloses(suite.start, 100, 101, 102)
	for i, candle := range candles {
		signal := types.Signal{Type: types.SignalTypeBuy, Price: candle.Close, StopLoss: optional.None[float64](), TakeProfit: optional.None[float64]()}
		suite.Require().NoError(suite.journal.Record(i, candle, signal, types.SignalOutcomeOpened))
	}

	dir := filepath.Join(suite.T().TempDir(), "run")
	suite.Require().NoError(suite.journal.Write(dir))

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	var count int

	query := fmt.Sprintf("SELECT COUNT(*) FROM read_parquet('%s')", filepath.Join(dir, SignalsFile))
	suite.Require().NoError(db.QueryRow(query).Scan(&count))
	suite.Equal(3, count)
}

func (suite *BacktestJournalTestSuite) TestWriteQuotedPath() {
	candle := mocks.CandlesFromCloses(suite.start, 100)[0]
	signal := types.Signal{Type: types.SignalTypeBuy, Price: 100, StopLoss: optional.None[float64](), TakeProfit: optional.None[float64]()}
	suite.Require().NoError(suite.journal.Record(0, candle, signal, types.SignalOutcomeOpened))

	dir := filepath.Join(suite.T().TempDir(), "trader's run")
	suite.Require().NoError(suite.journal.Write(dir))
	suite.FileExists(filepath.Join(dir, SignalsFile))
}

func (suite *BacktestJournalTestSuite) TestCleanup() {
	candle := mocks.CandlesFromCloses(suite.start, 100)[0]
	signal := types.Signal{Type: types.SignalTypeSell, Price: 100, StopLoss: optional.None[float64](), TakeProfit: optional.None[float64]()}

	suite.Require().NoError(suite.journal.Record(0, candle, signal, types.SignalOutcomeOpened))
	suite.Require().NoError(suite.journal.Cleanup())

	records, err := suite.journal.Signals()
	suite.Require().NoError(err)
	suite.Empty(records)

	suite.Require().NoError(suite.journal.Record(0, candle, signal, types.SignalOutcomeOpened))

	records, err = suite.journal.Signals()
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Equal(1, records[0].ID)
}

func (suite *BacktestJournalTestSuite) TestNilJournal() {
	var journal *BacktestJournal

	suite.Error(journal.Record(0, types.Candle{}, types.Signal{}, types.SignalOutcomeIgnored))
	suite.Error(journal.Write(suite.T().TempDir()))
	suite.NoError(journal.Close())

	_, err := journal.Signals()
	suite.Error(err)
}
