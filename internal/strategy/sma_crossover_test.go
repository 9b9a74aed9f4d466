package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SMACrossoverTestSuite struct {
	suite.Suite
	candles []types.Candle
}

func TestSMACrossoverSuite(t *testing.T) {
	suite.Run(t, new(SMACrossoverTestSuite))
}

func (suite *SMACrossoverTestSuite) SetupTest() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{10, 9, 8, 7, 8, 10, 12, 6}

	suite.candles = make([]types.Candle, len(closes))
	for i, c := range closes {
		suite.candles[i] = types.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
}

// replay feeds every candle to the strategy and collects the signal types by index.
func (suite *SMACrossoverTestSuite) replay(s Strategy, open map[int]bool) map[int]types.Signal {
	signals := map[int]types.Signal{}

	for i, candle := range suite.candles {
		ctx := Context{Candles: suite.candles, CurrentIndex: i, Balance: 1000}
		if open[i] {
			ctx.OpenPositions = []types.Position{{ID: 1}}
		}

		signal, err := s.Analyze(candle, ctx)
		suite.Require().NoError(err)

		if signal.IsSome() {
			signals[i] = signal.Unwrap()
		}
	}

	return signals
}

func (suite *SMACrossoverTestSuite) TestInvalidConfig() {
	_, err := NewSMACrossover(SMACrossoverConfig{FastPeriod: 5, SlowPeriod: 3})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))

	_, err = NewSMACrossover(SMACrossoverConfig{FastPeriod: 0, SlowPeriod: 3})
	suite.Error(err)
}

func (suite *SMACrossoverTestSuite) TestName() {
	s, err := NewSMACrossover(SMACrossoverConfig{FastPeriod: 2, SlowPeriod: 3})
	suite.Require().NoError(err)
	suite.Equal("SMA_Cross_2_3", s.Name())
}

func (suite *SMACrossoverTestSuite) TestGoldenCrossBuysWithLevels() {
	s, err := NewSMACrossover(SMACrossoverConfig{FastPeriod: 2, SlowPeriod: 3, StopLossPct: 5, TakeProfitPct: 10})
	suite.Require().NoError(err)

	signals := suite.replay(s, map[int]bool{7: true})

	suite.Len(signals, 2)

	buy := signals[5]
	suite.Equal(types.SignalTypeBuy, buy.Type)
	suite.Equal(10.0, buy.Price)
	suite.InDelta(9.5, buy.StopLoss.Unwrap(), 1e-9)
	suite.InDelta(11.0, buy.TakeProfit.Unwrap(), 1e-9)
	suite.NoError(buy.Validate())

	closeSignal := signals[7]
	suite.Equal(types.SignalTypeClose, closeSignal.Type)
	suite.Equal(6.0, closeSignal.Price)
}

func (suite *SMACrossoverTestSuite) TestDeathCrossShorts() {
	s, err := NewSMACrossover(SMACrossoverConfig{FastPeriod: 2, SlowPeriod: 3, StopLossPct: 5, AllowShort: true})
	suite.Require().NoError(err)

	signals := suite.replay(s, nil)

	sell := signals[7]
	suite.Equal(types.SignalTypeSell, sell.Type)
	suite.InDelta(6.3, sell.StopLoss.Unwrap(), 1e-9)
	suite.True(sell.TakeProfit.IsNone())
	suite.NoError(sell.Validate())
}

func (suite *SMACrossoverTestSuite) TestDeathCrossWithoutShortsIsIgnored() {
	s, err := NewSMACrossover(SMACrossoverConfig{FastPeriod: 2, SlowPeriod: 3})
	suite.Require().NoError(err)

	signals := suite.replay(s, nil)

	suite.Len(signals, 1)
	suite.Equal(types.SignalTypeBuy, signals[5].Type)
}

func (suite *SMACrossoverTestSuite) TestResetClearsState() {
	s, err := NewSMACrossover(SMACrossoverConfig{FastPeriod: 2, SlowPeriod: 3})
	suite.Require().NoError(err)

	first := suite.replay(s, nil)
	s.OnPositionOpened(types.Position{ID: 1})
	suite.Equal(1, s.PositionsOpened())

	s.Reset()
	suite.Equal(0, s.PositionsOpened())

	second := suite.replay(s, nil)
	suite.Equal(first, second)
}
