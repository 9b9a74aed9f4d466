package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidConfiguration, "invalid configuration")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidConfiguration, err.Code)
	suite.Equal("invalid configuration", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "invalid parameter: %s", "test")
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter: test", err.Message)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "data not found for symbol: %s", "BTCUSDT")
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("data not found for symbol: BTCUSDT", err.Message)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestErrorString() {
	suite.Equal("[100] invalid parameter", New(ErrCodeInvalidParameter, "invalid parameter").Error())

	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.Equal("[203] query failed: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeInvalidParameter, GetCode(New(ErrCodeInvalidParameter, "x")))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("standard error")))

	// outermost coded error wins
	cause := New(ErrCodeDataNotFound, "data not found")
	suite.Equal(ErrCodeQueryFailed, GetCode(Wrap(ErrCodeQueryFailed, "query failed", cause)))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.True(HasCode(err, ErrCodeInvalidParameter))
	suite.False(HasCode(err, ErrCodeDataNotFound))
}

func (suite *ErrorTestSuite) TestIsAndAs() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.True(Is(err, cause))

	var coded *Error
	suite.True(As(err, &coded))
	suite.Equal(ErrCodeDataNotFound, coded.Code)
}

func (suite *ErrorTestSuite) TestEmptyDataError() {
	err := NewEmptyDataError("BTCUSDT", "1h")
	suite.Equal("[200] no candles to replay for BTCUSDT 1h", err.Error())
	suite.True(IsEmptyDataError(err))
	suite.True(IsEmptyDataError(fmt.Errorf("run failed: %w", err)))
	suite.Equal(ErrCodeEmptyData, GetCode(err))
	suite.False(IsEmptyDataError(errors.New("other")))
	suite.False(IsEmptyDataError(nil))
}

func (suite *ErrorTestSuite) TestStrategyError() {
	cause := errors.New("indicator blew up")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := NewStrategyError("sma", 7, at, cause)

	suite.Equal(`[402] strategy "sma" failed at candle 7 (2024-03-01T12:00:00Z): indicator blew up`, err.Error())
	suite.True(IsStrategyError(err))
	suite.True(errors.Is(err, cause))
	suite.Equal(ErrCodeStrategyRuntimeError, GetCode(err))
	suite.False(IsStrategyError(NewEmptyDataError("x", "y")))

	wrapped := NewStrategyError("sma", 3, at, New(ErrCodeInvalidStopLoss, "bad stop"))
	suite.Equal(ErrCodeStrategyRuntimeError, GetCode(wrapped))
	suite.Equal(ErrCodeInvalidStopLoss, GetCode(wrapped.Unwrap()))
	suite.Equal(ErrCodeStrategyRuntimeError, GetCode(fmt.Errorf("run: %w", wrapped)))
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeEmptyData)
	suite.Equal(ErrorCode(400), ErrCodeStrategyNotLoaded)
	suite.Equal(ErrorCode(600), ErrCodeBacktestNotInitialized)
}
