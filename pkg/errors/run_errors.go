package errors

import (
	"errors"
	"fmt"
	"time"
)

// EmptyDataError is returned when a run is started without any candles.
type EmptyDataError struct {
	Symbol    string
	Timeframe string
}

// NewEmptyDataError creates a new EmptyDataError.
func NewEmptyDataError(symbol, timeframe string) *EmptyDataError {
	return &EmptyDataError{
		Symbol:    symbol,
		Timeframe: timeframe,
	}
}

// Error implements the error interface.
func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("[%d] no candles to replay for %s %s", ErrCodeEmptyData, e.Symbol, e.Timeframe)
}

// Code returns ErrCodeEmptyData so GetCode works on this type too.
func (e *EmptyDataError) Code() ErrorCode {
	return ErrCodeEmptyData
}

// IsEmptyDataError checks if an error is an EmptyDataError.
func IsEmptyDataError(err error) bool {
	var emptyErr *EmptyDataError

	return errors.As(err, &emptyErr)
}

// StrategyError is returned when a strategy fails while analyzing a candle.
// That covers a returned error, a panic and an invalid signal, such as a BUY
// whose stop loss is at or above its price. The run is aborted and no partial
// result is produced.
type StrategyError struct {
	Strategy    string
	CandleIndex int
	CandleTime  time.Time
	Cause       error
}

// NewStrategyError creates a new StrategyError.
func NewStrategyError(strategy string, index int, candleTime time.Time, cause error) *StrategyError {
	return &StrategyError{
		Strategy:    strategy,
		CandleIndex: index,
		CandleTime:  candleTime,
		Cause:       cause,
	}
}

// Error implements the error interface.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("[%d] strategy %q failed at candle %d (%s): %v",
		ErrCodeStrategyRuntimeError, e.Strategy, e.CandleIndex, e.CandleTime.Format(time.RFC3339), e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *StrategyError) Unwrap() error {
	return e.Cause
}

// Code returns ErrCodeStrategyRuntimeError.
func (e *StrategyError) Code() ErrorCode {
	return ErrCodeStrategyRuntimeError
}

// IsStrategyError checks if an error is a StrategyError.
func IsStrategyError(err error) bool {
	var strategyErr *StrategyError

	return errors.As(err, &strategyErr)
}
