package datasource

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

type DataSource interface {
	// Initialize loads the candle file at path, replacing anything loaded before
	Initialize(path string) error
	// ReadAll yields the candles between start and end (both inclusive) in time order
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool)
	// Count returns the number of candles between start and end
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// NewDataSourceForPath picks an implementation from the file extension:
// .csv files are parsed in memory, .parquet files are queried through DuckDB.
func NewDataSourceForPath(path string, log *logger.Logger) (DataSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVDataSource(log), nil
	case ".parquet":
		return NewDuckDBDataSource(":memory:", log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported candle file type: %s", path)
	}
}

// LoadCandles initializes the data source with path and collects the candles
// in the optional time range.
func LoadCandles(ds DataSource, path string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Candle, error) {
	if err := ds.Initialize(path); err != nil {
		return nil, err
	}

	count, err := ds.Count(start, end)
	if err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, count)

	for candle, err := range ds.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
