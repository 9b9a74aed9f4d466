package datasource

import (
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

// CSVDataSource reads candles from a CSV file with a
// time,open,high,low,close,volume header. Times are RFC3339.
type CSVDataSource struct {
	candles []types.Candle
	log     *logger.Logger
}

func NewCSVDataSource(log *logger.Logger) *CSVDataSource {
	return &CSVDataSource{
		candles: nil,
		log:     log,
	}
}

// Initialize implements DataSource.
func (c *CSVDataSource) Initialize(path string) error {
	c.log.Debug("Initializing CSV data source", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open candle file %s", path)
	}
	defer file.Close()

	var candles []types.Candle
	if err := gocsv.UnmarshalFile(file, &candles); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse candle file %s", path)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	c.candles = candles

	c.log.Debug("CSV data source loaded", zap.Int("candles", len(candles)))

	return nil
}

// ReadAll implements DataSource.
func (c *CSVDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool) {
	return func(yield func(types.Candle, error) bool) {
		if c.candles == nil {
			yield(types.Candle{}, errors.New(errors.ErrCodeDataSourceUnavailable, "csv data source is not initialized"))

			return
		}

		for _, candle := range c.candles {
			if !inRange(candle.Time, start, end) {
				continue
			}

			if !yield(candle, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (c *CSVDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if c.candles == nil {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "csv data source is not initialized")
	}

	count := 0

	for _, candle := range c.candles {
		if inRange(candle.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (c *CSVDataSource) Close() error {
	c.candles = nil

	return nil
}
