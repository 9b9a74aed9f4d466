package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

const candleView = "candles"

// DuckDBDataSource serves candles from a parquet or CSV file through a DuckDB view.
type DuckDBDataSource struct {
	db          *sql.DB
	log         *logger.Logger
	sq          squirrel.StatementBuilderType
	initialized bool
}

// NewDuckDBDataSource opens a DuckDB database at dbPath. Use ":memory:" for an
// in-memory database. Candle files are attached later by Initialize.
func NewDuckDBDataSource(dbPath string, log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='2GB';
		SET threads=4;
	`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to set DuckDB optimizations: %w", err)
	}

	return &DuckDBDataSource{
		db:          db,
		log:         log,
		sq:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		initialized: false,
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.log.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader := "read_parquet"
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		reader = "read_csv_auto"
	}

	_, err := d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s;`, candleView))
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// squirrel has no CREATE VIEW, and table functions do not take bind parameters
	query := fmt.Sprintf(`
		CREATE VIEW %s AS
		SELECT time, open, high, low, close, volume FROM %s('%s');
	`, candleView, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load candles from %s", path)
	}

	d.initialized = true

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if !d.initialized {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "duckdb data source is not initialized")
	}

	query, args, err := d.withRange(d.sq.Select("COUNT(*)").From(candleView), start, end).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool) {
	return func(yield func(types.Candle, error) bool) {
		if !d.initialized {
			yield(types.Candle{}, errors.New(errors.ErrCodeDataSourceUnavailable, "duckdb data source is not initialized"))

			return
		}

		query, args, err := d.withRange(
			d.sq.Select("time", "open", "high", "low", "close", "volume").From(candleView),
			start, end,
		).OrderBy("time ASC").ToSql()
		if err != nil {
			yield(types.Candle{}, fmt.Errorf("failed to build query: %w", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var candle types.Candle

			err := rows.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume)
			if err != nil {
				yield(types.Candle{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan candle", err))

				return
			}

			if !yield(candle, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err))
		}
	}
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	d.initialized = false

	return d.db.Close()
}

func (d *DuckDBDataSource) withRange(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return builder
}
