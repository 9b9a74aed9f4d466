package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"go.uber.org/zap"
)

// SignalsFile is the parquet file written by BacktestJournal.Write.
const SignalsFile = "signals.parquet"

// SignalRecord is one journaled strategy signal.
type SignalRecord struct {
	ID          int
	CandleIndex int
	Time        time.Time
	Close       float64
	Signal      types.Signal
	Outcome     types.SignalOutcome
}

// BacktestJournal records every signal a strategy emits together with what
// the engine did with it, in an in-memory DuckDB database.
type BacktestJournal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestJournal creates a new instance of BacktestJournal.
func NewBacktestJournal(logger *logger.Logger) (*BacktestJournal, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	journal := &BacktestJournal{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := journal.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return journal, nil
}

// Record journals a signal. Its signature matches engine.OnSignalCallback
// except for the error, see Callback.
func (j *BacktestJournal) Record(index int, candle types.Candle, signal types.Signal, outcome types.SignalOutcome) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("backtest journal or database is nil")
	}

	var nextID int

	err := j.db.QueryRow("SELECT nextval('signal_id_seq')").Scan(&nextID)
	if err != nil {
		return fmt.Errorf("failed to get next ID from sequence: %w", err)
	}

	_, err = j.sq.
		Insert("signals").
		Columns(
			"id", "candle_index", "time", "close", "signal_type", "price",
			"stop_loss", "take_profit", "confidence", "reason", "outcome",
		).
		Values(
			nextID, index, candle.Time, candle.Close, string(signal.Type), signal.Price,
			nullable(signal.StopLoss), nullable(signal.TakeProfit), signal.Confidence, signal.Reason, string(outcome),
		).
		RunWith(j.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	return nil
}

// Callback adapts Record to a lifecycle callback. Failures are logged since
// callbacks cannot fail a run.
func (j *BacktestJournal) Callback() func(index int, candle types.Candle, signal types.Signal, outcome types.SignalOutcome) {
	return func(index int, candle types.Candle, signal types.Signal, outcome types.SignalOutcome) {
		if err := j.Record(index, candle, signal, outcome); err != nil {
			j.logger.Warn("Failed to journal signal", zap.Int("candle", index), zap.Error(err))
		}
	}
}

// Signals returns all journaled signals in candle order.
func (j *BacktestJournal) Signals() ([]SignalRecord, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("backtest journal or database is nil")
	}

	rows, err := j.sq.
		Select(
			"id", "candle_index", "time", "close", "signal_type", "price",
			"stop_loss", "take_profit", "confidence", "reason", "outcome",
		).
		From("signals").
		OrderBy("candle_index ASC", "id ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var records []SignalRecord

	for rows.Next() {
		var (
			record               SignalRecord
			signalType, outcome  string
			stopLoss, takeProfit sql.NullFloat64
		)

		err := rows.Scan(
			&record.ID,
			&record.CandleIndex,
			&record.Time,
			&record.Close,
			&signalType,
			&record.Signal.Price,
			&stopLoss,
			&takeProfit,
			&record.Signal.Confidence,
			&record.Signal.Reason,
			&outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}

		record.Signal.Type = types.SignalType(signalType)
		record.Signal.StopLoss = fromNullable(stopLoss)
		record.Signal.TakeProfit = fromNullable(takeProfit)
		record.Outcome = types.SignalOutcome(outcome)

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return records, nil
}

// Write saves the signals to a Parquet file in the specified directory.
func (j *BacktestJournal) Write(path string) error {
	if j == nil || j.db == nil || j.logger == nil {
		return fmt.Errorf("backtest journal, database, or logger is nil")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	signalsPath := filepath.Join(path, SignalsFile)

	_, err := j.db.Exec(fmt.Sprintf(`COPY signals TO '%s' (FORMAT PARQUET)`, strings.ReplaceAll(signalsPath, "'", "''")))
	if err != nil {
		return fmt.Errorf("failed to export signals to Parquet: %w", err)
	}

	j.logger.Info("Exported signals to Parquet file",
		zap.String("signals", signalsPath),
	)

	return nil
}

// Cleanup drops every journaled signal.
func (j *BacktestJournal) Cleanup() error {
	if j == nil || j.db == nil {
		return fmt.Errorf("backtest journal or database is nil")
	}

	_, err := j.db.Exec(`
		DROP TABLE IF EXISTS signals;
		DROP SEQUENCE IF EXISTS signal_id_seq;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup signals table: %w", err)
	}

	return j.initialize()
}

// Close closes the database connection.
func (j *BacktestJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}

	return j.db.Close()
}

func (j *BacktestJournal) initialize() error {
	_, err := j.db.Exec(`CREATE SEQUENCE IF NOT EXISTS signal_id_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id INTEGER PRIMARY KEY,
			candle_index INTEGER,
			time TIMESTAMP,
			close DOUBLE,
			signal_type TEXT,
			price DOUBLE,
			stop_loss DOUBLE,
			take_profit DOUBLE,
			confidence DOUBLE,
			reason TEXT,
			outcome TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create signals table: %w", err)
	}

	return nil
}

func nullable(value optional.Option[float64]) any {
	if value.IsNone() {
		return nil
	}

	return value.Unwrap()
}

func fromNullable(value sql.NullFloat64) optional.Option[float64] {
	if !value.Valid {
		return optional.None[float64]()
	}

	return optional.Some(value.Float64)
}
