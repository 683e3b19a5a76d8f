//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	"github.com/dwhouse/retail-bi/internal/logging"
)

// DefaultBatchSize is the fact batch threshold used when none is
// configured.
const DefaultBatchSize = 500

// State tracks a load run through its lifecycle. Terminal states are
// final; a Loader is single-use.
type State int

const (
	StateNotStarted State = iota
	StateInTransaction
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateInTransaction:
		return "in transaction"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Result reports what one load run did. Malformed and BadDate rows are
// not errors; they are skipped row-locally and counted here so data
// loss is visible in the final summary.
type Result struct {
	Loaded    int64 // rows that reached the fact table
	Malformed int64 // rows rejected for having too few fields
	BadDates  int64 // rows dropped for an unparsable order date
}

// RowError wraps a storage failure with the 1-based data row that
// triggered it.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// TxBeginner opens transactions; *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Loader owns one import run: it wires the reader, sanitizer, date
// normalizer, resolver and batcher into a single transaction and
// decides commit versus rollback. The run is strictly sequential; the
// transaction connection and the resolver caches are touched by nothing
// else for its duration.
type Loader struct {
	db        TxBeginner
	batchSize int
	state     State
}

// NewLoader creates a Loader. A non-positive batchSize falls back to
// DefaultBatchSize.
func NewLoader(db TxBeginner, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{db: db, batchSize: batchSize}
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	return l.state
}

// Run imports the CSV from src. Either every surviving row is committed
// or, on the first storage-level failure, the whole run is rolled back
// and the failing row is reported; there is no partial success for
// storage errors. Row-level skips (malformed shape, unparsable order
// date) are not failures and are reported in the Result.
func (l *Loader) Run(ctx context.Context, src io.Reader) (Result, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	l.state = StateInTransaction

	res, err := l.run(ctx, tx, src)
	if err != nil {
		_ = tx.Rollback(ctx)
		l.state = StateRolledBack
		logging.Error().Err(err).Msg("Load failed, all writes rolled back")
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		l.state = StateRolledBack
		return res, fmt.Errorf("commit: %w", err)
	}
	l.state = StateCommitted

	logging.Info().
		Int64("loaded", res.Loaded).
		Int64("malformed", res.Malformed).
		Int64("bad_dates", res.BadDates).
		Msg("Load complete")
	return res, nil
}

func (l *Loader) run(ctx context.Context, tx pgx.Tx, src io.Reader) (Result, error) {
	var res Result

	reader := NewReader(src)
	resolver := NewResolver(tx)
	batcher := NewBatcher(tx, l.batchSize)
	batcher.OnFlush = func(total int64) {
		logging.Info().Int64("rows", total).Msg("Processed batch")
	}

	for {
		fields, rowNum, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, &RowError{Row: rowNum, Err: err}
		}

		row, ok := Sanitize(fields)
		if !ok {
			res.Malformed++
			logging.Warn().Int("row", rowNum).Msg("Skipping malformed row")
			continue
		}

		orderDate, err := ParseDMY(row.OrderDate)
		if err != nil {
			res.BadDates++
			logging.Debug().Int("row", rowNum).Str("date", row.OrderDate).
				Msg("Skipping row with unparsable order date")
			continue
		}

		shipDate, err := ParseDMY(row.ShipDate)
		if err != nil {
			shipDate = orderDate
		}

		customerID, err := resolver.Customer(ctx, row)
		if err != nil {
			return res, &RowError{Row: rowNum, Err: err}
		}
		productID, err := resolver.Product(ctx, row)
		if err != nil {
			return res, &RowError{Row: rowNum, Err: err}
		}
		locationID, err := resolver.Location(ctx, row)
		if err != nil {
			return res, &RowError{Row: rowNum, Err: err}
		}
		dateID, err := resolver.Date(ctx, orderDate)
		if err != nil {
			return res, &RowError{Row: rowNum, Err: err}
		}

		fact := Fact{
			OrderSourceID: row.OrderID,
			CustomerID:    customerID,
			ProductID:     productID,
			LocationID:    locationID,
			DateID:        dateID,
			ShipDate:      shipDate.Time,
			ShipMode:      row.ShipMode,
			Sales:         row.Sales,
			Quantity:      row.Quantity,
			Discount:      row.Discount,
			Profit:        row.Profit,
		}
		if err := batcher.Add(ctx, fact); err != nil {
			return res, &RowError{Row: rowNum, Err: err}
		}
		res.Loaded++
	}

	if err := batcher.Flush(ctx); err != nil {
		return res, fmt.Errorf("final flush: %w", err)
	}
	return res, nil
}
