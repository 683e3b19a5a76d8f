package etl

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Fact is one transformed sales measurement, ready for the fact table.
// All dimension references have been resolved before a Fact is built.
type Fact struct {
	OrderSourceID string
	CustomerID    int64
	ProductID     int64
	LocationID    int64
	DateID        int64
	ShipDate      time.Time
	ShipMode      string
	Sales         float64
	Quantity      int
	Discount      float64
	Profit        float64
}

// factColumns is the CopyFrom target column list; created_at is left to
// its database default.
var factColumns = []string{
	"order_source_id",
	"customer_id",
	"product_id",
	"location_id",
	"order_date_id",
	"ship_date",
	"ship_mode",
	"sales",
	"quantity",
	"discount",
	"profit",
}

// Batcher accumulates fact rows and flushes them to storage in bulk
// once a fixed threshold is reached. Buffering amortizes insert
// overhead only; rows do not interact across batch boundaries.
type Batcher struct {
	db      DB
	size    int
	buf     []Fact
	written int64

	// OnFlush, when set, is called after each flush with the running
	// total of rows written.
	OnFlush func(total int64)
}

// NewBatcher creates a Batcher flushing every size rows through db.
func NewBatcher(db DB, size int) *Batcher {
	return &Batcher{
		db:   db,
		size: size,
		buf:  make([]Fact, 0, size),
	}
}

// Add buffers one fact row, flushing if the buffer is full.
func (b *Batcher) Add(ctx context.Context, f Fact) error {
	b.buf = append(b.buf, f)
	if len(b.buf) >= b.size {
		return b.flush(ctx)
	}
	return nil
}

// Flush writes any remaining partial buffer. Call once at end of input;
// it is a no-op when the buffer is empty.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.flush(ctx)
}

// Written returns the total number of rows flushed so far.
func (b *Batcher) Written() int64 {
	return b.written
}

func (b *Batcher) flush(ctx context.Context) error {
	rows := make([][]any, len(b.buf))
	for i, f := range b.buf {
		rows[i] = []any{
			f.OrderSourceID,
			f.CustomerID,
			f.ProductID,
			f.LocationID,
			f.DateID,
			f.ShipDate,
			f.ShipMode,
			f.Sales,
			f.Quantity,
			f.Discount,
			f.Profit,
		}
	}

	n, err := b.db.CopyFrom(ctx, pgx.Identifier{"fact_sales"}, factColumns,
		pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}

	b.written += n
	b.buf = b.buf[:0]
	if b.OnFlush != nil {
		b.OnFlush(b.written)
	}
	return nil
}
