// Package etl implements the CSV-to-star-schema import pipeline: a
// streaming reader, row sanitization, date normalization, dimension
// resolution with run-scoped caches, and batched fact inserts, all
// inside a single transaction.
package etl

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx.Tx the pipeline writes through. Both pgx.Tx
// and test fakes satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}
