package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweelsys/fawtara/internal/shared"
)

// serializationFailure is the SQLSTATE Postgres raises when repeatable-read
// transactions collide; callers retry those like version conflicts.
const serializationFailure = "40001"

// WithTx runs fn inside a repeatable-read transaction, committing on a nil
// return and rolling back otherwise. Errors from fn pass through untouched;
// begin and commit failures are classified as a store outage, except for
// serialization failures which surface as a conflict.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("db: begin tx: %v: %w", err, shared.ErrStoreUnavailable)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == serializationFailure {
			return fmt.Errorf("db: commit tx: %v: %w", err, shared.ErrConflict)
		}
		return fmt.Errorf("db: commit tx: %v: %w", err, shared.ErrStoreUnavailable)
	}

	return nil
}
