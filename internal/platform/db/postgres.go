// Package db owns the PostgreSQL side of the platform layer: pool
// construction and the transaction closure used by the billing writes.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweelsys/fawtara/internal/shared"
)

const (
	minConns        = 2
	maxConns        = 16
	maxConnLifetime = time.Hour
	pingTimeout     = 5 * time.Second
)

// New builds the connection pool for the invoice store and verifies it
// before handing it out. A pool that cannot reach Postgres at startup is
// reported as a store outage rather than a configuration error.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}
	config.MinConns = minConns
	config.MaxConns = maxConns
	config.MaxConnLifetime = maxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("db: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %v: %w", err, shared.ErrStoreUnavailable)
	}

	return pool, nil
}
