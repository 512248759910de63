// Package cache constructs the Redis client backing the finance cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tamweelsys/fawtara/internal/shared"
)

const (
	dialTimeout = 5 * time.Second
	opTimeout   = 3 * time.Second
	pingTimeout = 5 * time.Second
)

// New connects to Redis at addr and verifies the connection. The cache is
// an accelerator, not a dependency, so callers may treat a failure here as
// a degraded-mode signal rather than fatal.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %v: %w", addr, err, shared.ErrStoreUnavailable)
	}

	return client, nil
}
