// Package cache defines the store contract used to keep conversion results.
package cache

import (
	"context"
	"time"
)

// Interface is a byte store with per entry TTL. Get reports a miss with
// ok=false and a nil error.
type Interface interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
