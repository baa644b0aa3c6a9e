package cache

import (
	"context"
	"time"
)

// Store is the minimal key-value contract the manager needs. Any backend
// satisfying it is substitutable.
type Store interface {
	// Get returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key; a non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int, error)
	// Keys lists the keys matching a glob pattern (* and ?).
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
