// Package cache provides the key-value stores that back the page cache.
package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or its expiry has passed.
var ErrNotFound = errors.New("cache: key not found")

// Store defines the contract for a shared key-value service supporting
// atomic increment and set-with-expiry. Implementations must be safe for
// concurrent use.
type Store interface {
	// Incr atomically increments the integer stored at key and returns the new value.
	// A missing key is treated as 0.
	Incr(ctx context.Context, key string) (int64, error)
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// SetEx stores value at key, replacing any previous value, expiring after ttl.
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error
	// Closer is included for implementations that manage network connections.
	io.Closer
}
