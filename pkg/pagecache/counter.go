package pagecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/illmade-knight/go-pagecache/pkg/cache"
	"github.com/rs/zerolog"
)

// AccessCounter increments a per-URL counter on every call, hit or miss,
// then delegates to the wrapped Fetcher and returns its result unchanged.
type AccessCounter struct {
	store  cache.Store
	next   Fetcher
	logger zerolog.Logger
}

// NewAccessCounter wraps next with access counting in store.
func NewAccessCounter(store cache.Store, next Fetcher, logger zerolog.Logger) (*AccessCounter, error) {
	if store == nil || next == nil {
		return nil, errors.New("store and next fetcher cannot be nil")
	}
	return &AccessCounter{
		store:  store,
		next:   next,
		logger: logger.With().Str("component", "AccessCounter").Logger(),
	}, nil
}

// Fetch counts the access and then fetches url through the wrapped Fetcher.
// A store failure aborts the call before the wrapped Fetcher runs.
func (c *AccessCounter) Fetch(ctx context.Context, url string) (string, error) {
	n, err := c.store.Incr(ctx, CountKey(url))
	if err != nil {
		c.logger.Error().Err(err).Str("url", url).Msg("Failed to increment access counter.")
		return "", fmt.Errorf("failed to count access for %s: %w", url, err)
	}
	c.logger.Debug().Str("url", url).Int64("count", n).Msg("Access counted.")
	return c.next.Fetch(ctx, url)
}

// Count returns the number of accesses recorded for url, 0 if it was never accessed.
func (c *AccessCounter) Count(ctx context.Context, url string) (int64, error) {
	raw, err := c.store.Get(ctx, CountKey(url))
	if errors.Is(err, cache.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read access count for %s: %w", url, err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("access count for %s is not an integer: %w", url, err)
	}
	return n, nil
}
