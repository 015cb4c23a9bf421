package pagecache

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/illmade-knight/go-pagecache/pkg/cache"
	"github.com/rs/zerolog"
)

// ExpiringCache returns the stored result for a URL while it is fresh and
// otherwise fetches through the wrapped Fetcher and stores the result with a fixed TTL.
//
// Concurrent misses for the same URL are not coalesced: each caller fetches
// and the last write wins.
type ExpiringCache struct {
	store  cache.Store
	next   Fetcher
	ttl    time.Duration
	logger zerolog.Logger
}

// NewExpiringCache wraps next with a cache in store whose entries live for ttl.
func NewExpiringCache(store cache.Store, next Fetcher, ttl time.Duration, logger zerolog.Logger) (*ExpiringCache, error) {
	if store == nil || next == nil {
		return nil, errors.New("store and next fetcher cannot be nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be greater than 0, got %s", ttl)
	}
	return &ExpiringCache{
		store:  store,
		next:   next,
		ttl:    ttl,
		logger: logger.With().Str("component", "ExpiringCache").Logger(),
	}, nil
}

// Fetch implements Fetcher. Fetch and store failures are returned as-is;
// there is no fallback to a stale value.
func (c *ExpiringCache) Fetch(ctx context.Context, url string) (string, error) {
	key := ResultKey(url)

	// 1. Try the store.
	cached, err := c.store.Get(ctx, key)
	if err == nil {
		if !utf8.ValidString(cached) {
			c.logger.Error().Str("key", key).Msg("Cached value is not valid UTF-8.")
			return "", &DecodeError{Key: key}
		}
		c.logger.Debug().Str("url", url).Msg("Cache hit.")
		return cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		c.logger.Error().Err(err).Str("url", url).Msg("Unexpected store error during cache lookup.")
		return "", fmt.Errorf("cache lookup for %s: %w", url, err)
	}

	// 2. Miss, fetch from the source.
	c.logger.Debug().Str("url", url).Msg("Cache miss. Fetching from source.")
	value, err := c.next.Fetch(ctx, url)
	if err != nil {
		c.logger.Error().Err(err).Str("url", url).Msg("Error fetching from source.")
		return "", fmt.Errorf("error fetching %s: %w", url, err)
	}

	// 3. Write back before returning so the result is visible to the next caller.
	if err := c.store.SetEx(ctx, key, value, c.ttl); err != nil {
		return "", fmt.Errorf("cache write for %s: %w", url, err)
	}
	return value, nil
}
