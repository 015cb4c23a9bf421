package pagecache

import (
	"context"
	"errors"

	"github.com/illmade-knight/go-pagecache/pkg/cache"
	"github.com/rs/zerolog"
)

// PageCache is the composed pipeline: AccessCounter wrapping ExpiringCache wrapping the source Fetcher.
type PageCache struct {
	counter *AccessCounter
}

// New composes the pipeline over store and source. A nil cfg uses DefaultTTL.
func New(cfg *Config, store cache.Store, source Fetcher, logger zerolog.Logger) (*PageCache, error) {
	if source == nil {
		return nil, errors.New("source fetcher cannot be nil")
	}
	ttl := DefaultTTL
	if cfg != nil && cfg.TTL > 0 {
		ttl = cfg.TTL
	}

	expiring, err := NewExpiringCache(store, source, ttl, logger)
	if err != nil {
		return nil, err
	}
	counter, err := NewAccessCounter(store, expiring, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().Dur("ttl", ttl).Msg("PageCache initialized.")
	return &PageCache{counter: counter}, nil
}

// Fetch returns the content of url, counting the access.
func (p *PageCache) Fetch(ctx context.Context, url string) (string, error) {
	return p.counter.Fetch(ctx, url)
}

// Count returns the number of times url has been requested.
func (p *PageCache) Count(ctx context.Context, url string) (int64, error) {
	return p.counter.Count(ctx, url)
}
