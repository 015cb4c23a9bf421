// Package pagecache counts accesses per URL and caches fetched page content
// for a fixed time-to-live in a shared key-value store.
package pagecache

import (
	"context"
	"fmt"
)

// Fetcher is the capability every stage of the pipeline implements: map a URL to its content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// CountKey is the store key holding the access counter for url.
func CountKey(url string) string { return "count:" + url }

// ResultKey is the store key holding the cached content for url.
func ResultKey(url string) string { return "result:" + url }

// DecodeError reports a cached value that could not be decoded as UTF-8 text.
type DecodeError struct {
	Key string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cached value at key '%s' is not valid UTF-8", e.Key)
}
