// Package httpfetch retrieves page content over HTTP.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Config holds configuration for the HTTP fetcher.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// NewDefaultConfig provides a config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Timeout:   20 * time.Second,
		UserAgent: "go-pagecache/1.0",
	}
}

// HTTPFetcher performs a GET for a URL and returns the response body as text.
// The body is returned whatever the status code; only transport failures are errors.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPFetcher creates a fetcher. A nil client gets a new one with cfg.Timeout.
func NewHTTPFetcher(cfg *Config, client *http.Client, logger zerolog.Logger) *HTTPFetcher {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		logger:    logger.With().Str("component", "HTTPFetcher").Logger(),
	}
}

// Fetch implements pagecache.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("url must start with http:// or https://")
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error().Err(err).Str("url", rawURL).Msg("HTTP request failed.")
		return "", fmt.Errorf("http get %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn().Str("url", rawURL).Int("status", resp.StatusCode).Msg("Non-success status; returning body anyway.")
	}
	f.logger.Debug().Str("url", rawURL).Int("bytes", len(body)).Dur("elapsed", time.Since(start)).Msg("Fetched page.")
	return string(body), nil
}
