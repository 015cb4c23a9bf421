package pagecache

import (
	"os"
	"time"
)

// DefaultTTL is how long a fetched page stays in the cache.
const DefaultTTL = 10 * time.Second

// Config holds configuration for a PageCache.
type Config struct {
	TTL time.Duration
}

// LoadConfigFromEnv returns the defaults, overridden by PAGECACHE_TTL when it
// holds a valid positive duration.
func LoadConfigFromEnv() *Config {
	cfg := &Config{TTL: DefaultTTL}
	if ttl := os.Getenv("PAGECACHE_TTL"); ttl != "" {
		if val, err := time.ParseDuration(ttl); err == nil && val > 0 {
			cfg.TTL = val
		}
	}
	return cfg
}
