package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore is a Store backed by Redis using INCR, GET and SET with EX.
type RedisStore struct {
	redisClient *redis.Client
	logger      zerolog.Logger
}

// NewRedisStore creates and connects a new RedisStore.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")
	return NewRedisStoreFromClient(rdb, logger), nil
}

// NewRedisStoreFromClient wraps an already configured client. The store takes
// ownership of the client and closes it on Close.
func NewRedisStoreFromClient(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		redisClient: client,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
	}
}

// Incr atomically increments the counter at key.
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.redisClient.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Redis INCR failed.")
		return 0, fmt.Errorf("redis incr for %s: %w", key, err)
	}
	return n, nil
}

// Get retrieves the string at key. A redis.Nil reply is reported as ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		s.logger.Error().Err(err).Str("key", key).Msg("Redis GET failed.")
		return "", fmt.Errorf("redis get for %s: %w", key, err)
	}
	return value, nil
}

// SetEx stores value at key with the given expiry.
func (s *RedisStore) SetEx(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.redisClient.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Redis SETEX failed.")
		return fmt.Errorf("redis setex for %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Stored value in Redis.")
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}
