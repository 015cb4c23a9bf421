package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/illmade-knight/go-pagecache/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := cache.NewRedisStore(ctx, &cache.RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	t.Run("Get miss maps redis.Nil to ErrNotFound", func(t *testing.T) {
		_, err := s.Get(ctx, "result:http://absent")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Incr", func(t *testing.T) {
		n, err := s.Incr(ctx, "count:http://x")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = s.Incr(ctx, "count:http://x")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		raw, err := mr.Get("count:http://x")
		require.NoError(t, err)
		assert.Equal(t, "2", raw)
		assert.Zero(t, mr.TTL("count:http://x"), "counters must not expire")
	})

	t.Run("SetEx stores with ttl", func(t *testing.T) {
		require.NoError(t, s.SetEx(ctx, "result:http://x", "A", 10*time.Second))
		assert.Equal(t, 10*time.Second, mr.TTL("result:http://x"))

		v, err := s.Get(ctx, "result:http://x")
		require.NoError(t, err)
		assert.Equal(t, "A", v)

		mr.FastForward(11 * time.Second)
		_, err = s.Get(ctx, "result:http://x")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Connectivity failure propagates", func(t *testing.T) {
		broken := cache.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zerolog.Nop())
		t.Cleanup(func() { _ = broken.Close() })
		mr.SetError("ERR server unavailable")
		t.Cleanup(func() { mr.SetError("") })

		_, err := broken.Incr(ctx, "count:http://x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cache.NewRedisStore(ctx, &cache.RedisConfig{Addr: addr}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
