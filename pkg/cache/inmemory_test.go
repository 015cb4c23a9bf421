package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/illmade-knight/go-pagecache/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := cache.NewInMemoryStoreWithClock(clock.Now)
	t.Cleanup(func() { _ = s.Close() })

	t.Run("Get miss", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Incr counts from zero", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			n, err := s.Incr(ctx, "count:a")
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}
		v, err := s.Get(ctx, "count:a")
		require.NoError(t, err)
		assert.Equal(t, "3", v)
	})

	t.Run("Incr on non-integer fails", func(t *testing.T) {
		require.NoError(t, s.SetEx(ctx, "text", "hello", 0))
		_, err := s.Incr(ctx, "text")
		require.Error(t, err)
	})

	t.Run("SetEx expires after ttl", func(t *testing.T) {
		require.NoError(t, s.SetEx(ctx, "result:a", "A", 10*time.Second))

		clock.Advance(9 * time.Second)
		v, err := s.Get(ctx, "result:a")
		require.NoError(t, err)
		assert.Equal(t, "A", v)

		clock.Advance(1 * time.Second)
		_, err = s.Get(ctx, "result:a")
		require.ErrorIs(t, err, cache.ErrNotFound, "value should be gone once the ttl has elapsed")
	})

	t.Run("Concurrent Incr loses no updates", func(t *testing.T) {
		const workers, perWorker = 8, 50
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					_, _ = s.Incr(ctx, "count:busy")
				}
			}()
		}
		wg.Wait()
		v, err := s.Get(ctx, "count:busy")
		require.NoError(t, err)
		assert.Equal(t, "400", v)
	})
}
