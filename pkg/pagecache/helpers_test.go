package pagecache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/illmade-knight/go-pagecache/pkg/cache"
)

// mockSource is a test double for the network fetcher. It returns the next
// queued response on each call and counts invocations.
type mockSource struct {
	callCount atomic.Int32
	mu        sync.Mutex
	responses []string
	err       error
}

func newMockSource(responses ...string) *mockSource {
	return &mockSource{responses: responses}
}

func (m *mockSource) Fetch(_ context.Context, _ string) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", errors.New("mock source has no responses left")
	}
	next := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return next, nil
}

// fakeClock is a manually advanced clock for the in-memory store.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
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

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	cache.Store
	incrErr error
	getErr  error
	setErr  error
}

func (s *failingStore) Incr(ctx context.Context, key string) (int64, error) {
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	return s.Store.Incr(ctx, key)
}

func (s *failingStore) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.Store.Get(ctx, key)
}

func (s *failingStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.SetEx(ctx, key, value, ttl)
}
