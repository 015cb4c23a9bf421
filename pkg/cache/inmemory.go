package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type inMemoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// InMemoryStore is a thread-safe, in-memory implementation of Store.
// It is primarily intended for local development and testing; the clock
// can be replaced to exercise expiry without sleeping.
type InMemoryStore struct {
	mu   sync.Mutex
	data map[string]inMemoryEntry
	now  func() time.Time
}

// NewInMemoryStore creates a new in-memory store using the wall clock.
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithClock(time.Now)
}

// NewInMemoryStoreWithClock creates a new in-memory store that reads the time from now.
func NewInMemoryStoreWithClock(now func() time.Time) *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]inMemoryEntry),
		now:  now,
	}
}

// lookup must be called with the mutex held.
func (s *InMemoryStore) lookup(key string) (inMemoryEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return e, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.data, key)
		return e, false
	}
	return e, true
}

// Incr increments the integer at key. Like Redis, it keeps any existing expiry.
func (s *InMemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	e, ok := s.lookup(key)
	if !ok {
		e = inMemoryEntry{}
	} else {
		n, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at key '%s' is not an integer: %w", key, err)
		}
		current = n
	}
	current++
	e.value = strconv.FormatInt(current, 10)
	s.data[key] = e
	return current, nil
}

// Get returns the value at key or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.value, nil
}

// SetEx stores value at key, expiring after ttl. A non-positive ttl stores without expiry.
func (s *InMemoryStore) SetEx(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := inMemoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

// Close is a no-op for the in-memory implementation.
func (s *InMemoryStore) Close() error {
	return nil
}
