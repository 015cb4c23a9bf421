package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// BoltConfig holds configuration for the file-backed store.
type BoltConfig struct {
	Path   string
	Bucket string
}

// BoltStore is a persistent, single-process Store kept in a bbolt file.
// Each value is laid out as an 8 byte big endian expiry (unix nanos, 0 for none)
// followed by the raw value.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	logger zerolog.Logger
	now    func() time.Time
}

// NewBoltStore opens or creates the database file at cfg.Path.
func NewBoltStore(cfg *BoltConfig, logger zerolog.Logger) (*BoltStore, error) {
	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", cfg.Path, err)
	}
	bucket := []byte("pagecache")
	if cfg.Bucket != "" {
		bucket = []byte(cfg.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bolt bucket %s: %w", bucket, err)
	}

	logger.Info().Str("path", cfg.Path).Str("bucket", string(bucket)).Msg("BoltStore opened.")
	return &BoltStore{
		db:     db,
		bucket: bucket,
		logger: logger.With().Str("component", "BoltStore").Logger(),
		now:    time.Now,
	}, nil
}

func encodeBoltValue(value string, expiresAt int64) []byte {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)
	return buf
}

// decodeBoltValue returns the value and whether it is still live at now.
func decodeBoltValue(raw []byte, now time.Time) (string, int64, bool) {
	if len(raw) < 8 {
		return "", 0, false
	}
	expiresAt := int64(binary.BigEndian.Uint64(raw[:8]))
	if expiresAt > 0 && now.UnixNano() >= expiresAt {
		return "", expiresAt, false
	}
	return string(raw[8:]), expiresAt, true
}

// Incr increments the counter at key within a single read-write transaction.
func (s *BoltStore) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var expiresAt int64
		if value, exp, ok := decodeBoltValue(b.Get([]byte(key)), s.now()); ok {
			current, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("value at key '%s' is not an integer: %w", key, err)
			}
			n, expiresAt = current, exp
		}
		n++
		return b.Put([]byte(key), encodeBoltValue(strconv.FormatInt(n, 10), expiresAt))
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Bolt increment failed.")
		return 0, fmt.Errorf("bolt incr for %s: %w", key, err)
	}
	return n, nil
}

// Get returns the live value at key or ErrNotFound.
func (s *BoltStore) Get(_ context.Context, key string) (string, error) {
	var (
		out   string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		out, _, found = decodeBoltValue(tx.Bucket(s.bucket).Get([]byte(key)), s.now())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("bolt get for %s: %w", key, err)
	}
	if !found {
		return "", ErrNotFound
	}
	return out, nil
}

// SetEx stores value at key, expiring after ttl. A non-positive ttl stores without expiry.
func (s *BoltStore) SetEx(_ context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), encodeBoltValue(value, expiresAt))
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Bolt put failed.")
		return fmt.Errorf("bolt setex for %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
