package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for the Firestore client.
type FirestoreConfig struct {
	ProjectID       string
	CollectionName  string
	CredentialsFile string // Optional: Path to a service account JSON file.
}

// firestoreEntry is the document layout for both counters and cached results.
// Key holds the original store key, since document IDs cannot contain '/'.
type firestoreEntry struct {
	Key       string    `firestore:"key"`
	Value     string    `firestore:"value"`
	ExpiresAt time.Time `firestore:"expiresAt,omitempty"`
}

// FirestoreStore is a Store backed by a single Firestore collection.
// It is suitable for smaller deployments where a dedicated Redis instance may be overkill.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewProductionFirestoreClient creates a Firestore client suitable for production environments.
// It will use Application Default Credentials unless a specific credentials file is provided.
func NewProductionFirestoreClient(ctx context.Context, cfg *FirestoreConfig, logger zerolog.Logger) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		logger.Info().Str("credentials_file", cfg.CredentialsFile).Msg("Using specified credentials file for Firestore client.")
	} else {
		logger.Info().Msg("Using Application Default Credentials (ADC) for Firestore client.")
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return client, nil
}

// NewFirestoreStore creates a new FirestoreStore over an injected client.
func NewFirestoreStore(cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("firestore client cannot be nil")
	}
	if cfg.CollectionName == "" {
		return nil, errors.New("firestore collection name cannot be empty")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Str("collection", cfg.CollectionName).Msg("FirestoreStore initialized.")
	return &FirestoreStore{
		client:     client,
		collection: cfg.CollectionName,
		logger:     logger.With().Str("component", "FirestoreStore").Logger(),
		now:        time.Now,
	}, nil
}

func (s *FirestoreStore) doc(key string) *firestore.DocumentRef {
	sum := sha256.Sum256([]byte(key))
	return s.client.Collection(s.collection).Doc(hex.EncodeToString(sum[:]))
}

func (s *FirestoreStore) live(e firestoreEntry) bool {
	return e.ExpiresAt.IsZero() || s.now().Before(e.ExpiresAt)
}

// Incr reads and rewrites the counter document inside a transaction so that
// concurrent increments are serialised by Firestore.
func (s *FirestoreStore) Incr(ctx context.Context, key string) (int64, error) {
	ref := s.doc(key)
	var n int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		n = 0
		entry := firestoreEntry{Key: key}
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&entry); err != nil {
				return err
			}
			if s.live(entry) {
				current, err := strconv.ParseInt(entry.Value, 10, 64)
				if err != nil {
					return fmt.Errorf("value at key '%s' is not an integer: %w", key, err)
				}
				n = current
			} else {
				entry.ExpiresAt = time.Time{}
			}
		}
		n++
		entry.Value = strconv.FormatInt(n, 10)
		return tx.Set(ref, entry)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Firestore increment failed.")
		return 0, fmt.Errorf("firestore incr for %s: %w", key, err)
	}
	return n, nil
}

// Get fetches the document for key. Missing and expired documents are reported as ErrNotFound.
func (s *FirestoreStore) Get(ctx context.Context, key string) (string, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrNotFound
		}
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get document from Firestore.")
		return "", fmt.Errorf("firestore get for %s: %w", key, err)
	}
	var entry firestoreEntry
	if err := snap.DataTo(&entry); err != nil {
		return "", fmt.Errorf("firestore DataTo for %s: %w", key, err)
	}
	if !s.live(entry) {
		return "", ErrNotFound
	}
	return entry.Value, nil
}

// SetEx writes the document for key with an absolute expiry. Pair the collection
// with a Firestore TTL policy on expiresAt to have expired documents removed.
func (s *FirestoreStore) SetEx(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := firestoreEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	if _, err := s.doc(key).Set(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write document to Firestore.")
		return fmt.Errorf("firestore set for %s: %w", key, err)
	}
	return nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (s *FirestoreStore) Close() error {
	return nil
}
