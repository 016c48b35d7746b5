package cache

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for the Firestore client.
type FirestoreConfig struct {
	ProjectID      string
	CollectionName string
}

// firestoreEntry is the document layout. Key keeps the original cache key
// because the document ID is its hash.
type firestoreEntry[V any] struct {
	Key       string    `firestore:"key"`
	Value     V         `firestore:"value"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

// FirestoreStore is a generic Store backed by a Firestore collection.
// Firestore TTL policies on expiresAt remove documents lazily, so Lookup also
// checks the expiry itself.
// It is suitable for smaller deployments where a dedicated Redis instance may be overkill.
type FirestoreStore[V any] struct {
	client         *firestore.Client
	collectionName string
	now            func() time.Time
	logger         zerolog.Logger
}

// NewFirestoreStore creates a new generic FirestoreStore.
func NewFirestoreStore[V any](
	cfg *FirestoreConfig,
	client *firestore.Client,
	logger zerolog.Logger,
) (*FirestoreStore[V], error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Str("collection", cfg.CollectionName).Msg("FirestoreStore initialized.")

	return &FirestoreStore[V]{
		client:         client,
		collectionName: cfg.CollectionName,
		now:            time.Now,
		logger:         logger.With().Str("component", "FirestoreStore").Logger(),
	}, nil
}

// Lookup retrieves a single entry. Missing and expired documents are misses.
func (s *FirestoreStore[V]) Lookup(ctx context.Context, key string) (V, bool, error) {
	var zero V
	docID := hashKey(key)
	docSnap, err := s.client.Collection(s.collectionName).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return zero, false, nil
		}
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get document from Firestore.")
		return zero, false, fmt.Errorf("firestore get for %s: %w", docID, err)
	}

	var doc firestoreEntry[V]
	if err := docSnap.DataTo(&doc); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to map Firestore document data.")
		return zero, false, fmt.Errorf("firestore DataTo for %s: %w", docID, err)
	}

	entry := Entry[V]{Value: doc.Value, ExpiresAt: doc.ExpiresAt}
	if entry.Expired(s.now()) {
		s.logger.Debug().Str("key", key).Msg("Firestore entry has expired.")
		return zero, false, nil
	}

	s.logger.Debug().Str("key", key).Msg("Firestore cache hit.")
	return entry.Value, true, nil
}

// Store writes the entry document, overwriting any previous one.
func (s *FirestoreStore[V]) Store(ctx context.Context, key string, value V, ttl time.Duration) error {
	entry := NewEntry(value, s.now(), ttl)
	docID := hashKey(key)
	doc := firestoreEntry[V]{Key: key, Value: entry.Value, ExpiresAt: entry.ExpiresAt}
	if _, err := s.client.Collection(s.collectionName).Doc(docID).Set(ctx, doc); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write document to Firestore.")
		return fmt.Errorf("firestore set for %s: %w", docID, err)
	}
	s.logger.Debug().Str("key", key).Msg("Successfully wrote data to Firestore.")
	return nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (s *FirestoreStore[V]) Close() error {
	return nil
}
