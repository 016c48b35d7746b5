package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const firestoreSourceName = "firestore-source"

// FirestoreSourceConfig holds configuration for a FirestoreSource.
type FirestoreSourceConfig struct {
	ProjectID      string
	CollectionName string
	// DocumentIDParam names the request parameter holding the document ID.
	// When empty, or absent from a request, the document ID is the SHA-256 of
	// the request's cache key.
	DocumentIDParam string
}

// FirestoreSource is a base provider that reads one document per request
// from a Firestore collection and returns its fields as a JSON payload.
type FirestoreSource struct {
	client          *firestore.Client
	collectionName  string
	documentIDParam string
	logger          zerolog.Logger
}

// NewFirestoreSource creates a new FirestoreSource.
func NewFirestoreSource(
	cfg *FirestoreSourceConfig,
	client *firestore.Client,
	logger zerolog.Logger,
) (*FirestoreSource, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Str("collection", cfg.CollectionName).Msg("FirestoreSource initialized.")

	return &FirestoreSource{
		client:          client,
		collectionName:  cfg.CollectionName,
		documentIDParam: cfg.DocumentIDParam,
		logger:          logger.With().Str("component", "FirestoreSource").Logger(),
	}, nil
}

// Get retrieves the document for req.
func (s *FirestoreSource) Get(ctx context.Context, req provider.Request) (provider.Response, error) {
	docID := s.documentID(req)
	docSnap, err := s.client.Collection(s.collectionName).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return provider.Response{}, provider.NewProviderError(firestoreSourceName, fmt.Errorf("document %s: %w", docID, provider.ErrNotFound))
		}
		return provider.Response{}, provider.NewProviderError(firestoreSourceName, fmt.Errorf("firestore get for %s: %w", docID, err))
	}

	payload, err := json.Marshal(docSnap.Data())
	if err != nil {
		return provider.Response{}, provider.NewProviderError(firestoreSourceName, fmt.Errorf("malformed document %s: %w", docID, err))
	}

	s.logger.Debug().Str("doc_id", docID).Msg("Successfully fetched data from Firestore.")
	return provider.Response{Payload: payload}, nil
}

func (s *FirestoreSource) documentID(req provider.Request) string {
	if s.documentIDParam != "" {
		if v, ok := req.Param(s.documentIDParam); ok {
			if id, ok := v.(string); ok && id != "" {
				return id
			}
		}
	}
	sum := sha256.Sum256([]byte(req.Key()))
	return hex.EncodeToString(sum[:])
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (s *FirestoreSource) Close() error {
	return nil
}
