// Package cache provides TTL-bounded key/value stores that back the
// provider cache decorator: in-memory, ristretto, Redis and Firestore.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"
)

// Store is a generic interface for a TTL-bounded caching layer. Keys are
// opaque strings. An entry older than its TTL must read as absent.
type Store[V any] interface {
	// Lookup retrieves an item. found is false on a miss or after expiry.
	Lookup(ctx context.Context, key string) (value V, found bool, err error)
	// Store adds or replaces an item for ttl.
	Store(ctx context.Context, key string, value V, ttl time.Duration) error
	io.Closer
}

// Entry pairs a cached value with the absolute time it stops being valid.
type Entry[V any] struct {
	Value     V         `json:"value" firestore:"value"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

// NewEntry creates an Entry that expires ttl after now.
func NewEntry[V any](value V, now time.Time, ttl time.Duration) Entry[V] {
	return Entry[V]{Value: value, ExpiresAt: now.Add(ttl)}
}

// Expired reports whether the entry is no longer valid at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// hashKey maps an arbitrary key onto a fixed-length identifier that is safe
// to use where the backend restricts key characters.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
