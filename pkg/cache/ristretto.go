package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// RistrettoConfig holds the sizing of a RistrettoStore.
type RistrettoConfig struct {
	// MaxEntries is the maximum number of items held (each item costs 1).
	MaxEntries int64
	// BufferItems is the size of ristretto's Get buffers. Defaults to 64.
	BufferItems int64
}

// RistrettoStore is an in-process Store backed by ristretto. Ristretto
// enforces the TTL itself: expired items are never returned by Get.
type RistrettoStore[V any] struct {
	rc *ristretto.Cache[string, V]
}

// NewRistrettoStore creates a new ristretto-backed store.
func NewRistrettoStore[V any](cfg *RistrettoConfig) (*RistrettoStore[V], error) {
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("MaxEntries must be greater than 0")
	}
	bufferItems := cfg.BufferItems
	if bufferItems <= 0 {
		bufferItems = 64
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	return &RistrettoStore[V]{rc: rc}, nil
}

// Lookup retrieves an item by key.
func (s *RistrettoStore[V]) Lookup(_ context.Context, key string) (V, bool, error) {
	v, ok := s.rc.Get(key)
	return v, ok, nil
}

// Store adds an item with the given TTL and waits for the write to be
// applied, so that an immediate Lookup observes it.
func (s *RistrettoStore[V]) Store(_ context.Context, key string, value V, ttl time.Duration) error {
	if !s.rc.SetWithTTL(key, value, 1, ttl) {
		return fmt.Errorf("ristretto rejected item for key %s", key)
	}
	s.rc.Wait()
	return nil
}

// Close stops ristretto's background goroutines.
func (s *RistrettoStore[V]) Close() error {
	s.rc.Close()
	return nil
}
