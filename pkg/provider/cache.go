package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheTTL is how long a successfully fetched Response stays cached.
const CacheTTL = 24 * time.Hour

// CacheStore is the storage collaborator consulted by CacheDecorator.
// Implementations must be safe for concurrent use and must treat an entry
// older than its TTL as absent.
type CacheStore interface {
	// Lookup returns the stored Response for key. found is false on a miss.
	Lookup(ctx context.Context, key string) (resp Response, found bool, err error)
	// Store saves resp under key for ttl.
	Store(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

// CacheDecorator serves Responses from a CacheStore and only calls the inner
// Provider on a miss. Only successful Responses are cached. Payloads are
// copied on the way in and out of the store, so callers may modify what
// they receive.
//
// Two concurrent misses for the same key both reach the inner Provider and
// both write the entry; the last write wins.
type CacheDecorator struct {
	store  CacheStore
	inner  Provider
	logger zerolog.Logger
}

// NewCacheDecorator wraps inner with a cache backed by store.
func NewCacheDecorator(store CacheStore, inner Provider, logger zerolog.Logger) *CacheDecorator {
	return &CacheDecorator{
		store:  store,
		inner:  inner,
		logger: logger.With().Str("component", "CacheDecorator").Logger(),
	}
}

// WithCache returns a Decorator that adds a CacheDecorator.
func WithCache(store CacheStore, logger zerolog.Logger) Decorator {
	return func(inner Provider) Provider {
		return NewCacheDecorator(store, inner, logger)
	}
}

// Get returns the cached Response for req when one exists. Otherwise it
// fetches from the inner Provider and caches the result for CacheTTL.
func (c *CacheDecorator) Get(ctx context.Context, req Request) (Response, error) {
	key := req.Key()

	// 1. Try the store. A broken store is treated as a miss.
	resp, found, err := c.store.Lookup(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed, treating as miss.")
	} else if found {
		c.logger.Debug().Str("key", key).Msg("Cache hit.")
		return resp.Clone(), nil
	}
	c.logger.Debug().Str("key", key).Msg("Cache miss. Falling back to inner provider.")

	// 2. Miss: the inner error goes back to the caller unchanged.
	resp, err = c.inner.Get(ctx, req)
	if err != nil {
		return Response{}, err
	}

	// 3. Write back before returning so the next call is a hit. In-process
	// stores keep what they are given, so the caller must not share it.
	if storeErr := c.store.Store(ctx, key, resp.Clone(), CacheTTL); storeErr != nil {
		c.logger.Error().Err(storeErr).Str("key", key).Msg("Failed to write to cache.")
	}
	return resp, nil
}
