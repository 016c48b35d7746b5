package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataprovider/pkg/cache"
	"github.com/stretchr/testify/assert"
)

// Compile-time checks that every backend satisfies the Store contract.
var (
	_ cache.Store[string] = (*cache.InMemoryStore[string])(nil)
	_ cache.Store[string] = (*cache.RistrettoStore[string])(nil)
	_ cache.Store[string] = (*cache.RedisStore[string])(nil)
	_ cache.Store[string] = (*cache.FirestoreStore[string])(nil)
)

func TestEntry_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := cache.NewEntry("v", now, 24*time.Hour)

	assert.Equal(t, now.Add(24*time.Hour), e.ExpiresAt)
	assert.False(t, e.Expired(now))
	assert.False(t, e.Expired(now.Add(24*time.Hour-time.Nanosecond)))
	assert.True(t, e.Expired(now.Add(24*time.Hour)), "Entry should expire exactly at ExpiresAt")
}

func TestInMemoryStore_IsAStore(t *testing.T) {
	var s cache.Store[int] = cache.NewInMemoryStore[int](1)
	assert.NoError(t, s.Store(context.Background(), "a", 1, time.Minute))
	assert.NoError(t, s.Close())
}
