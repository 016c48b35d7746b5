package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataprovider/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ristrettoTestValue struct {
	ID   string
	Data []byte
}

func newRistrettoStore(t *testing.T) *cache.RistrettoStore[ristrettoTestValue] {
	t.Helper()
	s, err := cache.NewRistrettoStore[ristrettoTestValue](&cache.RistrettoConfig{MaxEntries: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRistrettoStore_LookupAndStore(t *testing.T) {
	ctx := context.Background()
	s := newRistrettoStore(t)

	_, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	value := ristrettoTestValue{ID: "id-1", Data: []byte("hello")}
	require.NoError(t, s.Store(ctx, "k1", value, time.Minute))

	got, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, value, got)
}

func TestRistrettoStore_TTLExpires(t *testing.T) {
	ctx := context.Background()
	s := newRistrettoStore(t)

	require.NoError(t, s.Store(ctx, "ttl", ristrettoTestValue{ID: "temp"}, 50*time.Millisecond))

	_, found, _ := s.Lookup(ctx, "ttl")
	require.True(t, found, "expected hit before TTL")

	// This is one of the few acceptable uses of time.Sleep in a test,
	// as we are explicitly verifying a time-based feature.
	time.Sleep(200 * time.Millisecond)

	_, found, _ = s.Lookup(ctx, "ttl")
	assert.False(t, found, "expected miss after TTL")
}

func TestNewRistrettoStore_RejectsZeroSize(t *testing.T) {
	_, err := cache.NewRistrettoStore[int](&cache.RistrettoConfig{})
	require.Error(t, err)
}
