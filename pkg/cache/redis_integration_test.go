//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataprovider/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisTestValue struct {
	ID   string
	Data []byte
}

func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	return addr
}

func TestRedisStore_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	addr := redisAddr(t)
	prefix := "test:" + t.Name() + ":"
	cfg := &cache.RedisConfig{Addr: addr, KeyPrefix: prefix}

	c, err := cache.NewRedisStore[redisTestValue](ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	rawClient := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rawClient.Close() })

	t.Run("Store and Lookup", func(t *testing.T) {
		key := "test-key-1"
		value := redisTestValue{ID: "test-id", Data: []byte("hello world")}

		require.NoError(t, c.Store(ctx, key, value, time.Minute))

		retrieved, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, value, retrieved)

		// Verify directly in Redis that the prefix and TTL were applied.
		ttl, err := rawClient.TTL(ctx, prefix+key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Second)
	})

	t.Run("Lookup Miss", func(t *testing.T) {
		_, found, err := c.Lookup(ctx, "non-existent-key")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("TTL Expires", func(t *testing.T) {
		key := "ttl-key"
		require.NoError(t, c.Store(ctx, key, redisTestValue{ID: "ttl-id"}, 100*time.Millisecond))

		// This is one of the few acceptable uses of time.Sleep in a test,
		// as we are explicitly verifying a time-based feature.
		time.Sleep(150 * time.Millisecond)

		_, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "Entry should be gone after TTL expires")
	})
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := cache.NewRedisStore[string](ctx, &cache.RedisConfig{Addr: "localhost:1"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
