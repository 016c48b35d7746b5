package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is prepended to every key, e.g. "dataprovider:".
	KeyPrefix string
}

// RedisStore is a generic Store implementation using Redis. Values are stored
// as JSON and Redis expires them with the TTL passed to Store.
type RedisStore[V any] struct {
	redisClient *redis.Client
	keyPrefix   string
	logger      zerolog.Logger
}

// NewRedisStore creates and connects a new generic RedisStore.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisStore[V any](
	ctx context.Context,
	cfg *RedisConfig,
	logger zerolog.Logger,
) (*RedisStore[V], error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore[V]{
		redisClient: rdb,
		keyPrefix:   cfg.KeyPrefix,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
	}, nil
}

// Lookup retrieves and unmarshals an item. redis.Nil is a normal miss; any
// other error is returned to the caller.
func (c *RedisStore[V]) Lookup(ctx context.Context, key string) (V, bool, error) {
	var zero V
	redisKey := c.keyPrefix + key
	cachedData, err := c.redisClient.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		c.logger.Error().Err(err).Str("key", redisKey).Msg("Unexpected Redis error during lookup.")
		return zero, false, fmt.Errorf("redis get failed for key %s: %w", redisKey, err)
	}

	var value V
	if err := json.Unmarshal(cachedData, &value); err != nil {
		c.logger.Error().Err(err).Str("key", redisKey).Msg("Failed to unmarshal cached data.")
		return zero, false, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	c.logger.Debug().Str("key", redisKey).Msg("Redis cache hit.")
	return value, true, nil
}

// Store marshals the value to JSON and sets it in Redis with the given TTL.
func (c *RedisStore[V]) Store(ctx context.Context, key string, value V, ttl time.Duration) error {
	redisKey := c.keyPrefix + key
	jsonData, err := json.Marshal(value)
	if err != nil {
		c.logger.Error().Err(err).Str("key", redisKey).Msg("Failed to marshal data for caching.")
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := c.redisClient.Set(ctx, redisKey, jsonData, ttl).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", redisKey).Msg("Failed to set data in Redis cache.")
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	c.logger.Debug().Str("key", redisKey).Dur("ttl", ttl).Msg("Successfully stored data in Redis cache.")
	return nil
}

// Close closes the Redis client connection.
func (c *RedisStore[V]) Close() error {
	if c.redisClient != nil {
		c.logger.Info().Msg("Closing Redis client connection...")
		return c.redisClient.Close()
	}
	return nil
}
