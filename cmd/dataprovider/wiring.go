package main

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-dataprovider/pkg/cache"
	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/illmade-knight/go-dataprovider/pkg/source"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// baseProvider is a leaf provider the service owns and must close.
type baseProvider interface {
	provider.Provider
	io.Closer
}

// newBaseProvider builds the base provider named by cfg.SourceBackend.
// fsClient is only used by the firestore backend.
func newBaseProvider(ctx context.Context, cfg *Config, fsClient *firestore.Client, logger zerolog.Logger) (baseProvider, error) {
	switch cfg.SourceBackend {
	case SourceBackendHTTP:
		var oauth *source.OAuthConfig
		if cfg.OAuthTokenURL != "" {
			oauth = &source.OAuthConfig{
				TokenURL:     cfg.OAuthTokenURL,
				ClientID:     cfg.OAuthClientID,
				ClientSecret: cfg.OAuthSecret,
			}
		}
		s, err := source.NewHTTPSource(ctx, &source.HTTPSourceConfig{
			Host:      cfg.SourceHost,
			Path:      cfg.SourcePath,
			User:      cfg.SourceUser,
			Password:  cfg.SourcePassword,
			OAuth:     oauth,
			UserAgent: cfg.ServiceName,
			Timeout:   cfg.SourceTimeout,
		}, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create http source: %w", err)
		}
		return s, nil
	case SourceBackendFirestore:
		s, err := source.NewFirestoreSource(&source.FirestoreSourceConfig{
			ProjectID:       cfg.ProjectID,
			CollectionName:  cfg.SourceCollection,
			DocumentIDParam: cfg.SourceDocIDParam,
		}, fsClient, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore source: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.SourceBackend)
	}
}

// needsFirestore reports whether any configured component reads Firestore.
func needsFirestore(cfg *Config) bool {
	return cfg.SourceBackend == SourceBackendFirestore || cfg.CacheBackend == CacheBackendFirestore
}

// newCacheStore builds the cache backend named by cfg.CacheBackend.
// fsClient is only used, and must only be non-nil, for the firestore backend.
func newCacheStore(ctx context.Context, cfg *Config, fsClient *firestore.Client, logger zerolog.Logger) (cache.Store[provider.Response], error) {
	var (
		store cache.Store[provider.Response]
		err   error
	)
	switch cfg.CacheBackend {
	case CacheBackendMemory:
		store = cache.NewInMemoryStore[provider.Response](cfg.CacheMaxEntries)
	case CacheBackendRistretto:
		var rs *cache.RistrettoStore[provider.Response]
		rs, err = cache.NewRistrettoStore[provider.Response](&cache.RistrettoConfig{MaxEntries: int64(cfg.CacheMaxEntries)})
		store = rs
	case CacheBackendRedis:
		var rs *cache.RedisStore[provider.Response]
		rs, err = cache.NewRedisStore[provider.Response](ctx, &cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
		store = rs
	case CacheBackendFirestore:
		var fs *cache.FirestoreStore[provider.Response]
		fs, err = cache.NewFirestoreStore[provider.Response](&cache.FirestoreConfig{
			ProjectID:      cfg.ProjectID,
			CollectionName: cfg.FirestoreCollection,
		}, fsClient, logger)
		store = fs
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache store: %w", cfg.CacheBackend, err)
	}
	logger.Info().Str("cache_backend", cfg.CacheBackend).Msg("Cache store ready.")
	return store, nil
}

// chainDeps are the collaborators assembled around the base provider.
type chainDeps struct {
	Name     string
	Store    provider.CacheStore
	Critical provider.CriticalLogger
	Metrics  *provider.Metrics
	Tracer   trace.TracerProvider
	Logger   zerolog.Logger
}

// buildChain assembles Tracing(Metrics(Logging(Cache(base)))). Logging sits
// outside the cache so that hits never reach it; metrics and tracing see
// every call including hits.
func buildChain(base provider.Provider, deps chainDeps) provider.Provider {
	return provider.Chain(base,
		provider.WithTracing(deps.Tracer, deps.Name),
		provider.WithMetrics(deps.Metrics, deps.Name),
		provider.WithLogging(deps.Critical),
		provider.WithCache(deps.Store, deps.Logger),
	)
}
