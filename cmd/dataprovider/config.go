package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Base providers selectable through SOURCE_BACKEND.
const (
	SourceBackendHTTP      = "http"
	SourceBackendFirestore = "firestore"
)

// Cache backends selectable through CACHE_BACKEND.
const (
	CacheBackendMemory    = "memory"
	CacheBackendRistretto = "ristretto"
	CacheBackendRedis     = "redis"
	CacheBackendFirestore = "firestore"
)

// Config holds everything the service reads from the environment.
type Config struct {
	ServiceName string
	LogLevel    string
	HTTPPort    string

	// Remote source
	SourceBackend  string
	SourceHost     string
	SourcePath     string
	SourceUser     string
	SourcePassword string
	SourceTimeout  time.Duration
	OAuthTokenURL  string
	OAuthClientID  string
	OAuthSecret    string

	// Firestore source
	SourceCollection string
	SourceDocIDParam string

	// Cache
	CacheBackend        string
	CacheMaxEntries     int
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RedisKeyPrefix      string
	FirestoreCollection string

	// Google Cloud
	ProjectID       string
	CredentialsFile string
	AlertTopicID    string

	TraceStdout bool
}

// LoadConfigFromEnv loads the service configuration from environment
// variables. Only the location of the base provider has no default.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{
		ServiceName:         envOr("SERVICE_NAME", "dataprovider"),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		HTTPPort:            envOr("HTTP_PORT", ":8080"),
		SourceBackend:       strings.ToLower(envOr("SOURCE_BACKEND", SourceBackendHTTP)),
		SourceHost:          os.Getenv("DATAPROVIDER_HOST"),
		SourcePath:          os.Getenv("DATAPROVIDER_PATH"),
		SourceUser:          os.Getenv("DATAPROVIDER_USER"),
		SourcePassword:      os.Getenv("DATAPROVIDER_PASSWORD"),
		SourceTimeout:       10 * time.Second,
		OAuthTokenURL:       os.Getenv("DATAPROVIDER_OAUTH_TOKEN_URL"),
		OAuthClientID:       os.Getenv("DATAPROVIDER_OAUTH_CLIENT_ID"),
		OAuthSecret:         os.Getenv("DATAPROVIDER_OAUTH_CLIENT_SECRET"),
		SourceCollection:    envOr("FIRESTORE_SOURCE_COLLECTION", "dataprovider-source"),
		SourceDocIDParam:    os.Getenv("FIRESTORE_SOURCE_ID_PARAM"),
		CacheBackend:        strings.ToLower(envOr("CACHE_BACKEND", CacheBackendMemory)),
		CacheMaxEntries:     10000,
		RedisAddr:           envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisKeyPrefix:      envOr("REDIS_KEY_PREFIX", "dataprovider:"),
		FirestoreCollection: envOr("FIRESTORE_CACHE_COLLECTION", "dataprovider-cache"),
		ProjectID:           os.Getenv("GCP_PROJECT_ID"),
		CredentialsFile:     os.Getenv("GCP_CREDENTIALS_FILE"),
		AlertTopicID:        os.Getenv("ALERT_TOPIC_ID"),
	}

	switch cfg.SourceBackend {
	case SourceBackendHTTP:
		if cfg.SourceHost == "" {
			return nil, fmt.Errorf("DATAPROVIDER_HOST environment variable not set")
		}
	case SourceBackendFirestore:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID environment variable not set, required by the firestore source")
		}
	default:
		return nil, fmt.Errorf("unknown SOURCE_BACKEND %q", cfg.SourceBackend)
	}
	if v := os.Getenv("DATAPROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DATAPROVIDER_TIMEOUT %q: %w", v, err)
		}
		cfg.SourceTimeout = d
	}
	if v := os.Getenv("CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_MAX_ENTRIES %q: %w", v, err)
		}
		cfg.CacheMaxEntries = n
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("TRACE_STDOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TRACE_STDOUT %q: %w", v, err)
		}
		cfg.TraceStdout = b
	}

	switch cfg.CacheBackend {
	case CacheBackendMemory, CacheBackendRistretto, CacheBackendRedis:
	case CacheBackendFirestore:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID environment variable not set, required by the firestore cache")
		}
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
	if cfg.AlertTopicID != "" && cfg.ProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID environment variable not set, required by ALERT_TOPIC_ID")
	}
	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
