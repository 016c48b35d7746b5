// Command dataprovider serves lookups from a remote JSON source through a
// cached, logged, metered and traced provider chain.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"github.com/illmade-knight/go-dataprovider/pkg/alerting"
	"github.com/illmade-knight/go-dataprovider/pkg/microservice"
	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/api/option"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration.")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, using info.")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level).With().Str("service", cfg.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Service failed.")
	}
}

func run(ctx context.Context, cfg *Config, logger zerolog.Logger) error {
	var gcpOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		gcpOpts = append(gcpOpts, option.WithCredentialsFile(cfg.CredentialsFile))
		logger.Info().Str("credentials_file", cfg.CredentialsFile).Msg("Using specified credentials file for Google Cloud clients.")
	}

	var fsClient *firestore.Client
	if needsFirestore(cfg) {
		var err error
		fsClient, err = firestore.NewClient(ctx, cfg.ProjectID, gcpOpts...)
		if err != nil {
			return err
		}
		defer fsClient.Close()
	}

	base, err := newBaseProvider(ctx, cfg, fsClient, logger)
	if err != nil {
		return err
	}
	defer base.Close()

	store, err := newCacheStore(ctx, cfg, fsClient, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Critical logging: always the local log, plus Pub/Sub alerts when configured.
	critical := provider.MultiCriticalLogger{provider.NewZerologCriticalLogger(logger)}
	if cfg.AlertTopicID != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID, gcpOpts...)
		if err != nil {
			return err
		}
		defer psClient.Close()
		alerts, err := alerting.NewPubsubCriticalLogger(ctx, alerting.NewPubsubCriticalLoggerDefaults(cfg.AlertTopicID, cfg.ServiceName), psClient, logger)
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = alerts.Stop(stopCtx)
		}()
		critical = append(critical, alerts)
	}

	// Tracing and metrics
	var tpOpts []sdktrace.TracerProviderOption
	if cfg.TraceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	chain := buildChain(base, chainDeps{
		Name:     cfg.ServiceName,
		Store:    store,
		Critical: critical,
		Metrics:  provider.NewMetrics(reg),
		Tracer:   tp,
		Logger:   logger,
	})

	server, err := microservice.NewLookupServer(&microservice.ServerConfig{HTTPPort: cfg.HTTPPort}, chain, reg, logger)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
