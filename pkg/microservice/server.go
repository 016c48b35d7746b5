// Package microservice provides the HTTP surface that exposes a provider
// chain: health checks, Prometheus metrics and the lookup endpoint.
package microservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultLookupPath is where the provider chain is mounted unless
// ServerConfig.LookupPath says otherwise.
const DefaultLookupPath = "/v1/data"

// ServerConfig holds the listen address and timeouts of a LookupServer.
type ServerConfig struct {
	// HTTPPort is the listen address, e.g. ":8080". ":0" picks a free port.
	HTTPPort   string
	LookupPath string
	// ShutdownTimeout bounds graceful shutdown in Run. Defaults to 15s.
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// LookupServer serves a single provider chain over HTTP, next to /healthz
// and, when a gatherer is supplied, /metrics.
type LookupServer struct {
	cfg        ServerConfig
	logger     zerolog.Logger
	httpServer *http.Server
	mux        *http.ServeMux

	mu         sync.RWMutex
	actualAddr string
}

// NewLookupServer mounts LookupHandler(p) at cfg.LookupPath.
func NewLookupServer(cfg *ServerConfig, p provider.Provider, gatherer prometheus.Gatherer, logger zerolog.Logger) (*LookupServer, error) {
	if p == nil {
		return nil, errors.New("provider cannot be nil")
	}
	c := *cfg
	if c.LookupPath == "" {
		c.LookupPath = DefaultLookupPath
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = 10 * time.Second
	}

	serverLogger := logger.With().Str("component", "LookupServer").Logger()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HealthzHandler)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle(c.LookupPath, LookupHandler(p, logger))

	return &LookupServer{
		cfg:    c,
		logger: serverLogger,
		mux:    mux,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: c.ReadHeaderTimeout,
		},
	}, nil
}

// Start listens on the configured port and serves in the background.
func (s *LookupServer) Start() error {
	listener, err := net.Listen("tcp", s.cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.cfg.HTTPPort, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", s.actualAddr).Str("lookup_path", s.cfg.LookupPath).Msg("Lookup server listening.")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Lookup server failed.")
		}
	}()
	return nil
}

// Run starts the server, blocks until ctx is done, then shuts down within
// ShutdownTimeout.
func (s *LookupServer) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.logger.Info().Msg("Shutdown signal received.")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting lookups and waits for in-flight ones to finish.
func (s *LookupServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during lookup server shutdown.")
		return err
	}
	s.logger.Info().Msg("Lookup server stopped.")
	return nil
}

// Port returns the port the server is listening on, as ":<port>". Before
// Start it returns the configured address.
func (s *LookupServer) Port() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, port, err := net.SplitHostPort(s.actualAddr)
	if err != nil {
		return s.cfg.HTTPPort
	}
	return ":" + port
}

// Handler exposes the routed handler, mainly for in-process tests.
func (s *LookupServer) Handler() http.Handler {
	return s.mux
}

// HealthzHandler answers liveness checks.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
