package provider

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for RequestsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors shared by MetricsDecorators.
type Metrics struct {
	// RequestsTotal counts Get calls by provider and outcome.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration observes Get latency by provider.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dataprovider_requests_total",
			Help: "Total number of provider Get calls by outcome",
		}, []string{"provider", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dataprovider_request_duration_seconds",
			Help:    "Latency of provider Get calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}

// MetricsDecorator records the count and latency of every Get call.
type MetricsDecorator struct {
	metrics *Metrics
	name    string
	inner   Provider
}

// NewMetricsDecorator wraps inner. name becomes the "provider" label.
func NewMetricsDecorator(metrics *Metrics, name string, inner Provider) *MetricsDecorator {
	return &MetricsDecorator{metrics: metrics, name: name, inner: inner}
}

// WithMetrics returns a Decorator that adds a MetricsDecorator.
func WithMetrics(metrics *Metrics, name string) Decorator {
	return func(inner Provider) Provider {
		return NewMetricsDecorator(metrics, name, inner)
	}
}

// Get implements Provider.
func (m *MetricsDecorator) Get(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := m.inner.Get(ctx, req)
	m.metrics.RequestDuration.WithLabelValues(m.name).Observe(time.Since(start).Seconds())
	m.metrics.RequestsTotal.WithLabelValues(m.name, outcome(err)).Inc()
	return resp, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
