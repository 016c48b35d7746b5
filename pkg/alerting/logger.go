// Package alerting delivers critical provider failures to Google Cloud Pub/Sub
// so that they can be routed to on-call tooling.
package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// SeverityCritical is the severity attached to every alert.
const SeverityCritical = "CRITICAL"

// Alert is the JSON body published for each critical message.
type Alert struct {
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
	Service  string    `json:"service"`
	Time     time.Time `json:"time"`
}

// attributes returns the Pub/Sub attributes used by subscribers to filter
// alerts without decoding the body.
func (a Alert) attributes() map[string]string {
	return map[string]string{
		"severity": a.Severity,
		"service":  a.Service,
	}
}

// PubsubCriticalLoggerConfig holds configuration for a PubsubCriticalLogger.
type PubsubCriticalLoggerConfig struct {
	TopicID string
	// Service identifies the emitting process in every Alert.
	Service string
	// ResultTimeout bounds how long to wait for the server to acknowledge
	// an alert.
	ResultTimeout time.Duration
}

// NewPubsubCriticalLoggerDefaults provides a config with sensible defaults.
func NewPubsubCriticalLoggerDefaults(topicID, service string) *PubsubCriticalLoggerConfig {
	return &PubsubCriticalLoggerConfig{
		TopicID:       topicID,
		Service:       service,
		ResultTimeout: 30 * time.Second,
	}
}

// PubsubCriticalLogger publishes critical messages as Alerts. It satisfies
// provider.CriticalLogger. Publishing is fire-and-forget: failures are
// written to the local logger and never reach the caller.
type PubsubCriticalLogger struct {
	topic         *pubsub.Topic
	service       string
	resultTimeout time.Duration
	now           func() time.Time
	inflight      sync.WaitGroup
	logger        zerolog.Logger
}

// NewPubsubCriticalLogger creates a PubsubCriticalLogger. It verifies that
// the alert topic exists before returning.
func NewPubsubCriticalLogger(ctx context.Context, cfg *PubsubCriticalLoggerConfig, client *pubsub.Client, logger zerolog.Logger) (*PubsubCriticalLogger, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil")
	}
	topic := client.Topic(cfg.TopicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for alert topic %s: %w", cfg.TopicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("alert topic %s does not exist", cfg.TopicID)
	}

	resultTimeout := cfg.ResultTimeout
	if resultTimeout <= 0 {
		resultTimeout = 30 * time.Second
	}

	return &PubsubCriticalLogger{
		topic:         topic,
		service:       cfg.Service,
		resultTimeout: resultTimeout,
		now:           time.Now,
		logger: logger.With().
			Str("component", "PubsubCriticalLogger").
			Str("topic_id", cfg.TopicID).
			Logger(),
	}, nil
}

// LogCritical publishes message as an Alert.
func (l *PubsubCriticalLogger) LogCritical(ctx context.Context, message string) {
	alert := Alert{
		Message:  message,
		Severity: SeverityCritical,
		Service:  l.service,
		Time:     l.now().UTC(),
	}
	if err := l.publish(ctx, alert); err != nil {
		l.logger.Error().Err(err).Str("alert_message", message).Msg("Failed to publish alert.")
	}
}

// publish queues alert and confirms the server result in the background.
// The request context may already be cancelled when a failure is reported,
// so the alert is published detached from it.
func (l *PubsubCriticalLogger) publish(ctx context.Context, alert Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	result := l.topic.Publish(context.WithoutCancel(ctx), &pubsub.Message{
		Data:       data,
		Attributes: alert.attributes(),
	})

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		getCtx, cancel := context.WithTimeout(context.Background(), l.resultTimeout)
		defer cancel()

		msgID, err := result.Get(getCtx)
		if err != nil {
			l.logger.Error().Err(err).Str("alert_message", alert.Message).Msg("Alert was not delivered.")
			return
		}
		l.logger.Debug().Str("published_msg_id", msgID).Msg("Alert delivered.")
	}()
	return nil
}

// Stop waits for outstanding alerts to be confirmed and flushes the topic.
// It returns ctx.Err() if that takes longer than ctx allows.
func (l *PubsubCriticalLogger) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		l.topic.Stop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
