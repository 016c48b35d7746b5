package provider

import (
	"context"

	"github.com/rs/zerolog"
)

// CriticalLogger receives messages describing failures that need attention.
// Implementations must be safe for concurrent use. LogCritical is
// fire-and-forget: it has no way to report its own failure.
type CriticalLogger interface {
	LogCritical(ctx context.Context, message string)
}

// CriticalLoggerFunc adapts a function to CriticalLogger.
type CriticalLoggerFunc func(ctx context.Context, message string)

// LogCritical calls f(ctx, message).
func (f CriticalLoggerFunc) LogCritical(ctx context.Context, message string) {
	f(ctx, message)
}

// ZerologCriticalLogger writes critical messages through zerolog. zerolog has
// no critical level, so the entry is written at error level and tagged with
// severity=CRITICAL, which is what Cloud Logging reads.
type ZerologCriticalLogger struct {
	logger zerolog.Logger
}

// NewZerologCriticalLogger creates a CriticalLogger on top of logger.
func NewZerologCriticalLogger(logger zerolog.Logger) *ZerologCriticalLogger {
	return &ZerologCriticalLogger{logger: logger}
}

// LogCritical implements CriticalLogger.
func (l *ZerologCriticalLogger) LogCritical(_ context.Context, message string) {
	l.logger.Error().Str("severity", "CRITICAL").Msg(message)
}

// MultiCriticalLogger sends each message to every logger in order.
type MultiCriticalLogger []CriticalLogger

// LogCritical implements CriticalLogger.
func (m MultiCriticalLogger) LogCritical(ctx context.Context, message string) {
	for _, l := range m {
		if l != nil {
			l.LogCritical(ctx, message)
		}
	}
}

// LoggingDecorator logs failures of the inner Provider at critical severity
// and returns the identical error. Successful calls are not logged.
type LoggingDecorator struct {
	logger CriticalLogger
	inner  Provider
}

// NewLoggingDecorator wraps inner so that its failures are reported to logger.
func NewLoggingDecorator(logger CriticalLogger, inner Provider) *LoggingDecorator {
	return &LoggingDecorator{logger: logger, inner: inner}
}

// WithLogging returns a Decorator that adds a LoggingDecorator.
func WithLogging(logger CriticalLogger) Decorator {
	return func(inner Provider) Provider {
		return NewLoggingDecorator(logger, inner)
	}
}

// Get implements Provider.
func (l *LoggingDecorator) Get(ctx context.Context, req Request) (Response, error) {
	resp, err := l.inner.Get(ctx, req)
	if err != nil {
		l.logger.LogCritical(ctx, err.Error())
		return Response{}, err
	}
	return resp, nil
}
