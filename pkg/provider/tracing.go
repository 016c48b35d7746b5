package provider

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/illmade-knight/go-dataprovider/pkg/provider"

// TracingDecorator starts an OpenTelemetry span around every Get call.
type TracingDecorator struct {
	tracer trace.Tracer
	name   string
	inner  Provider
}

// NewTracingDecorator wraps inner. When tp is nil the global
// otel.GetTracerProvider() is used.
func NewTracingDecorator(tp trace.TracerProvider, name string, inner Provider) *TracingDecorator {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingDecorator{
		tracer: tp.Tracer(tracerName),
		name:   name,
		inner:  inner,
	}
}

// WithTracing returns a Decorator that adds a TracingDecorator.
func WithTracing(tp trace.TracerProvider, name string) Decorator {
	return func(inner Provider) Provider {
		return NewTracingDecorator(tp, name, inner)
	}
}

// Get implements Provider.
func (t *TracingDecorator) Get(ctx context.Context, req Request) (Response, error) {
	ctx, span := t.tracer.Start(ctx, t.name+".Get", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("dataprovider.provider", t.name),
		attribute.String("dataprovider.request.key", req.Key()),
	)

	resp, err := t.inner.Get(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	span.SetAttributes(attribute.Int("dataprovider.response.bytes", len(resp.Payload)))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
