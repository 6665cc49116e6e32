package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/olprint/storefront/core"
)

// OTelProvider implements core.Telemetry with OpenTelemetry
type OTelProvider struct {
	tracer        trace.Tracer
	traceProvider *sdktrace.TracerProvider
}

// NewOTelProvider creates a tracing provider that writes spans to w.
// The storefront runs as a single process, so spans go to a local sink
// rather than a collector.
func NewOTelProvider(serviceName string, w io.Writer) (*OTelProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &OTelProvider{
		tracer:        tp.Tracer("olprint-telemetry"),
		traceProvider: tp,
	}, nil
}

// StartSpan starts a new telemetry span
func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric records a metric as an event on the active span
func (o *OTelProvider) RecordMetric(name string, value float64, labels map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	attrs = append(attrs, attribute.Float64("value", value))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}

	_, span := o.tracer.Start(context.Background(), "metric."+name, trace.WithAttributes(attrs...))
	span.End()
}

// Shutdown flushes pending spans and shuts down the provider
func (o *OTelProvider) Shutdown(ctx context.Context) error {
	return o.traceProvider.Shutdown(ctx)
}

// otelSpan wraps an OpenTelemetry span to implement core.Span
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}
