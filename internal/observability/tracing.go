package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/dagknows/dkqa/internal/config"
)

const tracerName = "github.com/dagknows/dkqa"

// Attribute keys recorded on outbound API call spans.
var (
	AttrService   = attribute.Key("dkqa.service")
	AttrOperation = attribute.Key("dkqa.operation")
	AttrStatus    = attribute.Key("dkqa.http_status")
	AttrAttempt   = attribute.Key("dkqa.attempt")
)

// InitTracing initializes the OpenTelemetry TracerProvider. It returns a
// shutdown function that flushes pending spans. When tracing is disabled a
// no-op shutdown is returned and the global provider is left untouched.
func InitTracing(ctx context.Context, cfg config.TracingConfig, serviceVersion string) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("dkqa"),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func newExporter(cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unsupported exporter: %q (supported: stdout)", cfg.Exporter)
	}
}

// StartCallSpan starts a client span for an outbound API call. The caller
// must End the returned span; RecordCallResult sets status attributes.
func StartCallSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, service+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrService.String(service),
			AttrOperation.String(operation),
		),
	)
}

// RecordCallResult records the HTTP outcome of an API call on its span.
func RecordCallResult(span trace.Span, statusCode int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(AttrStatus.Int(statusCode))
	if statusCode >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
	}
}
