package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "custom-list-skill"

// TracerConfig holds tracing configuration.
type TracerConfig struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
}

// InitTracer installs an OTLP/HTTP tracer provider as the global provider.
// Spans are batched; callers flush with ForceFlush or Shutdown.
func InitTracer(ctx context.Context, cfg TracerConfig) (*sdktrace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("observability: otlp endpoint must not be empty")
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp, nil
}

// Turn identifies the request a dispatch span covers.
type Turn struct {
	RequestType string
	IntentName  string
	RequestID   string
}

// StartDispatch opens the server span for one skill turn.
func StartDispatch(ctx context.Context, turn Turn) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("alexa.request_type", turn.RequestType),
		attribute.String("alexa.request_id", turn.RequestID),
	}
	if turn.IntentName != "" {
		attrs = append(attrs, attribute.String("alexa.intent_name", turn.IntentName))
	}
	return otel.Tracer(tracerName).Start(ctx, "skill.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// EndDispatch records which handler served the turn and ends the span. A
// failure answered by an error handler still marks the span as failed.
func EndDispatch(span trace.Span, handler string, err error) {
	span.SetAttributes(
		attribute.String("skill.handler", handler),
		attribute.String("skill.outcome", outcome(err)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
