package observability

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Tracer is the span source used by the collector and indexer
// pipelines. With no exporter configured it is the package-level
// no-op tracer otel.Tracer returns by default, so spans cost a
// struct allocation and nothing else.
var Tracer = otel.Tracer("codeindex")

// InitTracing wires a batched OTLP/gRPC exporter as the global trace
// provider when OTEL_EXPORTER_OTLP_ENDPOINT is set, and returns a
// shutdown function to flush pending spans on exit. When the
// environment variable is unset, it returns a no-op shutdown and
// leaves the default no-op provider in place.
func InitTracing(ctx context.Context) (shutdown func(context.Context) error, err error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", "codeindex"),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer("codeindex")

	return tp.Shutdown, nil
}
