package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ProbeBuildResource exposes buildResource for testing.
func ProbeBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ProbeSamplerSpan creates a span using the sampler resolved from cfg and
// reports whether the span was sampled.
func ProbeSamplerSpan(cfg Config) (sampled bool) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(selectSampler(cfg)),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "probe")
	span.End()

	// Check spans before Shutdown, which clears the exporter.
	spans := exporter.GetSpans()

	shutdownErr := tp.Shutdown(context.Background())
	if shutdownErr != nil {
		return false
	}

	return len(spans) > 0
}

// ProbeRecordsSpan builds the tracer provider Init would use for cfg and
// reports whether a span named name would be recorded.
func ProbeRecordsSpan(cfg Config, name string) (bool, error) {
	res, err := buildResource(cfg)
	if err != nil {
		return false, err
	}

	tp, shutdown, err := buildTracerProvider(context.Background(), cfg, res)
	if err != nil {
		return false, err
	}

	defer func() { _ = shutdown(context.Background()) }()

	// The span is never ended, so shutdown has nothing to flush to the
	// unreachable collector.
	_, span := tp.Tracer(tracerName).Start(context.Background(), name)

	return span.IsRecording(), nil
}
