package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// HotPathSpans are the per-lookup index spans dropped unless debug tracing
// is on. Point and exact lookups are issued per request and dwarf the rest.
var HotPathSpans = []string{"index.find", "index.any", "index.point"}

// filteringTracerProvider wraps a real TracerProvider and replaces spans
// with the suppressed names by no-op spans.
type filteringTracerProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
	suppress map[string]bool
}

// NewFilteringTracerProvider wraps delegate so that spans named in
// suppressedSpans are never exported. With no names it returns delegate.
func NewFilteringTracerProvider(delegate trace.TracerProvider, suppressedSpans ...string) trace.TracerProvider {
	if len(suppressedSpans) == 0 {
		return delegate
	}

	suppress := make(map[string]bool, len(suppressedSpans))
	for _, name := range suppressedSpans {
		suppress[name] = true
	}

	return &filteringTracerProvider{
		delegate: delegate,
		noop:     nooptrace.NewTracerProvider(),
		suppress: suppress,
	}
}

// Tracer returns a tracer that drops the suppressed spans.
func (f *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &filteringTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
		suppress: f.suppress,
	}
}

type filteringTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
	suppress map[string]bool
}

// Start creates a span, returning a noop span for suppressed names.
// The noop span still carries the parent span context, so children of a
// suppressed span attach to its parent.
func (f *filteringTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if f.suppress[name] {
		return f.noop.Start(ctx, name, opts...)
	}

	return f.delegate.Start(ctx, name, opts...)
}
