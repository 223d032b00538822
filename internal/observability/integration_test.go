package observability_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
)

// A routed request keeps the index span it opens but drops the hot-path
// lookup span, and both run under the middleware's server span.
func TestEndToEnd_RoutedRequestWithFilteredSpans(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	tracer := observability.NewFilteringTracerProvider(base, observability.HotPathSpans...).Tracer("intervalidx")

	red, reader := setupTestMeter(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/overlaps", func(rw http.ResponseWriter, hr *http.Request) {
		err := red.Observe(hr.Context(), "index.overlaps", func() error {
			ctx, span := tracer.Start(hr.Context(), "index.overlaps")
			defer span.End()

			_, hot := tracer.Start(ctx, "index.point")
			hot.End()

			return nil
		})
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)

			return
		}

		rw.WriteHeader(http.StatusOK)
	})

	rec := serve(observability.HTTPMiddleware(tracer, discardLogger, mux), http.MethodGet, "/v1/overlaps?from=1&to=9")
	require.Equal(t, http.StatusOK, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	indexSpan, serverSpan := spans[0], spans[1]

	assert.Equal(t, "index.overlaps", indexSpan.Name)
	assert.Equal(t, "GET /v1/overlaps", serverSpan.Name)
	assert.Equal(t, serverSpan.SpanContext.SpanID(), indexSpan.Parent.SpanID())

	rm := collectMetrics(t, reader)
	requests := findMetric(rm, "intervalidx.requests.total")
	require.NotNil(t, requests)
	assert.Equal(t, int64(1), counterTotal(t, requests))
}
