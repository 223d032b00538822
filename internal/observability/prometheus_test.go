package observability_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
)

func TestPrometheusReader_ExposesIndexMetrics(t *testing.T) {
	t.Parallel()

	reader, handler, err := observability.NewPrometheusReader()
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	im, err := observability.NewIndexMetrics(mp.Meter("intervalidx"), func() observability.IndexSnapshot {
		return observability.IndexSnapshot{Name: "offices", Size: 4, Height: 3}
	})
	require.NoError(t, err)

	im.RecordLoad(context.Background(), "offices", 4, 0, time.Millisecond)

	rec := serve(handler, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	body := rec.Body.String()
	assert.Contains(t, body, `intervalidx_index_size{index="offices"`)
	assert.Contains(t, body, "intervalidx_index_load_entries_total")
	assert.Contains(t, body, "target_info")
}

func TestPrometheusHandler_Standalone(t *testing.T) {
	t.Parallel()

	handler, err := observability.PrometheusHandler()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/metrics").Code)
}
