package observability_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
)

func gaugeValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	g, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected Gauge[int64] data type")
	require.Len(t, g.DataPoints, 1)

	return g.DataPoints[0].Value
}

func TestIndexMetrics_Gauges(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	var size atomic.Int64

	size.Store(3)

	im, err := observability.NewIndexMetrics(mp.Meter("test"), func() observability.IndexSnapshot {
		return observability.IndexSnapshot{Name: "offices", Size: int(size.Load()), Height: 2}
	})
	require.NoError(t, err)

	rm := collectMetrics(t, reader)

	sizeMetric := findMetric(rm, "intervalidx.index.size")
	require.NotNil(t, sizeMetric)
	assert.Equal(t, int64(3), gaugeValue(t, sizeMetric))

	heightMetric := findMetric(rm, "intervalidx.index.height")
	require.NotNil(t, heightMetric)
	assert.Equal(t, int64(2), gaugeValue(t, heightMetric))

	size.Store(7)

	rm = collectMetrics(t, reader)
	assert.Equal(t, int64(7), gaugeValue(t, findMetric(rm, "intervalidx.index.size")))

	require.NoError(t, im.Unregister())

	rm = collectMetrics(t, reader)
	assert.Nil(t, findMetric(rm, "intervalidx.index.size"))
}

func TestIndexMetrics_RecordLoad(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	im, err := observability.NewIndexMetrics(mp.Meter("test"), func() observability.IndexSnapshot {
		return observability.IndexSnapshot{Name: "offices"}
	})
	require.NoError(t, err)

	im.RecordLoad(context.Background(), "offices", 4, 1, 3*time.Millisecond)

	rm := collectMetrics(t, reader)

	entries := findMetric(rm, "intervalidx.index.load.entries.total")
	require.NotNil(t, entries)
	assert.Equal(t, int64(5), counterTotal(t, entries))

	duration := findMetric(rm, "intervalidx.index.load.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestIndexMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var im *observability.IndexMetrics

	assert.NotPanics(t, func() {
		im.RecordLoad(context.Background(), "x", 1, 0, time.Second)
	})
	assert.NoError(t, im.Unregister())
}
