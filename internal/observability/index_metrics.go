package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricIndexSize        = "intervalidx.index.size"
	metricIndexHeight      = "intervalidx.index.height"
	metricLoadEntriesTotal = "intervalidx.index.load.entries.total"
	metricLoadDuration     = "intervalidx.index.load.duration.seconds"
	attrIndex              = "index"
	attrOutcome            = "outcome"
	outcomeInserted        = "inserted"
	outcomeOverwritten     = "overwritten"
)

var (
	instIndexSize    = instrument{metricIndexSize, "Number of stored intervals", "{interval}"}
	instIndexHeight  = instrument{metricIndexHeight, "Interval tree height", "{node}"}
	instLoadEntries  = instrument{metricLoadEntriesTotal, "Dataset entries applied to an index", "{entry}"}
	instLoadDuration = instrument{metricLoadDuration, "Dataset load duration in seconds", "s"}
)

// IndexSnapshot is a point-in-time view of one index.
type IndexSnapshot struct {
	Name   string
	Size   int
	Height int
}

// IndexMetrics reports index shape as observable gauges and counts loads.
type IndexMetrics struct {
	loadEntries  metric.Int64Counter
	loadDuration metric.Float64Histogram
	registration metric.Registration
}

// NewIndexMetrics creates the instruments and registers a callback that
// reads snapshot on every collection. Call Unregister to detach it.
func NewIndexMetrics(mt metric.Meter, snapshot func() IndexSnapshot) (*IndexMetrics, error) {
	b := newMetricBuilder(mt)

	size := b.gauge(instIndexSize)
	height := b.gauge(instIndexHeight)

	im := &IndexMetrics{
		loadEntries:  b.counter(instLoadEntries),
		loadDuration: b.histogram(instLoadDuration, durationBucketBoundaries...),
	}

	err := b.err()
	if err != nil {
		return nil, err
	}

	reg, err := mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := snapshot()
		attrs := metric.WithAttributes(attribute.String(attrIndex, snap.Name))

		o.ObserveInt64(size, int64(snap.Size), attrs)
		o.ObserveInt64(height, int64(snap.Height), attrs)

		return nil
	}, size, height)
	if err != nil {
		return nil, fmt.Errorf("register index gauges: %w", err)
	}

	im.registration = reg

	return im, nil
}

// RecordLoad records one dataset load. Safe to call on a nil receiver (no-op).
func (im *IndexMetrics) RecordLoad(ctx context.Context, name string, inserted, overwritten int, d time.Duration) {
	if im == nil {
		return
	}

	im.loadEntries.Add(ctx, int64(inserted), metric.WithAttributes(
		attribute.String(attrIndex, name), attribute.String(attrOutcome, outcomeInserted)))
	im.loadEntries.Add(ctx, int64(overwritten), metric.WithAttributes(
		attribute.String(attrIndex, name), attribute.String(attrOutcome, outcomeOverwritten)))
	im.loadDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrIndex, name)))
}

// Unregister detaches the gauge callback.
func (im *IndexMetrics) Unregister() error {
	if im == nil || im.registration == nil {
		return nil
	}

	err := im.registration.Unregister()
	if err != nil {
		return fmt.Errorf("unregister index gauges: %w", err)
	}

	return nil
}
