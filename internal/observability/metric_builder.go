package observability

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// instrument names and documents one OTel instrument.
type instrument struct {
	name string
	desc string
	unit string
}

// metricBuilder creates instruments and collects every creation error, so
// a constructor checks once after building its whole set.
type metricBuilder struct {
	meter metric.Meter
	errs  []error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(in instrument) metric.Int64Counter {
	c, err := b.meter.Int64Counter(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	b.record(in, err)

	return c
}

func (b *metricBuilder) upDownCounter(in instrument) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	b.record(in, err)

	return c
}

// histogram uses the SDK default buckets when bounds is empty.
func (b *metricBuilder) histogram(in instrument, bounds ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(in.desc), metric.WithUnit(in.unit)}
	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}

	h, err := b.meter.Float64Histogram(in.name, opts...)
	b.record(in, err)

	return h
}

func (b *metricBuilder) gauge(in instrument) metric.Int64ObservableGauge {
	g, err := b.meter.Int64ObservableGauge(in.name, metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	b.record(in, err)

	return g
}

func (b *metricBuilder) record(in instrument, err error) {
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("create %s: %w", in.name, err))
	}
}

// err joins all creation errors; nil when every instrument was created.
func (b *metricBuilder) err() error {
	return errors.Join(b.errs...)
}
