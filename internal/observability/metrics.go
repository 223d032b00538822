package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "intervalidx.requests.total"
	metricRequestDuration  = "intervalidx.request.duration.seconds"
	metricErrorsTotal      = "intervalidx.errors.total"
	metricInflightRequests = "intervalidx.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 10µs to 5s: in-memory tree operations sit
// at the low end, dataset loads and HTTP round trips at the high end.
var durationBucketBoundaries = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

var (
	instRequestsTotal = instrument{metricRequestsTotal, "Total number of requests", "{request}"}
	instRequestDur    = instrument{metricRequestDuration, "Request duration in seconds", "s"}
	instErrorsTotal   = instrument{metricErrorsTotal, "Total number of errors", "{error}"}
	instInflight      = instrument{metricInflightRequests, "Number of in-flight requests", "{request}"}
)

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		requestsTotal:    b.counter(instRequestsTotal),
		requestDuration:  b.histogram(instRequestDur, durationBucketBoundaries...),
		errorsTotal:      b.counter(instErrorsTotal),
		inflightRequests: b.upDownCounter(instInflight),
	}

	err := b.err()
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// Observe runs fn as operation op, tracking in-flight count and recording
// its outcome. A nil receiver just runs fn.
func (rm *REDMetrics) Observe(ctx context.Context, op string, fn func() error) error {
	if rm == nil {
		return fn()
	}

	start := time.Now()

	done := rm.TrackInflight(ctx, op)
	defer done()

	err := fn()

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	rm.RecordRequest(ctx, op, status, time.Since(start))

	return err
}
