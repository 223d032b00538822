package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// NewPrometheusReader creates an OTel metric reader backed by a private
// Prometheus registry, together with the [http.Handler] serving that registry
// in the exposition format. Each call is independent, so readers never
// collide on collector registration.
func NewPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// PrometheusHandler returns a standalone /metrics handler with its own
// MeterProvider. Instruments created elsewhere are not visible through it;
// use Config.Prometheus for that.
func PrometheusHandler() (http.Handler, error) {
	reader, handler, err := NewPrometheusReader()
	if err != nil {
		return nil, err
	}

	_ = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return handler, nil
}
