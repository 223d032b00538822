package config

import "time"

// Server defaults.
const (
	DefaultServerHost            = "127.0.0.1"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 10 * time.Second
	DefaultServerIdleTimeout     = 60 * time.Second
	DefaultServerShutdownTimeout = 5 * time.Second
)

// Index defaults.
const (
	DefaultIndexName           = "default"
	DefaultIndexMaxDatasetSize = "64MB"
	DefaultIndexMaxResults     = 1000
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// Telemetry defaults.
const (
	DefaultTelemetryPrometheus = true
	DefaultTelemetrySampleRate = 0.0
)
