// Package observability wires OpenTelemetry tracing and metrics plus slog
// logging for the intervalidx CLI, HTTP server and MCP server.
package observability

import (
	"io"
	"log/slog"
	"time"
)

// AppMode identifies how the binary was launched. It is exported as the
// app.mode resource attribute and picks exporter defaults.
type AppMode string

// Application modes.
const (
	ModeCLI   AppMode = "cli"
	ModeMCP   AppMode = "mcp"
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName     = "intervalidx"
	defaultShutdownTimeout = 5 * time.Second
)

// Config controls what Init builds. The zero value exports nothing and logs
// text at info level; use DefaultConfig for a named service.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is a gRPC collector address such as "localhost:4317".
	// Empty disables OTLP export of both traces and metrics.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// DebugTrace samples every trace and keeps per-lookup index spans.
	DebugTrace bool

	// SampleRatio applies parent-based ratio sampling when positive.
	SampleRatio float64

	// Prometheus attaches a pull exporter, served by Providers.MetricsHandler.
	Prometheus bool

	LogLevel slog.Level
	LogJSON  bool

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// ShutdownTimeout bounds the flush in Providers.Shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the CLI configuration with no exporters.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}

	return c.ShutdownTimeout
}
