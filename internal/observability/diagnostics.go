package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// DiagnosticsOptions configures a DiagnosticsServer.
type DiagnosticsOptions struct {
	Addr string
	// Version is reported by /healthz.
	Version string
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
	Checks         []ReadyCheck
	Logger         *slog.Logger
}

// DiagnosticsServer serves probes and metrics next to a transport that is
// not HTTP, such as the MCP stdio server.
type DiagnosticsServer struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
	done     chan struct{}
}

// NewDiagnosticsServer listens on opts.Addr and serves in the background
// until Close.
func NewDiagnosticsServer(ctx context.Context, opts DiagnosticsOptions) (*DiagnosticsServer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", HealthHandler(opts.Version))
	mux.Handle("GET /readyz", ReadyHandler(opts.Checks...))

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.Addr, err)
	}

	d := &DiagnosticsServer{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: diagnosticsReadHeaderTimeout},
		listener: listener,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go d.serve()

	return d, nil
}

func (d *DiagnosticsServer) serve() {
	defer close(d.done)

	err := d.server.Serve(d.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.logger.Warn("diagnostics server stopped", "error", err)
	}
}

// Addr returns the bound address, useful when Addr asked for port 0.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close shuts the server down and waits for the serve loop to exit.
func (d *DiagnosticsServer) Close(ctx context.Context) error {
	err := d.server.Shutdown(ctx)

	<-d.done

	if err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}
