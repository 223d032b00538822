// Package server exposes an index over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
	"github.com/Sumatoshi-tech/intervalidx/pkg/version"
)

// Default timeouts used when Options leaves them zero.
const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Options configures the listener.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
}

// Deps holds optional instrumentation.
type Deps struct {
	Logger *slog.Logger
	Tracer trace.Tracer
}

// Server serves one index over HTTP.
type Server struct {
	index           *index.Index
	logger          *slog.Logger
	handler         http.Handler
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New builds a server for ix. Call Run to start listening.
func New(ix *index.Index, opts Options, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	s := &Server{
		index:           ix,
		logger:          logger,
		shutdownTimeout: orDefault(opts.ShutdownTimeout, defaultShutdownTimeout),
	}

	s.handler = observability.HTTPMiddleware(tracer, logger, s.routes(opts.MetricsHandler))

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  orDefault(opts.ReadTimeout, defaultReadTimeout),
		WriteTimeout: orDefault(opts.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  orDefault(opts.IdleTimeout, defaultIdleTimeout),
	}

	return s
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is canceled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve is like Run but accepts connections on listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "server listening", "addr", listener.Addr().String(), "index", s.index.Name())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	s.logger.InfoContext(ctx, "server shutting down")

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func (s *Server) routes(metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/find", s.handleFind)
	mux.HandleFunc("GET /v1/overlaps", s.handleOverlaps)
	mux.HandleFunc("GET /v1/point", s.handlePoint)
	mux.HandleFunc("GET /v1/intervals", s.handleList)
	mux.HandleFunc("POST /v1/intervals", s.handlePut)
	mux.HandleFunc("DELETE /v1/intervals", s.handleDelete)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	mux.Handle("/healthz", observability.HealthHandler(version.Version))
	mux.Handle("/readyz", observability.ReadyHandler(s.index.Check))

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	return mux
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}
