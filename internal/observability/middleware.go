package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// httpStatusServerError is the threshold for HTTP server errors.
const httpStatusServerError = 500

// statusWriter wraps [http.ResponseWriter] to capture the status code.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
	written    bool
}

// WriteHeader captures the status code before delegating to the wrapped writer.
func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if !sw.written {
		sw.statusCode = http.StatusOK
		sw.written = true
	}

	n, err := sw.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// Error classification values for the error.type span attribute.
const (
	ErrTypeValidation = "validation"
	ErrTypeNotFound   = "not_found"
	ErrTypeInternal   = "internal"
	ErrTypePanic      = "panic"
)

// Error source values for the error.source span attribute.
const (
	ErrSourceClient   = "client"
	ErrSourceInternal = "internal"
)

// RecordSpanError marks span as failed and classifies err. An empty source
// leaves error.source unset.
func RecordSpanError(span trace.Span, err error, errType, source string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.type", errType))

	if source != "" {
		span.SetAttributes(attribute.String("error.source", source))
	}
}

// probePaths are logged at debug level so scrapes and probes stay out of
// the access log.
var probePaths = map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}

// HTTPMiddleware traces each request, recovers handler panics as 500
// responses and writes one access log line. The span starts as
// "METHOD /path" and is renamed to the matched [http.ServeMux] pattern once
// the handler returns, keeping span names low-cardinality.
func HTTPMiddleware(tracer trace.Tracer, logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()

		parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parentCtx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: rw, statusCode: http.StatusOK}
		req := hr.WithContext(ctx)

		defer func() {
			if recovered := recover(); recovered != nil {
				span.AddEvent("panic.stack", trace.WithAttributes(
					attribute.String("stack", string(debug.Stack())),
				))
				RecordSpanError(span, fmt.Errorf("panic: %v", recovered), ErrTypePanic, ErrSourceInternal)
				logger.ErrorContext(ctx, "http handler panic", "path", hr.URL.Path, "panic", recovered)

				if !sw.written {
					http.Error(sw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}

			if req.Pattern != "" {
				span.SetName(req.Pattern)
				span.SetAttributes(semconv.HTTPRoute(req.Pattern))
			}

			span.SetAttributes(semconv.HTTPResponseStatusCode(sw.statusCode))

			level := slog.LevelInfo

			switch {
			case sw.statusCode >= httpStatusServerError:
				span.SetStatus(codes.Error, http.StatusText(sw.statusCode))

				level = slog.LevelWarn
			case probePaths[hr.URL.Path]:
				level = slog.LevelDebug
			}

			logger.Log(ctx, level, "http.request",
				"method", hr.Method,
				"path", hr.URL.Path,
				"route", req.Pattern,
				"status", sw.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(sw, req)
	})
}
