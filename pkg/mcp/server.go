// Package mcp serves an interval index to MCP clients. Each index
// operation is one tool; results are JSON text content.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
	"github.com/Sumatoshi-tech/intervalidx/pkg/version"
)

const (
	implementationName = "intervalidx"

	// toolSpanPrefix prefixes span and RED operation names of tool calls.
	toolSpanPrefix = "mcp."

	// traceIDKey labels the trace reference appended to sampled results.
	traceIDKey = "trace_id"
)

// ServerDeps are the collaborators of a Server. All fields are optional.
type ServerDeps struct {
	Logger  *slog.Logger
	Metrics *observability.REDMetrics
	Tracer  trace.Tracer

	// Index backs every tool. Nil starts an empty int index named "default".
	Index *index.Index
}

// Server exposes an interval index as MCP tools.
type Server struct {
	inner   *mcpsdk.Server
	index   *index.Index
	metrics *observability.REDMetrics
	tracer  trace.Tracer

	// toolNames is filled during NewServer and read-only afterwards.
	toolNames []string
}

type toolHandler[In any] func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error)

// NewServer builds a server with the interval tools registered.
func NewServer(deps ServerDeps) *Server {
	var opts mcpsdk.ServerOptions

	opts.Logger = deps.Logger

	ix := deps.Index
	if ix == nil {
		ix = index.New(index.Config{Name: "default"}, index.Deps{
			Logger:  deps.Logger,
			Metrics: deps.Metrics,
			Tracer:  deps.Tracer,
		})
	}

	srv := &Server{
		inner:   mcpsdk.NewServer(&mcpsdk.Implementation{Name: implementationName, Version: version.Version}, &opts),
		index:   ix,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	register(srv, ToolNameFind, findToolDescription, srv.handleFind)
	register(srv, ToolNameOverlaps, overlapsToolDescription, srv.handleOverlaps)
	register(srv, ToolNamePoint, pointToolDescription, srv.handlePoint)
	register(srv, ToolNamePut, putToolDescription, srv.handlePut)
	register(srv, ToolNameStats, statsToolDescription, srv.handleStats)

	slices.Sort(srv.toolNames)

	return srv
}

// ToolNames lists the registered tools in lexical order.
func (s *Server) ToolNames() []string {
	return slices.Clone(s.toolNames)
}

// Run serves MCP on transport until ctx is done or the peer disconnects.
// A nil transport means stdio.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	if transport == nil {
		transport = &mcpsdk.StdioTransport{}
	}

	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func register[In any](s *Server, name, description string, handler toolHandler[In]) {
	tool := &mcpsdk.Tool{Name: name, Description: description}

	mcpsdk.AddTool(s.inner, tool, mcpsdk.ToolHandlerFor[In, ToolOutput](instrument(s.tracer, s.metrics, name, handler)))

	s.toolNames = append(s.toolNames, name)
}

// instrument wraps a tool call in a server span and RED metrics. Either
// collaborator may be nil. A sampled call gets "trace_id=<id>" appended to
// its result content so clients can find the trace.
func instrument[In any](
	tracer trace.Tracer, metrics *observability.REDMetrics, name string, handler toolHandler[In],
) toolHandler[In] {
	if tracer == nil && metrics == nil {
		return handler
	}

	op := toolSpanPrefix + name

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		began := time.Now()

		if metrics != nil {
			done := metrics.TrackInflight(ctx, op)
			defer done()
		}

		var span trace.Span

		if tracer != nil {
			ctx, span = tracer.Start(ctx, op,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.tool", name)),
			)
			defer span.End()
		}

		result, output, err := handler(ctx, req, in)

		failed := err != nil || (result != nil && result.IsError)

		if span != nil {
			if failed {
				span.SetStatus(codes.Error, "tool call failed")
			}

			if sc := span.SpanContext(); sc.IsSampled() && result != nil {
				result.Content = append(result.Content, &mcpsdk.TextContent{Text: traceIDKey + "=" + sc.TraceID().String()})
			}
		}

		if metrics != nil {
			status := observability.StatusOK
			if failed {
				status = observability.StatusError
			}

			metrics.RecordRequest(ctx, op, status, time.Since(began))
		}

		return result, output, err
	}
}

const (
	findToolDescription = "Look up the entry stored under exactly the interval [from, to]. " +
		"Endpoints use the index kind (integers, IPv4 addresses or RFC 3339 timestamps)."

	overlapsToolDescription = "List stored intervals overlapping [from, to] in ascending order. " +
		"Touching endpoints count as overlapping. Optional label selector; any=true returns a single matching hit."

	pointToolDescription = "List stored intervals containing a single point."

	putToolDescription = "Store a value under the interval [from, to], replacing the value of an identical interval."

	statsToolDescription = "Report the index name, endpoint kind, entry count and tree height."
)
