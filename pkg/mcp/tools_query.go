package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
)

// handleFind processes interval_find tool calls.
func (s *Server) handleFind(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input RangeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRange(input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	iv, err := s.index.ParseInterval(input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	match, ok, err := s.index.Find(ctx, iv)
	if err != nil {
		return errorResult(err)
	}

	if !ok {
		return errorResult(fmt.Errorf("%w: %s", ErrNotFound, dataset.FormatInterval(s.index.Kind(), iv)))
	}

	return jsonResult(toEntry(s.index.Kind(), match))
}

// handleOverlaps processes interval_overlaps tool calls.
func (s *Server) handleOverlaps(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input OverlapsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRange(input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	iv, err := s.index.ParseInterval(input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	if input.Any {
		match, ok, anyErr := s.index.Any(ctx, iv, input.Selector)
		if anyErr != nil {
			return errorResult(anyErr)
		}

		if !ok {
			return jsonResult([]Entry{})
		}

		return jsonResult([]Entry{toEntry(s.index.Kind(), match)})
	}

	matches, err := s.index.Overlaps(ctx, iv, input.Selector)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(toEntries(s.index.Kind(), matches))
}

// handlePoint processes interval_point tool calls.
func (s *Server) handlePoint(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input PointInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.At == "" {
		return errorResult(ErrEmptyPoint)
	}

	p, err := dataset.ParseEndpoint(s.index.Kind(), input.At)
	if err != nil {
		return errorResult(err)
	}

	matches, err := s.index.Point(ctx, p)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(toEntries(s.index.Kind(), matches))
}

// handlePut processes interval_put tool calls.
func (s *Server) handlePut(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input PutInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRange(input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	iv, err := s.index.ParseInterval(input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	set := labels.Set(input.Labels)

	_, err = labels.ValidatedSelectorFromSet(set)
	if err != nil {
		return errorResult(fmt.Errorf("labels: %w", err))
	}

	inserted, err := s.index.Put(ctx, iv, index.Value{Name: input.Name, Value: input.Value, Labels: set})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(PutResult{Inserted: inserted})
}

// handleStats processes interval_stats tool calls.
func (s *Server) handleStats(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ StatsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(s.index.Stats())
}
