package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
)

// Tool name constants.
const (
	ToolNameFind     = "interval_find"
	ToolNameOverlaps = "interval_overlaps"
	ToolNamePoint    = "interval_point"
	ToolNamePut      = "interval_put"
	ToolNameStats    = "interval_stats"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyEndpoint indicates a missing from or to parameter.
	ErrEmptyEndpoint = errors.New("from and to parameters are required and must not be empty")
	// ErrEmptyPoint indicates a missing at parameter.
	ErrEmptyPoint = errors.New("at parameter is required and must not be empty")
	// ErrNotFound indicates an exact lookup without a match.
	ErrNotFound = errors.New("interval not found")
)

// Input types (auto-generate JSON schemas via struct tags).

// RangeInput is the input schema for interval_find.
type RangeInput struct {
	From string `json:"from" jsonschema:"lower endpoint, inclusive"`
	To   string `json:"to"   jsonschema:"upper endpoint, inclusive"`
}

// OverlapsInput is the input schema for interval_overlaps.
type OverlapsInput struct {
	From     string `json:"from"               jsonschema:"lower endpoint, inclusive"`
	To       string `json:"to"                 jsonschema:"upper endpoint, inclusive"`
	Selector string `json:"selector,omitempty" jsonschema:"optional label selector (e.g. site=berlin,tier!=dev)"`
	Any      bool   `json:"any,omitempty"      jsonschema:"return at most one overlapping interval"`
}

// PointInput is the input schema for interval_point.
type PointInput struct {
	At string `json:"at" jsonschema:"point to stab the index with"`
}

// PutInput is the input schema for interval_put.
type PutInput struct {
	From   string            `json:"from"             jsonschema:"lower endpoint, inclusive"`
	To     string            `json:"to"               jsonschema:"upper endpoint, inclusive"`
	Name   string            `json:"name,omitempty"   jsonschema:"optional entry name"`
	Value  string            `json:"value,omitempty"  jsonschema:"value stored with the interval"`
	Labels map[string]string `json:"labels,omitempty" jsonschema:"optional labels used by selectors"`
}

// StatsInput is the empty input schema for interval_stats.
type StatsInput struct{}

// Output types.

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Entry is one interval in a tool result, with endpoints in the index kind.
type Entry struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Name   string            `json:"name,omitempty"`
	Value  string            `json:"value,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// PutResult reports whether interval_put added a new interval.
type PutResult struct {
	Inserted bool `json:"inserted"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateRange checks that both endpoints are present.
func validateRange(from, to string) error {
	if from == "" || to == "" {
		return ErrEmptyEndpoint
	}

	return nil
}

func toEntries(kind dataset.Kind, matches []index.Match) []Entry {
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, toEntry(kind, m))
	}

	return out
}

func toEntry(kind dataset.Kind, m index.Match) Entry {
	return Entry{
		From:   dataset.FormatEndpoint(kind, m.Interval.From()),
		To:     dataset.FormatEndpoint(kind, m.Interval.To()),
		Name:   m.Name,
		Value:  m.Value.Value,
		Labels: m.Labels,
	}
}
