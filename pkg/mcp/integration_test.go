package mcp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
	"github.com/Sumatoshi-tech/intervalidx/pkg/mcp"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.Run(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callText(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text, result.IsError
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Logger: discardLogger}))

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, toolsResult)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		mcp.ToolNameFind,
		mcp.ToolNameOverlaps,
		mcp.ToolNamePoint,
		mcp.ToolNamePut,
		mcp.ToolNameStats,
	}, toolNames)

	for _, tool := range toolsResult.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}
}

func TestMCPServer_InMemoryTransport_PutThenQuery(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Logger: discardLogger}))

	for _, args := range []map[string]any{
		{"from": "1", "to": "5", "value": "a"},
		{"from": "10", "to": "15", "value": "b"},
		{"from": "3", "to": "8", "value": "c", "labels": map[string]any{"tier": "gold"}},
	} {
		text, isErr := callText(t, session, mcp.ToolNamePut, args)
		require.False(t, isErr, text)
		assert.JSONEq(t, `{"inserted": true}`, text)
	}

	text, isErr := callText(t, session, mcp.ToolNameOverlaps, map[string]any{"from": "4", "to": "11"})
	require.False(t, isErr, text)

	var entries []mcp.Entry
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Value)
	assert.Equal(t, "c", entries[1].Value)
	assert.Equal(t, "b", entries[2].Value)

	text, isErr = callText(t, session, mcp.ToolNameOverlaps, map[string]any{"from": "0", "to": "20", "selector": "tier=gold"})
	require.False(t, isErr, text)
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Value)

	text, isErr = callText(t, session, mcp.ToolNameFind, map[string]any{"from": "10", "to": "15"})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"value": "b"`)

	text, isErr = callText(t, session, mcp.ToolNameStats, map[string]any{})
	require.False(t, isErr, text)

	var stats index.Stats
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	assert.Equal(t, 3, stats.Size)
}

func TestMCPServer_InMemoryTransport_InvalidInput(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Logger: discardLogger}))

	tests := map[string]struct {
		tool string
		args map[string]any
		want string
	}{
		"reversed":     {tool: mcp.ToolNameFind, args: map[string]any{"from": "9", "to": "1"}, want: "from cannot be greater than to"},
		"empty from":   {tool: mcp.ToolNameOverlaps, args: map[string]any{"from": "", "to": "1"}, want: "required"},
		"bad selector": {tool: mcp.ToolNameOverlaps, args: map[string]any{"from": "1", "to": "2", "selector": "a in ("}, want: "selector"},
		"empty point":  {tool: mcp.ToolNamePoint, args: map[string]any{"at": ""}, want: "at parameter"},
		"missing":      {tool: mcp.ToolNameFind, args: map[string]any{"from": "1", "to": "2"}, want: "not found"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			text, isErr := callText(t, session, tt.tool, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestMCPServer_InMemoryTransport_IPv4Index(t *testing.T) {
	t.Parallel()

	ix := index.New(index.Config{Name: "offices", Kind: dataset.KindIPv4}, index.Deps{Logger: discardLogger})

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Logger: discardLogger, Index: ix}))

	text, isErr := callText(t, session, mcp.ToolNamePut, map[string]any{"from": "10.0.0.0", "to": "10.0.0.255", "value": "berlin"})
	require.False(t, isErr, text)

	text, isErr = callText(t, session, mcp.ToolNamePoint, map[string]any{"at": "10.0.0.9"})
	require.False(t, isErr, text)

	var entries []mcp.Entry
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, mcp.Entry{From: "10.0.0.0", To: "10.0.0.255", Value: "berlin"}, entries[0])
}
