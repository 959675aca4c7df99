package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/germanamz/copilot/pkg/copilot"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates an MCPServer around c, connects an SDK client via
// in-memory transports, and returns the client session. The server runs in a
// background goroutine tied to t.Cleanup.
func setupTestClient(t *testing.T, c copilot.Completer) *mcp.ClientSession {
	t.Helper()

	s := New("test-server", "1.0.0", c)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- s.run(ctx, serverTransport)
	}()
	t.Cleanup(func() {
		cancel()
		<-serverDone
	})

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	return tc.Text
}

func TestListTools(t *testing.T) {
	session := setupTestClient(t, copilot.CompleterFunc(func(context.Context, prompt.Prompt) (string, bool, error) {
		return "", false, nil
	}))

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{CompleteTool, ModelsTool}, names)
}

func TestComplete_Success(t *testing.T) {
	var got prompt.Prompt

	session := setupTestClient(t, copilot.CompleterFunc(func(_ context.Context, p prompt.Prompt) (string, bool, error) {
		got = p
		return "return x", true, nil
	}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      CompleteTool,
		Arguments: map[string]any{"system": "complete go code", "user": "func id(x int) int {"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "return x", resultText(t, result))
	assert.Equal(t, prompt.New("complete go code", "func id(x int) int {"), got)
}

func TestComplete_NoCompletion(t *testing.T) {
	session := setupTestClient(t, copilot.CompleterFunc(func(context.Context, prompt.Prompt) (string, bool, error) {
		return "", false, nil
	}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      CompleteTool,
		Arguments: map[string]any{"user": "x"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Empty(t, resultText(t, result))
}

func TestComplete_Error(t *testing.T) {
	session := setupTestClient(t, copilot.CompleterFunc(func(context.Context, prompt.Prompt) (string, bool, error) {
		return "", false, errors.New("provider unavailable")
	}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      CompleteTool,
		Arguments: map[string]any{"user": "x"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "provider unavailable", resultText(t, result))
}

func TestListModels(t *testing.T) {
	session := setupTestClient(t, copilot.CompleterFunc(func(context.Context, prompt.Prompt) (string, bool, error) {
		return "", false, nil
	}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ModelsTool,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var entries []modelEntry
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &entries))
	require.Len(t, entries, 9)

	defaults := 0
	for _, e := range entries {
		if e.Default {
			defaults++
		}
	}
	assert.Equal(t, 3, defaults)
}

func TestContextCancellation(t *testing.T) {
	s := New("srv", "1.0.0", nil)
	serverTransport, _ := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.run(ctx, serverTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
