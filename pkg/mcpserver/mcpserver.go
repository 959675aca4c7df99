// Package mcpserver exposes a Completer as MCP tools so editors and agents can
// request completions over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/germanamz/copilot/pkg/copilot"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// CompleteTool is the name of the completion tool.
	CompleteTool = "complete"
	// ModelsTool is the name of the catalog listing tool.
	ModelsTool = "list_models"
)

var completeSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"system": {"type": "string", "description": "Instructions framing the task"},
		"user": {"type": "string", "description": "Content to complete"}
	},
	"required": ["user"]
}`)

var modelsSchema = json.RawMessage(`{"type":"object"}`)

// MCPServer serves completions over the MCP protocol using the official MCP Go SDK.
type MCPServer struct {
	server    *mcp.Server
	completer copilot.Completer
}

// New creates an MCPServer that answers the complete tool with c.
func New(name, version string, c copilot.Completer) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	s := &MCPServer{server: server, completer: c}

	server.AddTool(&mcp.Tool{
		Name:        CompleteTool,
		Description: "Complete the user text, following the system instructions. Returns the completion, or empty text when the model produced none.",
		InputSchema: completeSchema,
	}, s.handleComplete)

	server.AddTool(&mcp.Tool{
		Name:        ModelsTool,
		Description: "List the supported providers and models as JSON.",
		InputSchema: modelsSchema,
	}, handleModels)

	return s
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run is split out so tests can use an in-memory transport.
func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

type completeInput struct {
	System string `json:"system"`
	User   string `json:"user"`
}

func (s *MCPServer) handleComplete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in completeInput
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &in); err != nil {
			return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
		}
	}

	text, _, err := s.completer.Complete(ctx, prompt.New(in.System, in.User))
	if err != nil {
		return errorResult(err), nil
	}

	return textResult(text), nil
}

type modelEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	NativeID string `json:"native_id"`
	Default  bool   `json:"default"`
}

func handleModels(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var entries []modelEntry
	for _, p := range catalog.Providers() {
		for _, m := range p.Models() {
			entries = append(entries, modelEntry{
				Provider: p.String(),
				Model:    m.String(),
				NativeID: m.NativeID(),
				Default:  m == p.DefaultModel(),
			})
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return errorResult(err), nil
	}

	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
