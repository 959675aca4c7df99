// Package anthropic adapts prompts to the Anthropic Messages API.
package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/modeladapter/usage"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers"
	"github.com/germanamz/copilot/pkg/providers/catalog"
)

// DefaultEndpoint is the Messages API endpoint.
const DefaultEndpoint = "https://api.anthropic.com/v1/messages"

// APIVersion is sent as the anthropic-version header.
const APIVersion = "2023-06-01"

const (
	defaultTemperature = 0.1
	stopRefusal        = "refusal"
)

var reserved = []string{"model", "messages", "system"}

var _ providers.Adapter = Adapter{}

// --- request types ---

// Request is the native create-message payload.
type Request struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system"`
	Messages    []Message      `json:"messages"`
	Temperature float64        `json:"temperature"`
	Extra       map[string]any `json:"-"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MarshalJSON encodes the request and overlays Extra.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request

	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}

	return providers.MergeParams(data, r.Extra)
}

// --- response types ---

// Response is the native message response.
type Response struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock is one block of the reply. Only text blocks carry a completion.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage reports token counts.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BuildRequest places the system text in the top-level system field and the
// user text in a single user message.
func BuildRequest(p prompt.Prompt, m catalog.Model, params map[string]any) (Request, error) {
	if err := providers.CheckParams(params, reserved...); err != nil {
		return Request{}, err
	}

	return Request{
		Model:       m.NativeID(),
		MaxTokens:   m.MaxTokens(),
		System:      p.System,
		Messages:    []Message{{Role: "user", Content: p.User}},
		Temperature: defaultTemperature,
		Extra:       params,
	}, nil
}

// Headers returns the auth and version headers for apiKey.
func Headers(apiKey string) map[string]string {
	h := map[string]string{"anthropic-version": APIVersion}
	modeladapter.Auth{Key: apiKey, Header: "x-api-key"}.Apply(h)
	return h
}

// ParseResponse decodes a Messages API response body.
func ParseResponse(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("anthropic: decode response: %w", err)
	}
	return resp, nil
}

// ExtractText returns the first text block. The bool is false for a refusal
// or when the reply has no text block.
func ExtractText(resp Response) (string, bool) {
	if resp.StopReason == stopRefusal {
		return "", false
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}

	return "", false
}

// Adapter implements providers.Adapter for Anthropic.
type Adapter struct {
	// Endpoint overrides DefaultEndpoint when set.
	Endpoint string
}

// Provider returns catalog.Anthropic.
func (Adapter) Provider() catalog.Provider { return catalog.Anthropic }

// Build returns the outbound Messages API call.
func (a Adapter) Build(apiKey string, p prompt.Prompt, m catalog.Model, params map[string]any) (modeladapter.Request, error) {
	req, err := BuildRequest(p, m, params)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("anthropic: %w", err)
	}

	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	out, err := modeladapter.NewRequest(endpoint, Headers(apiKey), req)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("anthropic: %w", err)
	}

	return out, nil
}

// Extract parses body and returns the completion and token usage.
func (Adapter) Extract(body json.RawMessage) (providers.Result, error) {
	resp, err := ParseResponse(body)
	if err != nil {
		return providers.Result{}, err
	}

	text, ok := ExtractText(resp)

	return providers.Result{
		Text: text,
		OK:   ok,
		Usage: usage.TokenCount{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
