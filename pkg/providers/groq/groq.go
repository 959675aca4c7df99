// Package groq adapts prompts to Groq's OpenAI-compatible chat completions API.
package groq

import (
	"encoding/json"
	"fmt"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/modeladapter/usage"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers"
	"github.com/germanamz/copilot/pkg/providers/catalog"
)

// DefaultEndpoint is the Groq chat completions endpoint.
const DefaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"

const defaultTemperature = 0.1

var reserved = []string{"model", "messages"}

var _ providers.Adapter = Adapter{}

// API request/response types.

// Request is the native chat completion payload.
type Request struct {
	Model       string         `json:"model"`
	Messages    []Message      `json:"messages"`
	Temperature float64        `json:"temperature"`
	Extra       map[string]any `json:"-"` // Provider-native extras, merged on top.
}

// Message is a role-tagged chat message.
type Message struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
	Refusal *string `json:"refusal,omitempty"`
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

// Response is the native chat completion response.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one generated alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// BuildRequest maps p onto a flat [system, user] message list.
func BuildRequest(p prompt.Prompt, m catalog.Model, params map[string]any) (Request, error) {
	if err := providers.CheckParams(params, reserved...); err != nil {
		return Request{}, err
	}

	system, user := p.System, p.User

	return Request{
		Model: m.NativeID(),
		Messages: []Message{
			{Role: "system", Content: &system},
			{Role: "user", Content: &user},
		},
		Temperature: defaultTemperature,
		Extra:       params,
	}, nil
}

// Headers returns the auth headers for apiKey.
func Headers(apiKey string) map[string]string {
	h := make(map[string]string, 1)
	modeladapter.Auth{Key: apiKey}.Apply(h)
	return h
}

// ParseResponse decodes a chat completion response body.
func ParseResponse(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("groq: decode response: %w", err)
	}
	return resp, nil
}

// ExtractText returns the first choice's content. The bool is false when
// there are no choices, the content is null, or the model refused.
func ExtractText(resp Response) (string, bool) {
	if len(resp.Choices) == 0 {
		return "", false
	}

	msg := resp.Choices[0].Message
	if msg.Content == nil || (msg.Refusal != nil && *msg.Refusal != "") {
		return "", false
	}

	return *msg.Content, true
}

// Adapter implements providers.Adapter for Groq.
type Adapter struct {
	// Endpoint overrides DefaultEndpoint when set.
	Endpoint string
}

// Provider returns catalog.Groq.
func (Adapter) Provider() catalog.Provider { return catalog.Groq }

// Build returns the outbound chat completions call.
func (a Adapter) Build(apiKey string, p prompt.Prompt, m catalog.Model, params map[string]any) (modeladapter.Request, error) {
	req, err := BuildRequest(p, m, params)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("groq: %w", err)
	}

	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	out, err := modeladapter.NewRequest(endpoint, Headers(apiKey), req)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("groq: %w", err)
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
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
