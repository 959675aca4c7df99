// Package openai adapts prompts to the OpenAI Chat Completions API.
//
// The native request and response shapes are the openai-go SDK types; only
// their JSON encoding is used, the HTTP call is left to the transport.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/modeladapter/usage"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	oai "github.com/openai/openai-go"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the Chat Completions endpoint.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

const defaultTemperature = 0.1

var reserved = []string{"model", "messages"}

// ErrResponseShape indicates a body that decodes as JSON but is not a Chat
// Completions response.
var ErrResponseShape = errors.New("unexpected response shape")

var _ providers.Adapter = Adapter{}

// Request is the native create-completion payload plus provider-native extras.
type Request struct {
	oai.ChatCompletionNewParams
	Extra map[string]any
}

// MarshalJSON encodes the SDK params and overlays Extra.
func (r Request) MarshalJSON() ([]byte, error) {
	data, err := r.ChatCompletionNewParams.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return providers.MergeParams(data, r.Extra)
}

// Response is the native completion response.
type Response = oai.ChatCompletion

// BuildRequest maps p onto a flat [system, user] message list. The o1 models
// reject the system role and a sampling temperature, so for them the system
// text is sent as a leading user message and no temperature is set.
func BuildRequest(p prompt.Prompt, m catalog.Model, params map[string]any) (Request, error) {
	if err := providers.CheckParams(params, reserved...); err != nil {
		return Request{}, err
	}

	system := oai.ChatCompletionMessageParamUnion(oai.SystemMessage(p.System))
	if m.Reasoning() {
		system = oai.UserMessageParts(oai.TextPart(p.System))
	}

	req := Request{
		ChatCompletionNewParams: oai.ChatCompletionNewParams{
			Model: oai.F(m.NativeID()),
			Messages: oai.F([]oai.ChatCompletionMessageParamUnion{
				system,
				oai.UserMessageParts(oai.TextPart(p.User)),
			}),
		},
		Extra: params,
	}

	if !m.Reasoning() {
		req.Temperature = oai.Float(defaultTemperature)
	}

	return req, nil
}

// Headers returns the auth headers for apiKey.
func Headers(apiKey string) map[string]string {
	h := make(map[string]string, 1)
	modeladapter.Auth{Key: apiKey}.Apply(h)
	return h
}

// ParseResponse decodes a Chat Completions response body. The SDK decoder is
// lenient about field types, so choices and message contents are checked
// explicitly.
func ParseResponse(body []byte) (Response, error) {
	if gjson.ValidBytes(body) {
		if err := checkShape(gjson.ParseBytes(body)); err != nil {
			return Response{}, fmt.Errorf("openai: decode response: %w", err)
		}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("openai: decode response: %w", err)
	}

	return resp, nil
}

func checkShape(root gjson.Result) error {
	if !root.IsObject() {
		return fmt.Errorf("%w: body is not an object", ErrResponseShape)
	}

	choices := root.Get("choices")
	if !choices.Exists() || choices.Type == gjson.Null {
		return nil
	}
	if !choices.IsArray() {
		return fmt.Errorf("%w: choices is not an array", ErrResponseShape)
	}

	for i, c := range choices.Array() {
		if !c.IsObject() {
			return fmt.Errorf("%w: choices.%d is not an object", ErrResponseShape, i)
		}

		content := c.Get("message.content")
		if content.Exists() && content.Type != gjson.String && content.Type != gjson.Null {
			return fmt.Errorf("%w: choices.%d.message.content is not a string", ErrResponseShape, i)
		}
	}

	return nil
}

// ExtractText returns the first choice's content. The bool is false when the
// response has no choices, the model refused, or the content is null.
func ExtractText(resp Response) (string, bool) {
	if len(resp.Choices) == 0 {
		return "", false
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", false
	}

	if msg.JSON.Content.IsInvalid() {
		return "", false
	}

	if msg.Content == "" && (msg.JSON.Content.IsNull() || msg.JSON.Content.IsMissing()) {
		return "", false
	}

	return msg.Content, true
}

// Adapter implements providers.Adapter for OpenAI.
type Adapter struct {
	// Endpoint overrides DefaultEndpoint when set.
	Endpoint string
}

// Provider returns catalog.OpenAI.
func (Adapter) Provider() catalog.Provider { return catalog.OpenAI }

// Build returns the outbound Chat Completions call.
func (a Adapter) Build(apiKey string, p prompt.Prompt, m catalog.Model, params map[string]any) (modeladapter.Request, error) {
	req, err := BuildRequest(p, m, params)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("openai: %w", err)
	}

	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	out, err := modeladapter.NewRequest(endpoint, Headers(apiKey), req)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("openai: %w", err)
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
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}
