// Package custom lets callers talk to any JSON-over-HTTP (or WebSocket) model
// by supplying two functions: one that describes the outbound call and one
// that pulls the completion out of the raw response.
package custom

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/tidwall/gjson"
)

var (
	// ErrMissingEndpoint indicates a Config without an endpoint.
	ErrMissingEndpoint = errors.New("custom model: endpoint is required")
	// ErrMissingConfig indicates a Model without a Config function.
	ErrMissingConfig = errors.New("custom model: config function is required")
	// ErrMissingTransform indicates a Model without a TransformResponse function.
	ErrMissingTransform = errors.New("custom model: transform function is required")
)

// Config describes one outbound call.
type Config struct {
	Endpoint string
	Headers  map[string]string // Merged over the transport defaults.
	Body     map[string]any    // Sent as-is; nil is sent as {}.
}

// Validate checks that the call has somewhere to go.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// Request converts c into a transport request.
func (c Config) Request() (modeladapter.Request, error) {
	if err := c.Validate(); err != nil {
		return modeladapter.Request{}, err
	}

	if c.Body == nil {
		return modeladapter.Request{Endpoint: c.Endpoint, Headers: c.Headers}, nil
	}

	req, err := modeladapter.NewRequest(c.Endpoint, c.Headers, c.Body)
	if err != nil {
		return modeladapter.Request{}, fmt.Errorf("custom model: %w", err)
	}

	return req, nil
}

// ConfigFunc builds the call for one prompt.
type ConfigFunc func(apiKey string, p prompt.Prompt) Config

// Result is what a TransformFunc extracted.
type Result struct {
	Text *string

	// Deprecated: set Text instead. Completion is read only when Text is nil.
	Completion *string
}

// Normalize returns the completion. Text wins over Completion; when neither is
// set the bool is false.
func (r Result) Normalize() (string, bool) {
	switch {
	case r.Text != nil:
		return *r.Text, true
	case r.Completion != nil:
		return *r.Completion, true
	default:
		return "", false
	}
}

// TransformFunc extracts the completion from a raw response body.
type TransformFunc func(raw json.RawMessage) Result

// Model is a caller-defined backend.
type Model struct {
	Config            ConfigFunc
	TransformResponse TransformFunc
}

// Validate checks that both functions are present.
func (m Model) Validate() error {
	if m.Config == nil {
		return ErrMissingConfig
	}
	if m.TransformResponse == nil {
		return ErrMissingTransform
	}
	return nil
}

// Transform runs the transform and normalizes its result. A panicking
// transform yields no completion.
func (m Model) Transform(raw json.RawMessage) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	return m.TransformResponse(raw).Normalize()
}

// TextAt returns a TransformFunc that reads the string at a gjson path, e.g.
// "choices.0.text". A missing or non-string value yields no completion.
func TextAt(path string) TransformFunc {
	return func(raw json.RawMessage) Result {
		v := gjson.GetBytes(raw, path)
		if v.Type != gjson.String {
			return Result{}
		}

		s := v.String()
		return Result{Text: &s}
	}
}
