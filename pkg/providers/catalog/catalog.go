// Package catalog is the closed registry of supported providers and the
// models each of them serves.
//
// Every table in this package is a single switch over the provider or model
// constants. Adding a provider means extending each switch here and the
// dispatch table in [github.com/germanamz/copilot/pkg/copilot].
package catalog

import (
	"errors"
	"fmt"
)

// Provider identifies one of the supported hosted LLM backends.
type Provider string

const (
	OpenAI    Provider = "openai"
	Groq      Provider = "groq"
	Anthropic Provider = "anthropic"
)

// Model identifies a provider-scoped model variant.
type Model string

const (
	GPT4o     Model = "gpt-4o"
	GPT4oMini Model = "gpt-4o-mini"
	O1Preview Model = "o1-preview"
	O1Mini    Model = "o1-mini"

	Llama3_70b Model = "llama-3-70b"

	Claude35Sonnet Model = "claude-3-5-sonnet"
	Claude3Opus    Model = "claude-3-opus"
	Claude3Haiku   Model = "claude-3-haiku"
	Claude3Sonnet  Model = "claude-3-sonnet"
)

// DefaultProvider is used when neither a provider nor a model is configured.
const DefaultProvider = Anthropic

var (
	// ErrUnknownProvider indicates a provider tag outside the supported set.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownModel indicates a model name outside the supported set.
	ErrUnknownModel = errors.New("unknown model")
	// ErrModelMismatch indicates a model paired with a provider that does not serve it.
	ErrModelMismatch = errors.New("model does not belong to provider")
)

// Providers returns every supported provider in a stable order.
func Providers() []Provider {
	return []Provider{OpenAI, Groq, Anthropic}
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case OpenAI, Groq, Anthropic:
		return true
	}
	return false
}

// String returns the underlying string value of the provider.
func (p Provider) String() string {
	return string(p)
}

// Models returns the models served by p, or nil for an unknown provider.
func (p Provider) Models() []Model {
	switch p {
	case OpenAI:
		return []Model{GPT4o, GPT4oMini, O1Preview, O1Mini}
	case Groq:
		return []Model{Llama3_70b}
	case Anthropic:
		return []Model{Claude35Sonnet, Claude3Opus, Claude3Haiku, Claude3Sonnet}
	}
	return nil
}

// DefaultModel returns the model used when only p is configured.
func (p Provider) DefaultModel() Model {
	switch p {
	case OpenAI:
		return GPT4o
	case Groq:
		return Llama3_70b
	case Anthropic:
		return Claude35Sonnet
	}
	return ""
}

// String returns the underlying string value of the model.
func (m Model) String() string {
	return string(m)
}

// Provider returns the provider that serves m. The bool is false for an
// unknown model.
func (m Model) Provider() (Provider, bool) {
	switch m {
	case GPT4o, GPT4oMini, O1Preview, O1Mini:
		return OpenAI, true
	case Llama3_70b:
		return Groq, true
	case Claude35Sonnet, Claude3Opus, Claude3Haiku, Claude3Sonnet:
		return Anthropic, true
	}
	return "", false
}

// NativeID returns the identifier the provider API expects for m.
func (m Model) NativeID() string {
	switch m {
	case Llama3_70b:
		return "llama3-70b-8192"
	case Claude35Sonnet:
		return "claude-3-5-sonnet-20240620"
	case Claude3Opus:
		return "claude-3-opus-20240229"
	case Claude3Haiku:
		return "claude-3-haiku-20240307"
	case Claude3Sonnet:
		return "claude-3-sonnet-20240229"
	}
	return string(m)
}

// MaxTokens returns the output token budget requested from providers that
// require one.
func (m Model) MaxTokens() int {
	if m == Claude35Sonnet {
		return 8192
	}
	return 4096
}

// Reasoning reports whether m belongs to the OpenAI o1 family, which accepts
// neither a system role nor a sampling temperature.
func (m Model) Reasoning() bool {
	return m == O1Preview || m == O1Mini
}

// Resolve applies defaulting to a (provider, model) pair and validates it.
//
//   - neither set: DefaultProvider and its default model
//   - provider only: the provider's default model
//   - model only: the provider that serves the model
//   - both set: the model must belong to the provider
func Resolve(p Provider, m Model) (Provider, Model, error) {
	if p != "" && !p.Valid() {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}

	if m == "" {
		if p == "" {
			p = DefaultProvider
		}
		return p, p.DefaultModel(), nil
	}

	owner, ok := m.Provider()
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownModel, m)
	}

	if p == "" {
		return owner, m, nil
	}

	if owner != p {
		return "", "", fmt.Errorf("%w: %q is served by %q, not %q", ErrModelMismatch, m, owner, p)
	}

	return p, m, nil
}
