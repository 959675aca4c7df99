// Package copilot turns a prompt into a single completion from one of the
// supported hosted providers or from a caller-defined custom model.
//
// A Copilot is configured once with New and is then safe for concurrent use:
//
//	c, err := copilot.New(os.Getenv("ANTHROPIC_API_KEY"), copilot.Options{
//		Provider: catalog.Anthropic,
//		Model:    catalog.Claude3Haiku,
//	})
//	text, ok, err := c.Complete(ctx, prompt.New(system, user))
//
// Complete performs exactly one outbound call and never retries. A nil error
// with ok == false means the backend answered without usable text.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/germanamz/copilot/pkg/custom"
	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/modeladapter/usage"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers"
	"github.com/germanamz/copilot/pkg/providers/anthropic"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"github.com/germanamz/copilot/pkg/providers/groq"
	"github.com/germanamz/copilot/pkg/providers/openai"
)

var (
	// ErrConfig is wrapped by every configuration failure.
	ErrConfig = errors.New("copilot: invalid configuration")
	// ErrMissingAPIKey indicates an empty API key for a built-in provider.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrTransport matches every *modeladapter.TransportError.
	ErrTransport = modeladapter.ErrTransport
)

// Options selects the backend.
type Options struct {
	Provider catalog.Provider
	Model    catalog.Model

	// Custom, when set, replaces the provider selection entirely.
	Custom *custom.Model

	// Params are provider-native request fields merged into the payload.
	// Ignored for custom models.
	Params map[string]any

	// Endpoint overrides the provider's default endpoint.
	Endpoint string

	// Transport performs the outbound call; defaults to an HTTPTransport.
	Transport modeladapter.Transport
}

// Copilot holds a resolved backend selection.
type Copilot struct {
	apiKey    string
	provider  catalog.Provider
	model     catalog.Model
	custom    *custom.Model
	adapter   providers.Adapter
	params    map[string]any
	transport modeladapter.Transport
	usage     *usage.Tracker

	quotaHeaders modeladapter.RateLimitHeaders
	quota        atomic.Pointer[modeladapter.RateLimitInfo]
}

// New validates opts and returns a ready Copilot. It never touches the network.
func New(apiKey string, opts Options) (*Copilot, error) {
	c := &Copilot{
		apiKey:    apiKey,
		transport: opts.Transport,
		usage:     &usage.Tracker{},
	}
	if c.transport == nil {
		c.transport = modeladapter.NewHTTPTransport(nil)
	}

	if opts.Custom != nil {
		if err := opts.Custom.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}

		m := *opts.Custom
		c.custom = &m

		return c, nil
	}

	p, m, err := catalog.Resolve(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, p, ErrMissingAPIKey)
	}

	adapter, err := adapterFor(p, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	// Dry run so reserved params fail here rather than on the first call.
	if _, err := adapter.Build(apiKey, prompt.Prompt{}, m, opts.Params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	c.provider = p
	c.model = m
	c.adapter = adapter
	c.params = opts.Params
	c.quotaHeaders = rateLimitHeadersFor(p)

	return c, nil
}

// adapterFor is the dispatch table from provider to adapter.
func adapterFor(p catalog.Provider, endpoint string) (providers.Adapter, error) {
	switch p {
	case catalog.OpenAI:
		return openai.Adapter{Endpoint: endpoint}, nil
	case catalog.Groq:
		return groq.Adapter{Endpoint: endpoint}, nil
	case catalog.Anthropic:
		return anthropic.Adapter{Endpoint: endpoint}, nil
	}
	return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownProvider, p)
}

func rateLimitHeadersFor(p catalog.Provider) modeladapter.RateLimitHeaders {
	if p == catalog.Anthropic {
		return modeladapter.AnthropicRateLimitHeaders
	}
	return modeladapter.OpenAIRateLimitHeaders
}

// Complete requests one completion for p.
func (c *Copilot) Complete(ctx context.Context, p prompt.Prompt) (string, bool, error) {
	if c.custom != nil {
		return c.completeCustom(ctx, p)
	}

	req, err := c.adapter.Build(c.apiKey, p, c.model, c.params)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	resp, err := c.post(ctx, req)
	if err != nil {
		return "", false, err
	}

	if info, ok := c.quotaHeaders.Parse(resp.Header, time.Now()); ok {
		c.quota.Store(&info)
	}

	res, err := c.adapter.Extract(resp.Body)
	if err != nil {
		return "", false, &modeladapter.TransportError{Endpoint: req.Endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	c.usage.Add(c.model.String(), res.Usage)

	return res.Text, res.OK, nil
}

func (c *Copilot) completeCustom(ctx context.Context, p prompt.Prompt) (string, bool, error) {
	req, err := c.custom.Config(c.apiKey, p).Request()
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	resp, err := c.post(ctx, req)
	if err != nil {
		return "", false, err
	}

	text, ok := c.custom.Transform(resp.Body)

	return text, ok, nil
}

// post dispatches req and guarantees that failures surface as transport errors.
func (c *Copilot) post(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	resp, err := c.transport.Post(ctx, req)
	if err == nil {
		return resp, nil
	}

	if errors.Is(err, ErrTransport) {
		return modeladapter.Response{}, err
	}

	return modeladapter.Response{}, &modeladapter.TransportError{Endpoint: req.Endpoint, Err: err}
}

// Provider returns the selected provider, or "" for a custom model.
func (c *Copilot) Provider() catalog.Provider { return c.provider }

// Model returns the selected model, or "" for a custom model.
func (c *Copilot) Model() catalog.Model { return c.model }

// IsCustom reports whether c talks to a caller-defined model.
func (c *Copilot) IsCustom() bool { return c.custom != nil }

// Usage returns the token usage recorded by successful built-in calls.
func (c *Copilot) Usage() *usage.Tracker { return c.usage }

// RateLimit returns the most recent quota snapshot reported by the provider.
// The bool is false until a response carried one, and always for custom models.
func (c *Copilot) RateLimit() (modeladapter.RateLimitInfo, bool) {
	info := c.quota.Load()
	if info == nil {
		return modeladapter.RateLimitInfo{}, false
	}
	return *info, true
}

// String returns "provider/model", or "custom".
func (c *Copilot) String() string {
	if c.custom != nil {
		return "custom"
	}
	return c.provider.String() + "/" + c.model.String()
}
