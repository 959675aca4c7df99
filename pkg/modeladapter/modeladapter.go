package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout bounds a single call made with the cached default client.
	DefaultTimeout = 2 * time.Minute

	maxResponseBytes = 8 << 20
	maxErrorBody     = 64 << 10
)

// ErrMalformedBody indicates a response body that is not valid JSON.
var ErrMalformedBody = errors.New("malformed response body")

// Request is an outbound completion call.
type Request struct {
	Endpoint string            // Absolute URL; http(s) or ws(s).
	Headers  map[string]string // Merged over the transport defaults.
	Body     json.RawMessage   // JSON payload; empty is sent as {}.
}

// NewRequest marshals payload and returns a Request for endpoint.
func NewRequest(endpoint string, headers map[string]string, payload any) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("marshal payload: %w", err)
	}

	return Request{Endpoint: endpoint, Headers: headers, Body: body}, nil
}

// Response is the raw result of a successful call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage // Always valid JSON.
}

// Transport performs one outbound call. Implementations must return a
// *TransportError for network failures, non-2xx statuses and bodies that are
// not valid JSON, and must not retry.
type Transport interface {
	Post(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

// Post calls the underlying function.
func (f TransportFunc) Post(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// Apply writes the auth header into headers. It is a no-op for an empty key.
func (a Auth) Apply(headers map[string]string) {
	if a.Key == "" {
		return
	}

	header := a.Header
	if header == "" {
		header = "Authorization"
	}

	value := a.Key
	if header == "Authorization" {
		scheme := a.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}

		value = scheme + " " + value
	} else if a.Scheme != "" {
		value = a.Scheme + " " + value
	}

	headers[header] = value
}

var _ Transport = (*HTTPTransport)(nil)

// HTTPTransport posts JSON payloads over HTTP, or exchanges a single message
// over a WebSocket for ws:// and wss:// endpoints.
type HTTPTransport struct {
	Client  *http.Client      // HTTP client; falls back to a cached client with DefaultTimeout.
	Headers map[string]string // Extra headers applied to every request, below per-request headers.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// NewHTTPTransport creates an HTTPTransport. A nil client falls back to a
// cached default client at call time.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	return &HTTPTransport{Client: client}
}

// httpClient returns the configured client or a cached default client.
func (t *HTTPTransport) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}

	t.clientOnce.Do(func() {
		t.defaultClient = &http.Client{Timeout: DefaultTimeout}
	})

	return t.defaultClient
}

// Post sends req and returns the JSON response body.
func (t *HTTPTransport) Post(ctx context.Context, req Request) (Response, error) {
	if isWebSocket(req.Endpoint) {
		return t.exchangeWS(ctx, req)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(payload(req.Body)))
	if err != nil {
		return Response{}, &TransportError{Endpoint: req.Endpoint, Err: fmt.Errorf("build request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	for k, v := range t.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.httpClient().Do(httpReq) //nolint:gosec // endpoint comes from provider tables or caller configuration.
	if err != nil {
		return Response{}, &TransportError{Endpoint: req.Endpoint, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		tErr := &TransportError{
			Endpoint:   req.Endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			tErr.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
		}

		return Response{}, tErr
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &TransportError{Endpoint: req.Endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if !gjson.ValidBytes(respBody) {
		return Response{}, &TransportError{Endpoint: req.Endpoint, StatusCode: resp.StatusCode, Err: ErrMalformedBody}
	}

	return Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// exchangeWS dials the endpoint, writes the payload as one text message and
// reads a single reply.
func (t *HTTPTransport) exchangeWS(ctx context.Context, req Request) (Response, error) {
	client := t.httpClient()
	if client.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.Timeout)
		defer cancel()

		c := *client
		c.Timeout = 0
		client = &c
	}

	header := make(http.Header)
	for k, v := range t.Headers {
		header.Set(k, v)
	}
	for k, v := range req.Headers {
		header.Set(k, v)
	}

	conn, resp, err := websocket.Dial(ctx, req.Endpoint, &websocket.DialOptions{
		HTTPClient: client,
		HTTPHeader: header,
	})
	if err != nil {
		tErr := &TransportError{Endpoint: req.Endpoint, Err: fmt.Errorf("dial websocket: %w", err)}
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			tErr.StatusCode = resp.StatusCode
		}
		return Response{}, tErr
	}
	defer func() { _ = conn.CloseNow() }()

	conn.SetReadLimit(maxResponseBytes)

	if err := conn.Write(ctx, websocket.MessageText, payload(req.Body)); err != nil {
		return Response{}, &TransportError{Endpoint: req.Endpoint, Err: fmt.Errorf("write message: %w", err)}
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		return Response{}, &TransportError{Endpoint: req.Endpoint, Err: fmt.Errorf("read message: %w", err)}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")

	if !gjson.ValidBytes(data) {
		return Response{}, &TransportError{Endpoint: req.Endpoint, Err: ErrMalformedBody}
	}

	return Response{
		StatusCode: http.StatusSwitchingProtocols,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func isWebSocket(endpoint string) bool {
	return strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://")
}

func payload(body json.RawMessage) []byte {
	if len(body) == 0 {
		return []byte("{}")
	}
	return body
}
