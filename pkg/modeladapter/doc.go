// Package modeladapter is the transport seam between the completion core and
// provider endpoints.
//
// It contains:
//   - [Transport] interface with the [Request]/[Response] envelope the core posts
//   - [HTTPTransport], the default implementation over net/http, with
//     WebSocket support for ws:// and wss:// endpoints
//   - [TransportError], the single error kind for network failures, non-2xx
//     statuses and unparseable bodies
//   - [github.com/germanamz/copilot/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code. Request and response
// shapes live in the provider packages.
package modeladapter
