// Package providers defines the contract shared by the built-in provider
// adapters.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/copilot/pkg/providers/catalog]: the closed set of providers and their models
//   - [github.com/germanamz/copilot/pkg/providers/openai]: OpenAI Chat Completions, built on the openai-go types
//   - [github.com/germanamz/copilot/pkg/providers/groq]: Groq's OpenAI-compatible chat endpoint
//   - [github.com/germanamz/copilot/pkg/providers/anthropic]: Anthropic Messages API
//
// Each adapter turns a prompt into the provider's native request and a native
// response back into a single completion string. Adapters are pure: they never
// perform I/O.
package providers
