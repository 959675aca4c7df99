package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/modeladapter/usage"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"github.com/tidwall/sjson"
)

// ErrReservedParam indicates an extra parameter that would replace the prompt
// or the model in the native request.
var ErrReservedParam = errors.New("reserved request parameter")

// Result is the completion extracted from a native response.
type Result struct {
	Text  string
	OK    bool // False when the backend answered without usable text.
	Usage usage.TokenCount
}

// Adapter builds a provider's native request and extracts the completion from
// its native response.
type Adapter interface {
	// Provider returns the provider this adapter speaks to.
	Provider() catalog.Provider

	// Build returns the outbound call for one prompt. params are
	// provider-native extras merged into the payload.
	Build(apiKey string, p prompt.Prompt, m catalog.Model, params map[string]any) (modeladapter.Request, error)

	// Extract parses a response body. An error means the body does not have
	// the provider's response shape at all.
	Extract(body json.RawMessage) (Result, error)
}

// CheckParams returns ErrReservedParam if params sets any reserved key.
func CheckParams(params map[string]any, reserved ...string) error {
	for _, k := range reserved {
		if _, ok := params[k]; ok {
			return fmt.Errorf("%w: %q", ErrReservedParam, k)
		}
	}
	return nil
}

// MergeParams overlays params onto the top level of a JSON object. Keys are
// applied in sorted order so the output is deterministic.
func MergeParams(payload []byte, params map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var err error
	for _, k := range keys {
		payload, err = sjson.SetBytes(payload, escapePath(k), params[k])
		if err != nil {
			return nil, fmt.Errorf("merge param %q: %w", k, err)
		}
	}

	return payload, nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
)

// escapePath makes k a literal single-segment sjson path.
func escapePath(k string) string {
	return pathEscaper.Replace(k)
}
