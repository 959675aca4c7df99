package custom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/germanamz/copilot/pkg/prompt"
)

// ErrMissingTextPath indicates a Template without a text_path.
var ErrMissingTextPath = errors.New("custom template: text_path is required")

// Template is a declarative custom model. String values in Endpoint, Headers
// and Body may reference {{.System}}, {{.User}} and {{.APIKey}}.
type Template struct {
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers"`
	Body     map[string]any    `yaml:"body"`
	TextPath string            `yaml:"text_path"`
}

type templateData struct {
	System string
	User   string
	APIKey string
}

// Model compiles every placeholder and returns the equivalent Model.
func (t Template) Model() (Model, error) {
	if t.Endpoint == "" {
		return Model{}, ErrMissingEndpoint
	}
	if t.TextPath == "" {
		return Model{}, ErrMissingTextPath
	}

	endpoint, err := compile("endpoint", t.Endpoint)
	if err != nil {
		return Model{}, err
	}

	headers := make(map[string]*template.Template, len(t.Headers))
	for k, v := range t.Headers {
		if headers[k], err = compile("headers."+k, v); err != nil {
			return Model{}, err
		}
	}

	body, err := compileValue("body", t.Body)
	if err != nil {
		return Model{}, err
	}

	return Model{
		Config: func(apiKey string, p prompt.Prompt) Config {
			data := templateData{System: p.System, User: p.User, APIKey: apiKey}

			cfg := Config{Endpoint: render(endpoint, data)}

			if len(headers) > 0 {
				cfg.Headers = make(map[string]string, len(headers))
				for k, tmpl := range headers {
					cfg.Headers[k] = render(tmpl, data)
				}
			}

			if b, ok := expand(body, data).(map[string]any); ok {
				cfg.Body = b
			}

			return cfg
		},
		TransformResponse: TextAt(t.TextPath),
	}, nil
}

func compile(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("custom template: %s: %w", name, err)
	}

	// Unknown fields only surface at execution time.
	if err := tmpl.Execute(io.Discard, templateData{}); err != nil {
		return nil, fmt.Errorf("custom template: %s: %w", name, err)
	}

	return tmpl, nil
}

// compileValue mirrors v, replacing every string leaf with its compiled
// template.
func compileValue(path string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		return compile(path, val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			c, err := compileValue(path+"."+k, child)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			c, err := compileValue(fmt.Sprintf("%s.%d", path, i), child)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	default:
		return v, nil
	}
}

// expand renders a compiled tree into a fresh value for one call.
func expand(v any, data templateData) any {
	switch val := v.(type) {
	case *template.Template:
		return render(val, data)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = expand(child, data)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = expand(child, data)
		}
		return out
	default:
		return v
	}
}

func render(tmpl *template.Template, data templateData) string {
	var sb strings.Builder
	// compile already executed tmpl against the same data shape.
	_ = tmpl.Execute(&sb, data)
	return sb.String()
}
