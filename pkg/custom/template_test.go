package custom_test

import (
	"encoding/json"
	"testing"

	"github.com/germanamz/copilot/pkg/custom"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const templateYAML = `
endpoint: https://example.test/v1?key={{.APIKey}}
headers:
  Authorization: Bearer {{.APIKey}}
body:
  model: local-coder
  max_tokens: 64
  prompt: "{{.System}}\n{{.User}}"
  messages:
    - role: user
      content: "{{.User}}"
text_path: choices.0.text
`

func TestTemplate_FromYAML(t *testing.T) {
	var tmpl custom.Template
	require.NoError(t, yaml.Unmarshal([]byte(templateYAML), &tmpl))

	m, err := tmpl.Model()
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.Config("secret", prompt.New("sys", `say "hi"`))

	assert.Equal(t, "https://example.test/v1?key=secret", cfg.Endpoint)
	assert.Equal(t, map[string]string{"Authorization": "Bearer secret"}, cfg.Headers)

	req, err := cfg.Request()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "local-coder",
		"max_tokens": 64,
		"prompt": "sys\nsay \"hi\"",
		"messages": [{"role": "user", "content": "say \"hi\""}]
	}`, string(req.Body))

	text, ok := m.Transform(json.RawMessage(`{"choices":[{"text":"done"}]}`))
	assert.True(t, ok)
	assert.Equal(t, "done", text)
}

func TestTemplate_CallsDoNotShareBody(t *testing.T) {
	m, err := custom.Template{
		Endpoint: "https://example.test",
		Body:     map[string]any{"prompt": "{{.User}}"},
		TextPath: "text",
	}.Model()
	require.NoError(t, err)

	a := m.Config("", prompt.New("", "first"))
	b := m.Config("", prompt.New("", "second"))

	assert.Equal(t, "first", a.Body["prompt"])
	assert.Equal(t, "second", b.Body["prompt"])
}

func TestTemplate_Errors(t *testing.T) {
	tests := []struct {
		name string
		tmpl custom.Template
		want string
	}{
		{"missing endpoint", custom.Template{TextPath: "t"}, "endpoint is required"},
		{"missing text path", custom.Template{Endpoint: "https://x"}, "text_path is required"},
		{"bad syntax", custom.Template{Endpoint: "https://x/{{.User", TextPath: "t"}, "endpoint"},
		{"unknown field", custom.Template{Endpoint: "https://x", Body: map[string]any{"p": "{{.Nope}}"}, TextPath: "t"}, "body.p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tmpl.Model()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
