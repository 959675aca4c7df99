package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers"
	"github.com/germanamz/copilot/pkg/providers/anthropic"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	return out
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
}

func TestBuildRequest(t *testing.T) {
	req, err := anthropic.BuildRequest(prompt.New("You are helpful.", "Hi"), catalog.Claude3Haiku, nil)
	require.NoError(t, err)

	body := toMap(t, req)
	assert.Equal(t, "claude-3-haiku-20240307", body["model"])
	assert.Equal(t, "You are helpful.", body["system"])
	assert.InDelta(t, 4096, body["max_tokens"], 0)
	assert.InDelta(t, 0.1, body["temperature"], 1e-9)
	assert.Equal(t, []any{map[string]any{"role": "user", "content": "Hi"}}, body["messages"])
	assert.NotContains(t, body, "Extra")
}

func TestBuildRequest_AllModels(t *testing.T) {
	for _, m := range catalog.Anthropic.Models() {
		t.Run(m.String(), func(t *testing.T) {
			req, err := anthropic.BuildRequest(prompt.New("s", "u"), m, nil)
			require.NoError(t, err)

			assert.Equal(t, m.NativeID(), req.Model)
			assert.Equal(t, m.MaxTokens(), req.MaxTokens)
			require.Len(t, req.Messages, 1)
		})
	}
}

func TestBuildRequest_SonnetBudget(t *testing.T) {
	req, err := anthropic.BuildRequest(prompt.New("s", "u"), catalog.Claude35Sonnet, nil)
	require.NoError(t, err)
	assert.Equal(t, 8192, req.MaxTokens)
}

func TestBuildRequest_ExtraParams(t *testing.T) {
	req, err := anthropic.BuildRequest(prompt.New("s", "u"), catalog.Claude3Opus, map[string]any{
		"max_tokens":     128,
		"stop_sequences": []string{"```"},
	})
	require.NoError(t, err)

	body := toMap(t, req)
	assert.InDelta(t, 128, body["max_tokens"], 0)
	assert.Equal(t, []any{"```"}, body["stop_sequences"])
}

func TestBuildRequest_ReservedParam(t *testing.T) {
	for _, key := range []string{"model", "messages", "system"} {
		_, err := anthropic.BuildRequest(prompt.New("s", "u"), catalog.Claude3Opus, map[string]any{key: "x"})
		assert.ErrorIs(t, err, providers.ErrReservedParam, key)
	}
}

func TestBuildRequest_EmptyUserPassedThrough(t *testing.T) {
	req, err := anthropic.BuildRequest(prompt.New("s", ""), catalog.Claude3Opus, nil)
	require.NoError(t, err)
	assert.Empty(t, req.Messages[0].Content)
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{
		"x-api-key":         "sk-ant",
		"anthropic-version": "2023-06-01",
	}, anthropic.Headers("sk-ant"))
}

func TestExtractText_FirstTextBlock(t *testing.T) {
	resp, err := anthropic.ParseResponse([]byte(`{
		"content": [
			{"type": "thinking", "thinking": "hmm"},
			{"type": "text", "text": "first"},
			{"type": "text", "text": "second"}
		],
		"stop_reason": "end_turn"
	}`))
	require.NoError(t, err)

	got, ok := anthropic.ExtractText(resp)
	assert.True(t, ok)
	assert.Equal(t, "first", got)
}

func TestExtractText_RoundTrip(t *testing.T) {
	for _, text := range []string{"4", "", "a\n\tb", `"q" \ s`, "ünïcödé ✓"} {
		data, err := json.Marshal(textResponse(text))
		require.NoError(t, err)

		resp, err := anthropic.ParseResponse(data)
		require.NoError(t, err)

		got, ok := anthropic.ExtractText(resp)
		assert.True(t, ok)
		assert.Equal(t, text, got)
	}
}

func TestExtractText_NoCompletion(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty content", `{"content":[],"stop_reason":"end_turn"}`},
		{"missing content", `{"stop_reason":"end_turn"}`},
		{"no text block", `{"content":[{"type":"tool_use","id":"t1","name":"x","input":{}}]}`},
		{"refusal", `{"content":[{"type":"text","text":"no"}],"stop_reason":"refusal"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := anthropic.ParseResponse([]byte(tt.body))
			require.NoError(t, err)

			_, ok := anthropic.ExtractText(resp)
			assert.False(t, ok)
		})
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	_, err := anthropic.ParseResponse([]byte(`{"content": {}}`))
	assert.ErrorContains(t, err, "anthropic: decode response")
}

func TestAdapter_ThroughTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		req := readBody(t, r)
		assert.Equal(t, "claude-3-haiku-20240307", req["model"])
		assert.Equal(t, "Answer with a number.", req["system"])

		writeJSON(t, w, textResponse("4"))
	}))
	defer srv.Close()

	a := anthropic.Adapter{Endpoint: srv.URL + "/v1/messages"}
	assert.Equal(t, catalog.Anthropic, a.Provider())

	req, err := a.Build("test-key", prompt.New("Answer with a number.", "2+2"), catalog.Claude3Haiku, nil)
	require.NoError(t, err)

	resp, err := modeladapter.NewHTTPTransport(srv.Client()).Post(context.Background(), req)
	require.NoError(t, err)

	res, err := a.Extract(resp.Body)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "4", res.Text)
	assert.Equal(t, 10, res.Usage.InputTokens)
	assert.Equal(t, 5, res.Usage.OutputTokens)
}

func TestAdapter_DefaultEndpoint(t *testing.T) {
	req, err := anthropic.Adapter{}.Build("k", prompt.New("s", "u"), catalog.Claude3Opus, nil)
	require.NoError(t, err)
	assert.Equal(t, anthropic.DefaultEndpoint, req.Endpoint)
}
