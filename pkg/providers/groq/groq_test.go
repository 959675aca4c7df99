package groq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/germanamz/copilot/pkg/providers"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"github.com/germanamz/copilot/pkg/providers/groq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func marshal(t *testing.T, v any) gjson.Result {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return gjson.ParseBytes(data)
}

func response(content any) []byte {
	data, _ := json.Marshal(map[string]any{
		"id":    "chatcmpl-groq",
		"model": "llama3-70b-8192",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		"x_groq":  map[string]any{"id": "req_1"},
		"unknown": []int{1, 2},
	})
	return data
}

func TestBuildRequest(t *testing.T) {
	req, err := groq.BuildRequest(prompt.New("You are terse.", "2+2="), catalog.Llama3_70b, nil)
	require.NoError(t, err)

	body := marshal(t, req)
	assert.Equal(t, "llama3-70b-8192", body.Get("model").String())
	assert.InDelta(t, 0.1, body.Get("temperature").Float(), 1e-9)
	assert.Equal(t, "system", body.Get("messages.0.role").String())
	assert.Equal(t, "You are terse.", body.Get("messages.0.content").String())
	assert.Equal(t, "user", body.Get("messages.1.role").String())
	assert.Equal(t, "2+2=", body.Get("messages.1.content").String())
	assert.False(t, body.Get("Extra").Exists())
}

func TestBuildRequest_ExtraParams(t *testing.T) {
	req, err := groq.BuildRequest(prompt.New("s", "u"), catalog.Llama3_70b, map[string]any{"temperature": 0, "max_tokens": 32})
	require.NoError(t, err)

	body := marshal(t, req)
	assert.Equal(t, float64(0), body.Get("temperature").Float())
	assert.Equal(t, int64(32), body.Get("max_tokens").Int())
}

func TestBuildRequest_ReservedParam(t *testing.T) {
	_, err := groq.BuildRequest(prompt.New("s", "u"), catalog.Llama3_70b, map[string]any{"model": "other"})
	assert.ErrorIs(t, err, providers.ErrReservedParam)
}

func TestBuildRequest_EmptyUserPassedThrough(t *testing.T) {
	req, err := groq.BuildRequest(prompt.New("s", ""), catalog.Llama3_70b, nil)
	require.NoError(t, err)

	body := marshal(t, req)
	assert.True(t, body.Get("messages.1.content").Exists())
	assert.Empty(t, body.Get("messages.1.content").String())
}

func TestExtractText_RoundTrip(t *testing.T) {
	for _, text := range []string{"4", "", "a\nb\nc", `"quoted" \n literal`, "日本語 ✓"} {
		resp, err := groq.ParseResponse(response(text))
		require.NoError(t, err)

		got, ok := groq.ExtractText(resp)
		assert.True(t, ok)
		assert.Equal(t, text, got)
	}
}

func TestExtractText_NoChoices(t *testing.T) {
	_, ok := groq.ExtractText(groq.Response{})
	assert.False(t, ok)
}

func TestExtractText_NullContent(t *testing.T) {
	resp, err := groq.ParseResponse(response(nil))
	require.NoError(t, err)

	_, ok := groq.ExtractText(resp)
	assert.False(t, ok)
}

func TestExtractText_Refusal(t *testing.T) {
	resp, err := groq.ParseResponse([]byte(`{"choices":[{"message":{"role":"assistant","content":"","refusal":"no"}}]}`))
	require.NoError(t, err)

	_, ok := groq.ExtractText(resp)
	assert.False(t, ok)
}

func TestParseResponse_Malformed(t *testing.T) {
	_, err := groq.ParseResponse([]byte(`{"choices": "many"}`))
	assert.ErrorContains(t, err, "groq: decode response")
}

func TestAdapter_ThroughTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(response("done"))
	}))
	defer srv.Close()

	a := groq.Adapter{Endpoint: srv.URL + "/openai/v1/chat/completions"}
	assert.Equal(t, catalog.Groq, a.Provider())

	req, err := a.Build("gsk-test", prompt.New("s", "u"), catalog.Llama3_70b, nil)
	require.NoError(t, err)

	resp, err := modeladapter.NewHTTPTransport(srv.Client()).Post(context.Background(), req)
	require.NoError(t, err)

	res, err := a.Extract(resp.Body)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "done", res.Text)
	assert.Equal(t, 12, res.Usage.InputTokens)
	assert.Equal(t, 3, res.Usage.OutputTokens)
}

func TestAdapter_DefaultEndpoint(t *testing.T) {
	req, err := groq.Adapter{}.Build("k", prompt.New("s", "u"), catalog.Llama3_70b, nil)
	require.NoError(t, err)
	assert.Equal(t, groq.DefaultEndpoint, req.Endpoint)
}
