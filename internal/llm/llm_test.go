package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/config"
	"slider/internal/domain"
	"slider/internal/llm"
	slidererr "slider/pkg/errors"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *llm.OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("SLIDER_TEST_LLM_KEY", "test-key")
	p, err := llm.NewOpenAI(llm.OpenAIOptions{
		BaseURL:   srv.URL,
		APIKeyEnv: "SLIDER_TEST_LLM_KEY",
		Model:     "test-chat",
		Timeout:   5 * time.Second,
		MaxTokens: 128,
	})
	require.NoError(t, err)
	p.DisableBackoff()
	return p
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "test-chat",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
}

func TestEcho_ReturnsPrompt(t *testing.T) {
	out, err := llm.Echo{}.Complete(context.Background(), "sys", nil, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.True(t, llm.IsOffline(llm.Echo{}))
}

func TestNew_SelectsProvider(t *testing.T) {
	p, err := llm.New(config.LLMConfig{Type: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "echo", p.Name())

	_, err = llm.New(config.LLMConfig{Type: "openai"})
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeLLMRequestInvalid))

	_, err = llm.New(config.LLMConfig{Type: "bard"})
	require.Error(t, err)
}

func TestOpenAI_CompleteSendsHistory(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-chat", body.Model)
		require.Len(t, body.Messages, 4)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.Equal(t, "assistant", body.Messages[2].Role)
		assert.Equal(t, "make it shorter", body.Messages[3].Content)
		writeCompletion(w, "  done  ")
	})

	out, err := p.Complete(context.Background(), "be brief", []llm.Message{
		{Role: domain.RoleUser, Content: "slides on owls"},
		{Role: domain.RoleAssistant, Content: "here they are"},
	}, "make it shorter")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestOpenAI_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		writeCompletion(w, "ok")
	})

	out, err := p.Complete(context.Background(), "", nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAI_UpstreamFailure(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	})

	_, err := p.Complete(context.Background(), "", nil, "hi")
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeLLMUpstreamFailure))
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_EmptyPrompt(t *testing.T) {
	p := newTestProvider(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := p.Complete(context.Background(), "", nil, "   ")
	assert.True(t, slidererr.HasCode(err, slidererr.CodeLLMRequestInvalid))
}
