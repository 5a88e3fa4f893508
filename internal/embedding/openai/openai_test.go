package openai_test

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

	"slider/internal/embedding/openai"
	slidererr "slider/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("SLIDER_TEST_EMBED_KEY", "test-key")
	c, err := openai.NewClient(openai.Config{
		BaseURL:   srv.URL,
		APIKeyEnv: "SLIDER_TEST_EMBED_KEY",
		Model:     "test-embed",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	c.DisableBackoff()
	return c
}

func writeEmbeddings(w http.ResponseWriter, vectors ...[]float32) {
	data := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		data[i] = map[string]any{"object": "embedding", "index": i, "embedding": v}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "test-embed"})
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := openai.NewClient(openai.Config{APIKeyEnv: "SLIDER_TEST_UNSET_KEY"})
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeEmbeddingRequestInvalid))
}

func TestClient_EmbedBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		writeEmbeddings(w, []float32{1, 0}, []float32{0, 1})
	})

	out, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, out)
	assert.Equal(t, 2, c.Dimension())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		writeEmbeddings(w, []float32{0.5, 0.5, 0})
	})

	v, err := c.Embed(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Len(t, v, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_BadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input"}}`))
	})

	_, err := c.Embed(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeEmbeddingUpstreamFailure))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryDelay_Capped(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, openai.RetryDelay(0))
	assert.Equal(t, 800*time.Millisecond, openai.RetryDelay(2))
	assert.Equal(t, 5*time.Second, openai.RetryDelay(10))
}
