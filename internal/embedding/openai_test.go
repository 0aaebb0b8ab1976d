package embedding

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
)

func newTestClient(t *testing.T, handler http.HandlerFunc, batchSize int) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	t.Setenv("TEST_EMBED_KEY", "test-key")
	c, err := NewClient(Config{
		BaseURL:   ts.URL,
		APIKeyEnv: "TEST_EMBED_KEY",
		Model:     "test-model",
		Timeout:   5 * time.Second,
		BatchSize: batchSize,
	})
	require.NoError(t, err)
	c.maxRetries = 0
	return c
}

// embeddingFor derives a deterministic two-value vector from the text so
// tests can verify positional alignment.
func embeddingFor(text string) []float64 {
	return []float64{float64(len(text)), 1}
}

func embedHandler(requests *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		out := struct {
			Data []item `json:"data"`
		}{}
		for i, text := range req.Input {
			out.Data = append(out.Data, item{Index: i, Embedding: embeddingFor(text)})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	var requests atomic.Int64
	c := newTestClient(t, embedHandler(&requests), 10)

	texts := []string{"a", "bb", "ccc"}
	vectors, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, text := range texts {
		assert.Equal(t, embeddingFor(text), vectors[i])
	}
	assert.EqualValues(t, 1, requests.Load())
}

func TestEmbedBatchSplitsLargeInputs(t *testing.T) {
	var requests atomic.Int64
	c := newTestClient(t, embedHandler(&requests), 2)

	texts := []string{"one", "two", "three", "four", "five"}
	vectors, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	for i, text := range texts {
		assert.Equal(t, embeddingFor(text), vectors[i])
	}
	// 5 texts with batch size 2 means 3 requests, never reordered.
	assert.EqualValues(t, 3, requests.Load())
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	var requests atomic.Int64
	c := newTestClient(t, embedHandler(&requests), 2)
	vectors, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, requests.Load())
}

func TestEmbedBatchServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}, 10)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}, 10)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Empty(t, vectors)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	require.Error(t, err)
}
