package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
	"docchat/internal/vectorstore/memory"
)

type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

type fakeGenerator struct {
	reply      string
	lastSystem string
	lastUser   string
	calls      int
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) string {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.reply
}

func newIndexedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore(3)
	require.NoError(t, store.EnsureCollection(context.Background()))
	chunks := []domain.Chunk{
		{Text: "Paris is the capital of France.", Meta: domain.Metadata{Source: "/docs/sample.txt", Title: "sample.txt", Ordinal: 0, FileType: ".txt"}},
		{Text: "Berlin is the capital of Germany.", Meta: domain.Metadata{Source: "/docs/sample.txt", Title: "sample.txt", Ordinal: 1, FileType: ".txt"}},
	}
	vectors := [][]float64{{1, 0, 0}, {0, 1, 0}}
	require.NoError(t, store.Insert(context.Background(), []string{"a", "b"}, vectors, chunks))
	return store
}

func TestAnswerEmptyIndex(t *testing.T) {
	store := memory.NewStore(3)
	require.NoError(t, store.EnsureCollection(context.Background()))
	gen := &fakeGenerator{reply: "should not be called"}
	svc := New(&fakeEmbedder{vectors: map[string][]float64{"anything": {1, 0, 0}}}, store, gen)

	answer, err := svc.Answer(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Equal(t, "No relevant documents found in the database. Try adding documents first.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.NotNil(t, answer.Sources)
	assert.Zero(t, gen.calls)
}

func TestAnswerEmbeddingFailureDegrades(t *testing.T) {
	store := newIndexedStore(t)
	gen := &fakeGenerator{reply: "should not be called"}
	svc := New(&fakeEmbedder{err: fmt.Errorf("provider down")}, store, gen)

	answer, err := svc.Answer(context.Background(), "what is the capital of France?", 5)
	require.NoError(t, err)
	assert.Equal(t, "No relevant documents found in the database. Try adding documents first.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, gen.calls)
}

func TestAnswerRetrievesAndGrounds(t *testing.T) {
	store := newIndexedStore(t)
	gen := &fakeGenerator{reply: "Paris is the capital of France, per sample.txt."}
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"What is the capital of France?": {0.9, 0.1, 0},
	}}
	svc := New(emb, store, gen)

	answer, err := svc.Answer(context.Background(), "What is the capital of France?", 1)
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "Paris")
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Paris is the capital of France.", answer.Sources[0].Text)
	assert.Equal(t, "/docs/sample.txt", answer.Sources[0].Source)
	assert.Greater(t, answer.Sources[0].Similarity, 0.0)

	// The grounding prompt carries the question and a labeled context block.
	assert.Contains(t, gen.lastUser, "Question: What is the capital of France?")
	assert.Contains(t, gen.lastUser, "Document 1 [Source: /docs/sample.txt]:")
	assert.Contains(t, gen.lastUser, "Paris is the capital of France.")
	assert.NotContains(t, gen.lastUser, "Berlin")
	assert.Contains(t, gen.lastSystem, "Answer only based on the context provided")
}

func TestAnswerSourcesPreserveRetrievalOrder(t *testing.T) {
	store := newIndexedStore(t)
	gen := &fakeGenerator{reply: "answer"}
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"capitals": {0.6, 0.4, 0},
	}}
	svc := New(emb, store, gen)

	answer, err := svc.Answer(context.Background(), "capitals", 2)
	require.NoError(t, err)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "Paris is the capital of France.", answer.Sources[0].Text)
	assert.Equal(t, "Berlin is the capital of Germany.", answer.Sources[1].Text)
	assert.GreaterOrEqual(t, answer.Sources[0].Similarity, answer.Sources[1].Similarity)
}

func TestChatUsesMostRecentUserMessage(t *testing.T) {
	store := newIndexedStore(t)
	gen := &fakeGenerator{reply: "Berlin."}
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"And Germany?": {0, 1, 0},
	}}
	svc := New(emb, store, gen)

	answer, err := svc.Chat(context.Background(), []domain.Message{
		{Role: "user", Content: "What is the capital of France?"},
		{Role: "assistant", Content: "Paris."},
		{Role: "user", Content: "And Germany?"},
	}, 1)
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Berlin is the capital of Germany.", answer.Sources[0].Text)
	assert.Contains(t, gen.lastUser, "Question: And Germany?")
}

func TestChatWithoutUserMessage(t *testing.T) {
	store := newIndexedStore(t)
	gen := &fakeGenerator{reply: "should not be called"}
	svc := New(&fakeEmbedder{}, store, gen)

	answer, err := svc.Chat(context.Background(), []domain.Message{
		{Role: "assistant", Content: "Hello! How can I help?"},
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, "No user message found in the request.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.NotNil(t, answer.Sources)
	assert.Zero(t, gen.calls)
}

func TestChatEmptyHistory(t *testing.T) {
	svc := New(&fakeEmbedder{}, memory.NewStore(3), &fakeGenerator{})
	answer, err := svc.Chat(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Equal(t, "No user message found in the request.", answer.Text)
	assert.Empty(t, answer.Sources)
}
