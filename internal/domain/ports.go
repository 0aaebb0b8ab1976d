package domain

import "context"

// Embedder converts batches of text into fixed-dimension vectors. The
// output is positionally aligned with the input; on failure it returns
// an empty slice and the error, never a partial batch.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Generator produces a completion from a system instruction and a user
// prompt. Provider failures come back as a human-readable "Error: ..."
// string instead of an error value, so callers stay resilient.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) string
}

// VectorStore persists (vector, payload) pairs and supports cosine
// similarity search.
//
// The store self-heals from vector-dimension mismatches by deleting and
// recreating the backing collection with the configured dimension. This
// is destructive: every previously indexed vector is lost. A dimension
// mismatch means the embedding configuration drifted since the
// collection was created, and a clean slate is safer than silent
// corruption.
type VectorStore interface {
	// EnsureCollection creates the backing collection if it does not
	// already exist. Calling it again is a no-op.
	EnsureCollection(ctx context.Context) error

	// Insert stores the given chunks under the given ids. All three
	// slices must have equal length or ErrLengthMismatch is returned
	// and nothing is written.
	Insert(ctx context.Context, ids []string, vectors [][]float64, chunks []Chunk) error

	// Search returns up to limit results ordered by descending
	// similarity. An empty or missing collection yields an empty slice,
	// not an error; so does any unexpected backend failure.
	Search(ctx context.Context, vector []float64, limit int) ([]SearchResult, error)

	// Scroll pages through stored chunks in bounded batches. It returns
	// the batch, plus a cursor for the next call; an empty cursor means
	// the listing is exhausted.
	Scroll(ctx context.Context, cursor string, limit int) ([]Chunk, string, error)
}
