// Package memory implements the vector store in process memory using
// brute-force cosine similarity. It honors the same contract as the
// Qdrant store, including the destructive dimension-mismatch recovery,
// which makes it a faithful backend for tests and small corpora.
package memory

import (
	"context"
	"log"
	"math"
	"sort"
	"strconv"
	"sync"

	"docchat/internal/domain"
)

type point struct {
	id     string
	vector []float64
	chunk  domain.Chunk
}

// Store is an in-memory vector store. The configured dimension plays
// the role of the collection-level vector size in Qdrant: the
// collection keeps the dimension it was created with until recovery
// recreates it.
type Store struct {
	mu         sync.RWMutex
	configured int
	created    bool
	dimension  int
	points     []point
}

// NewStore creates an in-memory store for vectors of the given dimension.
func NewStore(dimension int) *Store {
	return &Store{configured: dimension}
}

// EnsureCollection creates the collection with the configured dimension
// if it does not exist yet; otherwise it is a no-op and the existing
// dimension is kept.
func (s *Store) EnsureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return nil
	}
	s.created = true
	s.dimension = s.configured
	return nil
}

// Insert stores the chunks under the given ids. Slices of differing
// lengths fail with domain.ErrLengthMismatch and write nothing. Vectors
// of the wrong dimension trigger the destructive recovery: the
// collection is wiped and recreated with the configured dimension, and
// the call degrades to a no-op.
func (s *Store) Insert(ctx context.Context, ids []string, vectors [][]float64, chunks []domain.Chunk) error {
	if len(ids) != len(vectors) || len(vectors) != len(chunks) {
		return domain.ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			s.recoverLocked(len(v))
			return nil
		}
	}
	for i := range ids {
		s.points = append(s.points, point{id: ids[i], vector: vectors[i], chunk: chunks[i]})
	}
	return nil
}

// Search returns up to limit results ordered by descending cosine
// similarity. An empty collection yields an empty slice; a query vector
// of the wrong dimension triggers recovery and yields an empty slice.
func (s *Store) Search(ctx context.Context, vector []float64, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(vector) != s.dimension {
		s.recoverLocked(len(vector))
		return nil, nil
	}
	results := make([]domain.SearchResult, 0, len(s.points))
	for _, p := range s.points {
		results = append(results, domain.SearchResult{
			Text:       p.chunk.Text,
			Meta:       p.chunk.Meta,
			Similarity: cosine(p.vector, vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// Scroll pages through stored chunks in insertion order. The cursor is
// a decimal offset; an empty returned cursor ends the listing.
func (s *Store) Scroll(ctx context.Context, cursor string, limit int) ([]domain.Chunk, string, error) {
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", err
		}
		start = n
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if start >= len(s.points) {
		return nil, "", nil
	}
	end := start + limit
	if end > len(s.points) {
		end = len(s.points)
	}
	chunks := make([]domain.Chunk, 0, end-start)
	for _, p := range s.points[start:end] {
		chunks = append(chunks, p.chunk)
	}
	next := ""
	if end < len(s.points) {
		next = strconv.Itoa(end)
	}
	return chunks, next, nil
}

func (s *Store) recoverLocked(got int) {
	log.Printf("memory: vector dimension mismatch (collection %d, got %d), recreating collection with dimension %d (all indexed vectors will be lost)",
		s.dimension, got, s.configured)
	s.points = nil
	s.dimension = s.configured
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
