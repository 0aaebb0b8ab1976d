// Package qdrant implements the vector store against a Qdrant server
// over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"docchat/internal/domain"
)

// Store is a minimal REST client to Qdrant. It uses cosine distance and
// creates the collection on demand.
//
// Recovery is destructive: a vector-dimension mismatch on insert or
// search deletes the collection and recreates it with the configured
// dimension, losing all previously indexed vectors. A mismatch means
// the embedding configuration drifted since the collection was created;
// a clean slate is safer than silent corruption.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Config configures the Qdrant store. Dimension must match the
// process-wide embedding dimension.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// NewStore creates a Qdrant-backed store from the given configuration.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", cfg.Dimension)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// EnsureCollection checks for the collection by name and creates it if
// missing. Calling it when the collection exists is a no-op.
func (s *Store) EnsureCollection(ctx context.Context) error {
	err := s.do(ctx, http.MethodGet, s.collectionURL(), nil, nil)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}
	return s.createCollection(ctx)
}

func (s *Store) createCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(), body, nil)
}

// Insert stores one point per chunk. The three slices must have equal
// length or domain.ErrLengthMismatch is returned with nothing written.
// The chunk text is merged into the payload alongside its metadata.
func (s *Store) Insert(ctx context.Context, ids []string, vectors [][]float64, chunks []domain.Chunk) error {
	if len(ids) != len(vectors) || len(vectors) != len(chunks) {
		return domain.ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		points[i] = map[string]any{
			"id":      ids[i],
			"vector":  vectors[i],
			"payload": encodePayload(chunks[i]),
		}
	}
	body := map[string]any{"points": points}
	err := s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
	if err == nil {
		return nil
	}
	if isDimensionMismatch(err) {
		s.recover(ctx, err)
		return nil
	}
	return err
}

// Search returns up to limit results ordered by descending cosine
// similarity. Backend failures degrade to an empty result; a dimension
// mismatch additionally triggers the destructive recovery.
func (s *Store) Search(ctx context.Context, vector []float64, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp); err != nil {
		if isDimensionMismatch(err) {
			s.recover(ctx, err)
		} else {
			log.Printf("qdrant: search failed, returning no results: %v", err)
		}
		return nil, nil
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		text, meta := decodePayload(r.Payload)
		results = append(results, domain.SearchResult{Text: text, Meta: meta, Similarity: r.Score})
	}
	return results, nil
}

// Scroll pages through stored points. The cursor is the opaque
// next-page offset returned by the previous call; empty starts from the
// beginning, and an empty returned cursor ends the listing. A missing
// collection yields an empty batch.
func (s *Store) Scroll(ctx context.Context, cursor string, limit int) ([]domain.Chunk, string, error) {
	if limit <= 0 {
		limit = 100
	}
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if cursor != "" {
		req["offset"] = json.RawMessage(cursor)
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/scroll", req, &resp); err != nil {
		if isNotFound(err) {
			return nil, "", nil
		}
		return nil, "", err
	}
	chunks := make([]domain.Chunk, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		text, meta := decodePayload(p.Payload)
		chunks = append(chunks, domain.Chunk{Text: text, Meta: meta})
	}
	next := string(resp.Result.NextPageOffset)
	if next == "null" {
		next = ""
	}
	return chunks, next, nil
}

// recover implements the self-heal protocol: drop the collection and
// recreate it with the configured dimension. All indexed vectors are
// lost by design.
func (s *Store) recover(ctx context.Context, cause error) {
	log.Printf("qdrant: vector dimension mismatch on collection %q, recreating with dimension %d (all indexed vectors will be lost): %v",
		s.collection, s.dimension, cause)
	if err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil, nil); err != nil && !isNotFound(err) {
		log.Printf("qdrant: failed to delete collection %q: %v", s.collection, err)
	}
	if err := s.createCollection(ctx); err != nil {
		log.Printf("qdrant: failed to recreate collection %q: %v", s.collection, err)
	}
}

func (s *Store) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

func encodePayload(c domain.Chunk) map[string]any {
	return map[string]any{
		"text":        c.Text,
		"source":      c.Meta.Source,
		"title":       c.Meta.Title,
		"ordinal":     c.Meta.Ordinal,
		"file_type":   c.Meta.FileType,
		"ingested_at": c.Meta.IngestedAt.Format(time.RFC3339Nano),
	}
}

func decodePayload(payload map[string]any) (string, domain.Metadata) {
	var text string
	var meta domain.Metadata
	if v, ok := payload["text"].(string); ok {
		text = v
	}
	if v, ok := payload["source"].(string); ok {
		meta.Source = v
	}
	if v, ok := payload["title"].(string); ok {
		meta.Title = v
	}
	if v, ok := payload["ordinal"].(float64); ok {
		meta.Ordinal = int(v)
	}
	if v, ok := payload["file_type"].(string); ok {
		meta.FileType = v
	}
	if v, ok := payload["ingested_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			meta.IngestedAt = t
		}
	}
	return text, meta
}

// apiError carries the HTTP status and the error message Qdrant returns
// in its response body.
type apiError struct {
	code    int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("qdrant: %d %s", e.code, e.message)
}

func isNotFound(err error) bool {
	ae, ok := err.(*apiError)
	return ok && ae.code == http.StatusNotFound
}

func isDimensionMismatch(err error) bool {
	ae, ok := err.(*apiError)
	return ok && strings.Contains(strings.ToLower(ae.message), "dimension")
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		var errBody struct {
			Status struct {
				Error string `json:"error"`
			} `json:"status"`
		}
		msg := strings.TrimSpace(string(payload))
		if json.Unmarshal(payload, &errBody) == nil && errBody.Status.Error != "" {
			msg = errBody.Status.Error
		}
		return &apiError{code: resp.StatusCode, message: msg}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
