package domain

import (
	"errors"
	"time"
)

// Metadata is the provenance attached to every stored chunk. Source is
// the canonical path of the originating file and acts as the document
// identity key; everything else is display information.
type Metadata struct {
	Source     string
	Title      string
	Ordinal    int
	FileType   string
	IngestedAt time.Time
}

// Chunk is the smallest retrievable unit of text. Chunks are immutable
// once written: re-ingesting a file adds new chunks, it never rewrites
// or removes old ones.
type Chunk struct {
	Text string
	Meta Metadata
}

// SearchResult is a matching chunk with a relevance score. Higher
// similarity means more relevant; the score comes straight from the
// index's distance metric.
type SearchResult struct {
	Text       string
	Meta       Metadata
	Similarity float64
}

// DocumentInfo is a derived record: all chunks sharing a normalized
// source path collapse into exactly one DocumentInfo.
type DocumentInfo struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	FileType  string    `json:"file_type"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is a single turn in a chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SourceRef identifies a chunk that contributed to an answer.
type SourceRef struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}

// Answer is a generated response together with the chunks it was
// grounded on, in retrieval order.
type Answer struct {
	Text    string      `json:"answer"`
	Sources []SourceRef `json:"source_documents"`
}

// ErrLengthMismatch is returned when an insert is called with id,
// vector and chunk slices of differing lengths. It is the only failure
// the vector store propagates to callers as-is; nothing is written.
var ErrLengthMismatch = errors.New("ids, vectors and chunks length mismatch")
