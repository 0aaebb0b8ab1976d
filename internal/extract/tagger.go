package extract

import (
	"path/filepath"
	"strings"
	"time"

	"docchat/internal/domain"
)

// Tag attaches identity and provenance metadata to an ordered chunk
// sequence. Source is the full path and acts as the document identity
// key; the ordinal is the 0-based position within the sequence. Tag is
// pure: the ingestion timestamp is supplied by the caller.
func Tag(texts []string, path string, ingestedAt time.Time) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			Text: text,
			Meta: domain.Metadata{
				Source:     path,
				Title:      filepath.Base(path),
				Ordinal:    i,
				FileType:   strings.ToLower(filepath.Ext(path)),
				IngestedAt: ingestedAt,
			},
		})
	}
	return chunks
}
