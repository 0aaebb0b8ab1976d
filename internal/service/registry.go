package service

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"docchat/internal/domain"
)

// scrollBatchSize bounds how many chunks a single scroll request pulls
// while deriving the document listing.
const scrollBatchSize = 128

// ListDocuments derives the deduplicated list of logical documents from
// the stored chunk payloads: all chunks sharing a normalized source path
// collapse into one record. The index is paged through in bounded
// batches, and the result is sorted by title, case-insensitively. An
// empty or missing collection yields an empty list.
func (s *Service) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	bySource := make(map[string]*domain.DocumentInfo)
	cursor := ""
	for {
		chunks, next, err := s.store.Scroll(ctx, cursor, scrollBatchSize)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			source := normalizeSource(c.Meta.Source)
			doc, ok := bySource[source]
			if !ok {
				doc = &domain.DocumentInfo{
					Source:    source,
					FileType:  c.Meta.FileType,
					Timestamp: c.Meta.IngestedAt,
				}
				bySource[source] = doc
			}
			// Keep the first non-empty title seen among the group.
			if doc.Title == "" {
				doc.Title = c.Meta.Title
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}

	docs := make([]domain.DocumentInfo, 0, len(bySource))
	for _, doc := range bySource {
		if doc.Title == "" {
			doc.Title = filepath.Base(doc.Source)
		}
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return strings.ToLower(docs[i].Title) < strings.ToLower(docs[j].Title)
	})
	return docs, nil
}

// normalizeSource canonicalizes a source path so chunks ingested with
// differing separators or redundant path elements group together.
func normalizeSource(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
