// Package extract turns raw files into ordered sequences of text chunks
// and tags them with provenance metadata. Extraction failures are local:
// an unreadable or unsupported file degrades to an empty sequence so the
// ingestion of other files is never affected.
package extract

import (
	"log"
	"path/filepath"
	"strings"
)

// Supported reports whether the file extension is one the extractor
// understands. Everything else is ignored by the ingestion pipeline.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

// Chunks extracts the ordered, non-empty text chunks of the file at
// path. Plain text files are split into blank-line-delimited paragraphs;
// PDFs yield one chunk per page with non-empty text. Unsupported types
// and read/parse failures are logged and yield an empty sequence.
func Chunks(path string) []string {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		chunks []string
		err    error
	)
	switch ext {
	case ".txt":
		chunks, err = textChunks(path)
	case ".pdf":
		chunks, err = pdfChunks(path)
	default:
		log.Printf("extract: unsupported file type %q: %s", ext, path)
		return nil
	}
	if err != nil {
		log.Printf("extract: failed to process %s: %v", path, err)
		return nil
	}
	return chunks
}
