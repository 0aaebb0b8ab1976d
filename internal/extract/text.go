package extract

import (
	"os"
	"strings"
)

// textChunks splits a plain text file into paragraphs delimited by blank
// lines. Whitespace is trimmed and empty paragraphs are discarded.
func textChunks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	var chunks []string
	for _, paragraph := range strings.Split(content, "\n\n") {
		if trimmed := strings.TrimSpace(paragraph); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks, nil
}
