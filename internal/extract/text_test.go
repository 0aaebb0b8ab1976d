package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestChunksSplitsParagraphs(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "two paragraphs",
			content: "Paris is the capital of France.\n\nBerlin is the capital of Germany.",
			want:    []string{"Paris is the capital of France.", "Berlin is the capital of Germany."},
		},
		{
			name:    "trims whitespace and drops empties",
			content: "  first  \n\n\n\n\n  second  \n\n   \n\n",
			want:    []string{"first", "second"},
		},
		{
			name:    "windows line endings",
			content: "one\r\n\r\ntwo",
			want:    []string{"one", "two"},
		},
		{
			name:    "single paragraph",
			content: "only one paragraph here",
			want:    []string{"only one paragraph here"},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "doc.txt", tt.content)
			assert.Equal(t, tt.want, Chunks(path))
		})
	}
}

func TestChunksUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", "not text")
	assert.Empty(t, Chunks(path))
}

func TestChunksMissingFile(t *testing.T) {
	assert.Empty(t, Chunks(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestChunksCorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", "this is not a pdf")
	assert.Empty(t, Chunks(path))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("notes.txt"))
	assert.True(t, Supported("report.PDF"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("archive"))
}
