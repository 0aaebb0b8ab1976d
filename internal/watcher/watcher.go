// Package watcher drives ingestion: it scans a watch directory for
// supported files and runs each new file through extraction, tagging,
// embedding and storage.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat/internal/domain"
	"docchat/internal/extract"
)

// Watcher polls a directory on a fixed interval and ingests every
// supported file exactly once per process lifetime. The processed-set
// lives in memory only: a restart re-ingests everything, which is
// accepted behavior (the index tolerates duplicate chunks). A file seen
// once is never reprocessed in this run, even if its content changes.
type Watcher struct {
	dir      string
	interval time.Duration
	embedder domain.Embedder
	store    domain.VectorStore

	mu        sync.Mutex
	processed map[string]struct{}

	// Injection points for tests.
	now   func() time.Time
	newID func() string
}

// New creates a watcher over dir that polls every interval.
func New(dir string, interval time.Duration, embedder domain.Embedder, store domain.VectorStore) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		dir:       dir,
		interval:  interval,
		embedder:  embedder,
		store:     store,
		processed: make(map[string]struct{}),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run performs a catch-up scan of files already present, then polls the
// directory until ctx is cancelled. Per-file failures are logged and
// never stop the loop.
func (w *Watcher) Run(ctx context.Context) {
	log.Printf("watcher: watching %s every %s", w.dir, w.interval)
	w.ScanOnce(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("watcher: stopped")
			return
		case <-ticker.C:
			w.ScanOnce(ctx)
		}
	}
}

// ScanOnce enumerates the directory and processes every supported file
// not yet in the processed-set.
func (w *Watcher) ScanOnce(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.Printf("watcher: cannot read %s: %v", w.dir, err)
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !extract.Supported(path) {
			continue
		}
		if w.seen(path) {
			continue
		}
		if _, err := w.ProcessFile(ctx, path); err != nil {
			log.Printf("watcher: failed to ingest %s: %v", path, err)
		}
	}
}

// ProcessFile ingests a single file: extract, tag, embed, store. It
// returns the number of chunks written. Ingestion is all-or-nothing per
// file: an extraction or embedding failure stores nothing, and the file
// is still marked as seen so it is not retried on every poll. A path
// already in the processed-set is skipped.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (int, error) {
	if !w.markSeen(path) {
		return 0, nil
	}
	log.Printf("watcher: processing %s", path)

	texts := extract.Chunks(path)
	if len(texts) == 0 {
		log.Printf("watcher: no text chunks extracted from %s", path)
		return 0, nil
	}
	chunks := extract.Tag(texts, path, w.now())

	vectors, err := w.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	ids := make([]string, len(chunks))
	for i := range ids {
		ids[i] = w.newID()
	}
	if err := w.store.Insert(ctx, ids, vectors, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks failed: %w", err)
	}
	log.Printf("watcher: added %d chunks from %s", len(chunks), path)
	return len(chunks), nil
}

func (w *Watcher) seen(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.processed[path]
	return ok
}

// markSeen reserves the path and reports whether this caller was the
// first to do so. Uploads and the poll loop share the set, so a file
// uploaded into the watch directory is not ingested twice.
func (w *Watcher) markSeen(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.processed[path]; ok {
		return false
	}
	w.processed[path] = struct{}{}
	return true
}
