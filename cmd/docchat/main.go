package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docchat/internal/api"
	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/generation"
	"docchat/internal/service"
	"docchat/internal/vectorstore/memory"
	"docchat/internal/vectorstore/qdrant"
	"docchat/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docchat/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, generator, store := buildComponents(cfg)
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("collection init failed: %v", err)
	}

	if err := os.MkdirAll(cfg.Watch.Directory, 0o755); err != nil {
		log.Fatalf("cannot create watch directory: %v", err)
	}
	if cfg.Watch.SeedSample {
		seedSampleFile(cfg.Watch.Directory)
	}

	w := watcher.New(cfg.Watch.Directory, time.Duration(cfg.Watch.IntervalSecs)*time.Second, embedder, store)
	go w.Run(ctx)

	svc := service.New(embedder, store, generator)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler: api.NewServer(svc, w, cfg.Watch.Directory).Handler(),
	}

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func buildComponents(cfg *config.AppConfig) (domain.Embedder, domain.Generator, domain.VectorStore) {
	embedder, err := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	generator, err := generation.NewClient(generation.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		TopP:        cfg.Generator.TopP,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var store domain.VectorStore
	switch cfg.VectorStore.Type {
	case "qdrant", "":
		store, err = qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Dimension:  cfg.Embedder.Dimension,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("qdrant init failed: %v", err)
		}
	case "memory":
		store = memory.NewStore(cfg.Embedder.Dimension)
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	return embedder, generator, store
}

// seedSampleFile drops a small text file into a fresh watch directory so
// the system is immediately queryable.
func seedSampleFile(dir string) {
	path := filepath.Join(dir, "sample.txt")
	if _, err := os.Stat(path); err == nil {
		return
	}
	content := "This is a sample text file for docchat.\n\n" +
		"You can add your own PDF or text files to this directory,\n" +
		"and they will be automatically processed and made searchable.\n\n" +
		"Try asking questions about this text to test the system!"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Printf("cannot write sample file: %v", err)
		return
	}
	log.Printf("added sample text file at %s", path)
}
