package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/generation"
	"docchat/internal/service"
	"docchat/internal/tui"
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

	ctx := context.Background()
	embedder, generator, store := buildComponents(cfg)
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("collection init failed: %v", err)
	}

	// One catch-up pass over the watch directory, then interactive Q&A.
	w := watcher.New(cfg.Watch.Directory, time.Second, embedder, store)
	w.ScanOnce(ctx)

	svc := service.New(embedder, store, generator)
	status := fmt.Sprintf("Indexed %s. Ask a question.", cfg.Watch.Directory)
	if _, err := tea.NewProgram(tui.New(svc, status)).Run(); err != nil {
		log.Fatal(err)
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
