// Package api exposes the question-answering service over HTTP. The
// handlers are thin: request decoding, a service call, response
// encoding. All semantics live in the service and watcher packages.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"docchat/internal/domain"
)

// QueryService is the api-facing subset of the answer service.
type QueryService interface {
	Answer(ctx context.Context, query string, topK int) (domain.Answer, error)
	Chat(ctx context.Context, messages []domain.Message, topK int) (domain.Answer, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error)
}

// Ingestor ingests a single file, returning the number of chunks stored.
type Ingestor interface {
	ProcessFile(ctx context.Context, path string) (int, error)
}

// Server holds the HTTP handlers. Uploaded files are saved into
// uploadDir (the watch directory) and ingested through the same
// single-file path the watch loop uses.
type Server struct {
	service   QueryService
	ingestor  Ingestor
	uploadDir string
}

// NewServer creates the HTTP server front-end.
func NewServer(service QueryService, ingestor Ingestor, uploadDir string) *Server {
	return &Server{service: service, ingestor: ingestor, uploadDir: uploadDir}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/documents", s.handleDocuments)
	return mux
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type chatRequest struct {
	Messages []domain.Message `json:"messages"`
	TopK     int              `json:"top_k"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Message  string `json:"message"`
}

type documentsResponse struct {
	Documents []domain.DocumentInfo `json:"documents"`
}

const defaultTopK = 5

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	answer, err := s.service.Answer(r.Context(), req.Query, req.TopK)
	if err != nil {
		log.Printf("api: query failed: %v", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, answer)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	answer, err := s.service.Chat(r.Context(), req.Messages, req.TopK)
	if err != nil {
		log.Printf("api: chat failed: %v", err)
		http.Error(w, "chat failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, answer)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	dest := filepath.Join(s.uploadDir, name)
	out, err := os.Create(dest)
	if err != nil {
		log.Printf("api: cannot save upload %s: %v", dest, err)
		http.Error(w, "cannot save file", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		log.Printf("api: cannot save upload %s: %v", dest, err)
		http.Error(w, "cannot save file", http.StatusInternalServerError)
		return
	}
	out.Close()

	count, err := s.ingestor.ProcessFile(r.Context(), dest)
	if err != nil {
		log.Printf("api: upload ingestion failed for %s: %v", dest, err)
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, uploadResponse{
		Filename: name,
		Chunks:   count,
		Message:  fmt.Sprintf("Added %d chunks from %s", count, name),
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.ListDocuments(r.Context())
	if err != nil {
		log.Printf("api: listing documents failed: %v", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []domain.DocumentInfo{}
	}
	writeJSON(w, documentsResponse{Documents: docs})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encoding response failed: %v", err)
	}
}
