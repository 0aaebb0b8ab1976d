// Package service contains the retrieval and answer-assembly core: it
// embeds questions, searches the vector store, and builds grounded
// prompts for the generative model.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docchat/internal/domain"
)

const systemPrompt = `You are a helpful assistant that answers questions based on the provided document context.
- Answer only based on the context provided
- If you don't know the answer or the context doesn't contain relevant information, say so
- Include relevant source information in your response
- Be concise and accurate`

// Fixed responses for the designed no-result outcomes.
const (
	noRelevantDocsAnswer = "No relevant documents found in the database. Try adding documents first."
	noUserMessageAnswer  = "No user message found in the request."
)

// Service answers natural-language questions over the indexed corpus.
type Service struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	generator domain.Generator
}

// New creates the question-answering service.
func New(embedder domain.Embedder, store domain.VectorStore, generator domain.Generator) *Service {
	return &Service{embedder: embedder, store: store, generator: generator}
}

// Answer retrieves the topK most relevant chunks for the query and
// generates a grounded answer from them. An empty retrieval is a
// designed outcome, not an error: it yields a fixed response with no
// sources. Embedding failures degrade the same way.
func (s *Service) Answer(ctx context.Context, query string, topK int) (domain.Answer, error) {
	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		log.Printf("service: query embedding failed: %v", err)
		return domain.Answer{Text: noRelevantDocsAnswer, Sources: []domain.SourceRef{}}, nil
	}
	results, err := s.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(results) == 0 {
		return domain.Answer{Text: noRelevantDocsAnswer, Sources: []domain.SourceRef{}}, nil
	}

	answer := s.generator.Generate(ctx, systemPrompt, buildUserPrompt(query, results))

	sources := make([]domain.SourceRef, 0, len(results))
	for _, r := range results {
		sources = append(sources, domain.SourceRef{
			Text:       r.Text,
			Source:     r.Meta.Source,
			Similarity: r.Similarity,
		})
	}
	return domain.Answer{Text: answer, Sources: sources}, nil
}

// Chat answers the most recent user-role message of a conversation
// history through the same retrieval pipeline. A history without a user
// message yields a fixed response with no sources.
func (s *Service) Chat(ctx context.Context, messages []domain.Message, topK int) (domain.Answer, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return s.Answer(ctx, messages[i].Content, topK)
		}
	}
	return domain.Answer{Text: noUserMessageAnswer, Sources: []domain.SourceRef{}}, nil
}

// buildUserPrompt assembles the grounding context: one labeled block per
// retrieved chunk, most similar first.
func buildUserPrompt(query string, results []domain.SearchResult) string {
	var context strings.Builder
	for i, r := range results {
		source := r.Meta.Source
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&context, "Document %d [Source: %s]:\n%s\n\n", i+1, source, r.Text)
	}
	return fmt.Sprintf("Question: %s\n\nContext:\n%s\nPlease answer the question based on the provided context:", query, context.String())
}
