package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// geminiEmbedder backs a VectorMatcher with the Gemini embeddings API
// through Genkit.
type geminiEmbedder struct {
	embedder ai.Embedder
}

// NewGeminiMatcher creates a vector matcher over the Gemini embeddings
// API.
func NewGeminiMatcher(config Config, logger *slog.Logger) (*VectorMatcher, error) {
	model := config.Model
	if model == "" {
		model = "text-embedding-004"
	}
	g := genkit.Init(context.Background(), genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: config.APIKey}))
	embedder := googlegenai.GoogleAIEmbedder(g, model)
	if embedder == nil {
		return nil, fmt.Errorf("gemini embedder %q is not available", model)
	}
	return newVectorMatcher(&geminiEmbedder{embedder: embedder}, config, logger)
}

func (e *geminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Embeddings))
	}
	embeddings := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		embeddings[i] = emb.Embedding
	}
	return embeddings, nil
}

func (e *geminiEmbedder) Close() error {
	return nil
}
