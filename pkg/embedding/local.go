package embedding

import (
	"context"
	"fmt"
	"log/slog"

	embedeverything "github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// localEmbedder backs a VectorMatcher with the in-process
// embed-everything model.
type localEmbedder struct {
	embedder *embedeverything.Embedder
}

// NewLocalMatcher creates a vector matcher over the in-process
// embed-everything model. The model weights are fetched on first use.
func NewLocalMatcher(config Config, logger *slog.Logger) (*VectorMatcher, error) {
	model := config.Model
	if model == "" {
		model = "BAAI/bge-small-en-v1.5"
	}
	client, err := embedeverything.NewEmbedder(model)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return newVectorMatcher(&localEmbedder{embedder: client}, config, logger)
}

func (e *localEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	// go-embedeverything does not support context yet
	embeddings, err := e.embedder.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return embeddings, nil
}

func (e *localEmbedder) Close() error {
	e.embedder.Close()
	return nil
}
