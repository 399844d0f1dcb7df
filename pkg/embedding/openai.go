package embedding

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// openaiEmbedder backs a VectorMatcher with the OpenAI embeddings API.
type openaiEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIMatcher creates a vector matcher over the OpenAI embeddings
// API. Config.Endpoint overrides the API base URL for OpenAI-compatible
// deployments.
func NewOpenAIMatcher(config Config, logger *slog.Logger) (*VectorMatcher, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := config.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}
	return newVectorMatcher(&openaiEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, config, logger)
}

func (e *openaiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Data))
	}
	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

func (e *openaiEmbedder) Close() error {
	return nil
}
