package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Provider represents the type of embedding matcher provider
type Provider string

const (
	// ProviderService uses the dedicated candidate-ranking HTTP service
	ProviderService Provider = "service"

	// ProviderOpenAI uses the OpenAI embeddings API with in-process
	// cosine ranking
	ProviderOpenAI Provider = "openai"

	// ProviderGemini uses the Gemini embeddings API with in-process
	// cosine ranking
	ProviderGemini Provider = "gemini"

	// ProviderLocal uses the in-process embed-everything model
	ProviderLocal Provider = "local"

	// ProviderMock uses fixed scores for testing
	ProviderMock Provider = "mock"
)

// Valid reports whether p names a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderService, ProviderOpenAI, ProviderGemini, ProviderLocal, ProviderMock:
		return true
	}
	return false
}

// Config holds configuration for creating embedding matchers.
type Config struct {
	Provider Provider `json:"provider" mapstructure:"provider"`

	// Endpoint is the ranking service base URL (service provider) or an
	// API base override (openai provider).
	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint"`

	// APIKey authenticates against the service, OpenAI or Gemini.
	APIKey string `json:"-" mapstructure:"api_key"`

	// Model names the embedding model for the in-process providers.
	Model string `json:"model,omitempty" mapstructure:"model"`

	// Timeout bounds one service round trip.
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`

	// NumCandidates is how many variants are returned per mention.
	NumCandidates int `json:"num_candidates" mapstructure:"num_candidates"`

	// SearchSize is the retrieval breadth before thresholding.
	SearchSize int `json:"search_size" mapstructure:"search_size"`

	// SimilarityThreshold bounds the vector distance accepted by the
	// ranking service. The service measures faiss distances, so the
	// default is not confined to [0, 1]; in-process cosine providers
	// apply it only when it is at most 1.
	SimilarityThreshold float64 `json:"similarity_threshold" mapstructure:"similarity_threshold"`

	// Variants is the gazetteer vocabulary the in-process providers
	// retrieve from. The service provider owns its index and ignores it.
	Variants []string `json:"-" mapstructure:"-"`

	// Scores are the fixed results served by the mock provider.
	Scores map[string]map[string]float64 `json:"-" mapstructure:"-"`
}

// Matcher retrieves gazetteer variants near each mention in a learned
// vector space. The result maps each requested mention to its matched
// variants and their similarity scores.
type Matcher interface {
	Rank(ctx context.Context, mentions []string) (map[string]map[string]float64, error)
	Close() error
}

// NewMatcher creates an embedding matcher based on the provider type
func NewMatcher(config Config, logger *slog.Logger) (Matcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch config.Provider {
	case ProviderService:
		return NewServiceMatcher(config, logger)

	case ProviderOpenAI:
		return NewOpenAIMatcher(config, logger)

	case ProviderGemini:
		return NewGeminiMatcher(config, logger)

	case ProviderLocal:
		return NewLocalMatcher(config, logger)

	case ProviderMock:
		return NewMockMatcher(config), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}

// DefaultConfig returns a default configuration for the given provider.
// The retrieval defaults mirror the production ranking service.
func DefaultConfig(provider Provider) Config {
	config := Config{
		Provider:            provider,
		NumCandidates:       3,
		SearchSize:          3,
		SimilarityThreshold: 10,
	}
	switch provider {
	case ProviderService:
		config.Timeout = 30 * time.Second
	case ProviderOpenAI:
		config.Model = "text-embedding-3-small"
	case ProviderGemini:
		config.Model = "text-embedding-004"
	case ProviderLocal:
		config.Model = "BAAI/bge-small-en-v1.5"
	}
	return config
}

// withRetrievalDefaults fills the zero retrieval tunables with the
// production service defaults.
func withRetrievalDefaults(config Config) Config {
	if config.NumCandidates <= 0 {
		config.NumCandidates = 3
	}
	if config.SearchSize <= 0 {
		config.SearchSize = 3
	}
	if config.SimilarityThreshold == 0 {
		config.SimilarityThreshold = 10
	}
	return config
}
