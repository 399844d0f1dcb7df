package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/soundprediction/toponimo/pkg/types"
)

// embedClient is the minimal surface the vector providers need from an
// embedding backend.
type embedClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// VectorMatcher ranks mentions against the gazetteer vocabulary by cosine
// similarity of embeddings from a pluggable backend. Variant embeddings
// are computed on first use and retained for the matcher's lifetime.
type VectorMatcher struct {
	client   embedClient
	config   Config
	logger   *slog.Logger
	variants []string

	mu      sync.Mutex
	vectors [][]float32
}

func newVectorMatcher(client embedClient, config Config, logger *slog.Logger) (*VectorMatcher, error) {
	if len(config.Variants) == 0 {
		return nil, fmt.Errorf("embedding provider %s requires the gazetteer variants", config.Provider)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorMatcher{
		client:   client,
		config:   withRetrievalDefaults(config),
		logger:   logger,
		variants: config.Variants,
	}, nil
}

// Rank embeds the mentions and returns, per mention, the top variants by
// cosine similarity.
func (m *VectorMatcher) Rank(ctx context.Context, mentions []string) (map[string]map[string]float64, error) {
	if len(mentions) == 0 {
		return map[string]map[string]float64{}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vectors == nil {
		vectors, err := m.client.Embed(ctx, m.variants)
		if err != nil {
			return nil, types.NewExternalModelError("", fmt.Errorf("failed to embed gazetteer variants: %w", err))
		}
		if len(vectors) != len(m.variants) {
			return nil, types.NewExternalModelError("", fmt.Errorf("variant embedding count mismatch: want %d, got %d", len(m.variants), len(vectors)))
		}
		m.vectors = vectors
		m.logger.Info("gazetteer variant embeddings computed", "variants", len(m.variants))
	}

	queries, err := m.client.Embed(ctx, mentions)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("failed to embed mentions: %w", err))
	}
	if len(queries) != len(mentions) {
		return nil, types.NewExternalModelError("", fmt.Errorf("mention embedding count mismatch: want %d, got %d", len(mentions), len(queries)))
	}

	out := make(map[string]map[string]float64, len(mentions))
	for i, mention := range mentions {
		out[mention] = m.nearest(queries[i])
	}
	return out, nil
}

type variantSimilarity struct {
	variant    string
	similarity float64
}

// nearest returns the top NumCandidates variants for one query vector.
// Faiss-scale thresholds exceed the cosine range and leave filtering to
// the candidate cut.
func (m *VectorMatcher) nearest(query []float32) map[string]float64 {
	ranked := make([]variantSimilarity, 0, len(m.variants))
	for i, variant := range m.variants {
		similarity := cosineSimilarity(query, m.vectors[i])
		if m.config.SimilarityThreshold <= 1 && similarity < m.config.SimilarityThreshold {
			continue
		}
		ranked = append(ranked, variantSimilarity{variant: variant, similarity: similarity})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].similarity != ranked[j].similarity {
			return ranked[i].similarity > ranked[j].similarity
		}
		return ranked[i].variant < ranked[j].variant
	})
	if len(ranked) > m.config.NumCandidates {
		ranked = ranked[:m.config.NumCandidates]
	}
	scores := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		scores[r.variant] = r.similarity
	}
	return scores
}

// Close releases the embedding backend.
func (m *VectorMatcher) Close() error {
	return m.client.Close()
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
