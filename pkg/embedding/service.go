package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/soundprediction/toponimo/pkg/types"
)

// ServiceMatcher calls the dedicated candidate-ranking service. The
// service owns the vector model and the nearest-neighbor index; this
// client only carries the retrieval tunables.
type ServiceMatcher struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

type rankRequest struct {
	Mentions            []string `json:"mentions"`
	NumCandidates       int      `json:"num_candidates"`
	SearchSize          int      `json:"search_size"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
}

// NewServiceMatcher creates a client for the ranking service at the
// configured endpoint.
func NewServiceMatcher(config Config, logger *slog.Logger) (*ServiceMatcher, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("embedding service endpoint is required")
	}
	config = withRetrievalDefaults(config)
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceMatcher{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Rank posts the mentions to the service and returns its per-mention
// variant scores.
func (m *ServiceMatcher) Rank(ctx context.Context, mentions []string) (map[string]map[string]float64, error) {
	if len(mentions) == 0 {
		return map[string]map[string]float64{}, nil
	}

	request := rankRequest{
		Mentions:            mentions,
		NumCandidates:       m.config.NumCandidates,
		SearchSize:          m.config.SearchSize,
		SimilarityThreshold: m.config.SimilarityThreshold,
	}
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.config.Endpoint+"/rank", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create rank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("embedding service request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("failed to read embedding service response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewExternalModelError("", fmt.Errorf("embedding service status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	scores, err := decodeScores(body)
	if err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(body))
		if rerr != nil {
			return nil, types.NewExternalModelError("", fmt.Errorf("embedding service returned undecodable payload: %w", err))
		}
		scores, err = decodeScores([]byte(repaired))
		if err != nil {
			return nil, types.NewExternalModelError("", fmt.Errorf("embedding service returned undecodable payload: %w", err))
		}
		m.logger.Warn("repaired malformed embedding service payload", "mentions", len(mentions))
	}
	return scores, nil
}

func decodeScores(body []byte) (map[string]map[string]float64, error) {
	scores := make(map[string]map[string]float64)
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// Close is a no-op for the HTTP client.
func (m *ServiceMatcher) Close() error {
	return nil
}
