package linking

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
	"github.com/sony/gobreaker"

	"github.com/soundprediction/toponimo/pkg/types"
)

// ScorerCandidate is one [label, score] pair of the scorer wire format.
type ScorerCandidate struct {
	Label string
	Score float64
}

// MarshalJSON encodes the candidate as a two-element array.
func (c ScorerCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Label, c.Score})
}

// UnmarshalJSON decodes the [label, score] array form.
func (c *ScorerCandidate) UnmarshalJSON(data []byte) error {
	var pair []any
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("scorer candidate has %d elements, want 2", len(pair))
	}
	label, ok := pair[0].(string)
	if !ok {
		return fmt.Errorf("scorer candidate label is %T, want string", pair[0])
	}
	score, ok := pair[1].(float64)
	if !ok {
		return fmt.Errorf("scorer candidate score is %T, want number", pair[1])
	}
	c.Label = label
	c.Score = score
	return nil
}

// ScorerMention is one row of the scorer's batched input: the mention with
// its sentence context, its ranked candidates and the document's place of
// publication.
type ScorerMention struct {
	Mention     string            `json:"mention"`
	Ngram       string            `json:"ngram"`
	Context     [2]string         `json:"context"`
	Candidates  []ScorerCandidate `json:"candidates"`
	Gold        []string          `json:"gold"`
	Position    int               `json:"pos"`
	EndPosition int               `json:"end_pos"`
	Tag         string            `json:"tag"`
	NERScore    float64           `json:"ner_score"`
	Sentence    string            `json:"sentence"`
	Place       string            `json:"place"`
	PlaceID     string            `json:"place_wqid"`
}

// ScorerPrediction is one row of the scorer's response. Prediction is a
// label in the scorer's own vocabulary, not an identifier; Position echoes
// the request row it answers.
type ScorerPrediction struct {
	Mention    string            `json:"mention"`
	Prediction string            `json:"prediction"`
	Candidates []ScorerCandidate `json:"candidates"`
	Confidence float64           `json:"conf_ed"`
	Position   int               `json:"pos"`
}

// Scorer is the externally trained disambiguation model, consumed as a
// black-box batched prediction service. Requests and responses are keyed by
// sentence id.
type Scorer interface {
	Predict(ctx context.Context, batch map[string][]ScorerMention) (map[string][]ScorerPrediction, error)
	Close() error
}

// DefaultScorerTimeout bounds one scorer round trip.
const DefaultScorerTimeout = 60 * time.Second

// ScorerConfig configures the HTTP scorer client.
type ScorerConfig struct {
	// Endpoint is the base URL of the scorer service.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	// APIKey is sent as a bearer token when set.
	APIKey string `json:"-" mapstructure:"-"`
	// Timeout bounds one request. Defaults to DefaultScorerTimeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// HTTPScorer calls the scorer service over HTTP.
type HTTPScorer struct {
	config     ScorerConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPScorer creates a client for the scorer service at the configured
// endpoint.
func NewHTTPScorer(config ScorerConfig, logger *slog.Logger) (*HTTPScorer, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("scorer endpoint is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultScorerTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPScorer{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Predict posts the sentence-keyed batch and returns the sentence-keyed
// predictions.
func (s *HTTPScorer) Predict(ctx context.Context, batch map[string][]ScorerMention) (map[string][]ScorerPrediction, error) {
	reqBody, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scorer batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.Endpoint+"/predict", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("scorer request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("failed to read scorer response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewExternalModelError("", fmt.Errorf("scorer status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	predictions, err := decodePredictions(body)
	if err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(body))
		if rerr != nil {
			return nil, types.NewExternalModelError("", fmt.Errorf("scorer returned undecodable payload: %w", err))
		}
		predictions, err = decodePredictions([]byte(repaired))
		if err != nil {
			return nil, types.NewExternalModelError("", fmt.Errorf("scorer returned undecodable payload: %w", err))
		}
		s.logger.Warn("repaired malformed scorer payload", "sentences", len(batch))
	}
	return predictions, nil
}

func decodePredictions(body []byte) (map[string][]ScorerPrediction, error) {
	predictions := make(map[string][]ScorerPrediction)
	if err := json.Unmarshal(body, &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// Close is a no-op for the HTTP client.
func (s *HTTPScorer) Close() error {
	return nil
}

// BreakerConfig holds circuit breaking settings for the scorer.
type BreakerConfig struct {
	Enabled          bool    `json:"enabled" mapstructure:"enabled"`
	MaxRequests      uint32  `json:"max_requests" mapstructure:"max_requests"`
	Interval         int     `json:"interval" mapstructure:"interval"` // in seconds
	Timeout          int     `json:"timeout" mapstructure:"timeout"`   // in seconds
	ReadyToTripRatio float64 `json:"ready_to_trip_ratio" mapstructure:"ready_to_trip_ratio"`
}

// BreakerScorer wraps a Scorer with circuit breaking logic. While the
// breaker is open, calls fail fast without reaching the service; rejected
// or failed calls are never retried.
type BreakerScorer struct {
	scorer Scorer
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerScorer wraps scorer according to cfg.
func NewBreakerScorer(scorer Scorer, cfg BreakerConfig, logger *slog.Logger) *BreakerScorer {
	if logger == nil {
		logger = slog.Default()
	}
	ratio := cfg.ReadyToTripRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	st := gobreaker.Settings{
		Name:        "scorer",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= ratio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("scorer circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerScorer{
		scorer: scorer,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Predict implements Scorer.
func (s *BreakerScorer) Predict(ctx context.Context, batch map[string][]ScorerMention) (map[string][]ScorerPrediction, error) {
	resp, err := s.cb.Execute(func() (interface{}, error) {
		return s.scorer.Predict(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return resp.(map[string][]ScorerPrediction), nil
}

// Close implements Scorer.
func (s *BreakerScorer) Close() error {
	return s.scorer.Close()
}

// MockScorer is a canned-response scorer for testing.
type MockScorer struct {
	// Responses is returned verbatim from Predict.
	Responses map[string][]ScorerPrediction
	// Err, when set, is returned instead.
	Err error

	calls   int
	batches []map[string][]ScorerMention
}

// Predict implements Scorer.
func (s *MockScorer) Predict(_ context.Context, batch map[string][]ScorerMention) (map[string][]ScorerPrediction, error) {
	s.calls++
	s.batches = append(s.batches, batch)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Responses, nil
}

// Close implements Scorer.
func (s *MockScorer) Close() error { return nil }

// Calls returns how many times Predict ran.
func (s *MockScorer) Calls() int { return s.calls }

// LastBatch returns the most recent request batch, or nil.
func (s *MockScorer) LastBatch() map[string][]ScorerMention {
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}
