package linking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/toponimo/pkg/types"
)

func TestScorerCandidateJSON(t *testing.T) {
	data, err := json.Marshal(ScorerCandidate{Label: "London", Score: 0.9})
	require.NoError(t, err)
	assert.JSONEq(t, `["London", 0.9]`, string(data))

	var c ScorerCandidate
	require.NoError(t, json.Unmarshal([]byte(`["Paris", 0.25]`), &c))
	assert.Equal(t, ScorerCandidate{Label: "Paris", Score: 0.25}, c)

	assert.Error(t, json.Unmarshal([]byte(`["Paris"]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`[1, 0.25]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`["Paris", "high"]`), &c))
}

func TestNewHTTPScorerRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPScorer(ScorerConfig{}, nil)
	assert.Error(t, err)
}

func TestHTTPScorerRoundTrip(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBatch map[string][]ScorerMention

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBatch))
		json.NewEncoder(w).Encode(map[string][]ScorerPrediction{
			"s0": {{Mention: "London", Prediction: "London", Confidence: 0.9, Position: 8}},
		})
	}))
	defer server.Close()

	scorer, err := NewHTTPScorer(ScorerConfig{Endpoint: server.URL, APIKey: "sk-test"}, nil)
	require.NoError(t, err)

	batch := map[string][]ScorerMention{
		"s0": {{
			Mention:    "London",
			Candidates: []ScorerCandidate{{Label: "Q84", Score: 0.855}},
			Gold:       []string{"NONE"},
			Position:   8,
		}},
	}
	predictions, err := scorer.Predict(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, "/predict", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	require.Len(t, gotBatch["s0"], 1)
	assert.Equal(t, []ScorerCandidate{{Label: "Q84", Score: 0.855}}, gotBatch["s0"][0].Candidates)

	require.Len(t, predictions["s0"], 1)
	assert.Equal(t, "London", predictions["s0"][0].Prediction)
	assert.Equal(t, 8, predictions["s0"][0].Position)
}

func TestHTTPScorerRepairsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s0": [{"mention": "London", "prediction": "London", "conf_ed": 0.9, "pos": 0,},]}`))
	}))
	defer server.Close()

	scorer, err := NewHTTPScorer(ScorerConfig{Endpoint: server.URL}, nil)
	require.NoError(t, err)

	predictions, err := scorer.Predict(context.Background(), map[string][]ScorerMention{"s0": {}})
	require.NoError(t, err)
	require.Len(t, predictions["s0"], 1)
	assert.Equal(t, "London", predictions["s0"][0].Prediction)
}

func TestHTTPScorerStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	scorer, err := NewHTTPScorer(ScorerConfig{Endpoint: server.URL}, nil)
	require.NoError(t, err)

	_, err = scorer.Predict(context.Background(), map[string][]ScorerMention{})
	assert.ErrorIs(t, err, types.ErrExternalModel)
}

func TestHTTPScorerUndecodablePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer server.Close()

	scorer, err := NewHTTPScorer(ScorerConfig{Endpoint: server.URL}, nil)
	require.NoError(t, err)

	_, err = scorer.Predict(context.Background(), map[string][]ScorerMention{})
	assert.ErrorIs(t, err, types.ErrExternalModel)
}

func TestBreakerScorerPassesThrough(t *testing.T) {
	inner := &MockScorer{Responses: map[string][]ScorerPrediction{
		"s0": {{Mention: "London", Prediction: "London"}},
	}}
	scorer := NewBreakerScorer(inner, BreakerConfig{Enabled: true}, nil)
	defer scorer.Close()

	predictions, err := scorer.Predict(context.Background(), map[string][]ScorerMention{})
	require.NoError(t, err)
	assert.Equal(t, inner.Responses, predictions)
}

func TestBreakerScorerOpensAfterFailures(t *testing.T) {
	inner := &MockScorer{Err: errors.New("connection refused")}
	scorer := NewBreakerScorer(inner, BreakerConfig{Enabled: true, Timeout: 60}, nil)
	defer scorer.Close()

	for i := 0; i < 3; i++ {
		_, err := scorer.Predict(context.Background(), nil)
		require.Error(t, err)
	}

	// The breaker is open now: calls fail fast without reaching the
	// service, and nothing is retried.
	_, err := scorer.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, inner.Calls())
}
