package embedding

import (
	"context"
	"sync/atomic"
)

// MockMatcher serves fixed scores for testing. Mentions without a
// configured entry resolve to an empty score map.
type MockMatcher struct {
	scores map[string]map[string]float64
	calls  atomic.Int64
}

// NewMockMatcher creates a mock matcher serving Config.Scores.
func NewMockMatcher(config Config) *MockMatcher {
	return &MockMatcher{scores: config.Scores}
}

// Rank returns the configured scores for each mention.
func (m *MockMatcher) Rank(_ context.Context, mentions []string) (map[string]map[string]float64, error) {
	m.calls.Add(1)
	out := make(map[string]map[string]float64, len(mentions))
	for _, mention := range mentions {
		scores := make(map[string]float64, len(m.scores[mention]))
		for variant, score := range m.scores[mention] {
			scores[variant] = score
		}
		out[mention] = scores
	}
	return out, nil
}

// Calls reports how many Rank invocations the mock has served.
func (m *MockMatcher) Calls() int64 {
	return m.calls.Load()
}

// Close is a no-op for the mock.
func (m *MockMatcher) Close() error {
	return nil
}
