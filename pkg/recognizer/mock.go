package recognizer

import (
	"context"

	"github.com/soundprediction/toponimo/pkg/types"
)

// MockRecognizer returns canned mentions keyed by input text.
type MockRecognizer struct {
	// Responses maps input text to the mentions to return.
	Responses map[string][]types.Mention
	// Err, when set, is returned instead.
	Err error

	calls int
}

// Recognize implements Recognizer.
func (r *MockRecognizer) Recognize(_ context.Context, text string) ([]types.Mention, error) {
	r.calls++
	if r.Err != nil {
		return nil, r.Err
	}
	mentions := make([]types.Mention, len(r.Responses[text]))
	copy(mentions, r.Responses[text])
	return mentions, nil
}

// Close implements Recognizer.
func (r *MockRecognizer) Close() error { return nil }

// Calls returns how many times Recognize ran.
func (r *MockRecognizer) Calls() int { return r.calls }
