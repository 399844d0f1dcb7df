package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/soundprediction/go-gline-rs/pkg/gline"

	"github.com/soundprediction/toponimo/pkg/types"
)

// GlinerRecognizer runs the go-gline-rs span model in process. The model
// takes free-text span labels, so the configured Labels drive what counts
// as a place. Predictions carry no offsets; spans are recovered against the
// input text.
type GlinerRecognizer struct {
	model  *gline.Model
	config Config
	logger *slog.Logger
	mu     sync.Mutex
}

// NewGlinerRecognizer loads the span model from a local directory or a hub
// id.
func NewGlinerRecognizer(config Config, logger *slog.Logger) (*GlinerRecognizer, error) {
	if err := gline.Init(); err != nil {
		return nil, fmt.Errorf("failed to init gline: %w", err)
	}
	if len(config.Labels) == 0 {
		config.Labels = []string{"location"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		model *gline.Model
		err   error
	)
	if _, statErr := os.Stat(config.ModelID); statErr == nil {
		model, err = gline.NewSpanModel(
			filepath.Join(config.ModelID, "model.onnx"),
			filepath.Join(config.ModelID, "tokenizer.json"),
		)
	} else {
		model, err = gline.NewSpanModelFromHF(config.ModelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load span model %q: %w", config.ModelID, err)
	}
	return &GlinerRecognizer{model: model, config: config, logger: logger}, nil
}

// Recognize implements Recognizer. The model is not safe for concurrent
// prediction, so calls are serialized.
func (r *GlinerRecognizer) Recognize(_ context.Context, text string) ([]types.Mention, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return nil, types.ErrNotLoaded
	}
	results, err := r.model.Predict([]string{text}, r.config.Labels)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("span prediction failed: %w", err))
	}
	if len(results) == 0 {
		return []types.Mention{}, nil
	}

	entities := make([]entity, 0, len(results[0]))
	for _, e := range results[0] {
		entities = append(entities, entity{
			text:  e.Text,
			label: e.Label,
			score: float64(e.Probability),
		})
	}
	return locateMentions(text, entities, r.config, r.logger), nil
}

// Close releases the model.
func (r *GlinerRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model != nil {
		r.model.Close()
		r.model = nil
	}
	return nil
}
