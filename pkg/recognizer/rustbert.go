package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"

	"github.com/soundprediction/toponimo/pkg/types"
)

// RustBertRecognizer runs the go-rust-bert NER model in process. The model
// emits token-level BIO labels without offsets; spans are recovered against
// the input text.
type RustBertRecognizer struct {
	model  *rustbert.NERModel
	config Config
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRustBertRecognizer loads the default NER model, or a custom one when
// config.ModelID is set.
func NewRustBertRecognizer(config Config, logger *slog.Logger) (*RustBertRecognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		model *rustbert.NERModel
		err   error
	)
	if config.ModelID != "" {
		modelPath, configPath, vocabPath, mergesPath, dlErr := rustbert.DownloadArtifacts(config.ModelID, "")
		if dlErr != nil {
			return nil, fmt.Errorf("failed to download artifacts for %s: %w", config.ModelID, dlErr)
		}
		model, err = rustbert.NewNERModelFromFiles(modelPath, configPath, vocabPath, mergesPath, rustbert.ModelTypeBert)
	} else {
		model, err = rustbert.NewNERModel()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create NER model: %w", err)
	}
	return &RustBertRecognizer{model: model, config: config, logger: logger}, nil
}

// Recognize implements Recognizer. The model is not safe for concurrent
// prediction, so calls are serialized.
func (r *RustBertRecognizer) Recognize(_ context.Context, text string) ([]types.Mention, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return nil, types.ErrNotLoaded
	}
	results, err := r.model.Predict(text)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("NER prediction failed: %w", err))
	}

	entities := make([]entity, 0, len(results))
	for _, e := range results {
		entities = append(entities, entity{
			text:  e.Word,
			label: e.Label,
			score: e.Score,
		})
	}
	return locateMentions(text, entities, r.config, r.logger), nil
}

// Close releases the model.
func (r *RustBertRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model != nil {
		r.model.Close()
		r.model = nil
	}
	return nil
}
