package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/soundprediction/toponimo/pkg/types"
)

// Provider identifies a mention recognition backend.
type Provider string

const (
	// ProviderService calls a remote NER endpoint over HTTP.
	ProviderService Provider = "service"
	// ProviderGliner runs the go-gline-rs span model in process.
	ProviderGliner Provider = "gliner"
	// ProviderRustBert runs the go-rust-bert NER model in process.
	ProviderRustBert Provider = "rustbert"
	// ProviderMock returns canned mentions for testing.
	ProviderMock Provider = "mock"
)

// Recognizer finds place-name mentions in text.
type Recognizer interface {
	// Recognize returns the mentions found in text, with character spans
	// relative to text.
	Recognize(ctx context.Context, text string) ([]types.Mention, error)

	// Close releases any model or connection held by the recognizer.
	Close() error
}

// Config holds recognition settings for all providers.
type Config struct {
	// Provider selects the backend.
	Provider Provider `json:"provider" mapstructure:"provider"`

	// Endpoint is the base URL of the recognition service.
	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"-" mapstructure:"-"`

	// Timeout bounds one service request.
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`

	// ModelID is a local path or hub id for the in-process providers.
	ModelID string `json:"model_id,omitempty" mapstructure:"model_id"`

	// Labels are the span types asked of the gliner model.
	Labels []string `json:"labels,omitempty" mapstructure:"labels"`

	// Threshold drops mentions scored below it.
	Threshold float64 `json:"threshold,omitempty" mapstructure:"threshold"`

	// LocationOnly keeps only location-family entities.
	LocationOnly bool `json:"location_only" mapstructure:"location_only"`
}

// DefaultConfig returns the baseline configuration for the given provider.
func DefaultConfig(provider Provider) Config {
	config := Config{
		Provider:     provider,
		Threshold:    0.5,
		LocationOnly: true,
	}
	switch provider {
	case ProviderService:
		config.Timeout = 30 * time.Second
	case ProviderGliner:
		config.Labels = []string{"location"}
	}
	return config
}

// NewRecognizer builds a recognizer for the configured provider.
func NewRecognizer(config Config, logger *slog.Logger) (Recognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch config.Provider {
	case ProviderService:
		return NewServiceRecognizer(config, logger)
	case ProviderGliner:
		return NewGlinerRecognizer(config, logger)
	case ProviderRustBert:
		return NewRustBertRecognizer(config, logger)
	case ProviderMock:
		return &MockRecognizer{}, nil
	default:
		return nil, types.NewInputShapeError("recognizer provider", fmt.Sprintf("%q", string(config.Provider)))
	}
}

// NormalizeTag strips BIO-style prefixes so "B-LOC" and "I-LOC" both read
// "LOC".
func NormalizeTag(label string) string {
	if len(label) > 2 && (strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-")) {
		return label[2:]
	}
	return label
}

// LocationTag reports whether the tag belongs to the location family.
func LocationTag(tag string) bool {
	switch strings.ToUpper(tag) {
	case "LOC", "LOCATION", "GPE", "FAC", "STREET", "BUILDING":
		return true
	}
	return false
}

// entity is what an in-process model yields: a surface form and label with
// no position information.
type entity struct {
	text  string
	label string
	score float64
}

// locateMentions recovers character spans for position-less model output by
// scanning the source text left to right. Each surface form is searched
// from the end of the previous match, so repeated forms advance through the
// text instead of all landing on the first occurrence. Surface forms the
// model hallucinated out of the text are dropped with a warning.
func locateMentions(text string, entities []entity, config Config, logger *slog.Logger) []types.Mention {
	if logger == nil {
		logger = slog.Default()
	}
	mentions := make([]types.Mention, 0, len(entities))
	cursor := 0
	for _, e := range entities {
		if e.text == "" {
			continue
		}
		byteStart := -1
		if idx := strings.Index(text[cursor:], e.text); idx >= 0 {
			byteStart = cursor + idx
		} else if idx := strings.Index(text, e.text); idx >= 0 {
			// The model reordered its output; restart from the top.
			byteStart = idx
		}
		if byteStart < 0 {
			logger.Warn("recognized span not found in text", "mention", e.text)
			continue
		}
		cursor = byteStart + len(e.text)

		if e.score < config.Threshold {
			continue
		}
		tag := NormalizeTag(e.label)
		if config.LocationOnly && !LocationTag(tag) {
			continue
		}
		start := utf8.RuneCountInString(text[:byteStart])
		mentions = append(mentions, types.Mention{
			Text:  e.text,
			Start: start,
			End:   start + utf8.RuneCountInString(e.text),
			Tag:   tag,
			Score: e.score,
		})
	}
	return mentions
}
