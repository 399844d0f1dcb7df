package linking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/toponimo/pkg/kb"
	"github.com/soundprediction/toponimo/pkg/types"
	"github.com/soundprediction/toponimo/pkg/xref"
)

// Method identifies a disambiguation strategy.
type Method string

const (
	// MethodMostPopular picks the candidate with the highest raw
	// gazetteer count across all matched variants.
	MethodMostPopular Method = "mostpopular"
	// MethodByDistance picks the candidate closest to the document's
	// place of publication.
	MethodByDistance Method = "bydistance"
	// MethodDelegated defers the decision to an externally trained
	// scorer consumed as a batched prediction service.
	MethodDelegated Method = "delegated"
)

// Valid reports whether m names a known strategy.
func (m Method) Valid() bool {
	switch m {
	case MethodMostPopular, MethodByDistance, MethodDelegated:
		return true
	}
	return false
}

// MentionCandidates pairs one recognized mention with the candidate set
// produced for its surface form.
type MentionCandidates struct {
	Mention    types.Mention      `json:"mention"`
	Candidates types.CandidateSet `json:"candidates"`
}

// Batch is the unit of disambiguation: one document's mentions together
// with the document they came from. Sentence text and place-of-publication
// metadata ride on the document.
type Batch struct {
	Document types.Document      `json:"document"`
	Mentions []MentionCandidates `json:"mentions"`
}

// Disambiguator resolves candidate sets to identifiers.
type Disambiguator interface {
	// PerformLinking predicts one identifier per mention in the batch.
	// The returned slice is aligned index-for-index with batch.Mentions.
	// Mentions without a usable candidate resolve to the NIL sentinel,
	// never an error.
	PerformLinking(ctx context.Context, batch Batch) ([]types.Prediction, error)

	// Method reports the strategy this disambiguator implements.
	Method() Method
}

// Config carries the knobs and resources shared by all strategies. Runtime
// dependencies are injected by the caller and excluded from serialization.
type Config struct {
	// Method selects the decision strategy.
	Method Method `json:"method" mapstructure:"method"`

	// Exponent sharpens candidate relevances when the frequency strategy
	// has no raw gazetteer counts to work with. Values above 1
	// concentrate mass on the leading candidate.
	Exponent float64 `json:"exponent" mapstructure:"exponent"`

	// Coordinates resolves place coordinates for the distance strategy.
	Coordinates kb.Store `json:"-" mapstructure:"-"`

	// Scorer is the delegated prediction service.
	Scorer Scorer `json:"-" mapstructure:"-"`

	// CrossRef maps the delegated scorer's label predictions back to
	// identifiers.
	CrossRef xref.Store `json:"-" mapstructure:"-"`
}

// DefaultConfig returns the baseline configuration for the given method.
func DefaultConfig(method Method) Config {
	return Config{
		Method:   method,
		Exponent: 2.0,
	}
}

// NewDisambiguator builds a disambiguator for the configured method.
func NewDisambiguator(config Config, logger *slog.Logger) (Disambiguator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch config.Method {
	case MethodMostPopular:
		return NewMostPopular(config, logger), nil
	case MethodByDistance:
		if config.Coordinates == nil {
			return nil, types.NewInputShapeError("coordinate store", "nil")
		}
		return NewByDistance(config, logger), nil
	case MethodDelegated:
		if config.Scorer == nil {
			return nil, types.NewInputShapeError("scorer", "nil")
		}
		if config.CrossRef == nil {
			return nil, types.NewInputShapeError("cross-reference store", "nil")
		}
		return NewDelegated(config, logger), nil
	default:
		return nil, types.NewInputShapeError("linking method", fmt.Sprintf("%q", string(config.Method)))
	}
}
