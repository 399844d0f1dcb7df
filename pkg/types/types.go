package types

import (
	"errors"
)

// NIL is the sentinel identifier meaning "no suitable knowledge-base entry".
const NIL = "NIL"

// Validation errors
var (
	ErrEmptyMention  = errors.New("mention text cannot be empty")
	ErrInvalidSpan   = errors.New("mention span is invalid")
	ErrEmptyDocument = errors.New("document has no sentences")
	ErrEmptyID       = errors.New("id cannot be empty")
)

// Mention represents a place-name span recognised in text. Mentions are
// produced outside the engine (by a recognition model) and are immutable
// once constructed.
type Mention struct {
	// Text is the surface form exactly as it appears in the sentence.
	Text string `json:"mention" mapstructure:"mention"`
	// Start is the character offset of the first rune of the span.
	Start int `json:"char_start" mapstructure:"char_start"`
	// End is the character offset one past the last rune of the span.
	End int `json:"char_end" mapstructure:"char_end"`
	// Tag is the entity type assigned by the recogniser (e.g. "LOC").
	Tag string `json:"tag,omitempty" mapstructure:"tag"`
	// Score is the recogniser's confidence for this span.
	Score float64 `json:"ner_score,omitempty" mapstructure:"ner_score"`
	// SentenceID identifies the sentence the span was found in.
	SentenceID string `json:"sentence_id,omitempty" mapstructure:"sentence_id"`
}

// Validate checks if the Mention has a usable surface form and span.
func (m *Mention) Validate() error {
	if m.Text == "" {
		return ErrEmptyMention
	}
	if m.End < m.Start || m.Start < 0 {
		return ErrInvalidSpan
	}
	return nil
}

// Sentence is one unit of pipeline input. IDs are caller-assigned and only
// need to be unique within a document.
type Sentence struct {
	ID   string `json:"sentence_id" mapstructure:"sentence_id"`
	Text string `json:"sentence" mapstructure:"sentence"`
}

// Document groups the sentences of one source text together with optional
// place-of-publication metadata used by the distance and delegated
// disambiguation strategies.
type Document struct {
	ID        string     `json:"document_id" mapstructure:"document_id"`
	Sentences []Sentence `json:"sentences" mapstructure:"sentences"`

	// Place is the human-readable place of publication (e.g. "London").
	Place string `json:"place,omitempty" mapstructure:"place"`
	// PlaceID is the knowledge-base identifier of the place of
	// publication (e.g. "Q84"), when known.
	PlaceID string `json:"place_wqid,omitempty" mapstructure:"place_wqid"`
}

// Validate checks if the Document can be processed.
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if len(d.Sentences) == 0 {
		return ErrEmptyDocument
	}
	return nil
}

// LinkedMention is the engine's output row: the input mention joined with
// the candidates found for it and the final prediction.
type LinkedMention struct {
	Mention    `mapstructure:",squash"`
	DocumentID string       `json:"document_id,omitempty" mapstructure:"document_id"`
	Candidates CandidateSet `json:"candidates" mapstructure:"candidates"`
	Prediction Prediction   `json:"prediction" mapstructure:"prediction"`
}
