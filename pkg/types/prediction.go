package types

// Weight is one entry of a prediction's re-normalized candidate
// distribution.
type Weight struct {
	ID    string  `json:"id" mapstructure:"id"`
	Value float64 `json:"value" mapstructure:"value"`
}

// Prediction is the final linking decision for one mention. The identifier
// is either a knowledge-base ID or the NIL sentinel; Confidence is always in
// [0,1]; Distribution carries the re-normalized weight of every candidate
// that was considered, preserving the ordering of the input candidates.
type Prediction struct {
	ID           string   `json:"prediction" mapstructure:"prediction"`
	Confidence   float64  `json:"confidence" mapstructure:"confidence"`
	Distribution []Weight `json:"distribution,omitempty" mapstructure:"distribution"`
}

// NilPrediction returns the prediction used when no candidate survives:
// NIL identifier, zero confidence, empty distribution.
func NilPrediction() Prediction {
	return Prediction{ID: NIL, Confidence: 0.0}
}

// IsNil reports whether the prediction carries the NIL sentinel.
func (p Prediction) IsNil() bool {
	return p.ID == NIL
}

// Weight returns the distribution value recorded for the identifier, or 0
// if the identifier is not part of the distribution.
func (p Prediction) Weight(id string) float64 {
	for _, w := range p.Distribution {
		if w.ID == id {
			return w.Value
		}
	}
	return 0
}
