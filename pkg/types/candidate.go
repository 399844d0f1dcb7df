package types

// Candidate is one knowledge-base identifier proposed as a referent for a
// surface form, together with the gazetteer evidence backing it.
type Candidate struct {
	// ID is the knowledge-base identifier (e.g. "Q84").
	ID string `json:"id" mapstructure:"id"`
	// Count is the raw association count between the matched variant and
	// this identifier in the unfiltered gazetteer.
	Count int64 `json:"count" mapstructure:"count"`
	// Relevance is the normalized association in [0,1]: the share of the
	// identifier's total occurrences carried by the matched variant.
	Relevance float64 `json:"relevance" mapstructure:"relevance"`
}

// VariantCandidates pairs one matched gazetteer variant with the string or
// embedding match confidence ("Score") and the identifiers recorded for the
// variant ("Candidates"), in stable order.
type VariantCandidates struct {
	// Variant is the gazetteer surface form that matched the mention.
	Variant string `json:"variant" mapstructure:"variant"`
	// Score is the match confidence in [0,1]. It weights the variant as a
	// whole and is never an identifier relevance.
	Score float64 `json:"score" mapstructure:"score"`
	// Candidates holds the identifiers associated with the variant,
	// ordered by descending relevance with identifier as tiebreaker.
	Candidates []Candidate `json:"candidates" mapstructure:"candidates"`
}

// CandidateSet holds everything the ranker found for one mention: all
// matched variants with their scores and candidate lists. The set is keyed
// by the normalized lookup form of the mention, which may differ from the
// raw surface form.
type CandidateSet struct {
	// Mention is the normalized lookup surface form.
	Mention string `json:"mention" mapstructure:"mention"`
	// Variants lists the matched gazetteer variants in stable order.
	Variants []VariantCandidates `json:"variants,omitempty" mapstructure:"variants"`
}

// Empty reports whether no variant matched the mention.
func (s CandidateSet) Empty() bool {
	return len(s.Variants) == 0
}

// Variant returns the entry for the given gazetteer variant.
func (s CandidateSet) Variant(name string) (VariantCandidates, bool) {
	for _, v := range s.Variants {
		if v.Variant == name {
			return v, true
		}
	}
	return VariantCandidates{}, false
}

// Identifiers returns every distinct candidate identifier across all matched
// variants, preserving first-seen order.
func (s CandidateSet) Identifiers() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, v := range s.Variants {
		for _, c := range v.Candidates {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			ids = append(ids, c.ID)
		}
	}
	return ids
}
