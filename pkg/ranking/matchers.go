package ranking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/soundprediction/toponimo/pkg/types"
)

// Method identifies a candidate-matching strategy.
type Method string

const (
	// MethodExact matches the query against gazetteer variants by
	// case-sensitive equality.
	MethodExact Method = "exact"

	// MethodContainment scores variants by case-insensitive substring
	// overlap between the query and the variant.
	MethodContainment Method = "containment"

	// MethodEditDistance scores variants by normalized Damerau-Levenshtein
	// similarity.
	MethodEditDistance Method = "editdistance"

	// MethodEmbedding delegates variant retrieval to an external
	// vector-space matcher.
	MethodEmbedding Method = "embedding"
)

// Valid reports whether m names a known matching strategy.
func (m Method) Valid() bool {
	switch m {
	case MethodExact, MethodContainment, MethodEditDistance, MethodEmbedding:
		return true
	}
	return false
}

// Target labels a gazetteer variant for pairwise comparison. String
// matchers require the target in this shape so that a raw string can
// never be confused with a variant record.
type Target struct {
	Variant string `json:"mentions" mapstructure:"mentions"`
}

// StringMatcher scores a query against one labeled gazetteer variant.
//
// Score returns the similarity in [0, 1] and whether the pair scores at
// all under this strategy. The target must be a Target record; any other
// value is an input-shape error.
type StringMatcher interface {
	Score(query string, target any) (float64, bool, error)
}

// NewStringMatcher returns the pairwise matcher for the given method.
// MethodEmbedding has no pairwise form and is rejected, as is any
// unknown method.
func NewStringMatcher(method Method) (StringMatcher, error) {
	switch method {
	case MethodExact:
		return exactMatcher{}, nil
	case MethodContainment:
		return containmentMatcher{}, nil
	case MethodEditDistance:
		return editDistanceMatcher{}, nil
	default:
		return nil, types.NewInputShapeError("exact, containment or editdistance method", string(method))
	}
}

// asTarget validates the comparison target shape shared by all pairwise
// matchers.
func asTarget(target any) (Target, error) {
	switch t := target.(type) {
	case Target:
		return t, nil
	case *Target:
		if t == nil {
			return Target{}, types.NewInputShapeError("ranking.Target", "nil *ranking.Target")
		}
		return *t, nil
	default:
		return Target{}, types.NewInputShapeError("ranking.Target", fmt.Sprintf("%T", t))
	}
}

type exactMatcher struct{}

func (exactMatcher) Score(query string, target any) (float64, bool, error) {
	t, err := asTarget(target)
	if err != nil {
		return 0, false, err
	}
	if query != t.Variant {
		return 0, false, nil
	}
	return 1.0, true, nil
}

type containmentMatcher struct{}

func (containmentMatcher) Score(query string, target any) (float64, bool, error) {
	t, err := asTarget(target)
	if err != nil {
		return 0, false, err
	}
	q := strings.ToLower(query)
	v := strings.ToLower(t.Variant)
	if !strings.Contains(q, v) && !strings.Contains(v, q) {
		return 0, false, nil
	}
	shorter := utf8.RuneCountInString(query)
	longer := utf8.RuneCountInString(t.Variant)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer == 0 {
		return 0, false, nil
	}
	return float64(shorter) / float64(longer), true, nil
}

type editDistanceMatcher struct{}

func (editDistanceMatcher) Score(query string, target any) (float64, bool, error) {
	t, err := asTarget(target)
	if err != nil {
		return 0, false, err
	}
	maxLen := utf8.RuneCountInString(query)
	if n := utf8.RuneCountInString(t.Variant); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0, false, nil
	}
	dist := matchr.DamerauLevenshtein(query, t.Variant)
	// Single-precision division matches the scores produced by the
	// vectorized distance backend this strategy was calibrated against.
	return 1.0 - float64(float32(dist)/float32(maxLen)), true, nil
}
