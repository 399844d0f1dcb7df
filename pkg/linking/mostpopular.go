package linking

import (
	"context"
	"log/slog"
	"math"

	"github.com/soundprediction/toponimo/pkg/types"
)

// DefaultExponent is the sharpening exponent applied to candidate
// relevances when no raw counts are available.
const DefaultExponent = 2.0

// MostPopular is the frequency baseline: the winning identifier is the one
// with the highest raw gazetteer count across every (variant, candidate)
// pair of the set, and the confidence is that count's share of the summed
// mass.
type MostPopular struct {
	exponent float64
	logger   *slog.Logger
}

// NewMostPopular builds the frequency strategy.
func NewMostPopular(config Config, logger *slog.Logger) *MostPopular {
	if logger == nil {
		logger = slog.Default()
	}
	exponent := config.Exponent
	if exponent <= 0 {
		exponent = DefaultExponent
	}
	return &MostPopular{exponent: exponent, logger: logger}
}

// Method implements Disambiguator.
func (d *MostPopular) Method() Method { return MethodMostPopular }

// PerformLinking implements Disambiguator. The strategy needs neither the
// document context nor any external resource, so it never fails.
func (d *MostPopular) PerformLinking(_ context.Context, batch Batch) ([]types.Prediction, error) {
	predictions := make([]types.Prediction, len(batch.Mentions))
	for i, mc := range batch.Mentions {
		predictions[i] = d.predict(mc.Candidates)
	}
	return predictions, nil
}

// predict walks every (variant, candidate) pair in order. A candidate
// reached through several variants keeps its first-seen position in the
// distribution while each occurrence contributes to the total mass, and the
// last occurrence's score is the one kept for it.
func (d *MostPopular) predict(set types.CandidateSet) types.Prediction {
	if set.Empty() {
		return types.NilPrediction()
	}

	score := rawCount
	if !hasCounts(set) {
		// Candidate sets built without gazetteer counts still rank:
		// sharpened relevances stand in for the frequency signal.
		exp := d.exponent
		score = func(c types.Candidate) float64 {
			return math.Pow(c.Relevance, exp)
		}
	}

	var (
		winner string
		best   float64
		total  float64
		order  []string
		scores = make(map[string]float64)
	)
	for _, v := range set.Variants {
		for _, c := range v.Candidates {
			s := score(c)
			total += s
			if s > best {
				best = s
				winner = c.ID
			}
			if _, ok := scores[c.ID]; !ok {
				order = append(order, c.ID)
			}
			scores[c.ID] = s
		}
	}
	if winner == "" || total <= 0 {
		return types.NilPrediction()
	}

	distribution := make([]types.Weight, 0, len(order))
	for _, id := range order {
		distribution = append(distribution, types.Weight{ID: id, Value: scores[id] / total})
	}
	return types.Prediction{
		ID:           winner,
		Confidence:   best / total,
		Distribution: distribution,
	}
}

func rawCount(c types.Candidate) float64 { return float64(c.Count) }

// hasCounts reports whether any candidate in the set carries a raw count.
func hasCounts(set types.CandidateSet) bool {
	for _, v := range set.Variants {
		for _, c := range v.Candidates {
			if c.Count > 0 {
				return true
			}
		}
	}
	return false
}
