package linking

import (
	"context"
	"log/slog"
	"math"

	"github.com/umahmood/haversine"

	"github.com/soundprediction/toponimo/pkg/kb"
	"github.com/soundprediction/toponimo/pkg/types"
)

// ByDistance is the distance baseline: candidates are scored by inverse
// haversine distance to the document's place of publication, so the nearest
// candidate wins. Documents without publication metadata, and candidates
// without coordinates, fall out of the decision.
type ByDistance struct {
	store  kb.Store
	logger *slog.Logger
}

// NewByDistance builds the distance strategy around the coordinate store in
// config.Coordinates.
func NewByDistance(config Config, logger *slog.Logger) *ByDistance {
	if logger == nil {
		logger = slog.Default()
	}
	return &ByDistance{store: config.Coordinates, logger: logger}
}

// Method implements Disambiguator.
func (d *ByDistance) Method() Method { return MethodByDistance }

// PerformLinking implements Disambiguator. Every mention in the batch is
// scored against the same reference point, the document's place of
// publication. When the reference cannot be resolved the whole batch
// resolves to NIL.
func (d *ByDistance) PerformLinking(ctx context.Context, batch Batch) ([]types.Prediction, error) {
	predictions := make([]types.Prediction, len(batch.Mentions))
	for i := range predictions {
		predictions[i] = types.NilPrediction()
	}

	if batch.Document.PlaceID == "" {
		return predictions, nil
	}
	reference, ok, err := d.store.Coordinates(ctx, batch.Document.PlaceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		d.logger.Debug("place of publication has no coordinates",
			"document_id", batch.Document.ID,
			"place_wqid", batch.Document.PlaceID)
		return predictions, nil
	}

	for i, mc := range batch.Mentions {
		prediction, err := d.predict(ctx, reference, mc.Candidates)
		if err != nil {
			return nil, err
		}
		predictions[i] = prediction
	}
	return predictions, nil
}

// predict scores each distinct candidate as 1/(1+km) from the reference
// point. Scores are re-normalized over the candidates that have coordinates
// and rounded to three decimals.
func (d *ByDistance) predict(ctx context.Context, reference kb.Coord, set types.CandidateSet) (types.Prediction, error) {
	var (
		winner string
		best   = math.Inf(-1)
		total  float64
		order  []string
		scores = make(map[string]float64)
	)
	for _, id := range set.Identifiers() {
		coord, ok, err := d.store.Coordinates(ctx, id)
		if err != nil {
			return types.Prediction{}, err
		}
		if !ok {
			continue
		}
		_, km := haversine.Distance(
			haversine.Coord{Lat: reference.Lat, Lon: reference.Lon},
			haversine.Coord{Lat: coord.Lat, Lon: coord.Lon},
		)
		s := 1.0 / (1.0 + km)
		total += s
		if s > best {
			best = s
			winner = id
		}
		order = append(order, id)
		scores[id] = s
	}
	if winner == "" || total <= 0 {
		return types.NilPrediction(), nil
	}

	distribution := make([]types.Weight, 0, len(order))
	for _, id := range order {
		distribution = append(distribution, types.Weight{ID: id, Value: round3(scores[id] / total)})
	}
	return types.Prediction{
		ID:           winner,
		Confidence:   round3(best / total),
		Distribution: distribution,
	}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
