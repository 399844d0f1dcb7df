package linking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/toponimo/pkg/kb"
	"github.com/soundprediction/toponimo/pkg/types"
)

func testCoordinates() kb.Store {
	return kb.NewStaticStore(map[string]kb.Coord{
		"Q84":    {Lat: 51.50853, Lon: -0.12574}, // London
		"Q92561": {Lat: 51.527, Lon: -0.055},     // Bethnal Green
		"Q90":    {Lat: 48.85341, Lon: 2.3488},   // Paris
	})
}

func distanceBatch(placeID string, sets ...types.CandidateSet) Batch {
	batch := Batch{
		Document: types.Document{
			ID:        "d1",
			Sentences: []types.Sentence{{ID: "s0", Text: "A dispatch."}},
			Place:     "London",
			PlaceID:   placeID,
		},
	}
	for i, set := range sets {
		batch.Mentions = append(batch.Mentions, MentionCandidates{
			Mention:    mentionAt(set.Mention, "s0", i*20),
			Candidates: set,
		})
	}
	return batch
}

func candidatesFor(mention string, ids ...string) types.CandidateSet {
	variant := types.VariantCandidates{Variant: mention, Score: 1.0}
	for _, id := range ids {
		variant.Candidates = append(variant.Candidates, types.Candidate{ID: id, Count: 10, Relevance: 0.5})
	}
	return types.CandidateSet{Mention: mention, Variants: []types.VariantCandidates{variant}}
}

func newDistance(t *testing.T) *ByDistance {
	t.Helper()
	config := DefaultConfig(MethodByDistance)
	config.Coordinates = testCoordinates()
	return NewByDistance(config, nil)
}

func TestByDistanceNearerCandidateWins(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q84", candidatesFor("Bethnal Green", "Q90", "Q92561"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, predictions, 1)

	p := predictions[0]
	assert.Equal(t, "Q92561", p.ID)
	assert.Greater(t, p.Confidence, 0.5)
	assert.LessOrEqual(t, p.Confidence, 1.0)
	require.Len(t, p.Distribution, 2)
	assert.Greater(t, p.Weight("Q92561"), p.Weight("Q90"))
	assert.InDelta(t, 1.0, p.Weight("Q92561")+p.Weight("Q90"), 0.002)
}

func TestByDistanceReferenceAtCandidate(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q84", candidatesFor("London", "Q90", "Q84"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, "Q84", predictions[0].ID)
}

func TestByDistanceSingleCandidate(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q84", candidatesFor("Paris", "Q90"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)

	p := predictions[0]
	assert.Equal(t, "Q90", p.ID)
	assert.Equal(t, 1.0, p.Confidence)
}

func TestByDistanceNoPublicationPlace(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("", candidatesFor("London", "Q84"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, predictions[0].IsNil())
}

func TestByDistanceUnknownPublicationPlace(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q999999", candidatesFor("London", "Q84"), candidatesFor("Paris", "Q90"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, predictions, 2)
	assert.True(t, predictions[0].IsNil())
	assert.True(t, predictions[1].IsNil())
}

func TestByDistanceCandidatesWithoutCoordinates(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q84", candidatesFor("Nowhere", "Q111111", "Q222222"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, predictions[0].IsNil())
}

func TestByDistanceSkipsUnlocatedCandidates(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q84", candidatesFor("Bethnal Green", "Q111111", "Q92561"))

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)

	p := predictions[0]
	assert.Equal(t, "Q92561", p.ID)
	require.Len(t, p.Distribution, 1)
	assert.Equal(t, 1.0, p.Confidence)
}

func TestByDistanceEmptySet(t *testing.T) {
	d := newDistance(t)
	batch := distanceBatch("Q84", types.CandidateSet{Mention: "Atlantis"})

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, predictions[0].IsNil())
}
