package linking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/toponimo/pkg/types"
	"github.com/soundprediction/toponimo/pkg/xref"
)

func testCrossRef() xref.Store {
	return xref.NewMemoryStore(map[string]string{
		"London":                                "Q84",
		"Metropolitan Borough of Bethnal Green": "Q92561",
		"Paris":                                 "Q90",
	})
}

func delegatedConfig(scorer Scorer) Config {
	config := DefaultConfig(MethodDelegated)
	config.Scorer = scorer
	config.CrossRef = testCrossRef()
	return config
}

func twoSentenceBatch() Batch {
	set := types.CandidateSet{
		Mention: "London",
		Variants: []types.VariantCandidates{
			{
				Variant: "London",
				Score:   1.0,
				Candidates: []types.Candidate{
					{ID: "Q84", Count: 100, Relevance: 0.8},
					{ID: "Q92561", Count: 50, Relevance: 0.2},
				},
			},
		},
	}
	return Batch{
		Document: types.Document{
			ID: "d1",
			Sentences: []types.Sentence{
				{ID: "s0", Text: "He left London on Friday."},
				{ID: "s1", Text: "Paris was quiet."},
			},
			Place:   "London",
			PlaceID: "Q84",
		},
		Mentions: []MentionCandidates{
			{Mention: mentionAt("London", "s0", 8), Candidates: set},
			{Mention: mentionAt("Paris", "s1", 0), Candidates: candidatesFor("Paris", "Q90")},
		},
	}
}

func respondTo(batch Batch, labels map[string]string) map[string][]ScorerPrediction {
	response := make(map[string][]ScorerPrediction)
	for _, mc := range batch.Mentions {
		m := mc.Mention
		response[m.SentenceID] = append(response[m.SentenceID], ScorerPrediction{
			Mention:    m.Text,
			Prediction: labels[m.Text],
			Confidence: 0.95,
			Position:   m.Start,
		})
	}
	return response
}

func TestDelegatedRequestShape(t *testing.T) {
	batch := twoSentenceBatch()
	scorer := &MockScorer{Responses: respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, 1, scorer.Calls())

	request := scorer.LastBatch()
	require.Len(t, request, 3)

	require.Len(t, request["s0"], 1)
	row := request["s0"][0]
	assert.Equal(t, "London", row.Mention)
	assert.Equal(t, "London", row.Ngram)
	assert.Equal(t, [2]string{"", "Paris was quiet."}, row.Context)
	assert.Equal(t, []string{"NONE"}, row.Gold)
	assert.Equal(t, 8, row.Position)
	assert.Equal(t, 14, row.EndPosition)
	assert.Equal(t, "LOC", row.Tag)
	assert.Equal(t, 0.99, row.NERScore)
	assert.Equal(t, "He left London on Friday.", row.Sentence)
	assert.Equal(t, "London", row.Place)
	assert.Equal(t, "Q84", row.PlaceID)

	require.Len(t, request["s1"], 1)
	assert.Equal(t, [2]string{"He left London on Friday.", ""}, request["s1"][0].Context)
}

func TestDelegatedRanksForwardedCandidates(t *testing.T) {
	batch := twoSentenceBatch()
	scorer := &MockScorer{Responses: respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)

	// Q84: raw share 1.0, s2 (0.8+1.0)/2 -> ((1.0+0.9)/2)*0.9 = 0.855.
	// Q92561: raw share 0.5, s2 0.6 -> ((0.5+0.6)/2)*0.9 = 0.495.
	got := scorer.LastBatch()["s0"][0].Candidates
	assert.Equal(t, []ScorerCandidate{
		{Label: "Q84", Score: 0.855},
		{Label: "Q92561", Score: 0.495},
	}, got)
}

func TestDelegatedPublicationMention(t *testing.T) {
	batch := twoSentenceBatch()
	scorer := &MockScorer{Responses: respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)

	rows := scorer.LastBatch()[publicationSentenceID]
	require.Len(t, rows, 1)
	pub := rows[0]
	assert.Equal(t, "London", pub.Mention)
	assert.Equal(t, "This article is published in London.", pub.Sentence)
	assert.Equal(t, 29, pub.Position)
	assert.Equal(t, 35, pub.EndPosition)
	assert.Equal(t, []ScorerCandidate{{Label: "Q84", Score: 1.0}}, pub.Candidates)
}

func TestDelegatedNoPublicationWithoutPlace(t *testing.T) {
	batch := twoSentenceBatch()
	batch.Document.Place = ""
	batch.Document.PlaceID = ""
	scorer := &MockScorer{Responses: respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	assert.NotContains(t, scorer.LastBatch(), publicationSentenceID)
}

func TestDelegatedMapsLabelsToIdentifiers(t *testing.T) {
	batch := twoSentenceBatch()
	response := respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})
	response["s0"][0].Candidates = []ScorerCandidate{
		{Label: "London", Score: 0.9},
		{Label: "Metropolitan_Borough_of_Bethnal_Green", Score: 0.1},
	}
	scorer := &MockScorer{Responses: response}
	d := NewDelegated(delegatedConfig(scorer), nil)

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, predictions, 2)

	p := predictions[0]
	assert.Equal(t, "Q84", p.ID)
	assert.Equal(t, 0.95, p.Confidence)
	assert.Equal(t, []types.Weight{
		{ID: "Q84", Value: 0.9},
		{ID: "Q92561", Value: 0.1},
	}, p.Distribution)

	assert.Equal(t, "Q90", predictions[1].ID)
}

func TestDelegatedNoEntityOutputsBecomeNil(t *testing.T) {
	batch := twoSentenceBatch()
	response := respondTo(batch, map[string]string{"London": types.NIL, "Paris": "Lost_City_of_Atlantis"})
	scorer := &MockScorer{Responses: response}
	d := NewDelegated(delegatedConfig(scorer), nil)

	predictions, err := d.PerformLinking(context.Background(), batch)
	require.NoError(t, err)

	// An explicit no-entity label and an unmappable label both land on NIL.
	assert.True(t, predictions[0].IsNil())
	assert.Zero(t, predictions[0].Confidence)
	assert.True(t, predictions[1].IsNil())
}

func TestDelegatedCountMismatch(t *testing.T) {
	batch := twoSentenceBatch()
	response := respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})
	delete(response, "s1")
	scorer := &MockScorer{Responses: response}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExternalModel)

	var modelErr *types.ExternalModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, "d1", modelErr.DocumentID)
}

func TestDelegatedSpanMismatch(t *testing.T) {
	batch := twoSentenceBatch()
	response := respondTo(batch, map[string]string{"London": "London", "Paris": "Paris"})
	response["s0"][0].Position = 99
	scorer := &MockScorer{Responses: response}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), batch)
	assert.ErrorIs(t, err, types.ErrExternalModel)
}

func TestDelegatedTagsScorerFailureWithDocument(t *testing.T) {
	scorer := &MockScorer{Err: types.NewExternalModelError("", errors.New("connection refused"))}
	d := NewDelegated(delegatedConfig(scorer), nil)

	_, err := d.PerformLinking(context.Background(), twoSentenceBatch())
	require.Error(t, err)

	var modelErr *types.ExternalModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, "d1", modelErr.DocumentID)
	assert.NotContains(t, modelErr.Error(), "external model: external model")
}

func TestDelegatedEmptyBatch(t *testing.T) {
	scorer := &MockScorer{}
	d := NewDelegated(delegatedConfig(scorer), nil)

	predictions, err := d.PerformLinking(context.Background(), Batch{
		Document: types.Document{ID: "d1", Sentences: []types.Sentence{{ID: "s0", Text: "Nothing here."}}},
	})
	require.NoError(t, err)
	assert.Empty(t, predictions)
	assert.Zero(t, scorer.Calls())
}
