package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/toponimo/pkg/gazetteer"
	"github.com/soundprediction/toponimo/pkg/types"
)

func testIndex() *gazetteer.Index {
	return gazetteer.New(
		map[string]map[string]int64{
			"London":            {"Q84": 76938, "Q92561": 811},
			"Londres":           {"Q84": 8500},
			"Lundenwic":         {"Q84": 20},
			"Bethnal Green":     {"Q92561": 700},
			"Ashton-under-Lyne": {"Q659803": 5000},
		},
		map[string]map[string]int64{
			"Q84":     {"London": 76938, "Londres": 8500, "Lundenwic": 20},
			"Q92561":  {"London": 811, "Bethnal Green": 700},
			"Q659803": {"Ashton-under-Lyne": 5000},
		},
	)
}

func mention(text string) types.Mention {
	return types.Mention{Text: text, Start: 0, End: len(text), Tag: "LOC", Score: 0.99}
}

type fakeEmbedder struct {
	calls   int
	queries [][]string
	result  map[string]map[string]float64
	err     error
}

func (f *fakeEmbedder) Rank(_ context.Context, mentions []string) (map[string]map[string]float64, error) {
	f.calls++
	f.queries = append(f.queries, append([]string(nil), mentions...))
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Method: Method("deezy")}.Validate())
	assert.Error(t, Config{Method: MethodEmbedding}.Validate())
	assert.Error(t, Config{Method: MethodExact, MinScore: 1.5}.Validate())
}

func TestFindCandidatesPerfectMatch(t *testing.T) {
	r, err := NewRanker(testIndex(), Config{Method: MethodEditDistance}, nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("London")})
	require.NoError(t, err)
	require.Len(t, sets, 1)

	set := sets["London"]
	require.Len(t, set.Variants, 1)
	v := set.Variants[0]
	assert.Equal(t, "London", v.Variant)
	assert.Equal(t, 1.0, v.Score)

	require.Len(t, v.Candidates, 2)
	assert.Equal(t, "Q84", v.Candidates[0].ID)
	assert.Equal(t, int64(76938), v.Candidates[0].Count)
	assert.InDelta(t, 76938.0/85458.0, v.Candidates[0].Relevance, 1e-12)
	assert.Equal(t, "Q92561", v.Candidates[1].ID)

	assert.EqualValues(t, 1, r.Computations())
}

func TestFindCandidatesMemoizesRepeatedMentions(t *testing.T) {
	r, err := NewRanker(testIndex(), Config{Method: MethodEditDistance}, nil)
	require.NoError(t, err)

	batch := []types.Mention{mention("Lvndon"), mention("Lvndon"), mention("Lvndon")}
	first, err := r.FindCandidates(context.Background(), batch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Computations())

	second, err := r.FindCandidates(context.Background(), batch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Computations())
	assert.Equal(t, first, second)
}

func TestFindCandidatesEditDistanceTopGroup(t *testing.T) {
	r, err := NewRanker(testIndex(), Config{Method: MethodEditDistance}, nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("Lvndon")})
	require.NoError(t, err)

	set := sets["Lvndon"]
	require.Len(t, set.Variants, 1)
	assert.Equal(t, "London", set.Variants[0].Variant)
	assert.Equal(t, 0.8333333283662796, set.Variants[0].Score)
	assert.Equal(t, []string{"Q84", "Q92561"}, set.Identifiers())
}

func TestFindCandidatesContainmentTopGroup(t *testing.T) {
	r, err := NewRanker(testIndex(), Config{Method: MethodContainment}, nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("Ashton")})
	require.NoError(t, err)

	set := sets["Ashton"]
	require.Len(t, set.Variants, 1)
	assert.Equal(t, "Ashton-under-Lyne", set.Variants[0].Variant)
	assert.Equal(t, 6.0/17.0, set.Variants[0].Score)
	assert.Equal(t, []string{"Q659803"}, set.Identifiers())
}

func TestFindCandidatesExactMissYieldsEmptySet(t *testing.T) {
	r, err := NewRanker(testIndex(), DefaultConfig(), nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("Lvndon")})
	require.NoError(t, err)

	set, ok := sets["Lvndon"]
	require.True(t, ok)
	assert.Equal(t, "Lvndon", set.Mention)
	assert.True(t, set.Empty())
}

func TestFindCandidatesMinScoreFloor(t *testing.T) {
	r, err := NewRanker(testIndex(), Config{Method: MethodEditDistance, MinScore: 0.9}, nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("Lvndon")})
	require.NoError(t, err)
	assert.True(t, sets["Lvndon"].Empty())
}

func TestFindCandidatesNormalizesWhitespace(t *testing.T) {
	r, err := NewRanker(testIndex(), Config{Method: MethodEditDistance}, nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("  London  ")})
	require.NoError(t, err)

	set, ok := sets["London"]
	require.True(t, ok)
	require.Len(t, set.Variants, 1)
	assert.Equal(t, 1.0, set.Variants[0].Score)
}

func TestFindCandidatesNotLoaded(t *testing.T) {
	r, err := NewRanker(nil, DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = r.FindCandidates(context.Background(), []types.Mention{mention("London")})
	assert.ErrorIs(t, err, types.ErrNotLoaded)
}

func TestFindCandidatesRejectsInvalidMention(t *testing.T) {
	r, err := NewRanker(testIndex(), DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = r.FindCandidates(context.Background(), []types.Mention{{Text: ""}})
	assert.ErrorIs(t, err, types.ErrEmptyMention)
}

func TestFindCandidatesEmbedding(t *testing.T) {
	fake := &fakeEmbedder{result: map[string]map[string]float64{
		"Lundun": {"London": 0.91, "Atlantis": 0.5},
	}}
	r, err := NewRanker(testIndex(), Config{Method: MethodEmbedding, Embedder: fake}, nil)
	require.NoError(t, err)

	sets, err := r.FindCandidates(context.Background(), []types.Mention{mention("London"), mention("Lundun")})
	require.NoError(t, err)

	// Known surface forms resolve as perfect matches without a lookup.
	require.Equal(t, 1, fake.calls)
	assert.Equal(t, [][]string{{"Lundun"}}, fake.queries)
	assert.Equal(t, 1.0, sets["London"].Variants[0].Score)

	set := sets["Lundun"]
	require.Len(t, set.Variants, 1)
	assert.Equal(t, "London", set.Variants[0].Variant)
	assert.Equal(t, 0.91, set.Variants[0].Score)
}
