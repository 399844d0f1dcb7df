package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/toponimo/pkg/types"
)

// testCounts builds the fixture used across the package tests. The inverse
// direction is derived so both maps stay mutually consistent.
func testCounts() (map[string]map[string]int64, map[string]map[string]int64) {
	idCounts := map[string]map[string]int64{
		"Q84": {
			"London":     76938,
			"Londres":    8500,
			"London, UK": 300,
			"Lundenwic":  20,
		},
		"Q92561": {
			"Bethnal Green": 700,
			"London":        811,
		},
		"Q79848": {
			"Sheffield, Alabama":  50,
			"Sheffield (Alabama)": 10,
		},
	}

	variantCounts := make(map[string]map[string]int64)
	for id, mentions := range idCounts {
		for variant, count := range mentions {
			if variantCounts[variant] == nil {
				variantCounts[variant] = make(map[string]int64)
			}
			variantCounts[variant][id] = count
		}
	}
	return variantCounts, idCounts
}

func testIndex() *Index {
	return New(testCounts())
}

func TestNewComputesRelevance(t *testing.T) {
	idx := testIndex()

	// Q84 total = 76938 + 8500 + 300 + 20 = 85758
	relv, ok := idx.Relevance("London", "Q84")
	require.True(t, ok)
	assert.InDelta(t, 76938.0/85758.0, relv, 1e-12)

	relv, ok = idx.Relevance("London", "Q92561")
	require.True(t, ok)
	assert.InDelta(t, 811.0/1511.0, relv, 1e-12)

	count, ok := idx.RawCount("London", "Q84")
	require.True(t, ok)
	assert.Equal(t, int64(76938), count)

	_, ok = idx.Relevance("Paperopoli", "Q84")
	assert.False(t, ok)
	_, ok = idx.RawCount("London", "Q0")
	assert.False(t, ok)
}

func TestCandidatesOrdering(t *testing.T) {
	idx := testIndex()

	cands, ok := idx.Candidates("London")
	require.True(t, ok)
	require.Len(t, cands, 2)

	// Q84 carries 0.897 of its identifier, Q92561 only 0.537.
	assert.Equal(t, "Q84", cands[0].ID)
	assert.Equal(t, "Q92561", cands[1].ID)
	assert.Greater(t, cands[0].Relevance, cands[1].Relevance)

	_, ok = idx.Candidates("Paperopoli")
	assert.False(t, ok)
}

func TestVariantsOf(t *testing.T) {
	idx := testIndex()

	variants := idx.VariantsOf("Q84")
	require.Len(t, variants, 4)
	assert.Equal(t, "London", variants[0]) // highest count first
	assert.Equal(t, "Londres", variants[1])

	assert.Nil(t, idx.VariantsOf("Q0"))
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	variantsPath := filepath.Join(dir, "mentions_to_wikidata.json")
	idsPath := filepath.Join(dir, "wikidata_to_mentions.json")

	require.NoError(t, os.WriteFile(variantsPath, []byte(
		`{"London": {"Q84": 76938, "Q92561": 811}}`), 0o644))
	require.NoError(t, os.WriteFile(idsPath, []byte(
		`{"Q84": {"London": 76938}, "Q92561": {"London": 811, "Bethnal Green": 700}}`), 0o644))

	idx, err := Load(variantsPath, idsPath)
	require.NoError(t, err)

	assert.True(t, idx.Contains("London"))
	assert.Equal(t, 1, idx.VariantCount())
	assert.Equal(t, 2, idx.IdentifierCount())

	relv, ok := idx.Relevance("London", "Q84")
	require.True(t, ok)
	assert.Equal(t, 1.0, relv)

	relv, ok = idx.Relevance("London", "Q92561")
	require.True(t, ok)
	assert.InDelta(t, 811.0/1511.0, relv, 1e-12)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"London": {"Q84": 1}}`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"London": [1, 2]}`), 0o644))

	tests := []struct {
		name         string
		variantsPath string
		idsPath      string
	}{
		{"missing variants file", filepath.Join(dir, "absent.json"), good},
		{"missing ids file", good, filepath.Join(dir, "absent.json")},
		{"malformed variants file", bad, good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.variantsPath, tt.idsPath)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrResource)
		})
	}
}
