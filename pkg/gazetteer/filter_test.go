package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDropsQualifiedAndRareVariants(t *testing.T) {
	idx := testIndex()
	filtered := idx.Filter(DefaultFilterConfig())

	// "London, UK" is qualified noise, "Lundenwic" falls below the
	// relevance threshold.
	assert.False(t, filtered.Contains("London, UK"))
	assert.False(t, filtered.Contains("Lundenwic"))

	assert.True(t, filtered.Contains("London"))
	assert.True(t, filtered.Contains("Londres"))
	assert.True(t, filtered.Contains("Bethnal Green"))

	// Strict subset of the raw index.
	assert.Less(t, filtered.VariantCount(), idx.VariantCount())

	// Every surviving variant keeps at least one candidate.
	for _, variant := range filtered.Variants() {
		cands, ok := filtered.Candidates(variant)
		require.True(t, ok)
		assert.NotEmpty(t, cands, "variant %q lost all candidates", variant)
	}
}

func TestFilterKeepsQualifiedWhenStrippingWouldEmpty(t *testing.T) {
	idx := testIndex()
	filtered := idx.Filter(DefaultFilterConfig())

	// Q79848 only has qualified variants, so they survive untouched.
	assert.True(t, filtered.Contains("Sheffield, Alabama"))
	assert.True(t, filtered.Contains("Sheffield (Alabama)"))

	variants := filtered.VariantsOf("Q79848")
	assert.Len(t, variants, 2)
}

func TestFilterPreservesRelevanceValues(t *testing.T) {
	idx := testIndex()
	filtered := idx.Filter(DefaultFilterConfig())

	before, ok := idx.Relevance("London", "Q84")
	require.True(t, ok)
	after, ok := filtered.Relevance("London", "Q84")
	require.True(t, ok)
	assert.Equal(t, before, after)

	beforeCount, _ := idx.RawCount("Londres", "Q84")
	afterCount, ok := filtered.RawCount("Londres", "Q84")
	require.True(t, ok)
	assert.Equal(t, beforeCount, afterCount)
}

func TestFilterIsIdempotent(t *testing.T) {
	cfg := DefaultFilterConfig()
	once := testIndex().Filter(cfg)
	twice := once.Filter(cfg)

	assert.Equal(t, once.VariantCount(), twice.VariantCount())
	assert.Equal(t, once.IdentifierCount(), twice.IdentifierCount())

	for _, variant := range once.Variants() {
		beforeCands, ok := once.Candidates(variant)
		require.True(t, ok)
		afterCands, ok := twice.Candidates(variant)
		require.True(t, ok, "variant %q lost by second filter", variant)
		assert.Equal(t, beforeCands, afterCands)
	}
}

func TestFilterTopMentionsCap(t *testing.T) {
	idx := testIndex()

	filtered := idx.Filter(FilterConfig{TopMentions: 1, MinimumRelevance: 0})

	// Only the most frequent variant of each identifier survives.
	assert.Equal(t, []string{"London"}, filtered.VariantsOf("Q84"))
	assert.Equal(t, []string{"London"}, filtered.VariantsOf("Q92561"))
	assert.Equal(t, []string{"Sheffield, Alabama"}, filtered.VariantsOf("Q79848"))
}

func TestFilterThresholdCanEraseIdentifier(t *testing.T) {
	idx := testIndex()

	filtered := idx.Filter(FilterConfig{TopMentions: 3, MinimumRelevance: 0.99})

	// London carries 0.897 of Q84 and 0.537 of Q92561: neither clears
	// the bar, so both identifiers vanish entirely.
	assert.Equal(t, 0, filtered.IdentifierCount())
	assert.Equal(t, 0, filtered.VariantCount())
}

func TestHasQualifier(t *testing.T) {
	tests := []struct {
		variant string
		want    bool
	}{
		{"London", false},
		{"Paris, Texas", true},
		{"Boston (Lincolnshire)", true},
		{"Stratford-upon-Avon", false},
		{"Wich, near Worcester", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			assert.Equal(t, tt.want, hasQualifier(tt.variant))
		})
	}
}
