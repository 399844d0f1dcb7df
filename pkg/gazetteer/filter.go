package gazetteer

import (
	"sort"
	"strings"
)

// FilterConfig controls gazetteer noise filtering.
type FilterConfig struct {
	// TopMentions keeps at most N variants per identifier, most frequent
	// first. Zero or negative disables the cap.
	TopMentions int `json:"top_mentions" mapstructure:"top_mentions"`
	// MinimumRelevance drops associations whose normalized relevance
	// falls below the threshold.
	MinimumRelevance float64 `json:"minimum_relevance" mapstructure:"minimum_relevance"`
}

// DefaultFilterConfig returns the filtering thresholds used in production.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		TopMentions:      3,
		MinimumRelevance: 0.03,
	}
}

// hasQualifier reports whether a variant carries a disambiguating qualifier
// such as "Paris, Texas" or "Boston (Lincolnshire)". Qualified variants are
// gazetteer noise: they never occur verbatim as mentions in running text.
func hasQualifier(variant string) bool {
	return strings.Contains(variant, ", ") || strings.Contains(variant, " (")
}

// Filter returns a new Index containing only the associations that survive
// noise filtering. Per identifier: qualified variants are excluded, unless
// that would leave the identifier with no variants at all, in which case
// the original set is kept; the surviving variants are then capped to the
// top-N most frequent and thresholded on relevance. Both directions are
// rebuilt from the surviving associations, so the result stays mutually
// consistent, and relevance values are carried over unchanged. Filtering is
// idempotent.
func (x *Index) Filter(cfg FilterConfig) *Index {
	filtered := &Index{
		variants: make(map[string]map[string]association),
		ids:      make(map[string]map[string]association, len(x.ids)),
	}

	for id, mentions := range x.ids {
		kept := make([]string, 0, len(mentions))
		for variant := range mentions {
			if !hasQualifier(variant) {
				kept = append(kept, variant)
			}
		}
		if len(kept) == 0 {
			for variant := range mentions {
				kept = append(kept, variant)
			}
		}

		sortByCount(kept, mentions)
		if cfg.TopMentions > 0 && len(kept) > cfg.TopMentions {
			kept = kept[:cfg.TopMentions]
		}

		entry := make(map[string]association)
		for _, variant := range kept {
			assoc := mentions[variant]
			if assoc.relevance < cfg.MinimumRelevance {
				continue
			}
			entry[variant] = assoc
		}
		if len(entry) == 0 {
			continue
		}
		filtered.ids[id] = entry

		for variant, assoc := range entry {
			if _, ok := filtered.variants[variant]; !ok {
				filtered.variants[variant] = make(map[string]association)
			}
			filtered.variants[variant][id] = assoc
		}
	}

	return filtered
}

// sortByCount orders variants by descending count, breaking ties on the
// variant string so the top-N cut is deterministic.
func sortByCount(variants []string, mentions map[string]association) {
	sort.Slice(variants, func(i, j int) bool {
		a, b := mentions[variants[i]], mentions[variants[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return variants[i] < variants[j]
	})
}
