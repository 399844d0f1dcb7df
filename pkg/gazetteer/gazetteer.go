package gazetteer

import (
	"fmt"
	"os"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/soundprediction/toponimo/pkg/types"
)

// association is one variant ↔ identifier pair with its evidence.
type association struct {
	count     int64
	relevance float64
}

// Index is the in-memory gazetteer: every variant ↔ identifier association
// with raw counts and normalized relevance, addressable from both
// directions. Read-only after construction.
type Index struct {
	variants map[string]map[string]association // variant → identifier → association
	ids      map[string]map[string]association // identifier → variant → association
}

// New builds an Index from in-memory count maps: variantCounts maps variant
// → {identifier: count} and idCounts maps identifier → {variant: count}.
// Relevance is computed per association as count / total occurrences of the
// identifier across all its variants.
func New(variantCounts map[string]map[string]int64, idCounts map[string]map[string]int64) *Index {
	idx := &Index{
		variants: make(map[string]map[string]association, len(variantCounts)),
		ids:      make(map[string]map[string]association, len(idCounts)),
	}

	for id, mentions := range idCounts {
		var total int64
		for _, count := range mentions {
			total += count
		}
		entry := make(map[string]association, len(mentions))
		for variant, count := range mentions {
			var relevance float64
			if total > 0 {
				relevance = float64(count) / float64(total)
			}
			entry[variant] = association{count: count, relevance: relevance}
		}
		idx.ids[id] = entry
	}

	for variant, candidates := range variantCounts {
		entry := make(map[string]association, len(candidates))
		for id, count := range candidates {
			assoc := association{count: count}
			// Mirror the relevance computed on the identifier side.
			if mentions, ok := idx.ids[id]; ok {
				if a, ok := mentions[variant]; ok {
					assoc.relevance = a.relevance
				}
			}
			entry[id] = assoc
		}
		idx.variants[variant] = entry
	}

	return idx
}

// Load reads the two gazetteer resources from disk. Both files are JSON
// objects of string → {string: count}. Any missing or undecodable file
// yields a resource error.
func Load(variantsPath, idsPath string) (*Index, error) {
	variantCounts, err := loadCounts(variantsPath)
	if err != nil {
		return nil, err
	}
	idCounts, err := loadCounts(idsPath)
	if err != nil {
		return nil, err
	}
	return New(variantCounts, idCounts), nil
}

func loadCounts(path string) (map[string]map[string]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewResourceError(path, err)
	}
	var counts map[string]map[string]int64
	if err := sonic.Unmarshal(data, &counts); err != nil {
		return nil, types.NewResourceError(path, fmt.Errorf("decode: %w", err))
	}
	if counts == nil {
		return nil, types.NewResourceError(path, fmt.Errorf("decode: empty document"))
	}
	return counts, nil
}

// Contains reports whether the variant appears in the gazetteer.
func (x *Index) Contains(variant string) bool {
	_, ok := x.variants[variant]
	return ok
}

// Candidates returns the identifiers recorded for the variant, ordered by
// descending relevance with the identifier as tiebreaker. The second return
// is false when the variant is unknown.
func (x *Index) Candidates(variant string) ([]types.Candidate, bool) {
	entry, ok := x.variants[variant]
	if !ok {
		return nil, false
	}
	out := make([]types.Candidate, 0, len(entry))
	for id, assoc := range entry {
		out = append(out, types.Candidate{ID: id, Count: assoc.count, Relevance: assoc.relevance})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return out[i].ID < out[j].ID
	})
	return out, true
}

// RawCount returns the unfiltered occurrence count recorded for the
// (variant, identifier) pair, or false when the pair is unknown.
func (x *Index) RawCount(variant, id string) (int64, bool) {
	entry, ok := x.variants[variant]
	if !ok {
		return 0, false
	}
	assoc, ok := entry[id]
	if !ok {
		return 0, false
	}
	return assoc.count, true
}

// Relevance returns the normalized association for the (variant,
// identifier) pair, or false when the pair is unknown.
func (x *Index) Relevance(variant, id string) (float64, bool) {
	entry, ok := x.variants[variant]
	if !ok {
		return 0, false
	}
	assoc, ok := entry[id]
	if !ok {
		return 0, false
	}
	return assoc.relevance, true
}

// Variants returns every variant in the gazetteer in unspecified order.
func (x *Index) Variants() []string {
	out := make([]string, 0, len(x.variants))
	for v := range x.variants {
		out = append(out, v)
	}
	return out
}

// VariantsOf returns the variants recorded for the identifier, ordered by
// descending count with the variant as tiebreaker.
func (x *Index) VariantsOf(id string) []string {
	entry, ok := x.ids[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entry))
	for v := range entry {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := entry[out[i]], entry[out[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return out[i] < out[j]
	})
	return out
}

// Identifiers returns every identifier in the gazetteer in unspecified
// order.
func (x *Index) Identifiers() []string {
	out := make([]string, 0, len(x.ids))
	for id := range x.ids {
		out = append(out, id)
	}
	return out
}

// Counts exports both directions as raw count maps, the same shape Load
// reads. The maps are fresh copies; mutating them does not touch the index.
func (x *Index) Counts() (variants map[string]map[string]int64, ids map[string]map[string]int64) {
	variants = make(map[string]map[string]int64, len(x.variants))
	for variant, entry := range x.variants {
		counts := make(map[string]int64, len(entry))
		for id, assoc := range entry {
			counts[id] = assoc.count
		}
		variants[variant] = counts
	}
	ids = make(map[string]map[string]int64, len(x.ids))
	for id, entry := range x.ids {
		counts := make(map[string]int64, len(entry))
		for variant, assoc := range entry {
			counts[variant] = assoc.count
		}
		ids[id] = counts
	}
	return variants, ids
}

// VariantCount returns the number of distinct variants.
func (x *Index) VariantCount() int {
	return len(x.variants)
}

// IdentifierCount returns the number of distinct identifiers.
func (x *Index) IdentifierCount() int {
	return len(x.ids)
}
