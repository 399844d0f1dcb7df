// Package ranking generates ranked knowledge-base candidates for place-name
// mentions.
//
// A Ranker is constructed with one matching strategy — exact, containment,
// edit distance, or embedding retrieval — and a loaded gazetteer index. Its
// single entry point, FindCandidates, maps each mention to a CandidateSet:
// the gazetteer variants that matched, the match confidence per variant, and
// the identifiers the gazetteer records for each variant.
//
// # Strategies
//
// The strategy is selected through the closed Method enumeration at
// construction:
//   - MethodExact: case-sensitive equality against the gazetteer
//   - MethodContainment: case-insensitive substring overlap
//   - MethodEditDistance: normalized Damerau-Levenshtein similarity
//   - MethodEmbedding: delegated vector-space retrieval (external)
//
// String strategies are pure pairwise primitives exposed through the
// StringMatcher interface; the comparison target is always a labeled Target
// record, and passing anything else is an input-shape error.
//
// # Memoization
//
// Within one Ranker session each distinct raw surface form is matched at
// most once; repeated mentions are served from the session memo. The
// Computations counter makes the guarantee observable. An optional
// CandidateStore persists match results across sessions.
package ranking
