// Package gazetteer loads and filters the surface-form gazetteer: the
// bipartite mapping between place-name variants and knowledge-base
// identifiers, weighted by occurrence counts.
//
// The resource consists of two JSON objects loaded independently: variant →
// {identifier: count} and identifier → {variant: count}. Every association
// appears identically in both directions. At load time the package computes
// a normalized relevance per association (the share of an identifier's
// total occurrences carried by one variant); filtering drops associations
// but never recomputes relevance, so surviving values are stable across
// repeated filtering.
//
// An Index is immutable after construction and safe for concurrent readers;
// Filter returns a new Index rather than mutating in place.
package gazetteer
