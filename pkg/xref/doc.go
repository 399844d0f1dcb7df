// Package xref maps external Wikipedia-title labels to knowledge-base
// identifiers.
//
// The delegated disambiguation scorer predicts Wikipedia-style page
// titles; linking needs the corresponding Wikidata identifier. Titles are
// normalized to the canonical resource key before lookup: spaces become
// underscores, non-ASCII bytes are percent-encoded, and keys longer than
// 200 bytes or containing a slash are replaced by the SHA-224 digest of
// the encoded form, mirroring the layout of the original resource. A
// missing title is a lookup miss, never an error.
//
// Two backends are provided: an in-memory map loaded from a JSON
// resource, and a SQLite index table mapping(wikipedia_title,
// wikidata_id).
package xref
