// Package kb resolves knowledge-base identifiers to geographic
// coordinates.
//
// The distance-based disambiguation strategy needs a latitude/longitude
// per candidate identifier. This package provides that lookup behind the
// Store interface with three backends selected through the Provider
// enumeration: a static JSON resource held in memory, a Neo4j graph of
// Place nodes, and an embedded Ladybug database (CGO builds only).
// Missing identifiers are lookup misses, never errors.
package kb
