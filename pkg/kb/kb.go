package kb

import (
	"context"
	"fmt"
)

// Provider represents the type of coordinate store backend
type Provider string

const (
	// ProviderStatic serves coordinates from a JSON resource held in memory
	ProviderStatic Provider = "static"

	// ProviderNeo4j looks coordinates up in a Neo4j graph of Place nodes
	ProviderNeo4j Provider = "neo4j"

	// ProviderLadybug looks coordinates up in an embedded Ladybug database
	ProviderLadybug Provider = "ladybug"
)

// Coord is a WGS84 coordinate pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Store resolves knowledge-base identifiers to coordinates. A missing
// identifier is a lookup miss reported through the boolean, not an error.
type Store interface {
	Coordinates(ctx context.Context, id string) (Coord, bool, error)
	Close() error
}

// Config holds configuration for creating coordinate stores.
type Config struct {
	Provider Provider `json:"provider" mapstructure:"provider"`

	// Path locates the JSON resource (static provider) or the database
	// directory (ladybug provider).
	Path string `json:"path,omitempty" mapstructure:"path"`

	// URI, Username, Password and Database configure the Neo4j backend.
	URI      string `json:"uri,omitempty" mapstructure:"uri"`
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database,omitempty" mapstructure:"database"`
}

// NewStore creates a coordinate store based on the provider type
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case ProviderStatic:
		return LoadStaticStore(config.Path)

	case ProviderNeo4j:
		return NewNeo4jStore(config)

	case ProviderLadybug:
		return NewLadybugStore(config.Path)

	default:
		return nil, fmt.Errorf("unsupported coordinate store provider: %s", config.Provider)
	}
}
