package kb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const coordinateQuery = `MATCH (p:Place {wikidata_id: $id}) RETURN p.latitude AS lat, p.longitude AS lon LIMIT 1`

// Neo4jStore resolves coordinates from a Neo4j graph holding Place nodes
// with wikidata_id, latitude and longitude properties.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a coordinate store over a Neo4j deployment.
func NewNeo4jStore(config Config) (*Neo4jStore, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("neo4j URI is required")
	}
	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &Neo4jStore{client: driver, database: config.Database}, nil
}

// Coordinates looks one identifier up in the graph.
func (s *Neo4jStore) Coordinates(ctx context.Context, id string) (Coord, bool, error) {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, coordinateQuery, map[string]any{"id": id})
	if err != nil {
		return Coord{}, false, fmt.Errorf("coordinate query failed: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return Coord{}, false, fmt.Errorf("coordinate query failed: %w", err)
	}
	if len(records) == 0 {
		return Coord{}, false, nil
	}

	lat, latFound := records[0].Get("lat")
	lon, lonFound := records[0].Get("lon")
	latValue, latIsFloat := lat.(float64)
	lonValue, lonIsFloat := lon.(float64)
	if !latFound || !lonFound || !latIsFloat || !lonIsFloat {
		return Coord{}, false, nil
	}
	return Coord{Lat: latValue, Lon: lonValue}, true, nil
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close() error {
	return s.client.Close(context.Background())
}
