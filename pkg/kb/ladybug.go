//go:build cgo

package kb

import (
	"context"
	"fmt"
	"sync"

	ladybug "github.com/LadybugDB/go-ladybug"
)

// ladybugSchema defines the Place table. Ladybug requires an explicit
// schema.
const ladybugSchema = `
    CREATE NODE TABLE IF NOT EXISTS Place (
        wikidata_id STRING PRIMARY KEY,
        latitude DOUBLE,
        longitude DOUBLE
    );
`

const ladybugCoordinateQuery = `MATCH (p:Place) WHERE p.wikidata_id = $id RETURN p.latitude, p.longitude`

// LadybugStore resolves coordinates from an embedded Ladybug database.
type LadybugStore struct {
	db   *ladybug.Database
	conn *ladybug.Connection

	// Ladybug connections are not safe for concurrent use.
	mu sync.Mutex
}

// NewLadybugStore opens, creating if needed, an embedded coordinate
// database at path. Use ":memory:" for an ephemeral store.
func NewLadybugStore(path string) (*LadybugStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ladybug database path is required")
	}
	systemConfig := ladybug.SystemConfig{
		BufferPoolSize:    256 * 1024 * 1024,
		MaxNumThreads:     1,
		EnableCompression: true,
		ReadOnly:          false,
		MaxDbSize:         1 << 43,
	}
	database, err := ladybug.OpenDatabase(path, systemConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open ladybug database: %w", err)
	}
	conn, err := ladybug.OpenConnection(database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to open ladybug connection: %w", err)
	}
	store := &LadybugStore{db: database, conn: conn}
	if _, err := conn.Query(ladybugSchema); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create place schema: %w", err)
	}
	return store, nil
}

// Coordinates looks one identifier up in the embedded database.
func (s *LadybugStore) Coordinates(_ context.Context, id string) (Coord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared, err := s.conn.Prepare(ladybugCoordinateQuery)
	if err != nil {
		return Coord{}, false, fmt.Errorf("failed to prepare coordinate query: %w", err)
	}
	results, err := s.conn.Execute(prepared, map[string]any{"id": id})
	if err != nil {
		return Coord{}, false, fmt.Errorf("coordinate query failed: %w", err)
	}
	defer results.Close()

	if !results.HasNext() {
		return Coord{}, false, nil
	}
	row, err := results.Next()
	if err != nil {
		return Coord{}, false, fmt.Errorf("coordinate query failed: %w", err)
	}
	values, err := row.GetAsSlice()
	if err != nil || len(values) < 2 {
		return Coord{}, false, fmt.Errorf("coordinate row has unexpected shape")
	}
	lat, latIsFloat := values[0].(float64)
	lon, lonIsFloat := values[1].(float64)
	if !latIsFloat || !lonIsFloat {
		return Coord{}, false, nil
	}
	return Coord{Lat: lat, Lon: lon}, true, nil
}

// UpsertPlace records coordinates for an identifier, replacing any
// previous entry.
func (s *LadybugStore) UpsertPlace(id string, coord Coord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared, err := s.conn.Prepare(`MERGE (p:Place {wikidata_id: $id}) SET p.latitude = $lat, p.longitude = $lon`)
	if err != nil {
		return fmt.Errorf("failed to prepare place upsert: %w", err)
	}
	results, err := s.conn.Execute(prepared, map[string]any{"id": id, "lat": coord.Lat, "lon": coord.Lon})
	if err != nil {
		return fmt.Errorf("place upsert failed: %w", err)
	}
	results.Close()
	return nil
}

// Close releases the connection and the database.
func (s *LadybugStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}
