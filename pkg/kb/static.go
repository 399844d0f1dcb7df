package kb

import (
	"context"
	"os"

	"github.com/bytedance/sonic"

	"github.com/soundprediction/toponimo/pkg/types"
)

// StaticStore serves coordinates from an in-memory map.
type StaticStore struct {
	coords map[string]Coord
}

// NewStaticStore creates a store over an existing coordinate map.
func NewStaticStore(coords map[string]Coord) *StaticStore {
	if coords == nil {
		coords = map[string]Coord{}
	}
	return &StaticStore{coords: coords}
}

// LoadStaticStore reads a JSON resource mapping identifier to a
// [latitude, longitude] pair.
func LoadStaticStore(path string) (*StaticStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewResourceError(path, err)
	}
	pairs := make(map[string][2]float64)
	if err := sonic.Unmarshal(raw, &pairs); err != nil {
		return nil, types.NewResourceError(path, err)
	}
	coords := make(map[string]Coord, len(pairs))
	for id, p := range pairs {
		coords[id] = Coord{Lat: p[0], Lon: p[1]}
	}
	return NewStaticStore(coords), nil
}

// Coordinates returns the coordinate pair recorded for the identifier.
func (s *StaticStore) Coordinates(_ context.Context, id string) (Coord, bool, error) {
	c, ok := s.coords[id]
	return c, ok, nil
}

// Len reports how many identifiers the store covers.
func (s *StaticStore) Len() int {
	return len(s.coords)
}

// Close is a no-op for the in-memory store.
func (s *StaticStore) Close() error {
	return nil
}
