//go:build !cgo

package kb

import (
	"context"
	"errors"
)

// ErrCGORequired is returned when Ladybug operations are called without
// CGO support
var ErrCGORequired = errors.New("ladybug store requires CGO; build with CGO_ENABLED=1")

// LadybugStore is a stub implementation when CGO is disabled.
type LadybugStore struct{}

// NewLadybugStore returns an error when CGO is disabled
func NewLadybugStore(path string) (*LadybugStore, error) {
	return nil, ErrCGORequired
}

// Coordinates returns ErrCGORequired
func (s *LadybugStore) Coordinates(context.Context, string) (Coord, bool, error) {
	return Coord{}, false, ErrCGORequired
}

// UpsertPlace returns ErrCGORequired
func (s *LadybugStore) UpsertPlace(string, Coord) error {
	return ErrCGORequired
}

// Close returns nil
func (s *LadybugStore) Close() error {
	return nil
}
