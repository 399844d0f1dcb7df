package xref

import (
	"context"
	"os"

	"github.com/bytedance/sonic"

	"github.com/soundprediction/toponimo/pkg/types"
)

// MemoryStore serves cross-reference lookups from an in-memory map keyed
// by normalized title.
type MemoryStore struct {
	entries map[string]string
}

// NewMemoryStore creates a store over raw title to identifier entries.
// Keys are normalized on the way in.
func NewMemoryStore(entries map[string]string) *MemoryStore {
	normalized := make(map[string]string, len(entries))
	for title, id := range entries {
		normalized[NormalizeTitle(title)] = id
	}
	return &MemoryStore{entries: normalized}
}

// LoadMemoryStore reads a JSON resource mapping raw Wikipedia titles to
// knowledge-base identifiers.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewResourceError(path, err)
	}
	entries := make(map[string]string)
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, types.NewResourceError(path, err)
	}
	return NewMemoryStore(entries), nil
}

// Lookup resolves one title to its identifier.
func (s *MemoryStore) Lookup(_ context.Context, title string) (string, bool, error) {
	id, ok := s.entries[NormalizeTitle(title)]
	return id, ok, nil
}

// Len reports how many titles the store covers.
func (s *MemoryStore) Len() int {
	return len(s.entries)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
