package xref

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Provider represents the type of cross-reference backend
type Provider string

const (
	// ProviderMemory serves lookups from a JSON resource held in memory
	ProviderMemory Provider = "memory"

	// ProviderSQLite serves lookups from the SQLite mapping table
	ProviderSQLite Provider = "sqlite"
)

// Store maps external Wikipedia-title labels to knowledge-base
// identifiers. A missing title is a lookup miss reported through the
// boolean, not an error.
type Store interface {
	Lookup(ctx context.Context, title string) (string, bool, error)
	Close() error
}

// Config holds configuration for creating cross-reference stores.
type Config struct {
	Provider Provider `json:"provider" mapstructure:"provider"`

	// Path locates the JSON resource (memory provider) or the SQLite
	// database file (sqlite provider).
	Path string `json:"path,omitempty" mapstructure:"path"`
}

// NewStore creates a cross-reference store based on the provider type
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case ProviderMemory:
		return LoadMemoryStore(config.Path)

	case ProviderSQLite:
		return OpenSQLiteStore(config.Path)

	default:
		return nil, fmt.Errorf("unsupported cross-reference provider: %s", config.Provider)
	}
}

// NormalizeTitle converts an external Wikipedia-style label into the
// canonical resource key: spaces to underscores, percent-encoding for
// bytes outside the unreserved set, and a SHA-224 digest when the
// encoded key exceeds 200 bytes or contains a slash.
func NormalizeTitle(title string) string {
	key := percentEncode(strings.ReplaceAll(title, " ", "_"))
	if len(key) > 200 || strings.Contains(key, "/") {
		sum := sha256.Sum224([]byte(key))
		key = hex.EncodeToString(sum[:])
	}
	return key
}

const upperhex = "0123456789ABCDEF"

// percentEncode escapes every byte outside the unreserved set, keeping
// "/" literal so slash-bearing titles reach the digest branch intact.
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '_', c == '.', c == '-', c == '~', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xF])
		}
	}
	return b.String()
}
