package xref

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soundprediction/toponimo/pkg/types"
)

// SQLiteStore serves cross-reference lookups from the mapping table of a
// SQLite resource. The stored titles are already in normalized key form.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the SQLite resource at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, types.NewResourceError(path, fmt.Errorf("sqlite resource path is required"))
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, types.NewResourceError(path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, types.NewResourceError(path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Lookup resolves one title against the mapping table.
func (s *SQLiteStore) Lookup(ctx context.Context, title string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT wikidata_id FROM mapping WHERE wikipedia_title = ? LIMIT 1`,
		NormalizeTitle(title),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cross-reference query failed: %w", err)
	}
	return id, true, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
