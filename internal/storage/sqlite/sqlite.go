// Package sqlitestorage stores the ledger in a SQLite file through the
// GORM backend. An empty path opens an in-memory database.
package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bombtrucks/extension/internal/database"
	gormstorage "github.com/bombtrucks/extension/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific setup.
type Backend struct {
	*gormstorage.Backend
	path string
}

// New opens the database at path.
func New(path string) (*Backend, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
	}

	db, err := database.GetSqliteDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(db),
		path:    path,
	}, nil
}

// Path returns the database file, empty for in-memory databases.
func (b *Backend) Path() string {
	return b.path
}
