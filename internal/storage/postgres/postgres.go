// Package postgres stores the ledger in PostgreSQL through the GORM backend.
// Connection settings come from the db.* configuration keys.
package postgres

import (
	"fmt"

	"github.com/bombtrucks/extension/internal/database"
	gormstorage "github.com/bombtrucks/extension/internal/storage/gorm"
)

// Backend wraps the GORM backend for Postgres.
type Backend struct {
	*gormstorage.Backend
}

// New connects to the configured database. The connection is validated
// with a ping so a bad DSN fails here rather than on first save.
func New() (*Backend, error) {
	db, err := database.GetPostgresDB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to validate Postgres connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	return &Backend{Backend: gormstorage.New(db)}, nil
}
