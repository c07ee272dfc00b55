package storage

import (
	"fmt"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/storage/file"
	"github.com/bombtrucks/extension/internal/storage/memory"
	"github.com/bombtrucks/extension/internal/storage/postgres"
	sqlitestorage "github.com/bombtrucks/extension/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "file", "":
		return file.New(cfg.File.Path), nil
	case "postgres":
		return postgres.New()
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite.Path)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
