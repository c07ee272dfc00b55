// Package file stores the ledger as a JSON document on disk.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bombtrucks/extension/pkg/core"
)

// Backend reads and writes one JSON file. Writes go to a temporary file in
// the same directory which is then renamed over the target, so a crash
// leaves either the old or the new document.
type Backend struct {
	path string
}

// New creates a file backend for path.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Path returns the document location.
func (b *Backend) Path() string {
	return b.path
}

// Init creates the containing directory.
func (b *Backend) Init() error {
	if b.path == "" {
		return errors.New("file storage: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("file storage: create directory: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}

// Load returns an empty document if the file does not exist yet.
func (b *Backend) Load() (core.LedgerDocument, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return core.NewLedgerDocument(), nil
	}
	if err != nil {
		return core.LedgerDocument{}, fmt.Errorf("file storage: read %s: %w", b.path, err)
	}

	doc := core.NewLedgerDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.LedgerDocument{}, fmt.Errorf("file storage: decode %s: %w", b.path, err)
	}
	return doc.Clone(), nil
}

func (b *Backend) Save(doc core.LedgerDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file storage: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file storage: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file storage: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file storage: close: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file storage: rename: %w", err)
	}
	return nil
}
