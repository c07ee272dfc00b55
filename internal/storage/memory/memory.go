// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/bombtrucks/extension/pkg/core"
)

// Backend keeps the ledger document in process memory. It is used for
// dry runs and tests; nothing survives a restart.
type Backend struct {
	doc   core.LedgerDocument
	saves int
	mu    sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{doc: core.NewLedgerDocument()}
}

// NewWithDocument creates a memory backend pre-populated with doc.
func NewWithDocument(doc core.LedgerDocument) *Backend {
	return &Backend{doc: doc.Clone()}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) Load() (core.LedgerDocument, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.doc.Clone(), nil
}

func (b *Backend) Save(doc core.LedgerDocument) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = doc.Clone()
	b.saves++
	return nil
}

// Saves returns how many times Save was called.
func (b *Backend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}
