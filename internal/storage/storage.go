// Package storage persists the ownership ledger. The ledger is small and
// always read and written as one document, so backends only need Load and
// Save.
package storage

import "github.com/bombtrucks/extension/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Load returns the stored document, or an empty one if nothing was saved yet.
	Load() (core.LedgerDocument, error)
	// Save replaces the stored document.
	Save(doc core.LedgerDocument) error
}
