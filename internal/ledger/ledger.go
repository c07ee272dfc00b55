// Package ledger records which player owns which bomb vehicle and when each
// player last spawned each profile. It is mutated only from the simulation
// thread and holds no locks.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/bombtrucks/extension/internal/storage"
	"github.com/bombtrucks/extension/pkg/core"
)

// Ledger is the in-memory ownership document plus the backend it is
// persisted to. Every mutating call saves the whole document.
type Ledger struct {
	backend storage.Backend
	doc     core.LedgerDocument
}

// New creates an empty ledger persisting to backend.
func New(backend storage.Backend) *Ledger {
	return &Ledger{
		backend: backend,
		doc:     core.NewLedgerDocument(),
	}
}

// Load replaces the in-memory document with the stored one. On error the
// current document is kept and nothing is written.
func (l *Ledger) Load() error {
	doc, err := l.backend.Load()
	if err != nil {
		return fmt.Errorf("ledger: load: %w", err)
	}
	l.doc = doc.Clone()
	return nil
}

func (l *Ledger) save() error {
	if err := l.backend.Save(l.doc); err != nil {
		return fmt.Errorf("ledger: save: %w", err)
	}
	return nil
}

// GetOrCreate returns the owner's entry, creating an empty one on first access.
// Creating an entry does not persist it.
func (l *Ledger) GetOrCreate(owner core.OwnerID) *core.OwnerEntry {
	entry, ok := l.doc.Owners[owner]
	if !ok {
		entry = core.NewOwnerEntry(owner)
		l.doc.Owners[owner] = entry
	}
	return entry
}

// AddRecord appends rec to the owner's records.
func (l *Ledger) AddRecord(owner core.OwnerID, rec core.TrackedEntityRecord) error {
	entry := l.GetOrCreate(owner)
	entry.Records = append(entry.Records, rec)
	return l.save()
}

// RemoveRecord removes every record of owner referencing id. It reports
// whether anything was removed and only persists in that case.
func (l *Ledger) RemoveRecord(owner core.OwnerID, id core.EntityID) (bool, error) {
	entry := l.GetOrCreate(owner)
	before := len(entry.Records)
	entry.Records = slices.DeleteFunc(entry.Records, func(r core.TrackedEntityRecord) bool {
		return r.EntityID == id
	})
	if len(entry.Records) == before {
		return false, nil
	}
	return true, l.save()
}

// FindRecord returns the first record of owner referencing id.
func (l *Ledger) FindRecord(owner core.OwnerID, id core.EntityID) (core.TrackedEntityRecord, bool) {
	entry, ok := l.doc.Owners[owner]
	if !ok {
		return core.TrackedEntityRecord{}, false
	}
	for _, r := range entry.Records {
		if r.EntityID == id {
			return r, true
		}
	}
	return core.TrackedEntityRecord{}, false
}

// Owner looks up which owner holds a record for id.
func (l *Ledger) Owner(id core.EntityID) (core.OwnerID, core.TrackedEntityRecord, bool) {
	for owner, entry := range l.doc.Owners {
		for _, r := range entry.Records {
			if r.EntityID == id {
				return owner, r, true
			}
		}
	}
	return "", core.TrackedEntityRecord{}, false
}

// CountTracked counts the owner's records of profile that count against
// the spawn limit.
func (l *Ledger) CountTracked(owner core.OwnerID, profile string) int {
	entry, ok := l.doc.Owners[owner]
	if !ok {
		return 0
	}
	n := 0
	for _, r := range entry.Records {
		if r.Tracked && r.ProfileName == profile {
			n++
		}
	}
	return n
}

// UpdateCooldown stores at as the owner's last spawn of profile.
func (l *Ledger) UpdateCooldown(owner core.OwnerID, profile string, at time.Time) error {
	entry := l.GetOrCreate(owner)
	entry.Cooldowns[profile] = at.Unix()
	return l.save()
}

// LastSpawn returns the owner's last spawn of profile.
func (l *Ledger) LastSpawn(owner core.OwnerID, profile string) (time.Time, bool) {
	entry, ok := l.doc.Owners[owner]
	if !ok {
		return time.Time{}, false
	}
	ts, ok := entry.Cooldowns[profile]
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// Records returns a copy of every record with its owner.
func (l *Ledger) Records() map[core.OwnerID][]core.TrackedEntityRecord {
	out := make(map[core.OwnerID][]core.TrackedEntityRecord, len(l.doc.Owners))
	for owner, entry := range l.doc.Owners {
		if len(entry.Records) == 0 {
			continue
		}
		out[owner] = slices.Clone(entry.Records)
	}
	return out
}

// Sweep removes every record whose entity alive reports as gone. It saves
// once if anything changed and returns the number of removed records.
func (l *Ledger) Sweep(alive func(core.EntityID) bool) (int, error) {
	removed := 0
	for _, entry := range l.doc.Owners {
		before := len(entry.Records)
		entry.Records = slices.DeleteFunc(entry.Records, func(r core.TrackedEntityRecord) bool {
			return !alive(r.EntityID)
		})
		removed += before - len(entry.Records)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, l.save()
}

// Clear drops every owner and persists the empty document.
func (l *Ledger) Clear() error {
	l.doc = core.NewLedgerDocument()
	return l.save()
}

// Document returns a deep copy of the current document.
func (l *Ledger) Document() core.LedgerDocument {
	return l.doc.Clone()
}

// Close closes the backend.
func (l *Ledger) Close() error {
	return l.backend.Close()
}
