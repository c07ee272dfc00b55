package core

// TrackedEntityRecord is one vehicle owned by a player.
// Tracked is false for vehicles handed out administratively; those do not
// count against the owner's spawn limit.
type TrackedEntityRecord struct {
	EntityID    EntityID `json:"entityId"`
	ProfileName string   `json:"profileName"`
	Tracked     bool     `json:"tracked"`
}

// OwnerEntry is everything the ledger knows about one owner.
type OwnerEntry struct {
	OwnerID   OwnerID               `json:"-"`
	Records   []TrackedEntityRecord `json:"records"`
	Cooldowns map[string]int64      `json:"cooldowns"`
}

// NewOwnerEntry returns an empty entry for owner.
func NewOwnerEntry(owner OwnerID) *OwnerEntry {
	return &OwnerEntry{
		OwnerID:   owner,
		Records:   make([]TrackedEntityRecord, 0),
		Cooldowns: make(map[string]int64),
	}
}

// Clone returns a deep copy of the entry.
func (e *OwnerEntry) Clone() *OwnerEntry {
	c := &OwnerEntry{
		OwnerID:   e.OwnerID,
		Records:   make([]TrackedEntityRecord, len(e.Records)),
		Cooldowns: make(map[string]int64, len(e.Cooldowns)),
	}
	copy(c.Records, e.Records)
	for k, v := range e.Cooldowns {
		c.Cooldowns[k] = v
	}
	return c
}

// LedgerDocument is the persisted form of the ownership ledger.
// It is always read and written as a whole.
type LedgerDocument struct {
	Owners map[OwnerID]*OwnerEntry `json:"owners"`
}

// NewLedgerDocument returns an empty document.
func NewLedgerDocument() LedgerDocument {
	return LedgerDocument{Owners: make(map[OwnerID]*OwnerEntry)}
}

// Clone returns a deep copy of the document. Owner ids are restored on
// every entry, since they are not part of the entry's JSON form.
func (d LedgerDocument) Clone() LedgerDocument {
	c := NewLedgerDocument()
	for id, entry := range d.Owners {
		if entry == nil {
			continue
		}
		ce := entry.Clone()
		ce.OwnerID = id
		if ce.Cooldowns == nil {
			ce.Cooldowns = make(map[string]int64)
		}
		c.Owners[id] = ce
	}
	return c
}

// RecordCount returns the total number of records across all owners.
func (d LedgerDocument) RecordCount() int {
	n := 0
	for _, entry := range d.Owners {
		n += len(entry.Records)
	}
	return n
}
