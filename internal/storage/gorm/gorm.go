// Package gormstorage implements the storage.Backend interface on top of
// GORM. The SQLite and Postgres backends wrap it and only differ in how the
// connection is opened.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/bombtrucks/extension/pkg/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Owner is one row of the owners table.
type Owner struct {
	OwnerID   string                               `gorm:"primaryKey;size:64"`
	Cooldowns datatypes.JSONType[map[string]int64] `gorm:"not null"`
}

func (Owner) TableName() string { return "owners" }

// TrackedEntity is one row of the tracked_entities table. Position keeps
// the record order within an owner.
type TrackedEntity struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	OwnerID     string `gorm:"index;size:64;not null"`
	Position    int    `gorm:"not null"`
	EntityID    uint64 `gorm:"index;not null"`
	ProfileName string `gorm:"size:128;not null"`
	Tracked     bool   `gorm:"not null"`
}

func (TrackedEntity) TableName() string { return "tracked_entities" }

// Models lists every table the backend migrates.
var Models = []any{&Owner{}, &TrackedEntity{}}

// Backend stores the ledger in two tables.
type Backend struct {
	db *gorm.DB
}

// New creates a new GORM storage backend.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm storage: no database")
	}
	if err := b.db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("gorm storage: migrate schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) Load() (core.LedgerDocument, error) {
	doc := core.NewLedgerDocument()

	var owners []Owner
	if err := b.db.Find(&owners).Error; err != nil {
		return doc, fmt.Errorf("gorm storage: load owners: %w", err)
	}
	for _, o := range owners {
		entry := core.NewOwnerEntry(core.OwnerID(o.OwnerID))
		for profile, ts := range o.Cooldowns.Data() {
			entry.Cooldowns[profile] = ts
		}
		doc.Owners[entry.OwnerID] = entry
	}

	var rows []TrackedEntity
	if err := b.db.Order("owner_id, position").Find(&rows).Error; err != nil {
		return doc, fmt.Errorf("gorm storage: load tracked entities: %w", err)
	}
	for _, r := range rows {
		id := core.OwnerID(r.OwnerID)
		entry, ok := doc.Owners[id]
		if !ok {
			entry = core.NewOwnerEntry(id)
			doc.Owners[id] = entry
		}
		entry.Records = append(entry.Records, core.TrackedEntityRecord{
			EntityID:    core.EntityID(r.EntityID),
			ProfileName: r.ProfileName,
			Tracked:     r.Tracked,
		})
	}

	return doc, nil
}

// Save replaces both tables in a single transaction.
func (b *Backend) Save(doc core.LedgerDocument) error {
	owners := make([]Owner, 0, len(doc.Owners))
	var rows []TrackedEntity
	for id, entry := range doc.Owners {
		if entry == nil {
			continue
		}
		cooldowns := make(map[string]int64, len(entry.Cooldowns))
		for profile, ts := range entry.Cooldowns {
			cooldowns[profile] = ts
		}
		owners = append(owners, Owner{
			OwnerID:   string(id),
			Cooldowns: datatypes.NewJSONType(cooldowns),
		})
		for i, rec := range entry.Records {
			rows = append(rows, TrackedEntity{
				OwnerID:     string(id),
				Position:    i,
				EntityID:    uint64(rec.EntityID),
				ProfileName: rec.ProfileName,
				Tracked:     rec.Tracked,
			})
		}
	}

	return b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&TrackedEntity{}).Error; err != nil {
			return fmt.Errorf("gorm storage: clear tracked entities: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&Owner{}).Error; err != nil {
			return fmt.Errorf("gorm storage: clear owners: %w", err)
		}
		if len(owners) > 0 {
			if err := tx.CreateInBatches(owners, 500).Error; err != nil {
				return fmt.Errorf("gorm storage: insert owners: %w", err)
			}
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("gorm storage: insert tracked entities: %w", err)
			}
		}
		return nil
	})
}
