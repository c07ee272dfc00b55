package gormstorage

import (
	"testing"

	"github.com/bombtrucks/extension/internal/database"
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)

	b := New(db)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	assert.Error(t, New(nil).Init())
	assert.NoError(t, New(nil).Close())
}

func TestLoad_Empty(t *testing.T) {
	b := newTestBackend(t)

	doc, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Owners)
}

func TestSaveLoad_PreservesOrderAndCooldowns(t *testing.T) {
	b := newTestBackend(t)

	doc := core.NewLedgerDocument()
	alice := core.NewOwnerEntry("100")
	alice.Records = append(alice.Records,
		core.TrackedEntityRecord{EntityID: 30, ProfileName: "Nuke", Tracked: true},
		core.TrackedEntityRecord{EntityID: 10, ProfileName: "default", Tracked: false},
		core.TrackedEntityRecord{EntityID: 20, ProfileName: "default", Tracked: true},
	)
	alice.Cooldowns["Nuke"] = 1700000500
	doc.Owners[alice.OwnerID] = alice
	bob := core.NewOwnerEntry("200")
	doc.Owners[bob.OwnerID] = bob

	require.NoError(t, b.Save(doc))

	loaded, err := b.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Owners, 2)
	assert.Equal(t, alice.Records, loaded.Owners["100"].Records)
	assert.Equal(t, int64(1700000500), loaded.Owners["100"].Cooldowns["Nuke"])
	assert.Empty(t, loaded.Owners["200"].Records)
}

func TestSave_ReplacesPreviousDocument(t *testing.T) {
	b := newTestBackend(t)

	first := core.NewLedgerDocument()
	entry := core.NewOwnerEntry("100")
	entry.Records = append(entry.Records, core.TrackedEntityRecord{EntityID: 1, ProfileName: "default", Tracked: true})
	first.Owners[entry.OwnerID] = entry
	require.NoError(t, b.Save(first))

	second := core.NewLedgerDocument()
	second.Owners["300"] = core.NewOwnerEntry("300")
	require.NoError(t, b.Save(second))

	loaded, err := b.Load()
	require.NoError(t, err)
	assert.NotContains(t, loaded.Owners, core.OwnerID("100"))
	assert.Contains(t, loaded.Owners, core.OwnerID("300"))

	var count int64
	require.NoError(t, b.DB().Model(&TrackedEntity{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
