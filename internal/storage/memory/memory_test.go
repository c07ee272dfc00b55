package memory

import (
	"testing"

	"github.com/bombtrucks/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_IsolatesCopies(t *testing.T) {
	b := New()
	require.NoError(t, b.Init())
	defer b.Close()

	doc := core.NewLedgerDocument()
	entry := core.NewOwnerEntry("1")
	entry.Records = append(entry.Records, core.TrackedEntityRecord{EntityID: 5, ProfileName: "default", Tracked: true})
	doc.Owners["1"] = entry

	require.NoError(t, b.Save(doc))
	entry.Records[0].ProfileName = "mutated"

	loaded, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, "default", loaded.Owners["1"].Records[0].ProfileName)

	loaded.Owners["1"].Records = nil
	again, err := b.Load()
	require.NoError(t, err)
	assert.Len(t, again.Owners["1"].Records, 1)
	assert.Equal(t, 1, b.Saves())
}

func TestNewWithDocument(t *testing.T) {
	doc := core.NewLedgerDocument()
	doc.Owners["2"] = core.NewOwnerEntry("2")

	b := NewWithDocument(doc)
	loaded, err := b.Load()
	require.NoError(t, err)
	assert.Contains(t, loaded.Owners, core.OwnerID("2"))
	assert.Equal(t, 0, b.Saves())
}
