package simworld

import (
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
)

// Identity names an entity the way the host does.
type Identity struct {
	ID    core.EntityID
	Owner core.OwnerID
	Kind  host.Kind
}

// Transform is the entity's world position.
type Transform struct {
	Position core.Vec3
}

// Status flips to dead once; dead entities stay in storage so their last
// position can still be read.
type Status struct {
	Alive bool
}

// Mount links a receiver to the vehicle it sits on. Zero means unmounted.
type Mount struct {
	Parent core.EntityID
}

// Loadout carries kind specific data.
type Loadout struct {
	Modules   []string
	Frequency int
}
