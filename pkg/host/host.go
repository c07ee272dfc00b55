// Package host describes the boundary between the extension and the
// simulation host. The host owns the entity graph; the extension only
// observes it and asks it to do things.
package host

import "github.com/bombtrucks/extension/pkg/core"

// Kind classifies host entities the extension cares about.
type Kind int

const (
	KindOther Kind = iota
	KindVehicle
	KindReceiver
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindReceiver:
		return "receiver"
	default:
		return "other"
	}
}

// Entity is a live reference to a host entity.
type Entity interface {
	ID() core.EntityID
	OwnerID() core.OwnerID
	Kind() Kind
	// Alive is false once the entity was destroyed or removed.
	Alive() bool
	Position() core.Vec3
	// Parent returns the entity this one is mounted on, if any.
	Parent() (Entity, bool)
	// Modules lists the module item names installed on a vehicle.
	Modules() []string
	// Kill destroys the entity without a death notification.
	Kill()
	// OnDestroyed installs fn to run once when the entity dies or is removed.
	// The returned func detaches fn without running it.
	OnDestroyed(fn func(core.DestroyPath)) (detach func())
}

// Receiver is a trigger listener mounted on a vehicle.
type Receiver interface {
	Entity
	Frequency() int
}

// World answers queries about the host entity graph.
type World interface {
	FindEntity(id core.EntityID) (Entity, bool)
	LiveEntities(kind Kind) []Entity
}

// SpawnRequest describes the vehicle the spawner should assemble.
type SpawnRequest struct {
	ProfileName     string
	Modules         []string
	EnginePartsTier int
	Position        core.Vec3
	Rotation        core.Vec3
}

// Spawner assembles vehicles. It is an optional host add-on, so callers
// check Version before relying on it.
type Spawner interface {
	Version() string
	Spawn(owner core.OwnerID, req SpawnRequest) (Entity, error)
	AttachReceiver(vehicle Entity, frequency int) (Receiver, error)
}

// AntiGrief reports whether a player is currently blocked from escaping
// a raid or a fight.
type AntiGrief interface {
	IsRaidBlocked(owner core.OwnerID) bool
	IsCombatBlocked(owner core.OwnerID) bool
}

// Projector launches projectiles into the world.
type Projector interface {
	FireProjectile(cmd core.FireCommand)
}
