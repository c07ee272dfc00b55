package simworld

import (
	"slices"

	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
)

// Entity is a host handle to one ECS entity. It implements host.Receiver
// so receivers and vehicles share a type; Frequency is zero for vehicles.
type Entity struct {
	w  *World
	id core.EntityID
}

var _ host.Receiver = (*Entity)(nil)

func (e *Entity) ID() core.EntityID {
	return e.id
}

func (e *Entity) OwnerID() core.OwnerID {
	if ent, ok := e.w.lookup(e.id); ok {
		return e.w.identities.Get(ent).Owner
	}
	return ""
}

func (e *Entity) Kind() host.Kind {
	if ent, ok := e.w.lookup(e.id); ok {
		return e.w.identities.Get(ent).Kind
	}
	return host.KindOther
}

func (e *Entity) Alive() bool {
	return e.w.alive(e.id)
}

func (e *Entity) Position() core.Vec3 {
	if ent, ok := e.w.lookup(e.id); ok {
		return e.w.transforms.Get(ent).Position
	}
	return core.Vec3{}
}

func (e *Entity) Parent() (host.Entity, bool) {
	ent, ok := e.w.lookup(e.id)
	if !ok {
		return nil, false
	}
	parent := e.w.mounts.Get(ent).Parent
	if parent == 0 {
		return nil, false
	}
	return e.w.FindEntity(parent)
}

func (e *Entity) Modules() []string {
	if ent, ok := e.w.lookup(e.id); ok {
		return slices.Clone(e.w.loadouts.Get(ent).Modules)
	}
	return nil
}

func (e *Entity) Frequency() int {
	if ent, ok := e.w.lookup(e.id); ok {
		return e.w.loadouts.Get(ent).Frequency
	}
	return 0
}

// Kill removes the entity without a death notification.
func (e *Entity) Kill() {
	e.w.Remove(e.id)
}

func (e *Entity) OnDestroyed(fn func(core.DestroyPath)) func() {
	return e.w.subscribe(e.id, fn)
}
