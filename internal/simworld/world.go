// Package simworld is an in-process host built on an ECS world. It backs
// the CLI's simulate command and the integration tests: vehicles and
// receivers are ECS entities, destruction notifications are delivered
// synchronously and projectiles are recorded instead of simulated.
package simworld

import (
	"errors"
	"slices"

	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
	"github.com/mlange-42/ark/ecs"
)

// DefaultVersion is the spawner version a new world reports.
const DefaultVersion = "v2.3.0"

var ErrNotVehicle = errors.New("simworld: entity is not a live vehicle")

// World implements host.World, host.Spawner, host.AntiGrief and host.Projector.
type World struct {
	world  *ecs.World
	mapper *ecs.Map5[Identity, Transform, Status, Mount, Loadout]
	filter *ecs.Filter5[Identity, Transform, Status, Mount, Loadout]

	identities *ecs.Map[Identity]
	transforms *ecs.Map[Transform]
	statuses   *ecs.Map[Status]
	mounts     *ecs.Map[Mount]
	loadouts   *ecs.Map[Loadout]

	// Host ids are never reused, unlike ECS entity slots.
	index  map[core.EntityID]ecs.Entity
	nextID core.EntityID

	observers    map[core.EntityID]map[int]func(core.DestroyPath)
	nextObserver int

	version       string
	spawnErr      error
	raidBlocked   map[core.OwnerID]bool
	combatBlocked map[core.OwnerID]bool
	fired         []core.FireCommand
}

// New creates an empty world.
func New() *World {
	w := ecs.NewWorld()
	return &World{
		world:         w,
		mapper:        ecs.NewMap5[Identity, Transform, Status, Mount, Loadout](w),
		filter:        ecs.NewFilter5[Identity, Transform, Status, Mount, Loadout](w),
		identities:    ecs.NewMap[Identity](w),
		transforms:    ecs.NewMap[Transform](w),
		statuses:      ecs.NewMap[Status](w),
		mounts:        ecs.NewMap[Mount](w),
		loadouts:      ecs.NewMap[Loadout](w),
		index:         make(map[core.EntityID]ecs.Entity),
		nextID:        1000,
		observers:     make(map[core.EntityID]map[int]func(core.DestroyPath)),
		version:       DefaultVersion,
		raidBlocked:   make(map[core.OwnerID]bool),
		combatBlocked: make(map[core.OwnerID]bool),
	}
}

func (w *World) create(owner core.OwnerID, kind host.Kind, pos core.Vec3, parent core.EntityID, loadout Loadout) *Entity {
	w.nextID++
	id := w.nextID

	identity := Identity{ID: id, Owner: owner, Kind: kind}
	transform := Transform{Position: pos}
	status := Status{Alive: true}
	mount := Mount{Parent: parent}
	e := w.mapper.NewEntity(&identity, &transform, &status, &mount, &loadout)
	w.index[id] = e

	return &Entity{w: w, id: id}
}

// AddVehicle places a vehicle owned by owner.
func (w *World) AddVehicle(owner core.OwnerID, pos core.Vec3, modules []string) *Entity {
	return w.create(owner, host.KindVehicle, pos, 0, Loadout{Modules: slices.Clone(modules)})
}

// AddReceiver mounts a receiver tuned to frequency on parent. A zero parent
// places a free-standing receiver.
func (w *World) AddReceiver(parent core.EntityID, frequency int) *Entity {
	var owner core.OwnerID
	var pos core.Vec3
	if p, ok := w.lookup(parent); ok {
		owner = w.identities.Get(p).Owner
		pos = w.transforms.Get(p).Position
	}
	return w.create(owner, host.KindReceiver, pos, parent, Loadout{Frequency: frequency})
}

func (w *World) lookup(id core.EntityID) (ecs.Entity, bool) {
	e, ok := w.index[id]
	if !ok || !w.world.Alive(e) {
		return ecs.Entity{}, false
	}
	return e, true
}

func (w *World) alive(id core.EntityID) bool {
	e, ok := w.lookup(id)
	return ok && w.statuses.Get(e).Alive
}

// Die destroys id through the death path.
func (w *World) Die(id core.EntityID) {
	w.destroy(id, core.PathDied)
}

// Remove destroys id without a death notification.
func (w *World) Remove(id core.EntityID) {
	w.destroy(id, core.PathRemoved)
}

// Move sets the position of id.
func (w *World) Move(id core.EntityID, pos core.Vec3) {
	if e, ok := w.lookup(id); ok {
		w.transforms.Get(e).Position = pos
	}
}

func (w *World) destroy(id core.EntityID, path core.DestroyPath) {
	e, ok := w.lookup(id)
	if !ok {
		return
	}
	status := w.statuses.Get(e)
	if !status.Alive {
		return
	}
	status.Alive = false

	// Mounted entities go with their parent.
	for _, child := range w.children(id) {
		w.destroy(child, core.PathRemoved)
	}

	w.notify(id, path)
}

func (w *World) children(parent core.EntityID) []core.EntityID {
	var out []core.EntityID
	query := w.filter.Query()
	for query.Next() {
		identity, _, status, mount, _ := query.Get()
		if status.Alive && mount.Parent == parent {
			out = append(out, identity.ID)
		}
	}
	return out
}

func (w *World) notify(id core.EntityID, path core.DestroyPath) {
	subs := w.observers[id]
	delete(w.observers, id)

	keys := make([]int, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		subs[k](path)
	}
}

func (w *World) subscribe(id core.EntityID, fn func(core.DestroyPath)) func() {
	if !w.alive(id) {
		return func() {}
	}
	w.nextObserver++
	key := w.nextObserver
	subs, ok := w.observers[id]
	if !ok {
		subs = make(map[int]func(core.DestroyPath))
		w.observers[id] = subs
	}
	subs[key] = fn
	return func() {
		if subs, ok := w.observers[id]; ok {
			delete(subs, key)
		}
	}
}

// Observers returns how many destruction observers are installed on id.
func (w *World) Observers(id core.EntityID) int {
	return len(w.observers[id])
}

// FindEntity implements host.World. Dead entities are still found so
// callers can read their last state; check Alive.
func (w *World) FindEntity(id core.EntityID) (host.Entity, bool) {
	if _, ok := w.lookup(id); !ok {
		return nil, false
	}
	return &Entity{w: w, id: id}, true
}

// Entity returns the concrete handle for id.
func (w *World) Entity(id core.EntityID) (*Entity, bool) {
	if _, ok := w.lookup(id); !ok {
		return nil, false
	}
	return &Entity{w: w, id: id}, true
}

// LiveEntities implements host.World, ordered by id.
func (w *World) LiveEntities(kind host.Kind) []host.Entity {
	var ids []core.EntityID
	query := w.filter.Query()
	for query.Next() {
		identity, _, status, _, _ := query.Get()
		if status.Alive && identity.Kind == kind {
			ids = append(ids, identity.ID)
		}
	}
	slices.Sort(ids)

	out := make([]host.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, &Entity{w: w, id: id})
	}
	return out
}

// Version implements host.Spawner.
func (w *World) Version() string {
	return w.version
}

// SetVersion changes the reported spawner version. An empty version
// simulates a missing spawner add-on.
func (w *World) SetVersion(v string) {
	w.version = v
}

// FailSpawns makes Spawn return err until called with nil.
func (w *World) FailSpawns(err error) {
	w.spawnErr = err
}

// Spawn implements host.Spawner.
func (w *World) Spawn(owner core.OwnerID, req host.SpawnRequest) (host.Entity, error) {
	if w.spawnErr != nil {
		return nil, w.spawnErr
	}
	return w.AddVehicle(owner, req.Position, req.Modules), nil
}

// AttachReceiver implements host.Spawner.
func (w *World) AttachReceiver(vehicle host.Entity, frequency int) (host.Receiver, error) {
	if vehicle == nil || vehicle.Kind() != host.KindVehicle || !w.alive(vehicle.ID()) {
		return nil, ErrNotVehicle
	}
	return w.AddReceiver(vehicle.ID(), frequency), nil
}

func (w *World) SetRaidBlocked(owner core.OwnerID, blocked bool) {
	w.raidBlocked[owner] = blocked
}

func (w *World) SetCombatBlocked(owner core.OwnerID, blocked bool) {
	w.combatBlocked[owner] = blocked
}

// IsRaidBlocked implements host.AntiGrief.
func (w *World) IsRaidBlocked(owner core.OwnerID) bool {
	return w.raidBlocked[owner]
}

// IsCombatBlocked implements host.AntiGrief.
func (w *World) IsCombatBlocked(owner core.OwnerID) bool {
	return w.combatBlocked[owner]
}

// FireProjectile implements host.Projector by recording cmd.
func (w *World) FireProjectile(cmd core.FireCommand) {
	w.fired = append(w.fired, cmd)
}

// Fired returns every projectile fired so far.
func (w *World) Fired() []core.FireCommand {
	return slices.Clone(w.fired)
}
