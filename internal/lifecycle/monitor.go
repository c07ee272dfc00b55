// Package lifecycle ties tracked vehicles to the ledger and the frequency
// registry. Every tracked vehicle gets exactly one host destruction
// observer; whichever destruction path reaches it first runs cleanup and
// later paths find nothing to do.
package lifecycle

import (
	"log/slog"
	"slices"

	"github.com/bombtrucks/extension/internal/events"
	"github.com/bombtrucks/extension/internal/frequency"
	"github.com/bombtrucks/extension/internal/ledger"
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
)

type binding struct {
	channel int
	handle  core.EntityID
}

type watch struct {
	owner     core.OwnerID
	entity    host.Entity
	detach    func()
	listeners []binding
}

// Monitor owns the destruction observers of tracked vehicles.
type Monitor struct {
	ledger   *ledger.Ledger
	registry *frequency.Registry
	bus      *events.Bus
	log      *slog.Logger
	watched  map[core.EntityID]*watch
}

// New creates a monitor. bus may be nil.
func New(l *ledger.Ledger, r *frequency.Registry, bus *events.Bus, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		ledger:   l,
		registry: r,
		bus:      bus,
		log:      log,
		watched:  make(map[core.EntityID]*watch),
	}
}

// Attach installs the destruction observer on entity. Attaching an entity
// that is already watched does nothing and returns false.
func (m *Monitor) Attach(entity host.Entity, owner core.OwnerID, id core.EntityID) bool {
	if _, ok := m.watched[id]; ok {
		return false
	}
	w := &watch{owner: owner, entity: entity}
	m.watched[id] = w
	w.detach = entity.OnDestroyed(func(path core.DestroyPath) {
		m.Fire(id, path)
	})
	return true
}

// Watched reports whether id has an observer installed.
func (m *Monitor) Watched(id core.EntityID) bool {
	_, ok := m.watched[id]
	return ok
}

// Len returns the number of watched entities.
func (m *Monitor) Len() int {
	return len(m.watched)
}

// Bind records that the listener handle on channel belongs to entity id,
// so cleanup can remove it. It returns false if id is not watched.
func (m *Monitor) Bind(id core.EntityID, channel int, handle core.EntityID) bool {
	w, ok := m.watched[id]
	if !ok {
		return false
	}
	b := binding{channel: channel, handle: handle}
	if !slices.Contains(w.listeners, b) {
		w.listeners = append(w.listeners, b)
	}
	return true
}

// Unbind forgets a binding made with Bind.
func (m *Monitor) Unbind(id core.EntityID, channel int, handle core.EntityID) {
	w, ok := m.watched[id]
	if !ok {
		return
	}
	w.listeners = slices.DeleteFunc(w.listeners, func(b binding) bool {
		return b.channel == channel && b.handle == handle
	})
}

// Fire runs cleanup for id: the observer is detached, the ledger record is
// removed, bound listeners leave the registry and EntityDestroyed is
// published with the removed record. It returns the removed record, or
// false if id was not watched (cleanup already ran) or had no record.
func (m *Monitor) Fire(id core.EntityID, path core.DestroyPath) (core.OwnerID, core.TrackedEntityRecord, bool) {
	w, ok := m.watched[id]
	if !ok {
		return "", core.TrackedEntityRecord{}, false
	}
	delete(m.watched, id)
	if w.detach != nil {
		w.detach()
	}

	rec, found := m.ledger.FindRecord(w.owner, id)
	if found {
		if _, err := m.ledger.RemoveRecord(w.owner, id); err != nil {
			m.log.Error("Failed to persist record removal", "error", err, "entityId", id, "owner", w.owner)
		}
	}

	for _, b := range w.listeners {
		m.registry.RemoveListener(b.channel, b.handle)
	}

	if !found {
		m.log.Debug("Destroyed entity had no ledger record", "entityId", id, "path", path.String())
		return w.owner, core.TrackedEntityRecord{}, false
	}

	m.bus.EntityDestroyed(events.EntityDestroyed{
		OwnerID:  w.owner,
		Record:   rec,
		Path:     path,
		Position: w.entity.Position(),
	})
	return w.owner, rec, true
}

// DetachAll removes every observer without running cleanup. Records and
// listeners stay as they are so a later reconciliation can pick them up.
func (m *Monitor) DetachAll() {
	for id, w := range m.watched {
		if w.detach != nil {
			w.detach()
		}
		delete(m.watched, id)
	}
}
