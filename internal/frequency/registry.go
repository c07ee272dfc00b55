// Package frequency maps trigger channels to the receivers listening on
// them. A handle is the receiver's entity id; the registry never holds a
// live entity reference and resolves handles through the injected Resolver
// only when a channel fires.
package frequency

import (
	"slices"

	"github.com/bombtrucks/extension/internal/events"
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
)

// Lowest and highest channel a receiver can be tuned to.
const (
	MinChannel = 1
	MaxChannel = 9999
)

// Resolver maps a listener handle to the live vehicle that owns it.
type Resolver func(handle core.EntityID) (host.Entity, bool)

// DetonateFunc is invoked once per resolved vehicle when its channel fires.
type DetonateFunc func(vehicle host.Entity)

// Registry is mutated only from the simulation thread.
type Registry struct {
	channels map[int][]core.EntityID
	resolve  Resolver
	detonate DetonateFunc
	bus      *events.Bus
}

// New creates an empty registry. bus may be nil.
func New(resolve Resolver, detonate DetonateFunc, bus *events.Bus) *Registry {
	return &Registry{
		channels: make(map[int][]core.EntityID),
		resolve:  resolve,
		detonate: detonate,
		bus:      bus,
	}
}

// AddListener registers handle on channel. Adding a handle twice is a no-op.
func (r *Registry) AddListener(channel int, handle core.EntityID) bool {
	list := r.channels[channel]
	if slices.Contains(list, handle) {
		return false
	}
	r.channels[channel] = append(list, handle)
	r.bus.ListenerAdded(events.ListenerAdded{Channel: channel, Handle: handle})
	return true
}

// RemoveListener unregisters handle from channel. Removing a handle that is
// not registered is a no-op.
func (r *Registry) RemoveListener(channel int, handle core.EntityID) bool {
	list, ok := r.channels[channel]
	if !ok {
		return false
	}
	i := slices.Index(list, handle)
	if i < 0 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(r.channels, channel)
	} else {
		r.channels[channel] = list
	}
	r.bus.ListenerRemoved(events.ListenerRemoved{Channel: channel, Handle: handle})
	return true
}

// FireChannel detonates every live vehicle listening on channel and returns
// how many were detonated. It works on a snapshot of the listener list, so
// listeners removed by an earlier detonation in the same call are resolved
// against the world and skipped once their vehicle is gone. A channel with
// no listeners is a no-op and publishes nothing.
func (r *Registry) FireChannel(channel int) int {
	snapshot := slices.Clone(r.channels[channel])
	if len(snapshot) == 0 {
		return 0
	}

	fired := 0
	seen := make(map[core.EntityID]struct{}, len(snapshot))
	for _, handle := range snapshot {
		vehicle, ok := r.resolve(handle)
		if !ok || vehicle == nil || !vehicle.Alive() {
			continue
		}
		if _, dup := seen[vehicle.ID()]; dup {
			continue
		}
		seen[vehicle.ID()] = struct{}{}
		r.detonate(vehicle)
		fired++
	}

	r.bus.TriggerFired(events.TriggerFired{
		Channel:   channel,
		Listeners: len(snapshot),
		Resolved:  fired,
	})
	return fired
}

// Clear unregisters every listener, publishing ListenerRemoved for each in
// channel order, and returns how many were removed.
func (r *Registry) Clear() int {
	n := 0
	for _, channel := range r.Channels() {
		for _, handle := range r.channels[channel] {
			r.bus.ListenerRemoved(events.ListenerRemoved{Channel: channel, Handle: handle})
			n++
		}
	}
	clear(r.channels)
	return n
}

// Listeners returns a copy of the handles registered on channel.
func (r *Registry) Listeners(channel int) []core.EntityID {
	return slices.Clone(r.channels[channel])
}

// Channels returns every channel with at least one listener, ascending.
func (r *Registry) Channels() []int {
	out := make([]int, 0, len(r.channels))
	for ch := range r.channels {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

// Len returns the total number of registered handles.
func (r *Registry) Len() int {
	n := 0
	for _, list := range r.channels {
		n += len(list)
	}
	return n
}
