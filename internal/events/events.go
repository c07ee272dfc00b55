// Package events carries notifications between the core components and the
// outbound sinks. Publishing is synchronous and happens on the simulation
// thread; observers that do slow work must hand values off themselves.
package events

import (
	"time"

	"github.com/bombtrucks/extension/pkg/core"
)

// EntityDestroyed is published once per tracked entity, after its ledger
// record and listeners were removed.
type EntityDestroyed struct {
	OwnerID   core.OwnerID
	Record    core.TrackedEntityRecord
	Path      core.DestroyPath
	Position  core.Vec3
	Timestamp time.Time
}

// ListenerAdded is published when a handle joins a channel.
type ListenerAdded struct {
	Channel   int
	Handle    core.EntityID
	Timestamp time.Time
}

// ListenerRemoved is published when a handle leaves a channel.
type ListenerRemoved struct {
	Channel   int
	Handle    core.EntityID
	Timestamp time.Time
}

// TriggerFired is published when a channel with at least one listener
// fires.
type TriggerFired struct {
	Channel   int
	Listeners int
	Resolved  int
	Timestamp time.Time
}

// Observer receives bus notifications. Embed NopObserver to implement only
// the methods you need.
type Observer interface {
	OnEntityDestroyed(EntityDestroyed)
	OnListenerAdded(ListenerAdded)
	OnListenerRemoved(ListenerRemoved)
	OnTriggerFired(TriggerFired)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnEntityDestroyed(EntityDestroyed) {}
func (NopObserver) OnListenerAdded(ListenerAdded)     {}
func (NopObserver) OnListenerRemoved(ListenerRemoved) {}
func (NopObserver) OnTriggerFired(TriggerFired)       {}

// Bus fans notifications out to observers in subscription order.
// A nil *Bus is valid and drops everything.
type Bus struct {
	observers []Observer
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds o to the bus.
func (b *Bus) Subscribe(o Observer) {
	if b == nil || o == nil {
		return
	}
	b.observers = append(b.observers, o)
}

// Len returns the number of subscribed observers.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	return len(b.observers)
}

func (b *Bus) snapshot() []Observer {
	if b == nil || len(b.observers) == 0 {
		return nil
	}
	out := make([]Observer, len(b.observers))
	copy(out, b.observers)
	return out
}

func (b *Bus) EntityDestroyed(e EntityDestroyed) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	for _, o := range b.snapshot() {
		o.OnEntityDestroyed(e)
	}
}

func (b *Bus) ListenerAdded(e ListenerAdded) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	for _, o := range b.snapshot() {
		o.OnListenerAdded(e)
	}
}

func (b *Bus) ListenerRemoved(e ListenerRemoved) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	for _, o := range b.snapshot() {
		o.OnListenerRemoved(e)
	}
}

func (b *Bus) TriggerFired(e TriggerFired) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	for _, o := range b.snapshot() {
		o.OnTriggerFired(e)
	}
}
