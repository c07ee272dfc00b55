package coordinator

import (
	"fmt"

	"github.com/bombtrucks/extension/internal/events"
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
)

// Detonate blows up the tracked vehicle id. The ledger record and listeners
// are removed before the profile is looked up, so a vehicle whose profile
// was deleted stays in the world untracked.
func (c *Coordinator) Detonate(id core.EntityID) error {
	vehicle, ok := c.world.FindEntity(id)
	if !ok || !vehicle.Alive() {
		return fmt.Errorf("%w: %d", ErrNotTracked, id)
	}

	owner, record, found := c.monitor.Fire(id, core.PathDetonated)
	if !found {
		owner, record, found = c.ledger.Owner(id)
		if !found {
			return fmt.Errorf("%w: %d", ErrNotTracked, id)
		}
		if _, err := c.ledger.RemoveRecord(owner, id); err != nil {
			c.log.Error("Failed to persist record removal", "error", err, "entityId", id, "owner", owner)
		}
	}

	p, err := c.profile(record.ProfileName)
	if err != nil {
		c.log.Error("Unable to detonate vehicle, profile is missing",
			"entityId", id, "owner", owner, "profile", record.ProfileName)
		return err
	}

	origin := vehicle.Position()
	vehicle.Kill()
	run := c.scheduler.Start(p.Spec(), origin)
	c.log.Debug("Detonation started", "entityId", id, "owner", owner, "profile", p.Name, "run", run.ID(), "planned", run.Planned())
	return nil
}

// Broadcast fires channel: every live tracked vehicle with a receiver on
// it detonates once. It returns how many detonated.
func (c *Coordinator) Broadcast(channel int) int {
	return c.registry.FireChannel(channel)
}

func (c *Coordinator) detonateVehicle(vehicle host.Entity) {
	if err := c.Detonate(vehicle.ID()); err != nil {
		c.log.Warn("Triggered detonation failed", "error", err, "entityId", vehicle.ID())
	}
}

// resolveListener maps a receiver handle to the live tracked vehicle it is
// mounted on.
func (c *Coordinator) resolveListener(handle core.EntityID) (host.Entity, bool) {
	receiver, ok := c.world.FindEntity(handle)
	if !ok {
		return nil, false
	}
	vehicle, ok := receiver.Parent()
	if !ok || vehicle == nil || !vehicle.Alive() {
		return nil, false
	}
	if !c.IsTracked(vehicle.ID()) {
		return nil, false
	}
	return vehicle, true
}

// deathObserver detonates tracked vehicles that died. Removal without death
// only cleans up, and explicit detonations already started their run.
type deathObserver struct {
	events.NopObserver
	c *Coordinator
}

func (o deathObserver) OnEntityDestroyed(e events.EntityDestroyed) {
	if e.Path != core.PathDied {
		return
	}
	p, err := o.c.profile(e.Record.ProfileName)
	if err != nil {
		o.c.log.Error("Unable to detonate destroyed vehicle, profile is missing",
			"entityId", e.Record.EntityID, "owner", e.OwnerID, "profile", e.Record.ProfileName)
		return
	}
	o.c.scheduler.Start(p.Spec(), e.Position)
}
