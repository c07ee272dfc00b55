package coordinator

import "github.com/bombtrucks/extension/pkg/core"

// ListenerAdded is called by the host when a receiver is tuned to channel.
// Receivers are parented after they spawn, so the check waits for the next
// Tick.
func (c *Coordinator) ListenerAdded(handle core.EntityID, channel int) {
	c.pending.Push(pendingListener{channel: channel, handle: handle})
}

// ListenerRemoved is called by the host when a receiver stops listening.
func (c *Coordinator) ListenerRemoved(handle core.EntityID, channel int) {
	c.registry.RemoveListener(channel, handle)
	if receiver, ok := c.world.FindEntity(handle); ok {
		if vehicle, ok := receiver.Parent(); ok {
			c.monitor.Unbind(vehicle.ID(), channel, handle)
		}
	}
}

func (c *Coordinator) registerListener(n pendingListener) {
	receiver, ok := c.world.FindEntity(n.handle)
	if !ok || !receiver.Alive() {
		return
	}
	vehicle, ok := receiver.Parent()
	if !ok || vehicle == nil || !vehicle.Alive() || !c.IsTracked(vehicle.ID()) {
		return
	}
	c.registry.AddListener(n.channel, n.handle)
	c.monitor.Bind(vehicle.ID(), n.channel, n.handle)
}
