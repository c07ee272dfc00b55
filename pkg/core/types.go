// Package core holds the domain types shared between the extension's
// internal packages and the host boundary.
package core

import "gonum.org/v1/gonum/spatial/r3"

// EntityID is the host's network identifier for an entity.
// Ids are never reused while the host process is running.
type EntityID uint64

// OwnerID identifies a player. It is the string form of the player's
// platform id, which is also the key used in the persisted ledger.
type OwnerID string

// Vec3 is a point or direction in host world space. Y is up.
type Vec3 = r3.Vec

// Forward is the host's forward unit vector.
var Forward = Vec3{X: 0, Y: 0, Z: 1}

// DestroyPath describes how a tracked entity left the world.
type DestroyPath int

const (
	// PathDied is the host's explicit death notification.
	PathDied DestroyPath = iota
	// PathRemoved is a removal without a death notification (admin kill, despawn, cleanup).
	PathRemoved
	// PathDetonated is a detonation started by the extension itself.
	PathDetonated
)

func (p DestroyPath) String() string {
	switch p {
	case PathDied:
		return "died"
	case PathRemoved:
		return "removed"
	case PathDetonated:
		return "detonated"
	default:
		return "unknown"
	}
}
