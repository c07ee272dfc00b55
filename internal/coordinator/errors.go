package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/bombtrucks/extension/pkg/core"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrSpawnerUnavailable = errors.New("vehicle spawner unavailable")
	ErrLimitReached       = errors.New("spawn limit reached")
	ErrRaidBlocked        = errors.New("raid blocked")
	ErrCombatBlocked      = errors.New("combat blocked")
	ErrSpawnDenied        = errors.New("spawn denied")
	ErrNotTracked         = errors.New("entity is not tracked")
)

// CooldownError is returned by Spawn while the owner's last spawn of a
// profile is more recent than the profile's cooldown.
type CooldownError struct {
	Profile   string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("profile %s is on cooldown for %s", e.Profile, e.Remaining)
}

// SpawnGuard is consulted before every player spawn. Any guard returning
// false denies the spawn.
type SpawnGuard interface {
	CanSpawn(owner core.OwnerID) bool
}

// SpawnGuardFunc adapts a function to SpawnGuard.
type SpawnGuardFunc func(owner core.OwnerID) bool

func (f SpawnGuardFunc) CanSpawn(owner core.OwnerID) bool {
	return f(owner)
}
