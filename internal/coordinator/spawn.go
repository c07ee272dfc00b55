package coordinator

import (
	"fmt"
	"strings"
	"time"

	"github.com/bombtrucks/extension/internal/frequency"
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
	"golang.org/x/mod/semver"
)

// SpawnResult describes a spawned vehicle.
type SpawnResult struct {
	Vehicle  core.EntityID `json:"vehicle"`
	Owner    core.OwnerID  `json:"owner"`
	Profile  string        `json:"profile"`
	Tracked  bool          `json:"tracked"`
	Receiver core.EntityID `json:"receiver,omitempty"`
	// Frequency is zero when no receiver was attached.
	Frequency int `json:"frequency,omitempty"`
}

// Spawn spawns a tracked vehicle of profileName for owner at pos. An empty
// profile name selects the default profile. The checks run in order:
// profile defined, cooldown, spawn limit, raid and combat block, guards,
// spawner available. A failed check creates no state.
func (c *Coordinator) Spawn(owner core.OwnerID, profileName string, pos core.Vec3) (SpawnResult, error) {
	p, err := c.profile(profileName)
	if err != nil {
		return SpawnResult{}, err
	}
	if err := c.verifyOffCooldown(owner, p); err != nil {
		return SpawnResult{}, err
	}
	if err := c.verifyBelowLimit(owner, p); err != nil {
		return SpawnResult{}, err
	}
	if err := c.verifyNotBlocked(owner); err != nil {
		return SpawnResult{}, err
	}
	for _, g := range c.guards {
		if !g.CanSpawn(owner) {
			return SpawnResult{}, fmt.Errorf("%w: %s", ErrSpawnDenied, owner)
		}
	}
	return c.spawn(owner, p, pos, true)
}

// Give spawns an untracked vehicle for target. It skips every player
// check, sets no cooldown and does not count against the spawn limit.
func (c *Coordinator) Give(target core.OwnerID, profileName string, pos core.Vec3) (SpawnResult, error) {
	p, err := c.profile(profileName)
	if err != nil {
		return SpawnResult{}, err
	}
	return c.spawn(target, p, pos, false)
}

// RemainingCooldown returns how long owner must wait before spawning p again.
func (c *Coordinator) RemainingCooldown(owner core.OwnerID, p core.Profile) time.Duration {
	last, ok := c.ledger.LastSpawn(owner, p.Name)
	if !ok {
		return 0
	}
	remaining := last.Add(time.Duration(p.CooldownSeconds) * time.Second).Sub(c.now())
	return max(remaining, 0)
}

func (c *Coordinator) verifyOffCooldown(owner core.OwnerID, p core.Profile) error {
	if remaining := c.RemainingCooldown(owner, p); remaining > 0 {
		return &CooldownError{Profile: p.Name, Remaining: remaining}
	}
	return nil
}

func (c *Coordinator) verifyBelowLimit(owner core.OwnerID, p core.Profile) error {
	if n := c.ledger.CountTracked(owner, p.Name); n >= p.SpawnLimitPerPlayer {
		return fmt.Errorf("%w: %d/%d %s", ErrLimitReached, n, p.SpawnLimitPerPlayer, p.Name)
	}
	return nil
}

func (c *Coordinator) verifyNotBlocked(owner core.OwnerID) error {
	if c.antiGrief == nil {
		return nil
	}
	if !c.noEscape.CanSpawnWhileRaidBlocked && c.antiGrief.IsRaidBlocked(owner) {
		return ErrRaidBlocked
	}
	if !c.noEscape.CanSpawnWhileCombatBlocked && c.antiGrief.IsCombatBlocked(owner) {
		return ErrCombatBlocked
	}
	return nil
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func (c *Coordinator) spawnerAvailable() error {
	if c.spawner == nil {
		return fmt.Errorf("%w: not installed", ErrSpawnerUnavailable)
	}
	v := normalizeVersion(c.spawner.Version())
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid version %q", ErrSpawnerUnavailable, c.spawner.Version())
	}
	if c.minVersion != "" && semver.Compare(v, c.minVersion) < 0 {
		return fmt.Errorf("%w: version %s is older than %s", ErrSpawnerUnavailable, v, c.minVersion)
	}
	return nil
}

func (c *Coordinator) spawn(owner core.OwnerID, p core.Profile, pos core.Vec3, tracked bool) (SpawnResult, error) {
	if err := c.spawnerAvailable(); err != nil {
		c.log.Error("Cannot spawn bomb vehicle", "error", err, "owner", owner, "profile", p.Name)
		return SpawnResult{}, err
	}

	vehicle, err := c.spawner.Spawn(owner, host.SpawnRequest{
		ProfileName:     p.Name,
		Modules:         p.Modules,
		EnginePartsTier: p.EnginePartsTier,
		Position:        pos,
	})
	if err != nil {
		return SpawnResult{}, fmt.Errorf("spawn %s: %w", p.Name, err)
	}
	if vehicle == nil {
		return SpawnResult{}, fmt.Errorf("spawn %s: %w: no vehicle returned", p.Name, ErrSpawnerUnavailable)
	}

	id := vehicle.ID()
	if tracked {
		if err := c.ledger.UpdateCooldown(owner, p.Name, c.now()); err != nil {
			c.log.Error("Failed to persist cooldown", "error", err, "owner", owner, "profile", p.Name)
		}
	}
	record := core.TrackedEntityRecord{EntityID: id, ProfileName: p.Name, Tracked: tracked}
	if err := c.ledger.AddRecord(owner, record); err != nil {
		c.log.Error("Failed to persist new record", "error", err, "owner", owner, "entityId", id)
	}
	c.monitor.Attach(vehicle, owner, id)

	res := SpawnResult{Vehicle: id, Owner: owner, Profile: p.Name, Tracked: tracked}
	if p.AttachReceiver {
		receiver, err := c.spawner.AttachReceiver(vehicle, frequency.RandomChannel(c.rand))
		if err != nil {
			c.log.Warn("Failed to attach receiver", "error", err, "entityId", id)
		} else {
			c.registry.AddListener(receiver.Frequency(), receiver.ID())
			c.monitor.Bind(id, receiver.Frequency(), receiver.ID())
			res.Receiver = receiver.ID()
			res.Frequency = receiver.Frequency()
		}
	}

	c.log.Info("Spawned bomb vehicle",
		"owner", owner,
		"profile", p.Name,
		"entityId", id,
		"tracked", tracked,
		"frequency", res.Frequency)
	return res, nil
}

// HelpEntry is one line of the help listing.
type HelpEntry struct {
	Profile   string        `json:"profile"`
	Used      int           `json:"used"`
	Limit     int           `json:"limit"`
	Remaining time.Duration `json:"remaining"`
}

// HelpEntries lists every profile for owner, default first then by name.
func (c *Coordinator) HelpEntries(owner core.OwnerID) []HelpEntry {
	out := make([]HelpEntry, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, HelpEntry{
			Profile:   p.Name,
			Used:      c.ledger.CountTracked(owner, p.Name),
			Limit:     p.SpawnLimitPerPlayer,
			Remaining: c.RemainingCooldown(owner, p),
		})
	}
	return out
}
