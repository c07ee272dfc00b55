package core

import (
	"slices"
	"strings"
)

// DefaultProfileName is listed first in help output.
const DefaultProfileName = "default"

// Profile is a spawnable vehicle configuration.
type Profile struct {
	Name                string            `json:"name" mapstructure:"name"`
	CooldownSeconds     int64             `json:"cooldownSeconds" mapstructure:"cooldownSeconds"`
	SpawnLimitPerPlayer int               `json:"spawnLimitPerPlayer" mapstructure:"spawnLimitPerPlayer"`
	AttachReceiver      bool              `json:"attachReceiver" mapstructure:"attachReceiver"`
	EnginePartsTier     int               `json:"enginePartsTier" mapstructure:"enginePartsTier"`
	Modules             []string          `json:"modules" mapstructure:"modules"`
	ExplosionSettings   ExplosionSettings `json:"explosionSettings" mapstructure:"explosionSettings"`
}

// BaseProfile holds the values a profile entry gets for every field it omits.
func BaseProfile() Profile {
	return Profile{
		CooldownSeconds:     0,
		SpawnLimitPerPlayer: 1,
		AttachReceiver:      true,
		EnginePartsTier:     1,
		Modules: []string{
			"vehicle.1mod.cockpit.with.engine",
			"vehicle.2mod.fuel.tank",
		},
		ExplosionSettings: DefaultExplosionSettings(),
	}
}

// DefaultProfiles are written to a fresh configuration file.
func DefaultProfiles() []Profile {
	def := BaseProfile()
	def.Name = DefaultProfileName
	def.EnginePartsTier = 3
	def.CooldownSeconds = 3600
	def.SpawnLimitPerPlayer = 3
	def.ExplosionSettings = ExplosionSettings{
		Radius:             5,
		Speed:              10,
		DensityCoefficient: 1,
		DensityExponent:    1.8,
		BlastRadiusMult:    1,
		DamageMult:         4,
	}

	nuke := BaseProfile()
	nuke.Name = "Nuke"
	nuke.EnginePartsTier = 1
	nuke.CooldownSeconds = 10800
	nuke.SpawnLimitPerPlayer = 1
	nuke.Modules = []string{
		"vehicle.1mod.engine",
		"vehicle.1mod.cockpit.armored",
		"vehicle.2mod.fuel.tank",
	}
	nuke.ExplosionSettings = ExplosionSettings{
		Radius:             15,
		Speed:              10,
		DensityCoefficient: 1,
		DensityExponent:    1.6,
		BlastRadiusMult:    1,
		DamageMult:         6,
	}

	return []Profile{def, nuke}
}

// Normalize clamps the engine tier into 1..3.
func (p *Profile) Normalize() {
	p.EnginePartsTier = min(max(p.EnginePartsTier, 1), 3)
}

// Spec returns the profile's clamped explosion.
func (p Profile) Spec() ExplosionSpec {
	return p.ExplosionSettings.Spec()
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	p.Modules = slices.Clone(p.Modules)
	return p
}

// SortProfiles orders profiles with the default profile first, then by name.
func SortProfiles(profiles []Profile) {
	slices.SortStableFunc(profiles, func(a, b Profile) int {
		aDef := strings.EqualFold(a.Name, DefaultProfileName)
		bDef := strings.EqualFold(b.Name, DefaultProfileName)
		switch {
		case aDef && !bDef:
			return -1
		case bDef && !aDef:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// FindProfile looks a profile up by name, ignoring case.
func FindProfile(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}
