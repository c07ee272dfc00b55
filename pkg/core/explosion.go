package core

import "math"

// Lower and upper bounds enforced when an ExplosionSpec is built.
const (
	MinRadius             = 0.1
	MinSpeed              = 0.1
	MinDensityCoefficient = 0.01
	MinDensityExponent    = 1.0
	MaxDensityExponent    = 3.0

	// MaxEventCount caps the sub-explosions of one detonation.
	MaxEventCount = 1 << 20
)

// ExplosionSettings is the configuration shape of an explosion. Values are
// taken as written; call Spec to obtain the validated form.
type ExplosionSettings struct {
	Radius             float64 `json:"radius" mapstructure:"radius"`
	Speed              float64 `json:"speed" mapstructure:"speed"`
	DensityCoefficient float64 `json:"densityCoefficient" mapstructure:"densityCoefficient"`
	DensityExponent    float64 `json:"densityExponent" mapstructure:"densityExponent"`
	BlastRadiusMult    float32 `json:"blastRadiusMult" mapstructure:"blastRadiusMult"`
	DamageMult         float32 `json:"damageMult" mapstructure:"damageMult"`
}

// DefaultExplosionSettings mirrors the values a profile gets when its
// explosion block is omitted.
func DefaultExplosionSettings() ExplosionSettings {
	return ExplosionSettings{
		Radius:             10,
		Speed:              10,
		DensityCoefficient: 1,
		DensityExponent:    2,
		BlastRadiusMult:    1,
		DamageMult:         1,
	}
}

// Spec clamps the settings into an ExplosionSpec.
func (s ExplosionSettings) Spec() ExplosionSpec {
	return ExplosionSpec{
		radius:             atLeast(s.Radius, MinRadius),
		speed:              atLeast(s.Speed, MinSpeed),
		densityCoefficient: atLeast(s.DensityCoefficient, MinDensityCoefficient),
		densityExponent:    math.Min(atLeast(s.DensityExponent, MinDensityExponent), MaxDensityExponent),
		blastRadiusMult:    s.BlastRadiusMult,
		damageMult:         s.DamageMult,
	}
}

// atLeast also maps NaN to min.
func atLeast(v, min float64) float64 {
	if math.IsNaN(v) || v < min {
		return min
	}
	return v
}

// ExplosionSpec is a clamped explosion description. The zero value is not
// valid; build specs with ExplosionSettings.Spec.
type ExplosionSpec struct {
	radius             float64
	speed              float64
	densityCoefficient float64
	densityExponent    float64
	blastRadiusMult    float32
	damageMult         float32
}

func (s ExplosionSpec) Radius() float64             { return s.radius }
func (s ExplosionSpec) Speed() float64              { return s.speed }
func (s ExplosionSpec) DensityCoefficient() float64 { return s.densityCoefficient }
func (s ExplosionSpec) DensityExponent() float64    { return s.densityExponent }
func (s ExplosionSpec) BlastRadiusMult() float32    { return s.blastRadiusMult }
func (s ExplosionSpec) DamageMult() float32         { return s.damageMult }

// Settings converts the spec back to its configuration shape.
func (s ExplosionSpec) Settings() ExplosionSettings {
	return ExplosionSettings{
		Radius:             s.radius,
		Speed:              s.speed,
		DensityCoefficient: s.densityCoefficient,
		DensityExponent:    s.densityExponent,
		BlastRadiusMult:    s.blastRadiusMult,
		DamageMult:         s.damageMult,
	}
}

// TotalTime is the time the shock front needs to reach the full radius.
func (s ExplosionSpec) TotalTime() float64 {
	return s.radius / s.speed
}

// EventCount is the number of sub-explosions after the primary blast,
// saturated at MaxEventCount.
func (s ExplosionSpec) EventCount() int {
	n := math.Ceil(s.densityCoefficient * math.Pow(s.radius, s.densityExponent))
	if !(n < MaxEventCount) {
		return MaxEventCount
	}
	return int(n)
}
