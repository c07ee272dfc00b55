package detonation

import (
	"math"

	"github.com/bombtrucks/extension/pkg/core"
)

// TravelTime is the fuse time of every sub-explosion projectile, in seconds.
const TravelTime = 0.3

// SkipDistance is how far along its direction each projectile spawns from
// the origin, so projectiles do not collide with each other at launch.
const SkipDistance = 1.0

// Step is one planned sub-explosion. Step 0 is the primary blast.
type Step struct {
	Index          int
	Offset         float64 // seconds after the primary blast
	TargetDistance float64
}

// delayAfter is the wait after step i given the time already elapsed.
// Negative and non-finite waits become zero.
func delayAfter(spec core.ExplosionSpec, i int, elapsed float64) float64 {
	d := math.Pow(float64(i)/spec.DensityCoefficient(), 1/spec.DensityExponent())/spec.Speed() - elapsed
	if !(d > 0) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

// targetDistance is how far the shock front has travelled after elapsed.
func targetDistance(spec core.ExplosionSpec, elapsed float64) float64 {
	return spec.Radius() * (elapsed / spec.TotalTime())
}

// Timeline returns every step of a detonation of spec with its firing
// offset. Timing does not depend on the random jitter, so the result is
// the same for every run of spec.
func Timeline(spec core.ExplosionSpec) []Step {
	count := spec.EventCount()
	steps := make([]Step, 0, count+1)
	steps = append(steps, Step{Index: 0})

	elapsed := 0.0
	for i := 1; i <= count; i++ {
		steps = append(steps, Step{
			Index:          i,
			Offset:         elapsed,
			TargetDistance: targetDistance(spec, elapsed),
		})
		elapsed += delayAfter(spec, i, elapsed)
	}
	return steps
}
