package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplosionSettings_Spec_Clamps(t *testing.T) {
	tests := []struct {
		name     string
		in       ExplosionSettings
		radius   float64
		speed    float64
		coef     float64
		exponent float64
	}{
		{
			name:     "in range",
			in:       ExplosionSettings{Radius: 10, Speed: 10, DensityCoefficient: 1, DensityExponent: 2},
			radius:   10,
			speed:    10,
			coef:     1,
			exponent: 2,
		},
		{
			name:     "below minimums",
			in:       ExplosionSettings{Radius: 0, Speed: 0, DensityCoefficient: 0, DensityExponent: 0.5},
			radius:   MinRadius,
			speed:    MinSpeed,
			coef:     MinDensityCoefficient,
			exponent: MinDensityExponent,
		},
		{
			name:     "exponent above maximum",
			in:       ExplosionSettings{Radius: 5, Speed: 1, DensityCoefficient: 2, DensityExponent: 7},
			radius:   5,
			speed:    1,
			coef:     2,
			exponent: MaxDensityExponent,
		},
		{
			name:     "NaN",
			in:       ExplosionSettings{Radius: math.NaN(), Speed: math.NaN(), DensityCoefficient: math.NaN(), DensityExponent: math.NaN()},
			radius:   MinRadius,
			speed:    MinSpeed,
			coef:     MinDensityCoefficient,
			exponent: MinDensityExponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in.Spec()
			assert.Equal(t, tt.radius, s.Radius())
			assert.Equal(t, tt.speed, s.Speed())
			assert.Equal(t, tt.coef, s.DensityCoefficient())
			assert.Equal(t, tt.exponent, s.DensityExponent())
		})
	}
}

func TestExplosionSpec_Derived(t *testing.T) {
	s := ExplosionSettings{Radius: 10, Speed: 10, DensityCoefficient: 1, DensityExponent: 2}.Spec()

	assert.Equal(t, 100, s.EventCount())
	assert.InDelta(t, 1.0, s.TotalTime(), 1e-12)
}

func TestExplosionSpec_EventCountRoundsUp(t *testing.T) {
	s := ExplosionSettings{Radius: 5, Speed: 10, DensityCoefficient: 1, DensityExponent: 1.8}.Spec()

	// 5^1.8 = 18.12...
	assert.Equal(t, 19, s.EventCount())
}

func TestExplosionSpec_EventCountSaturates(t *testing.T) {
	tests := []struct {
		name string
		in   ExplosionSettings
	}{
		{name: "huge radius", in: ExplosionSettings{Radius: 1e8, Speed: 10, DensityCoefficient: 1, DensityExponent: 3}},
		{name: "infinite radius", in: ExplosionSettings{Radius: math.Inf(1), Speed: 10, DensityCoefficient: 1, DensityExponent: 2}},
		{name: "just above cap", in: ExplosionSettings{Radius: MaxEventCount + 1, Speed: 10, DensityCoefficient: 1, DensityExponent: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, MaxEventCount, tt.in.Spec().EventCount())
		})
	}

	below := ExplosionSettings{Radius: MaxEventCount - 1, Speed: 10, DensityCoefficient: 1, DensityExponent: 1}.Spec()
	assert.Equal(t, MaxEventCount-1, below.EventCount())
}

func TestLedgerDocument_Clone(t *testing.T) {
	doc := NewLedgerDocument()
	entry := NewOwnerEntry("76561198000000001")
	entry.Records = append(entry.Records, TrackedEntityRecord{EntityID: 7, ProfileName: "default", Tracked: true})
	entry.Cooldowns["default"] = 1700000000
	doc.Owners[entry.OwnerID] = entry

	c := doc.Clone()
	c.Owners["76561198000000001"].Records[0].ProfileName = "Nuke"
	c.Owners["76561198000000001"].Cooldowns["default"] = 1

	assert.Equal(t, "default", doc.Owners["76561198000000001"].Records[0].ProfileName)
	assert.Equal(t, int64(1700000000), doc.Owners["76561198000000001"].Cooldowns["default"])
	assert.Equal(t, OwnerID("76561198000000001"), c.Owners["76561198000000001"].OwnerID)
	assert.Equal(t, 1, c.RecordCount())
}
