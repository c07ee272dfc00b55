package core

// PrefabExplosiveRocket is the projectile used for every sub-explosion.
const PrefabExplosiveRocket = "assets/prefabs/ammo/rocket/rocket_basic.prefab"

// FireCommand asks the host to launch one timed projectile.
type FireCommand struct {
	Prefab           string
	Position         Vec3
	Velocity         Vec3
	TravelTime       float64
	RadiusMultiplier float32
	DamageMultiplier float32
}
