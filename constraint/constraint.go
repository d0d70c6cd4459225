package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
)

// ContactGenerator is anything producing contacts every frame besides collisions, such as joints.
// AddContact writes at most len(dst) contacts and returns how many were written.
type ContactGenerator interface {
	AddContact(dst []Contact) int
}

// ComputeRestitution averages the restitution of both materials
func ComputeRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

func ComputeFriction(matA, matB actor.Material) float64 {
	// Geometric mean (standard in physics)
	return math.Sqrt(matA.Friction * matB.Friction)
}

// MixMaterials returns the friction and restitution of a contact between two bodies.
// b may be nil for a contact against the world, the material of a is then used alone.
func MixMaterials(a, b *actor.RigidBody) (friction, restitution float64) {
	if b == nil {
		return a.Material.Friction, a.Material.Restitution
	}

	return ComputeFriction(a.Material, b.Material), ComputeRestitution(a.Material, b.Material)
}
