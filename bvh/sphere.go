package bvh

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// BoundingSphere is the bounding volume stored at every node of the hierarchy
type BoundingSphere struct {
	Centre mgl64.Vec3
	Radius float64
}

// SphereOf returns the world bounding sphere of a body, centred on its centre of mass
func SphereOf(body *actor.RigidBody) BoundingSphere {
	return BoundingSphere{
		Centre: body.Transform.Position,
		Radius: body.BoundingRadius(),
	}
}

// NewBoundingSphere returns a sphere enclosing both spheres.
// It is cheap to build and not the minimal sphere enclosing the underlying geometry.
func NewBoundingSphere(one, two BoundingSphere) BoundingSphere {
	centreOffset := two.Centre.Sub(one.Centre)
	distance := centreOffset.LenSqr()
	radiusDiff := two.Radius - one.Radius

	// one sphere contains the other
	if radiusDiff*radiusDiff >= distance {
		if one.Radius > two.Radius {
			return one
		}
		return two
	}

	distance = math.Sqrt(distance)
	sphere := BoundingSphere{
		Centre: one.Centre,
		Radius: (distance + one.Radius + two.Radius) * 0.5,
	}
	if distance > 0 {
		sphere.Centre = sphere.Centre.Add(centreOffset.Mul((sphere.Radius - one.Radius) / distance))
	}

	return sphere
}

// Overlaps reports whether both spheres strictly intersect, touching spheres do not overlap
func (s BoundingSphere) Overlaps(other BoundingSphere) bool {
	distanceSquared := s.Centre.Sub(other.Centre).LenSqr()
	radii := s.Radius + other.Radius

	return distanceSquared < radii*radii
}

// Size is the volume of the sphere
func (s BoundingSphere) Size() float64 {
	return (4.0 / 3.0) * math.Pi * s.Radius * s.Radius * s.Radius
}

// Growth is how much the volume would increase if the sphere was grown to enclose other
func (s BoundingSphere) Growth(other BoundingSphere) float64 {
	return NewBoundingSphere(s, other).Size() - s.Size()
}

// Contains reports whether other lies entirely inside the sphere, within tolerance
func (s BoundingSphere) Contains(other BoundingSphere, tolerance float64) bool {
	return s.Centre.Sub(other.Centre).Len()+other.Radius <= s.Radius+tolerance
}
