package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePolyhedron

	// ShapeTypeCount is the number of shape types, used to size pairwise dispatch tables
	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeBox:
		return "box"
	case ShapeTypePolyhedron:
		return "polyhedron"
	}
	return "unknown"
}

// ShapeInterface is the interface that all collision shapes attached to a body implement.
// All geometry is expressed in the body's local space, centred on its centre of mass.
type ShapeInterface interface {
	Type() ShapeType
	// ComputeMass calculates the mass of the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	// Support returns the furthest local point along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// BoundingRadius is the radius of a sphere centred on the origin enclosing the shape
	BoundingRadius() float64
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3

	// hull caches Polyhedron, built for hullExtents
	hull        *Polyhedron
	hullExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	return CuboidInertia(b.HalfExtents, mass)
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

func (b *Box) BoundingRadius() float64 {
	return b.HalfExtents.Len()
}

// Vertices returns the 8 corners of the box in local space.
// Bit i of the corner index selects the sign of axis i.
func (b *Box) Vertices() [8]mgl64.Vec3 {
	var corners [8]mgl64.Vec3
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corners[i][axis] = b.HalfExtents[axis]
			} else {
				corners[i][axis] = -b.HalfExtents[axis]
			}
		}
	}

	return corners
}

// Polyhedron converts the box to its convex hull, so it can be tested against arbitrary polyhedra.
// The hull is built once and rebuilt only when HalfExtents changes. It must not be modified.
func (b *Box) Polyhedron() *Polyhedron {
	if b.hull != nil && b.hullExtents == b.HalfExtents {
		return b.hull
	}

	corners := b.Vertices()
	faces := [][]int{
		{1, 3, 7, 5}, // +X
		{0, 4, 6, 2}, // -X
		{2, 6, 7, 3}, // +Y
		{0, 1, 5, 4}, // -Y
		{4, 5, 7, 6}, // +Z
		{0, 2, 3, 1}, // -Z
	}

	// the box faces are known to be well formed
	b.hull, _ = NewPolyhedron(corners[:], faces)
	b.hullExtents = b.HalfExtents

	return b.hull
}

// CuboidInertia returns the inertia tensor of a solid cuboid of the given half-extents and mass
func CuboidInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Mat3 {
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0

	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r², identical on all axes
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) BoundingRadius() float64 {
	return s.Radius
}

// Plane is an immovable world plane. It is never attached to a body nor inserted in
// the hierarchy; every body is tested against every plane.
// The plane is defined by the equation: Normal · p = Offset
// where Normal is the plane's normal vector (must be normalized).
// A one-sided plane is a half-space: everything behind the normal is solid.
type Plane struct {
	Normal   mgl64.Vec3
	Offset   float64
	TwoSided bool
}

// Distance returns the signed distance from the plane to a world point
func (p Plane) Distance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) - p.Offset
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other,
// such that (normal, t1, t2) is right handed.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
