// Package gjk answers whether two convex shapes intersect, using the Gilbert-Johnson-Keerthi
// algorithm on their Minkowski difference.
//
// Shapes are only seen through their support mapping, so any convex body works: spheres,
// boxes and polyhedra alike. The query is boolean; contact geometry is extracted afterwards
// by the narrow phase.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxIterations bounds the simplex refinement loop
const MaxIterations = 32

// Supporter is a convex set in world space, described by its support mapping
type Supporter interface {
	// SupportWorld returns the furthest world point along direction
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
}

// Simplex holds 1 to 4 points of the Minkowski difference, the most recent last
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

// Push appends a point as the most recent one
func (s *Simplex) Push(point mgl64.Vec3) {
	s.Points[s.Count] = point
	s.Count++
}

func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

// Support returns the point of the Minkowski difference A - B furthest along direction
func Support(a, b Supporter, direction mgl64.Vec3) mgl64.Vec3 {
	return a.SupportWorld(direction).Sub(b.SupportWorld(direction.Mul(-1)))
}

// GJK reports whether two bodies intersect. On success the simplex is a tetrahedron
// enclosing the origin, or a lower dimensional simplex touching it.
func GJK(a, b *actor.RigidBody, simplex *Simplex) bool {
	direction := b.Transform.Position.Sub(a.Transform.Position)

	return Intersect(a, b, direction, simplex)
}

// Intersect runs the GJK loop from an initial search direction, typically from A toward B
func Intersect(a, b Supporter, direction mgl64.Vec3, simplex *Simplex) bool {
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Reset()
	simplex.Push(Support(a, b, direction))

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for i := 0; i < MaxIterations; i++ {
		point := Support(a, b, direction)

		// the new point does not pass the origin: A - B cannot contain it
		if point.Dot(direction) <= 0 {
			return false
		}

		simplex.Push(point)
		if NearestSimplex(simplex, &direction) {
			return true
		}
	}

	return false
}

// NearestSimplex reduces the simplex to its feature nearest to the origin and points
// direction toward the origin from that feature. It returns true when the simplex
// contains the origin. Simplices of another size are reported as not containing it.
func NearestSimplex(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return nearestLine(simplex, direction)
	case 3:
		return nearestTriangle(simplex, direction)
	case 4:
		return nearestTetrahedron(simplex, direction)
	}

	return false
}

func nearestLine(simplex *Simplex, direction *mgl64.Vec3) bool {
	b, a := simplex.Points[0], simplex.Points[1]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 || ab.Dot(ao) <= 0 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.set(a)
		*direction = ao
		return false
	}

	perpendicular := ab.Cross(ao).Cross(ab)
	if perpendicular.LenSqr() < 1e-8 {
		// origin on the segment
		return true
	}

	*direction = perpendicular
	return false
}

func nearestTriangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	c, b, a := simplex.Points[0], simplex.Points[1], simplex.Points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	normal := ab.Cross(ac)

	if normal.LenSqr() < 1e-10 {
		simplex.set(b, a)
		return nearestLine(simplex, direction)
	}

	if ab.Cross(normal).Dot(ao) > 0 {
		simplex.set(b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	if normal.Cross(ac).Dot(ao) > 0 {
		simplex.set(c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if normal.Dot(ao) > 0 {
		*direction = normal
	} else {
		// keep the winding so that the next face normal points to the origin
		simplex.set(b, c, a)
		*direction = normal.Mul(-1)
	}

	return false
}

func nearestTetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	d, c, b, a := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// outward normals of the three faces sharing the newest point
	faces := [3]struct {
		normal   mgl64.Vec3
		opposite mgl64.Vec3
		keep     [3]mgl64.Vec3
	}{
		{ab.Cross(ac), ad, [3]mgl64.Vec3{c, b, a}},
		{ac.Cross(ad), ab, [3]mgl64.Vec3{d, c, a}},
		{ad.Cross(ab), ac, [3]mgl64.Vec3{b, d, a}},
	}

	for i := range faces {
		if faces[i].normal.Dot(faces[i].opposite) > 0 {
			faces[i].normal = faces[i].normal.Mul(-1)
		}
		if faces[i].normal.LenSqr() < 1e-10 {
			simplex.set(c, b, a)
			return nearestTriangle(simplex, direction)
		}
	}

	for _, face := range faces {
		if face.normal.Dot(ao) > 0 {
			simplex.set(face.keep[:]...)
			return nearestTriangle(simplex, direction)
		}
	}

	return true
}
