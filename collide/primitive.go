package collide

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereAndSphere generates at most one contact between two spheres
func SphereAndSphere(one, two *actor.RigidBody, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	radiusOne := one.Shape.(*actor.Sphere).Radius
	radiusTwo := two.Shape.(*actor.Sphere).Radius

	midline := two.Transform.Position.Sub(one.Transform.Position)
	size := midline.Len()
	if size >= radiusOne+radiusTwo+data.Tolerance {
		return 0
	}

	// concentric spheres get an arbitrary normal
	normal := mgl64.Vec3{0, 1, 0}
	if size > 1e-12 {
		normal = midline.Mul(1 / size)
	}

	point := one.Transform.Position.Add(midline.Mul(0.5))
	data.add(one, two, point, normal, radiusOne+radiusTwo-size)

	return 1
}

// SphereAndHalfSpace generates at most one contact between a sphere and the solid half-space
// behind a plane
func SphereAndHalfSpace(sphere *actor.RigidBody, plane actor.Plane, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	radius := sphere.Shape.(*actor.Sphere).Radius
	position := sphere.Transform.Position

	distance := plane.Distance(position) - radius
	if distance >= data.Tolerance {
		return 0
	}

	point := position.Sub(plane.Normal.Mul(distance + radius))
	data.add(sphere, nil, point, plane.Normal.Mul(-1), -distance)

	return 1
}

// SphereAndTruePlane generates at most one contact between a sphere and a plane crossed from
// either side. The sphere is pushed back to the side its centre is on.
func SphereAndTruePlane(sphere *actor.RigidBody, plane actor.Plane, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	radius := sphere.Shape.(*actor.Sphere).Radius
	position := sphere.Transform.Position

	centreDistance := plane.Distance(position)
	if math.Abs(centreDistance) >= radius+data.Tolerance {
		return 0
	}

	normal := plane.Normal.Mul(-1)
	penetration := -centreDistance
	if centreDistance < 0 {
		normal = plane.Normal
		penetration = centreDistance
	}
	penetration += radius

	point := position.Sub(plane.Normal.Mul(centreDistance))
	data.add(sphere, nil, point, normal, penetration)

	return 1
}

// BoxAndHalfSpace generates a contact for every vertex of the box behind the plane
func BoxAndHalfSpace(box *actor.RigidBody, plane actor.Plane, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	shape := box.Shape.(*actor.Box)

	// early out on the projected half size of the box
	projectedRadius := 0.0
	for i := 0; i < 3; i++ {
		projectedRadius += shape.HalfExtents[i] * math.Abs(plane.Normal.Dot(box.Axis(i)))
	}
	if plane.Distance(box.Transform.Position)-projectedRadius >= data.Tolerance {
		return 0
	}

	count := 0
	for _, vertex := range shape.Vertices() {
		if !data.HasRemaining() {
			break
		}

		position := box.PointInWorldSpace(vertex)
		distance := plane.Distance(position)
		if distance >= data.Tolerance {
			continue
		}

		// halfway between the vertex and the plane
		point := position.Sub(plane.Normal.Mul(distance * 0.5))
		data.add(box, nil, point, plane.Normal.Mul(-1), -distance)
		count++
	}

	return count
}

// BoxAndSphere generates at most one contact between a box and a sphere, the box being Body[0]
func BoxAndSphere(box, sphere *actor.RigidBody, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	half := box.Shape.(*actor.Box).HalfExtents
	radius := sphere.Shape.(*actor.Sphere).Radius

	centre := sphere.Transform.Position
	relCentre := box.PointInLocalSpace(centre)

	// early out on each axis
	for i := 0; i < 3; i++ {
		if math.Abs(relCentre[i])-radius > half[i]+data.Tolerance {
			return 0
		}
	}

	var closest mgl64.Vec3
	for i := 0; i < 3; i++ {
		closest[i] = math.Max(-half[i], math.Min(half[i], relCentre[i]))
	}

	distance := closest.Sub(relCentre).Len()
	if distance >= radius+data.Tolerance {
		return 0
	}

	if distance > 1e-12 {
		closestWorld := box.PointInWorldSpace(closest)
		normal := centre.Sub(closestWorld).Mul(1 / distance)
		data.add(box, sphere, closestWorld, normal, radius-distance)
		return 1
	}

	// the centre is inside the box: push the sphere out through the nearest face
	axis, depth := nearestFace(relCentre, half)
	sign := 1.0
	if relCentre[axis] < 0 {
		sign = -1.0
	}
	closest = relCentre
	closest[axis] = sign * half[axis]

	data.add(box, sphere, box.PointInWorldSpace(closest), box.Axis(axis).Mul(sign), radius+depth)

	return 1
}

// BoxAndPoint generates at most one contact between a box and a fixed world point.
// The box is pushed out through the face nearest to the point.
func BoxAndPoint(box *actor.RigidBody, point mgl64.Vec3, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	half := box.Shape.(*actor.Box).HalfExtents
	relPoint := box.PointInLocalSpace(point)

	for i := 0; i < 3; i++ {
		if half[i]-math.Abs(relPoint[i]) <= 0 {
			return 0
		}
	}

	axis, depth := nearestFace(relPoint, half)
	normal := box.Axis(axis)
	if relPoint[axis] < 0 {
		normal = normal.Mul(-1)
	}

	data.add(box, nil, point, normal, depth)

	return 1
}

// nearestFace returns the axis of the box face nearest to a local point inside it, and
// the distance to that face
func nearestFace(local, half mgl64.Vec3) (int, float64) {
	axis := 0
	depth := half[0] - math.Abs(local[0])
	for i := 1; i < 3; i++ {
		if d := half[i] - math.Abs(local[i]); d < depth {
			axis, depth = i, d
		}
	}

	return axis, depth
}
