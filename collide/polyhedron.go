package collide

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// insideTolerance lets points lying on a face count as inside the polyhedron
const insideTolerance = 1e-9

// polyhedronOf returns the convex hull of a box or polyhedron body
func polyhedronOf(body *actor.RigidBody) *actor.Polyhedron {
	switch shape := body.Shape.(type) {
	case *actor.Polyhedron:
		return shape
	case *actor.Box:
		return shape.Polyhedron()
	}

	return nil
}

// PolyhedronAndPolyhedron generates contacts between two convex polyhedra, boxes included.
// A GJK test rejects separated pairs, then every vertex of one inside the other gives a contact
// against its shallowest face, and every pair of crossing edges gives an edge-edge contact.
func PolyhedronAndPolyhedron(one, two *actor.RigidBody, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}

	var simplex gjk.Simplex
	if !gjk.GJK(one, two, &simplex) {
		return 0
	}

	polyOne := polyhedronOf(one)
	polyTwo := polyhedronOf(two)
	count := 0

	// vertices of two inside one: the face normal of one points from one toward two
	for _, vertex := range polyTwo.Vertices {
		point := two.PointInWorldSpace(vertex)
		normal, penetration, ok := PointAndConvexPolyhedron(point, one, polyOne)
		if !ok || penetration <= 0 {
			continue
		}
		if !data.add(one, two, point, normal, penetration) {
			return count
		}
		count++
	}

	// vertices of one inside two
	for _, vertex := range polyOne.Vertices {
		point := one.PointInWorldSpace(vertex)
		normal, penetration, ok := PointAndConvexPolyhedron(point, two, polyTwo)
		if !ok || penetration <= 0 {
			continue
		}
		if !data.add(one, two, point, normal.Mul(-1), penetration) {
			return count
		}
		count++
	}

	for _, edgeOne := range polyOne.Edges {
		a0 := one.PointInWorldSpace(polyOne.Vertices[edgeOne[0]])
		a1 := one.PointInWorldSpace(polyOne.Vertices[edgeOne[1]])

		for _, edgeTwo := range polyTwo.Edges {
			b0 := two.PointInWorldSpace(polyTwo.Vertices[edgeTwo[0]])
			b1 := two.PointInWorldSpace(polyTwo.Vertices[edgeTwo[1]])

			point, normal, penetration, ok := EdgeToEdge(a0, a1, b0, b1, one.Transform.Position, two.Transform.Position)
			if !ok {
				continue
			}

			// both closest points must lie within the other body, or the edges only pass by
			onOne := point.Add(normal.Mul(penetration * 0.5))
			onTwo := point.Sub(normal.Mul(penetration * 0.5))
			if !contains(two, polyTwo, onOne) || !contains(one, polyOne, onTwo) {
				continue
			}

			if !data.add(one, two, point, normal, penetration) {
				return count
			}
			count++
		}
	}

	return count
}

// PointAndConvexPolyhedron tests a world point against a polyhedron body. When the point is
// inside, it returns the outward world normal of the shallowest face and the depth below it.
func PointAndConvexPolyhedron(point mgl64.Vec3, body *actor.RigidBody, poly *actor.Polyhedron) (mgl64.Vec3, float64, bool) {
	local := body.PointInLocalSpace(point)

	bestFace := -1
	bestDistance := -math.MaxFloat64
	for i, face := range poly.Faces {
		distance := face.Normal.Dot(local) - face.Offset
		if distance > insideTolerance {
			return mgl64.Vec3{}, 0, false
		}
		if distance > bestDistance {
			bestFace, bestDistance = i, distance
		}
	}
	if bestFace < 0 {
		return mgl64.Vec3{}, 0, false
	}

	return body.DirectionInWorldSpace(poly.Faces[bestFace].Normal), -bestDistance, true
}

// EdgeToEdge finds the contact between the edge a0-a1 of a body centred on centreA and the
// edge b0-b1 of a body centred on centreB. The normal is the cross product of the edges,
// oriented from A toward B, and the penetration is how far the point of A's edge lies beyond
// the point of B's edge along it. Edges whose closest points fall outside either segment, or
// that do not overlap, give no contact.
func EdgeToEdge(a0, a1, b0, b1, centreA, centreB mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64, bool) {
	directionA := a1.Sub(a0)
	directionB := b1.Sub(b0)

	normal := directionA.Cross(directionB)
	if normal.LenSqr() < 1e-12 {
		return mgl64.Vec3{}, mgl64.Vec3{}, 0, false
	}
	normal = normal.Normalize()
	if normal.Dot(centreB.Sub(centreA)) < 0 {
		normal = normal.Mul(-1)
	}

	s, t, ok := closestOnSegments(a0, directionA, b0, directionB)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, 0, false
	}
	onA := a0.Add(directionA.Mul(s))
	onB := b0.Add(directionB.Mul(t))

	penetration := onA.Sub(onB).Dot(normal)
	if penetration <= 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, 0, false
	}

	return onA.Add(onB).Mul(0.5), normal, penetration, true
}

// closestOnSegments returns the parameters of the closest points of the lines p + s·d and
// q + t·e, and whether both lie strictly within their segment
func closestOnSegments(p, d, q, e mgl64.Vec3) (float64, float64, bool) {
	r := p.Sub(q)
	a := d.Dot(d)
	b := d.Dot(e)
	c := e.Dot(e)
	f := d.Dot(r)
	g := e.Dot(r)

	denominator := a*c - b*b
	if math.Abs(denominator) < 1e-12 {
		return 0, 0, false
	}

	s := (b*g - c*f) / denominator
	t := (a*g - b*f) / denominator
	if s <= 0 || s >= 1 || t <= 0 || t >= 1 {
		return 0, 0, false
	}

	return s, t, true
}

// contains reports whether a world point lies within the polyhedron of body
func contains(body *actor.RigidBody, poly *actor.Polyhedron, point mgl64.Vec3) bool {
	local := body.PointInLocalSpace(point)
	for _, face := range poly.Faces {
		if face.Normal.Dot(local)-face.Offset > insideTolerance {
			return false
		}
	}

	return true
}

// PolyhedronAndHalfSpace generates a contact for every vertex of the polyhedron behind the plane
func PolyhedronAndHalfSpace(body *actor.RigidBody, plane actor.Plane, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	poly := polyhedronOf(body)

	if plane.Distance(body.Transform.Position)-poly.BoundingRadius() >= data.Tolerance {
		return 0
	}

	count := 0
	for _, vertex := range poly.Vertices {
		position := body.PointInWorldSpace(vertex)
		distance := plane.Distance(position)
		if distance >= data.Tolerance {
			continue
		}

		point := position.Sub(plane.Normal.Mul(distance * 0.5))
		if !data.add(body, nil, point, plane.Normal.Mul(-1), -distance) {
			break
		}
		count++
	}

	return count
}

// PolyhedronAndSphere generates at most one contact between a polyhedron, Body[0], and a sphere
func PolyhedronAndSphere(body, sphere *actor.RigidBody, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	poly := polyhedronOf(body)
	radius := sphere.Shape.(*actor.Sphere).Radius
	centre := body.PointInLocalSpace(sphere.Transform.Position)

	// find the face the centre is furthest in front of
	bestFace := 0
	bestDistance := -math.MaxFloat64
	for i, face := range poly.Faces {
		if distance := face.Normal.Dot(centre) - face.Offset; distance > bestDistance {
			bestFace, bestDistance = i, distance
		}
	}
	if bestDistance >= radius+data.Tolerance {
		return 0
	}

	if bestDistance <= 0 {
		// the centre is inside: push the sphere out through the shallowest face
		face := poly.Faces[bestFace]
		closest := centre.Sub(face.Normal.Mul(bestDistance))
		data.add(body, sphere, body.PointInWorldSpace(closest), body.DirectionInWorldSpace(face.Normal), radius-bestDistance)
		return 1
	}

	closest := closestOnPolyhedron(poly, centre)
	offset := centre.Sub(closest)
	distance := offset.Len()
	if distance >= radius+data.Tolerance || distance < 1e-12 {
		return 0
	}

	normal := body.DirectionInWorldSpace(offset.Mul(1 / distance))
	data.add(body, sphere, body.PointInWorldSpace(closest), normal, radius-distance)

	return 1
}

// closestOnPolyhedron returns the point of the polyhedron surface closest to a local point
// outside it: either its projection inside a face, or the closest point of an edge
func closestOnPolyhedron(poly *actor.Polyhedron, point mgl64.Vec3) mgl64.Vec3 {
	best := poly.Vertices[0]
	bestDistance := point.Sub(best).LenSqr()

	for _, face := range poly.Faces {
		projected := point.Sub(face.Normal.Mul(face.Normal.Dot(point) - face.Offset))
		if !insideFace(poly, face, projected) {
			continue
		}
		if d := point.Sub(projected).LenSqr(); d < bestDistance {
			best, bestDistance = projected, d
		}
	}

	for _, edge := range poly.Edges {
		start := poly.Vertices[edge[0]]
		direction := poly.Vertices[edge[1]].Sub(start)
		t := point.Sub(start).Dot(direction) / direction.LenSqr()
		t = math.Max(0, math.Min(1, t))

		closest := start.Add(direction.Mul(t))
		if d := point.Sub(closest).LenSqr(); d < bestDistance {
			best, bestDistance = closest, d
		}
	}

	return best
}

// insideFace reports whether a point of the face plane lies within the face polygon
func insideFace(poly *actor.Polyhedron, face actor.Face, point mgl64.Vec3) bool {
	for i, index := range face.Indices {
		current := poly.Vertices[index]
		next := poly.Vertices[face.Indices[(i+1)%len(face.Indices)]]

		// inward edge normal, whatever the winding of the face
		inward := face.Normal.Cross(next.Sub(current))
		if inward.Dot(poly.Vertices[face.Indices[(i+2)%len(face.Indices)]].Sub(current)) < 0 {
			inward = inward.Mul(-1)
		}
		if inward.Dot(point.Sub(current)) < -insideTolerance {
			return false
		}
	}

	return true
}
