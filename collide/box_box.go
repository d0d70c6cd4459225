package collide

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// BoxAndBox generates at most one contact between two oriented boxes using the separating axis
// test on their 15 candidate axes: 3 face normals of each box and the 9 cross products of
// their edge directions.
func BoxAndBox(one, two *actor.RigidBody, data *CollisionData) int {
	if !data.HasRemaining() {
		return 0
	}
	halfOne := one.Shape.(*actor.Box).HalfExtents
	halfTwo := two.Shape.(*actor.Box).HalfExtents

	toCentre := two.Transform.Position.Sub(one.Transform.Position)

	best := -1
	smallest := math.MaxFloat64

	tryAxis := func(axis mgl64.Vec3, index int) bool {
		// near parallel edges give no usable axis
		if axis.LenSqr() < 1e-4 {
			return true
		}
		axis = axis.Normalize()

		penetration := penetrationOnAxis(one, halfOne, two, halfTwo, axis, toCentre)
		if penetration <= 0 {
			return false
		}

		if index >= 6 {
			penetration += data.FaceBias
		}
		if penetration < smallest {
			smallest = penetration
			best = index
		}

		return true
	}

	for i := 0; i < 3; i++ {
		if !tryAxis(one.Axis(i), i) {
			return 0
		}
	}
	for i := 0; i < 3; i++ {
		if !tryAxis(two.Axis(i), i+3) {
			return 0
		}
	}
	bestSingleAxis := best

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !tryAxis(one.Axis(i).Cross(two.Axis(j)), 6+i*3+j) {
				return 0
			}
		}
	}

	switch {
	case best < 0:
		return 0
	case best < 3:
		pointFaceBoxBox(one, halfOne, two, halfTwo, toCentre, best, smallest, data)
	case best < 6:
		pointFaceBoxBox(two, halfTwo, one, halfOne, toCentre.Mul(-1), best-3, smallest, data)
	default:
		edgeEdgeBoxBox(one, halfOne, two, halfTwo, toCentre, best-6, bestSingleAxis, smallest-data.FaceBias, data)
	}

	return 1
}

// transformToAxis projects the half size of a box onto an axis
func transformToAxis(box *actor.RigidBody, half, axis mgl64.Vec3) float64 {
	return half.X()*math.Abs(axis.Dot(box.Axis(0))) +
		half.Y()*math.Abs(axis.Dot(box.Axis(1))) +
		half.Z()*math.Abs(axis.Dot(box.Axis(2)))
}

// penetrationOnAxis returns how much the two boxes overlap along axis, negative when separated
func penetrationOnAxis(one *actor.RigidBody, halfOne mgl64.Vec3, two *actor.RigidBody, halfTwo mgl64.Vec3, axis, toCentre mgl64.Vec3) float64 {
	oneProject := transformToAxis(one, halfOne, axis)
	twoProject := transformToAxis(two, halfTwo, axis)
	distance := math.Abs(toCentre.Dot(axis))

	return oneProject + twoProject - distance
}

// pointFaceBoxBox writes the contact of the deepest vertex of two against face axis of one
func pointFaceBoxBox(one *actor.RigidBody, halfOne mgl64.Vec3, two *actor.RigidBody, halfTwo mgl64.Vec3, toCentre mgl64.Vec3, axis int, penetration float64, data *CollisionData) {
	normal := one.Axis(axis)
	if normal.Dot(toCentre) < 0 {
		normal = normal.Mul(-1)
	}

	// the vertex of two furthest toward one
	vertex := halfTwo
	for i := 0; i < 3; i++ {
		if two.Axis(i).Dot(normal) > 0 {
			vertex[i] = -vertex[i]
		}
	}

	data.add(one, two, two.PointInWorldSpace(vertex), normal, penetration)
}

// edgeEdgeBoxBox writes the contact between the edges of both boxes whose cross product is the
// separating axis of least overlap
func edgeEdgeBoxBox(one *actor.RigidBody, halfOne mgl64.Vec3, two *actor.RigidBody, halfTwo mgl64.Vec3, toCentre mgl64.Vec3, index, bestSingleAxis int, penetration float64, data *CollisionData) {
	oneAxisIndex := index / 3
	twoAxisIndex := index % 3
	oneAxis := one.Axis(oneAxisIndex)
	twoAxis := two.Axis(twoAxisIndex)

	axis := oneAxis.Cross(twoAxis).Normalize()
	if axis.Dot(toCentre) < 0 {
		axis = axis.Mul(-1)
	}

	// a point on each edge: the edge of one facing two, and the edge of two facing one
	pointOnOne := halfOne
	pointOnTwo := halfTwo
	for i := 0; i < 3; i++ {
		if i == oneAxisIndex {
			pointOnOne[i] = 0
		} else if one.Axis(i).Dot(axis) < 0 {
			pointOnOne[i] = -pointOnOne[i]
		}

		if i == twoAxisIndex {
			pointOnTwo[i] = 0
		} else if two.Axis(i).Dot(axis) > 0 {
			pointOnTwo[i] = -pointOnTwo[i]
		}
	}

	point := edgeContactPoint(
		one.PointInWorldSpace(pointOnOne), oneAxis, halfOne[oneAxisIndex],
		two.PointInWorldSpace(pointOnTwo), twoAxis, halfTwo[twoAxisIndex],
		bestSingleAxis > 2,
	)

	data.add(one, two, point, axis, penetration)
}

// edgeContactPoint returns the midpoint of the closest points of two edges, each given by its
// midpoint, direction and half length. If the closest points fall outside either edge, the
// contact is really an edge against a face and the midpoint of the edge of one (useOne) or two
// is used instead.
func edgeContactPoint(pointOne, directionOne mgl64.Vec3, sizeOne float64, pointTwo, directionTwo mgl64.Vec3, sizeTwo float64, useOne bool) mgl64.Vec3 {
	fallback := pointTwo
	if useOne {
		fallback = pointOne
	}

	toStart := pointOne.Sub(pointTwo)
	dpStartOne := directionOne.Dot(toStart)
	dpStartTwo := directionTwo.Dot(toStart)

	squareOne := directionOne.LenSqr()
	squareTwo := directionTwo.LenSqr()
	dpOneTwo := directionTwo.Dot(directionOne)

	denominator := squareOne*squareTwo - dpOneTwo*dpOneTwo
	if math.Abs(denominator) < 0.0001 {
		return fallback
	}

	muOne := (dpOneTwo*dpStartTwo - squareTwo*dpStartOne) / denominator
	muTwo := (squareOne*dpStartTwo - dpOneTwo*dpStartOne) / denominator

	if muOne > sizeOne || muOne < -sizeOne || muTwo > sizeTwo || muTwo < -sizeTwo {
		return fallback
	}

	closestOne := pointOne.Add(directionOne.Mul(muOne))
	closestTwo := pointTwo.Add(directionTwo.Mul(muTwo))

	return closestOne.Mul(0.5).Add(closestTwo.Mul(0.5))
}
