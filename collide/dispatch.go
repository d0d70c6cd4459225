package collide

import (
	"github.com/akmonengine/impulse/actor"
)

// PairFunc generates the contacts between two bodies of known shapes
type PairFunc func(one, two *actor.RigidBody, data *CollisionData) int

// PlaneFunc generates the contacts between a body of known shape and a world plane
type PlaneFunc func(body *actor.RigidBody, plane actor.Plane, data *CollisionData) int

var pairs = [actor.ShapeTypeCount][actor.ShapeTypeCount]PairFunc{
	actor.ShapeTypeSphere: {
		actor.ShapeTypeSphere:     SphereAndSphere,
		actor.ShapeTypeBox:        swapped(BoxAndSphere),
		actor.ShapeTypePolyhedron: swapped(PolyhedronAndSphere),
	},
	actor.ShapeTypeBox: {
		actor.ShapeTypeSphere:     BoxAndSphere,
		actor.ShapeTypeBox:        BoxAndBox,
		actor.ShapeTypePolyhedron: PolyhedronAndPolyhedron,
	},
	actor.ShapeTypePolyhedron: {
		actor.ShapeTypeSphere:     PolyhedronAndSphere,
		actor.ShapeTypeBox:        PolyhedronAndPolyhedron,
		actor.ShapeTypePolyhedron: PolyhedronAndPolyhedron,
	},
}

var halfSpaces = [actor.ShapeTypeCount]PlaneFunc{
	actor.ShapeTypeSphere:     SphereAndHalfSpace,
	actor.ShapeTypeBox:        BoxAndHalfSpace,
	actor.ShapeTypePolyhedron: PolyhedronAndHalfSpace,
}

// swapped adapts a generator to take its bodies in the other order
func swapped(fn PairFunc) PairFunc {
	return func(one, two *actor.RigidBody, data *CollisionData) int {
		return fn(two, one, data)
	}
}

// Detect generates the contacts between two bodies, whatever their shapes
func Detect(one, two *actor.RigidBody, data *CollisionData) int {
	if one == nil || two == nil || one.Shape == nil || two.Shape == nil {
		return 0
	}

	fn := pairs[one.Shape.Type()][two.Shape.Type()]
	if fn == nil {
		return 0
	}

	return fn(one, two, data)
}

// DetectPlane generates the contacts between a body and a world plane. A two-sided plane is
// treated as the half-space on the far side from the body centre.
func DetectPlane(body *actor.RigidBody, plane actor.Plane, data *CollisionData) int {
	if body == nil || body.Shape == nil {
		return 0
	}

	if plane.TwoSided {
		if body.Shape.Type() == actor.ShapeTypeSphere {
			return SphereAndTruePlane(body, plane, data)
		}
		if plane.Distance(body.Transform.Position) < 0 {
			plane = actor.Plane{Normal: plane.Normal.Mul(-1), Offset: -plane.Offset}
		}
	}

	fn := halfSpaces[body.Shape.Type()]
	if fn == nil {
		return 0
	}

	return fn(body, plane, data)
}
