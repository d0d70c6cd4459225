package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// jointFriction is the friction of the contacts emitted by joints
const jointFriction = 1.0

// Joint links a point of one body to a point of another. Once the points drift apart
// by more than Error, a contact pulls them back together.
type Joint struct {
	Body [2]*actor.RigidBody
	// Position of the joint on each body, in body space
	Position [2]mgl64.Vec3
	// Error is the tolerated distance between both points
	Error float64
}

// NewBallJoint creates a joint with no tolerance: both points stay together and
// the bodies rotate freely around them
func NewBallJoint(a *actor.RigidBody, positionA mgl64.Vec3, b *actor.RigidBody, positionB mgl64.Vec3) *Joint {
	return &Joint{
		Body:     [2]*actor.RigidBody{a, b},
		Position: [2]mgl64.Vec3{positionA, positionB},
	}
}

// AddContact emits a restitution free contact when the joint is violated
func (j *Joint) AddContact(dst []Contact) int {
	if len(dst) == 0 {
		return 0
	}

	a := j.Body[0].PointInWorldSpace(j.Position[0])
	b := j.Body[1].PointInWorldSpace(j.Position[1])

	return pullTogether(dst, j.Body[0], a, j.Body[1], b, j.Error)
}

// FixedJoint pins a point of a body to a world anchor
type FixedJoint struct {
	Body *actor.RigidBody
	// Position on the body, in body space
	Position mgl64.Vec3
	// Anchor in world space
	Anchor mgl64.Vec3
	Error  float64
}

func (j *FixedJoint) AddContact(dst []Contact) int {
	if len(dst) == 0 {
		return 0
	}

	point := j.Body.PointInWorldSpace(j.Position)
	toAnchor := j.Anchor.Sub(point)
	length := toAnchor.Len()
	if length <= j.Error || length == 0 {
		return 0
	}

	// the world sits on the anchor side, the body moves against the normal
	dst[0] = Contact{
		Body:        [2]*actor.RigidBody{j.Body, nil},
		Point:       point,
		Normal:      toAnchor.Mul(-1 / length),
		Penetration: length - j.Error,
		Friction:    jointFriction,
	}

	return 1
}

// SpringJoint keeps the distance between a point of each body within [MinLength, MaxLength].
// Nothing happens inside the range: it behaves like a rope when MinLength is 0 and like a rod
// when both lengths are equal.
type SpringJoint struct {
	Body      [2]*actor.RigidBody
	Position  [2]mgl64.Vec3
	MinLength float64
	MaxLength float64
}

func (j *SpringJoint) AddContact(dst []Contact) int {
	if len(dst) == 0 {
		return 0
	}

	a := j.Body[0].PointInWorldSpace(j.Position[0])
	b := j.Body[1].PointInWorldSpace(j.Position[1])
	length := b.Sub(a).Len()

	switch {
	case length > j.MaxLength:
		return pullTogether(dst, j.Body[0], a, j.Body[1], b, j.MaxLength)
	case length < j.MinLength && length > 0:
		// push apart: Body[1] moves along the normal, away from a
		dst[0] = Contact{
			Body:        j.Body,
			Point:       a.Add(b).Mul(0.5),
			Normal:      b.Sub(a).Mul(1 / length),
			Penetration: j.MinLength - length,
			Friction:    jointFriction,
		}
		return 1
	}

	return 0
}

// pullTogether emits a contact bringing world points a and b back within tolerance
func pullTogether(dst []Contact, bodyA *actor.RigidBody, a mgl64.Vec3, bodyB *actor.RigidBody, b mgl64.Vec3, tolerance float64) int {
	bToA := a.Sub(b)
	length := bToA.Len()
	if length <= tolerance || length == 0 {
		return 0
	}

	// Body[1] moves along the normal, toward a
	dst[0] = Contact{
		Body:        [2]*actor.RigidBody{bodyA, bodyB},
		Point:       a.Add(b).Mul(0.5),
		Normal:      bToA.Mul(1 / length),
		Penetration: length - tolerance,
		Friction:    jointFriction,
	}

	return 1
}
