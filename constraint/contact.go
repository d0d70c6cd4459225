package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// closing speeds below velocityLimit do not bounce
	velocityLimit = 0.25
	// angularLimit bounds the rotation used to resolve a penetration, as a fraction of
	// the distance between the contact point and the centre of mass
	angularLimit = 0.2
)

// Contact between two bodies, or between a body and the world when Body[1] is nil.
// Contacts are rebuilt every frame.
type Contact struct {
	Body [2]*actor.RigidBody

	// Point is the world position of the contact
	Point mgl64.Vec3
	// Normal is a unit vector pointing from Body[0] toward Body[1]
	Normal mgl64.Vec3
	// Penetration is positive when the bodies overlap
	Penetration float64

	Friction    float64
	Restitution float64

	// contactToWorld maps contact space (normal, tangent, bitangent) to world space
	contactToWorld          mgl64.Mat3
	contactVelocity         mgl64.Vec3
	desiredDeltaVelocity    float64
	relativeContactPosition [2]mgl64.Vec3
}

// SetBodyData sets the bodies and the surface coefficients of the contact
func (c *Contact) SetBodyData(a, b *actor.RigidBody, friction, restitution float64) {
	c.Body = [2]*actor.RigidBody{a, b}
	c.Friction = friction
	c.Restitution = restitution
}

// ContactToWorld is the contact basis, valid once the contact has been prepared for resolution
func (c *Contact) ContactToWorld() mgl64.Mat3 {
	return c.contactToWorld
}

// ContactVelocity is the velocity of Body[1] relative to Body[0] at the contact point,
// in contact space. A negative X means the bodies are closing.
func (c *Contact) ContactVelocity() mgl64.Vec3 {
	return c.contactVelocity
}

// DesiredDeltaVelocity is the change of closing velocity the velocity pass aims for
func (c *Contact) DesiredDeltaVelocity() float64 {
	return c.desiredDeltaVelocity
}

// RelativeContactPosition is the contact point relative to the centre of mass of body i
func (c *Contact) RelativeContactPosition(i int) mgl64.Vec3 {
	return c.relativeContactPosition[i]
}

// adjustment is an immutable record of the change applied to both bodies of a contact
// while resolving it. Linear holds a position or a velocity change, Angular a rotation
// or an angular velocity change.
type adjustment struct {
	bodies  [2]*actor.RigidBody
	linear  [2]mgl64.Vec3
	angular [2]mgl64.Vec3
}

// calculateInternals prepares the contact for resolution
func (c *Contact) calculateInternals(duration float64) {
	if c.Body[0] == nil {
		c.swapBodies()
	}

	c.calculateContactBasis()

	c.relativeContactPosition[0] = c.Point.Sub(c.Body[0].Transform.Position)
	c.contactVelocity = c.calculateLocalVelocity(0, duration).Mul(-1)
	if c.Body[1] != nil {
		c.relativeContactPosition[1] = c.Point.Sub(c.Body[1].Transform.Position)
		c.contactVelocity = c.contactVelocity.Add(c.calculateLocalVelocity(1, duration))
	}

	c.calculateDesiredDeltaVelocity(duration)
}

func (c *Contact) swapBodies() {
	c.Normal = c.Normal.Mul(-1)
	c.Body[0], c.Body[1] = c.Body[1], c.Body[0]
}

func (c *Contact) calculateContactBasis() {
	tangent, bitangent := actor.TangentBasis(c.Normal)
	c.contactToWorld = mgl64.Mat3FromCols(c.Normal, tangent, bitangent)
}

func (c *Contact) worldToContact(v mgl64.Vec3) mgl64.Vec3 {
	return c.contactToWorld.Transpose().Mul3x1(v)
}

// calculateLocalVelocity returns the velocity of the contact point on body i, in contact space.
// The planar part of the velocity gained from last frame's acceleration is included, friction
// removes it during the velocity pass.
func (c *Contact) calculateLocalVelocity(i int, duration float64) mgl64.Vec3 {
	body := c.Body[i]

	velocity := body.AngularVelocity.Cross(c.relativeContactPosition[i]).Add(body.Velocity)
	contactVelocity := c.worldToContact(velocity)

	accVelocity := c.worldToContact(body.LastFrameAcceleration().Mul(duration))
	accVelocity[0] = 0

	return contactVelocity.Add(accVelocity)
}

// calculateDesiredDeltaVelocity removes the closing velocity, and bounces off the part that
// was not caused by last frame's acceleration alone. Slow contacts do not bounce.
func (c *Contact) calculateDesiredDeltaVelocity(duration float64) {
	var velocityFromAcc float64
	if isAwake(c.Body[0]) {
		velocityFromAcc -= c.Body[0].LastFrameAcceleration().Mul(duration).Dot(c.Normal)
	}
	if isAwake(c.Body[1]) {
		velocityFromAcc += c.Body[1].LastFrameAcceleration().Mul(duration).Dot(c.Normal)
	}

	restitution := c.Restitution
	if math.Abs(c.contactVelocity.X()) < velocityLimit {
		restitution = 0
	}

	c.desiredDeltaVelocity = -c.contactVelocity.X() - restitution*(c.contactVelocity.X()-velocityFromAcc)
}

// matchAwakeState wakes a sleeping body touched by an awake one
func (c *Contact) matchAwakeState() {
	if c.Body[1] == nil {
		return
	}

	awake0, awake1 := isAwake(c.Body[0]), isAwake(c.Body[1])
	if awake0 == awake1 {
		return
	}
	if awake0 && c.Body[1].HasFiniteMass() {
		c.Body[1].Awake()
	} else if awake1 && c.Body[0].HasFiniteMass() {
		c.Body[0].Awake()
	}
}

// isAwake reports whether a body takes part in the simulation, immovable bodies never do
func isAwake(body *actor.RigidBody) bool {
	return body != nil && body.HasFiniteMass() && !body.IsSleeping
}

// applyPositionChange resolves the penetration by moving and rotating both bodies in
// proportion to their inverse inertia. Body[1] moves along the normal, Body[0] against it.
func (c *Contact) applyPositionChange(penetration float64) adjustment {
	adj := adjustment{bodies: c.Body}

	var angularInertia, linearInertia [2]float64
	var totalInertia float64
	for i, body := range c.Body {
		if body == nil {
			continue
		}
		angularInertiaWorld := body.InverseInertiaTensorWorld().
			Mul3x1(c.relativeContactPosition[i].Cross(c.Normal)).
			Cross(c.relativeContactPosition[i])

		angularInertia[i] = angularInertiaWorld.Dot(c.Normal)
		linearInertia[i] = body.InverseMass()
		totalInertia += linearInertia[i] + angularInertia[i]
	}

	if totalInertia <= 0 {
		return adj
	}

	for i, body := range c.Body {
		if body == nil {
			continue
		}

		sign := 1.0
		if i == 0 {
			sign = -1.0
		}

		angularMove := sign * penetration * (angularInertia[i] / totalInertia)
		linearMove := sign * penetration * (linearInertia[i] / totalInertia)

		// limit the rotation, which overshoots with large contact distances
		r := c.relativeContactPosition[i]
		projection := r.Sub(c.Normal.Mul(r.Dot(c.Normal)))
		maxMagnitude := angularLimit * projection.Len()
		if math.Abs(angularMove) > maxMagnitude {
			total := angularMove + linearMove
			angularMove = math.Copysign(maxMagnitude, angularMove)
			linearMove = total - angularMove
		}

		if angularMove != 0 {
			targetAngularDirection := r.Cross(c.Normal)
			adj.angular[i] = body.InverseInertiaTensorWorld().
				Mul3x1(targetAngularDirection).
				Mul(angularMove / angularInertia[i])
		}
		adj.linear[i] = c.Normal.Mul(linearMove)

		body.Transform.Position = body.Transform.Position.Add(adj.linear[i])
		body.ApplyRotation(adj.angular[i])
		body.CalculateDerivedData()
	}

	return adj
}

// afterPositionChange returns the contact with its penetration updated for a position
// change applied while resolving another contact
func (c Contact) afterPositionChange(adj adjustment) Contact {
	for b, body := range c.Body {
		if body == nil {
			continue
		}
		for d, moved := range adj.bodies {
			if moved != body {
				continue
			}

			deltaPosition := adj.linear[d].Add(adj.angular[d].Cross(c.relativeContactPosition[b]))
			if b == 0 {
				c.Penetration += deltaPosition.Dot(c.Normal)
			} else {
				c.Penetration -= deltaPosition.Dot(c.Normal)
			}
		}
	}

	return c
}

// applyVelocityChange applies the impulse resolving the contact velocity.
// Body[1] receives the impulse, Body[0] the opposite one.
func (c *Contact) applyVelocityChange() adjustment {
	adj := adjustment{bodies: c.Body}

	var impulseContact mgl64.Vec3
	if c.Friction == 0 {
		impulseContact = c.calculateFrictionlessImpulse()
	} else {
		impulseContact = c.calculateFrictionImpulse()
	}
	impulse := c.contactToWorld.Mul3x1(impulseContact)

	body0 := c.Body[0]
	adj.linear[0] = impulse.Mul(-body0.InverseMass())
	adj.angular[0] = body0.InverseInertiaTensorWorld().Mul3x1(impulse.Cross(c.relativeContactPosition[0]))
	body0.Velocity = body0.Velocity.Add(adj.linear[0])
	body0.AngularVelocity = body0.AngularVelocity.Add(adj.angular[0])

	if body1 := c.Body[1]; body1 != nil {
		adj.linear[1] = impulse.Mul(body1.InverseMass())
		adj.angular[1] = body1.InverseInertiaTensorWorld().Mul3x1(c.relativeContactPosition[1].Cross(impulse))
		body1.Velocity = body1.Velocity.Add(adj.linear[1])
		body1.AngularVelocity = body1.AngularVelocity.Add(adj.angular[1])
	}

	return adj
}

// afterVelocityChange returns the contact with its contact velocity and desired velocity
// change updated for a velocity change applied while resolving another contact
func (c Contact) afterVelocityChange(adj adjustment, duration float64) Contact {
	changed := false
	for b, body := range c.Body {
		if body == nil {
			continue
		}
		for d, moved := range adj.bodies {
			if moved != body {
				continue
			}

			deltaVelocity := c.worldToContact(adj.linear[d].Add(adj.angular[d].Cross(c.relativeContactPosition[b])))
			if b == 0 {
				c.contactVelocity = c.contactVelocity.Sub(deltaVelocity)
			} else {
				c.contactVelocity = c.contactVelocity.Add(deltaVelocity)
			}
			changed = true
		}
	}

	if changed {
		c.calculateDesiredDeltaVelocity(duration)
	}

	return c
}

// calculateFrictionlessImpulse returns the contact space impulse along the normal only
func (c *Contact) calculateFrictionlessImpulse() mgl64.Vec3 {
	var deltaVelocity float64
	for i, body := range c.Body {
		if body == nil {
			continue
		}
		r := c.relativeContactPosition[i]
		deltaVelWorld := body.InverseInertiaTensorWorld().Mul3x1(r.Cross(c.Normal)).Cross(r)
		deltaVelocity += deltaVelWorld.Dot(c.Normal) + body.InverseMass()
	}

	if deltaVelocity <= 0 {
		return mgl64.Vec3{}
	}

	return mgl64.Vec3{c.desiredDeltaVelocity / deltaVelocity, 0, 0}
}

// calculateFrictionImpulse returns the contact space impulse removing the planar velocity,
// bounded by the Coulomb friction cone
func (c *Contact) calculateFrictionImpulse() mgl64.Vec3 {
	var inverseMass float64
	var deltaVelWorld mgl64.Mat3
	for i, body := range c.Body {
		if body == nil {
			continue
		}
		// velocity change per unit impulse: -[r]x * I⁻¹ * [r]x
		impulseToTorque := skewSymmetric(c.relativeContactPosition[i])
		deltaVelWorld = deltaVelWorld.Sub(impulseToTorque.Mul3(body.InverseInertiaTensorWorld()).Mul3(impulseToTorque))
		inverseMass += body.InverseMass()
	}

	deltaVelocity := c.contactToWorld.Transpose().Mul3(deltaVelWorld).Mul3(c.contactToWorld)
	deltaVelocity[0] += inverseMass
	deltaVelocity[4] += inverseMass
	deltaVelocity[8] += inverseMass

	if math.Abs(deltaVelocity.Det()) < 1e-12 {
		return c.calculateFrictionlessImpulse()
	}
	impulseMatrix := deltaVelocity.Inv()

	velKill := mgl64.Vec3{c.desiredDeltaVelocity, -c.contactVelocity.Y(), -c.contactVelocity.Z()}
	impulseContact := impulseMatrix.Mul3x1(velKill)

	planarImpulse := math.Sqrt(impulseContact.Y()*impulseContact.Y() + impulseContact.Z()*impulseContact.Z())
	if planarImpulse > impulseContact.X()*c.Friction {
		// dynamic friction
		impulseContact[1] /= planarImpulse
		impulseContact[2] /= planarImpulse

		normalVelocityPerImpulse := deltaVelocity.At(0, 0) +
			deltaVelocity.At(0, 1)*c.Friction*impulseContact.Y() +
			deltaVelocity.At(0, 2)*c.Friction*impulseContact.Z()
		if normalVelocityPerImpulse <= 0 {
			return c.calculateFrictionlessImpulse()
		}

		impulseContact[0] = c.desiredDeltaVelocity / normalVelocityPerImpulse
		impulseContact[1] *= c.Friction * impulseContact.X()
		impulseContact[2] *= c.Friction * impulseContact.X()
	}

	return impulseContact
}

// skewSymmetric returns the matrix M such that M*w = v x w
func skewSymmetric(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		0, v.Z(), -v.Y(),
		-v.Z(), 0, v.X(),
		v.Y(), -v.X(), 0,
	}
}
