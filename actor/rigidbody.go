package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

// DefaultSleepEpsilon is the motion level below which a body is put to sleep
const DefaultSleepEpsilon = 0.3

type Material struct {
	Density     float64
	Restitution float64 // 0= no rebound, 1= perfect restitution
	Friction    float64
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Id is free for the caller, typically an entity handle
	Id any

	Transform Transform

	Velocity        mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // Rotation speed (rad/s)
	// Acceleration is a constant linear acceleration, applied every frame on top of forces
	Acceleration mgl64.Vec3

	// Fraction of velocity retained after one second: v *= damping^dt. 1 disables damping.
	LinearDamping  float64
	AngularDamping float64

	inverseMass float64
	// Inverse inertia tensor in local space, and its world space counterpart
	inverseInertiaTensor      mgl64.Mat3
	inverseInertiaTensorWorld mgl64.Mat3
	transformMatrix           mgl64.Mat3x4

	accumulatedForce      mgl64.Vec3
	accumulatedTorque     mgl64.Vec3
	lastFrameAcceleration mgl64.Vec3

	IsSleeping   bool
	IsTrigger    bool
	canSleep     bool
	motion       float64
	SleepEpsilon float64

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// Collision shape
	Shape ShapeInterface
}

// NewRigidBody creates a new rigid body with the given properties
// density is used to calculate mass for dynamic bodies (ignored for static)
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) *RigidBody {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}

	rb := &RigidBody{
		Transform:      transform,
		Shape:          shape,
		BodyType:       bodyType,
		LinearDamping:  1.0,
		AngularDamping: 1.0,
		canSleep:       true,
		SleepEpsilon:   DefaultSleepEpsilon,
		Material:       Material{Density: density},
	}

	// Static bodies keep a zero inverse mass and inverse inertia
	if bodyType == BodyTypeDynamic && shape != nil {
		mass := shape.ComputeMass(density)
		if mass > 0 {
			rb.SetMass(mass)
			rb.SetInertiaTensor(shape.ComputeInertia(mass))
		}
	}

	rb.CalculateDerivedData()
	rb.Awake()

	return rb
}

// SetMass sets the mass of the body. The mass must be strictly positive: use
// SetInverseMass(0) for immovable bodies.
func (rb *RigidBody) SetMass(mass float64) {
	if mass <= 0 {
		panic(fmt.Sprintf("actor: SetMass requires a strictly positive mass, got %v", mass))
	}
	rb.inverseMass = 1.0 / mass
}

// Mass returns the mass of the body, +Inf for immovable bodies
func (rb *RigidBody) Mass() float64 {
	if rb.inverseMass == 0 {
		return math.Inf(1)
	}
	return 1.0 / rb.inverseMass
}

// SetInverseMass sets the inverse mass directly, 0 meaning infinite mass. Negative values are clamped to 0.
func (rb *RigidBody) SetInverseMass(inverseMass float64) {
	rb.inverseMass = math.Max(0, inverseMass)
}

func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

func (rb *RigidBody) HasFiniteMass() bool {
	return rb.inverseMass > 0
}

// SetInertiaTensor sets the local inertia tensor. A singular tensor leaves the current one untouched.
func (rb *RigidBody) SetInertiaTensor(inertia mgl64.Mat3) {
	if inverse, ok := invert(inertia); ok {
		rb.inverseInertiaTensor = inverse
		rb.CalculateDerivedData()
	}
}

// SetInverseInertiaTensor sets the local inverse inertia tensor directly, a zero matrix locking rotation
func (rb *RigidBody) SetInverseInertiaTensor(inverse mgl64.Mat3) {
	rb.inverseInertiaTensor = inverse
	rb.CalculateDerivedData()
}

func (rb *RigidBody) InverseInertiaTensor() mgl64.Mat3 {
	return rb.inverseInertiaTensor
}

// InverseInertiaTensorWorld is valid as of the last CalculateDerivedData
func (rb *RigidBody) InverseInertiaTensorWorld() mgl64.Mat3 {
	return rb.inverseInertiaTensorWorld
}

// CalculateDerivedData normalizes the orientation, then rebuilds the transform matrix and
// the world space inverse inertia tensor. It must run whenever the pose changes.
func (rb *RigidBody) CalculateDerivedData() {
	rb.Transform.Rotation = rb.Transform.Rotation.Normalize()
	rb.transformMatrix = rb.Transform.Matrix()
	rb.inverseInertiaTensorWorld = transformInertiaTensor(rb.inverseInertiaTensor, rb.transformMatrix)
}

// Integrate advances the body by duration with semi-implicit Euler, then clears the accumulators
func (rb *RigidBody) Integrate(duration float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	// ========== ACCELERATIONS ==========
	rb.lastFrameAcceleration = rb.Acceleration.Add(rb.accumulatedForce.Mul(rb.inverseMass))
	angularAcceleration := rb.inverseInertiaTensorWorld.Mul3x1(rb.accumulatedTorque)

	// ========== VELOCITIES ==========
	rb.Velocity = rb.Velocity.Add(rb.lastFrameAcceleration.Mul(duration))
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAcceleration.Mul(duration))

	rb.Velocity = rb.Velocity.Mul(math.Pow(rb.LinearDamping, duration))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Pow(rb.AngularDamping, duration))

	// ========== POSE ==========
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(duration))
	rb.Transform.Rotation = addScaledVector(rb.Transform.Rotation, rb.AngularVelocity, duration)

	rb.CalculateDerivedData()
	rb.ClearForces()

	if rb.canSleep {
		currentMotion := rb.Velocity.Dot(rb.Velocity) + rb.AngularVelocity.Dot(rb.AngularVelocity)

		// recency weighted average, the bias only depends on the frame duration
		bias := math.Pow(0.5, duration)
		rb.motion = bias*rb.motion + (1-bias)*currentMotion

		if rb.motion < rb.SleepEpsilon {
			rb.Sleep()
		} else if rb.motion > 10*rb.SleepEpsilon {
			rb.motion = 10 * rb.SleepEpsilon
		}
	}
}

// ApplyRotation adds a small rotation vector to the orientation, without normalizing
func (rb *RigidBody) ApplyRotation(rotation mgl64.Vec3) {
	rb.Transform.Rotation = addScaledVector(rb.Transform.Rotation, rotation, 1.0)
}

// Sleep stops the body and removes it from integration until it is woken up
func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

// Awake wakes the body up, with enough motion to avoid falling asleep on the next frame
func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.motion = rb.SleepEpsilon * 2.0
}

// SetCanSleep allows or forbids the body to sleep. Forbidding it wakes the body up.
func (rb *RigidBody) SetCanSleep(canSleep bool) {
	rb.canSleep = canSleep
	if !canSleep && rb.IsSleeping {
		rb.Awake()
	}
}

func (rb *RigidBody) CanSleep() bool {
	return rb.canSleep
}

// Motion is the recency weighted kinetic activity used to decide sleeping
func (rb *RigidBody) Motion() float64 {
	return rb.motion
}

// AddForce applies a force at the centre of mass
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.IsSleeping = false
}

// AddForceAtPoint applies a force at a world space point, producing a torque
func (rb *RigidBody) AddForceAtPoint(force, point mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	arm := point.Sub(rb.Transform.Position)

	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.accumulatedTorque = rb.accumulatedTorque.Add(arm.Cross(force))
	rb.IsSleeping = false
}

// AddForceAtBodyPoint applies a world space force at a point given in body space
func (rb *RigidBody) AddForceAtBodyPoint(force, point mgl64.Vec3) {
	rb.AddForceAtPoint(force, rb.PointInWorldSpace(point))
}

func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	rb.IsSleeping = false
}

// ClearForces resets the force and torque accumulators
func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

func (rb *RigidBody) AccumulatedForce() mgl64.Vec3 {
	return rb.accumulatedForce
}

func (rb *RigidBody) AccumulatedTorque() mgl64.Vec3 {
	return rb.accumulatedTorque
}

// LastFrameAcceleration is the linear acceleration applied during the last integration
func (rb *RigidBody) LastFrameAcceleration() mgl64.Vec3 {
	return rb.lastFrameAcceleration
}

// TransformMatrix returns the 3x4 world transform, as of the last CalculateDerivedData
func (rb *RigidBody) TransformMatrix() mgl64.Mat3x4 {
	return rb.transformMatrix
}

// GLTransform returns the world transform as a column-major 4x4 matrix, ready for rendering
func (rb *RigidBody) GLTransform() mgl64.Mat4 {
	m := rb.transformMatrix

	return mgl64.Mat4{
		m[0], m[1], m[2], 0,
		m[3], m[4], m[5], 0,
		m[6], m[7], m[8], 0,
		m[9], m[10], m[11], 1,
	}
}

// Axis returns the world direction of local axis 0, 1 or 2
func (rb *RigidBody) Axis(index int) mgl64.Vec3 {
	return rb.transformMatrix.Col(index)
}

func (rb *RigidBody) PointInWorldSpace(point mgl64.Vec3) mgl64.Vec3 {
	return rb.transformMatrix.Mul4x1(point.Vec4(1))
}

func (rb *RigidBody) PointInLocalSpace(point mgl64.Vec3) mgl64.Vec3 {
	return rb.DirectionInLocalSpace(point.Sub(rb.transformMatrix.Col(3)))
}

func (rb *RigidBody) DirectionInWorldSpace(direction mgl64.Vec3) mgl64.Vec3 {
	return rb.transformMatrix.Mul4x1(direction.Vec4(0))
}

// DirectionInLocalSpace applies the transposed rotation, valid since the rotation is orthonormal
func (rb *RigidBody) DirectionInLocalSpace(direction mgl64.Vec3) mgl64.Vec3 {
	m := rb.transformMatrix

	return mgl64.Vec3{
		m[0]*direction[0] + m[1]*direction[1] + m[2]*direction[2],
		m[3]*direction[0] + m[4]*direction[1] + m[5]*direction[2],
		m[6]*direction[0] + m[7]*direction[1] + m[8]*direction[2],
	}
}

// SupportWorld returns the furthest world point of the shape along a world direction
func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localSupport := rb.Shape.Support(rb.DirectionInLocalSpace(direction))

	return rb.PointInWorldSpace(localSupport)
}

// BoundingRadius is the radius of a sphere centred on the body enclosing its shape
func (rb *RigidBody) BoundingRadius() float64 {
	if rb.Shape == nil {
		return 0
	}
	return rb.Shape.BoundingRadius()
}

// addScaledVector integrates an angular displacement: q += 0.5 * (0, v*scale) * q
func addScaledVector(q mgl64.Quat, v mgl64.Vec3, scale float64) mgl64.Quat {
	spin := mgl64.Quat{W: 0, V: v.Mul(scale)}

	return q.Add(spin.Mul(q).Scale(0.5))
}

// transformInertiaTensor computes R * I * Rᵗ with R the rotation part of the transform
func transformInertiaTensor(iit mgl64.Mat3, m mgl64.Mat3x4) mgl64.Mat3 {
	// t = R * I, with R[i][k] = m[k*3+i] and I[k][j] = iit[j*3+k]
	var t, result mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j*3+i] = m[i]*iit[j*3] + m[3+i]*iit[j*3+1] + m[6+i]*iit[j*3+2]
		}
	}

	// result = t * Rᵗ, with Rᵗ[k][j] = R[j][k] = m[k*3+j]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			result[j*3+i] = t[i]*m[j] + t[3+i]*m[3+j] + t[6+i]*m[6+j]
		}
	}

	return result
}

// invert returns the inverse of m, and false when m is singular
func invert(m mgl64.Mat3) (mgl64.Mat3, bool) {
	if math.Abs(m.Det()) < 1e-12 {
		return m, false
	}
	return m.Inv(), true
}
