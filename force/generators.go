package force

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// StandardGravity is the gravity acceleration at the surface of the earth, in m/s²
const StandardGravity = 9.81

// Gravity applies a constant acceleration to bodies of finite mass.
// Sleeping bodies are skipped, adding a force would wake them up.
type Gravity struct {
	Gravity mgl64.Vec3
}

func NewGravity(gravity mgl64.Vec3) *Gravity {
	return &Gravity{Gravity: gravity}
}

func (g *Gravity) UpdateForce(body *actor.RigidBody, duration float64) {
	if !body.HasFiniteMass() || body.IsSleeping {
		return
	}

	body.AddForce(g.Gravity.Mul(body.Mass()))
}

// Spring links a point of a body to a point of another body, both given in body space.
// It pulls when stretched beyond RestLength and pushes when compressed.
type Spring struct {
	ConnectionPoint      mgl64.Vec3
	Other                *actor.RigidBody
	OtherConnectionPoint mgl64.Vec3

	SpringConstant float64
	RestLength     float64
	// Damping opposes the relative velocity of both ends along the spring
	Damping float64
}

func (s *Spring) UpdateForce(body *actor.RigidBody, duration float64) {
	end := body.PointInWorldSpace(s.ConnectionPoint)
	otherEnd := s.Other.PointInWorldSpace(s.OtherConnectionPoint)

	relativeVelocity := pointVelocity(body, end).Sub(pointVelocity(s.Other, otherEnd))
	force, ok := springForce(end.Sub(otherEnd), relativeVelocity, s.SpringConstant, s.RestLength, s.Damping)
	if !ok {
		return
	}

	body.AddForceAtPoint(force, end)
}

// AnchoredSpring links a point of a body, in body space, to a fixed world anchor
type AnchoredSpring struct {
	Anchor          mgl64.Vec3
	ConnectionPoint mgl64.Vec3

	SpringConstant float64
	RestLength     float64
	Damping        float64
}

func (s *AnchoredSpring) UpdateForce(body *actor.RigidBody, duration float64) {
	end := body.PointInWorldSpace(s.ConnectionPoint)

	force, ok := springForce(end.Sub(s.Anchor), pointVelocity(body, end), s.SpringConstant, s.RestLength, s.Damping)
	if !ok {
		return
	}

	body.AddForceAtPoint(force, end)
}

// springForce returns the Hooke force on the end of a spring, given the vector from the other
// end and the velocity relative to it. A zero length spring has no direction and gives no force.
func springForce(extension, relativeVelocity mgl64.Vec3, springConstant, restLength, damping float64) (mgl64.Vec3, bool) {
	length := extension.Len()
	if length < 1e-12 {
		return mgl64.Vec3{}, false
	}
	direction := extension.Mul(1 / length)

	magnitude := springConstant*(length-restLength) + damping*relativeVelocity.Dot(direction)

	return direction.Mul(-magnitude), true
}

// pointVelocity returns the world velocity of a world point attached to the body
func pointVelocity(body *actor.RigidBody, point mgl64.Vec3) mgl64.Vec3 {
	return body.Velocity.Add(body.AngularVelocity.Cross(point.Sub(body.Transform.Position)))
}

// Buoyancy applies the Archimedes force of a liquid whose surface is the plane y = WaterHeight.
// The body is approximated by a single point, CentreOfBuoyancy in body space, fully submerged
// MaxDepth below the surface and fully out MaxDepth above it.
type Buoyancy struct {
	CentreOfBuoyancy mgl64.Vec3
	MaxDepth         float64
	Volume           float64
	WaterHeight      float64
	LiquidDensity    float64
	// Gravity is the magnitude of the gravity acceleration
	Gravity float64
}

// NewBuoyancy creates a buoyancy generator for fresh water under standard gravity
func NewBuoyancy(centreOfBuoyancy mgl64.Vec3, maxDepth, volume, waterHeight float64) *Buoyancy {
	return &Buoyancy{
		CentreOfBuoyancy: centreOfBuoyancy,
		MaxDepth:         maxDepth,
		Volume:           volume,
		WaterHeight:      waterHeight,
		LiquidDensity:    1000.0,
		Gravity:          StandardGravity,
	}
}

func (b *Buoyancy) UpdateForce(body *actor.RigidBody, duration float64) {
	depth := body.PointInWorldSpace(b.CentreOfBuoyancy).Y()
	if depth >= b.WaterHeight+b.MaxDepth {
		return
	}

	submerged := 1.0
	if depth > b.WaterHeight-b.MaxDepth && b.MaxDepth > 0 {
		submerged = (b.WaterHeight + b.MaxDepth - depth) / (2 * b.MaxDepth)
	}

	force := mgl64.Vec3{0, b.LiquidDensity * b.Volume * b.Gravity * submerged, 0}
	body.AddForceAtBodyPoint(force, b.CentreOfBuoyancy)
}

// Aero applies an aerodynamic force proportional to the air velocity relative to the body.
// Tensor maps the air velocity in body space to a force in body space.
type Aero struct {
	Tensor   mgl64.Mat3
	Position mgl64.Vec3
	// Wind is shared between generators, nil means still air
	Wind *mgl64.Vec3
}

func NewAero(tensor mgl64.Mat3, position mgl64.Vec3, wind *mgl64.Vec3) *Aero {
	return &Aero{Tensor: tensor, Position: position, Wind: wind}
}

func (a *Aero) UpdateForce(body *actor.RigidBody, duration float64) {
	applyAero(body, a.Tensor, a.Position, a.Wind)
}

func applyAero(body *actor.RigidBody, tensor mgl64.Mat3, position mgl64.Vec3, wind *mgl64.Vec3) {
	velocity := body.Velocity
	if wind != nil {
		velocity = velocity.Add(*wind)
	}

	bodyVelocity := body.DirectionInLocalSpace(velocity)
	bodyForce := tensor.Mul3x1(bodyVelocity)

	body.AddForceAtBodyPoint(body.DirectionInWorldSpace(bodyForce), position)
}

// AeroControl is an aerodynamic surface whose tensor is blended by a control setting:
// MinTensor at -1, Tensor at 0 and MaxTensor at 1.
type AeroControl struct {
	Aero
	MinTensor mgl64.Mat3
	MaxTensor mgl64.Mat3

	control float64
}

func NewAeroControl(base, minimum, maximum mgl64.Mat3, position mgl64.Vec3, wind *mgl64.Vec3) *AeroControl {
	return &AeroControl{
		Aero:      Aero{Tensor: base, Position: position, Wind: wind},
		MinTensor: minimum,
		MaxTensor: maximum,
	}
}

// SetControl sets the control setting, clamped to [-1, 1]
func (a *AeroControl) SetControl(value float64) {
	a.control = math.Max(-1, math.Min(1, value))
}

func (a *AeroControl) Control() float64 {
	return a.control
}

// CurrentTensor returns the tensor for the current control setting
func (a *AeroControl) CurrentTensor() mgl64.Mat3 {
	switch {
	case a.control <= -1:
		return a.MinTensor
	case a.control >= 1:
		return a.MaxTensor
	case a.control < 0:
		return lerp(a.MinTensor, a.Aero.Tensor, a.control+1)
	case a.control > 0:
		return lerp(a.Aero.Tensor, a.MaxTensor, a.control)
	}

	return a.Aero.Tensor
}

func (a *AeroControl) UpdateForce(body *actor.RigidBody, duration float64) {
	applyAero(body, a.CurrentTensor(), a.Position, a.Wind)
}

func lerp(a, b mgl64.Mat3, t float64) mgl64.Mat3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
