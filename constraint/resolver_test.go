package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func vecApprox(a, b mgl64.Vec3, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}

func newSphere(position mgl64.Vec3, radius, mass float64) *actor.RigidBody {
	shape := &actor.Sphere{Radius: radius}
	rb := actor.NewRigidBody(actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}, shape, actor.BodyTypeDynamic, 1)
	rb.SetMass(mass)
	rb.SetInertiaTensor(shape.ComputeInertia(mass))
	return rb
}

func newBox(position mgl64.Vec3, halfExtents mgl64.Vec3, mass float64) *actor.RigidBody {
	shape := &actor.Box{HalfExtents: halfExtents}
	rb := actor.NewRigidBody(actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}, shape, actor.BodyTypeDynamic, 1)
	rb.SetMass(mass)
	rb.SetInertiaTensor(shape.ComputeInertia(mass))
	return rb
}

// =============================================================================
// Resolver Settings Tests
// =============================================================================

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(10, 20)

	if r.PositionIterations != 10 || r.VelocityIterations != 20 {
		t.Errorf("iterations = %d/%d, want 10/20", r.PositionIterations, r.VelocityIterations)
	}
	if r.PositionEpsilon != 0.01 || r.VelocityEpsilon != 0.01 {
		t.Errorf("epsilons = %v/%v, want 0.01", r.PositionEpsilon, r.VelocityEpsilon)
	}
	if !r.IsValid() {
		t.Error("default resolver should be valid")
	}
}

func TestResolver_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Resolver)
		valid  bool
	}{
		{"zero iterations", func(r *Resolver) { r.SetIterations(0, 0) }, true},
		{"negative position iterations", func(r *Resolver) { r.SetIterations(-1, 4) }, false},
		{"negative velocity epsilon", func(r *Resolver) { r.SetEpsilon(0.01, -1) }, false},
		{"zero epsilons", func(r *Resolver) { r.SetEpsilon(0, 0) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(4, 4)
			tt.modify(r)
			if r.IsValid() != tt.valid {
				t.Errorf("IsValid() = %v, want %v", r.IsValid(), tt.valid)
			}
		})
	}
}

func TestResolveContacts_Empty(t *testing.T) {
	r := NewResolver(4, 4)
	r.PositionIterationsUsed = 3

	r.ResolveContacts(nil, 1.0/60.0)

	if r.PositionIterationsUsed != 0 || r.VelocityIterationsUsed != 0 {
		t.Error("resolving no contact should use no iteration")
	}
}

// =============================================================================
// Resolution Tests
// =============================================================================

func TestResolveContacts_AlreadySeparated(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	b := newSphere(mgl64.Vec3{1.995, 0, 0}, 1, 1)
	a.Velocity = mgl64.Vec3{-1, 0, 0}
	b.Velocity = mgl64.Vec3{1, 0, 0}

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{a, b},
		Point:       mgl64.Vec3{0.9975, 0, 0},
		Normal:      mgl64.Vec3{1, 0, 0},
		Penetration: 0.005,
		Restitution: 0.5,
		Friction:    0.3,
	}}

	r := NewResolver(10, 10)
	r.ResolveContacts(contacts, 1.0/60.0)

	if r.PositionIterationsUsed != 0 || r.VelocityIterationsUsed != 0 {
		t.Errorf("iterations used = %d/%d, want 0/0", r.PositionIterationsUsed, r.VelocityIterationsUsed)
	}
	if a.Transform.Position != (mgl64.Vec3{0, 0, 0}) || b.Transform.Position != (mgl64.Vec3{1.995, 0, 0}) {
		t.Error("positions should be unchanged")
	}
	if a.Velocity != (mgl64.Vec3{-1, 0, 0}) || b.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Error("velocities should be unchanged")
	}
}

func TestResolveContacts_ElasticSpheresExchangeVelocities(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	b := newSphere(mgl64.Vec3{1.9, 0, 0}, 1, 1)
	a.Velocity = mgl64.Vec3{1, 0, 0}
	b.Velocity = mgl64.Vec3{-1, 0, 0}

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{a, b},
		Point:       mgl64.Vec3{0.95, 0, 0},
		Normal:      mgl64.Vec3{1, 0, 0},
		Penetration: 0.1,
		Restitution: 1,
		Friction:    0,
	}}

	r := NewResolver(0, 0)
	r.ResolveContacts(contacts, 1.0/60.0)

	if !vecApprox(a.Velocity, mgl64.Vec3{-1, 0, 0}, epsilon) {
		t.Errorf("a.Velocity = %v, want (-1,0,0)", a.Velocity)
	}
	if !vecApprox(b.Velocity, mgl64.Vec3{1, 0, 0}, epsilon) {
		t.Errorf("b.Velocity = %v, want (1,0,0)", b.Velocity)
	}

	// momentum is conserved
	momentum := a.Velocity.Mul(a.Mass()).Add(b.Velocity.Mul(b.Mass()))
	if momentum.Len() > epsilon {
		t.Errorf("momentum = %v, want 0", momentum)
	}

	// penetration split evenly between equal masses
	if math.Abs(a.Transform.Position.X()+0.05) > epsilon || math.Abs(b.Transform.Position.X()-1.95) > epsilon {
		t.Errorf("positions = %v, %v", a.Transform.Position, b.Transform.Position)
	}
	if r.VelocityIterationsUsed != 1 {
		t.Errorf("VelocityIterationsUsed = %d, want 1", r.VelocityIterationsUsed)
	}
}

func TestResolveContacts_InelasticStopsClosingVelocity(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	b := newSphere(mgl64.Vec3{1.9, 0, 0}, 1, 3)
	a.Velocity = mgl64.Vec3{2, 0, 0}

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{a, b},
		Point:       mgl64.Vec3{0.95, 0, 0},
		Normal:      mgl64.Vec3{1, 0, 0},
		Penetration: 0.1,
	}}

	NewResolver(0, 0).ResolveContacts(contacts, 1.0/60.0)

	// perfectly inelastic: both move at the velocity of the centre of mass
	want := mgl64.Vec3{0.5, 0, 0}
	if !vecApprox(a.Velocity, want, epsilon) || !vecApprox(b.Velocity, want, epsilon) {
		t.Errorf("velocities = %v, %v, want %v", a.Velocity, b.Velocity, want)
	}

	// the heavier body moves a quarter of the penetration
	if math.Abs(b.Transform.Position.X()-1.925) > epsilon || math.Abs(a.Transform.Position.X()+0.075) > epsilon {
		t.Errorf("positions = %v, %v", a.Transform.Position, b.Transform.Position)
	}
}

func TestResolveContacts_SlowContactsDoNotBounce(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	b := newSphere(mgl64.Vec3{1.99, 0, 0}, 1, 1)
	b.Velocity = mgl64.Vec3{-0.1, 0, 0}

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{a, b},
		Point:       mgl64.Vec3{0.995, 0, 0},
		Normal:      mgl64.Vec3{1, 0, 0},
		Restitution: 1,
	}}

	NewResolver(0, 0).ResolveContacts(contacts, 1.0/60.0)

	relative := b.Velocity.Sub(a.Velocity).X()
	if math.Abs(relative) > epsilon {
		t.Errorf("relative velocity = %v, want 0 below the bounce limit", relative)
	}
}

func TestResolveContacts_PropagatesToSharedBodies(t *testing.T) {
	// a sphere resting on the world, a second sphere resting on the first
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	b := newSphere(mgl64.Vec3{0, 1.9, 0}, 1, 1)

	contacts := []Contact{
		{
			Body:        [2]*actor.RigidBody{a, nil},
			Point:       mgl64.Vec3{0, -1, 0},
			Normal:      mgl64.Vec3{0, -1, 0},
			Penetration: 0.2,
		},
		{
			Body:        [2]*actor.RigidBody{a, b},
			Point:       mgl64.Vec3{0, 0.95, 0},
			Normal:      mgl64.Vec3{0, 1, 0},
			Penetration: 0.1,
		},
	}

	r := NewResolver(0, 0)
	r.ResolveContacts(contacts, 1.0/60.0)

	if r.PositionIterationsUsed == 0 || r.PositionIterationsUsed > 4 {
		t.Errorf("PositionIterationsUsed = %d, want 1 to 4", r.PositionIterationsUsed)
	}

	// every move is a pure translation: the cached penetrations match the geometry
	groundPenetration := 0.2 - a.Transform.Position.Y()
	stackPenetration := 2 - (b.Transform.Position.Y() - a.Transform.Position.Y())
	if math.Abs(contacts[0].Penetration-groundPenetration) > epsilon {
		t.Errorf("ground penetration = %v, geometry says %v", contacts[0].Penetration, groundPenetration)
	}
	if math.Abs(contacts[1].Penetration-stackPenetration) > epsilon {
		t.Errorf("stack penetration = %v, geometry says %v", contacts[1].Penetration, stackPenetration)
	}
	if math.Max(groundPenetration, stackPenetration) >= 0.2 {
		t.Errorf("penetrations %v, %v should have decreased", groundPenetration, stackPenetration)
	}
}

func TestResolveContacts_BoxesOverlappingOnX(t *testing.T) {
	a := newBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, 1)
	b := newBox(mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{1, 1, 1}, 1)
	a.Acceleration = mgl64.Vec3{0, -10, 0}
	b.Acceleration = mgl64.Vec3{0, -10, 0}

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{a, b},
		Point:       mgl64.Vec3{0.5, 1, 1},
		Normal:      mgl64.Vec3{1, 0, 0},
		Penetration: 0.5,
		Friction:    0.5,
	}}

	r := NewResolver(0, 0)
	r.ResolveContacts(contacts, 1.0/60.0)

	if contacts[0].Penetration > r.PositionEpsilon {
		t.Errorf("Penetration = %v, want <= %v", contacts[0].Penetration, r.PositionEpsilon)
	}
	for _, body := range []*actor.RigidBody{a, b} {
		if math.Abs(body.Transform.Position.Y()) > epsilon || math.Abs(body.Transform.Position.Z()) > epsilon {
			t.Errorf("spurious y/z displacement: %v", body.Transform.Position)
		}
	}
	if a.Transform.Position.X() >= 0 || b.Transform.Position.X() <= 1.5 {
		t.Errorf("boxes should be pushed apart, got %v and %v", a.Transform.Position, b.Transform.Position)
	}
}

func TestResolveContacts_WorldContactSwapsBodies(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{nil, a},
		Point:       mgl64.Vec3{0, -1, 0},
		Normal:      mgl64.Vec3{0, 1, 0},
		Penetration: 0.2,
	}}

	NewResolver(0, 0).ResolveContacts(contacts, 1.0/60.0)

	if contacts[0].Body[0] != a || contacts[0].Body[1] != nil {
		t.Fatal("the body should be moved to slot 0")
	}
	if contacts[0].Normal != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("Normal = %v, want it reversed", contacts[0].Normal)
	}
	if math.Abs(a.Transform.Position.Y()-0.2) > epsilon {
		t.Errorf("body should be lifted out of the world, at %v", a.Transform.Position)
	}
}

// =============================================================================
// Friction Tests
// =============================================================================

func TestResolveContacts_Friction(t *testing.T) {
	tests := []struct {
		name         string
		friction     float64
		wantVelocity mgl64.Vec3
		pointStops   bool
	}{
		{"static friction stops the contact point", 10, mgl64.Vec3{}, true},
		{"dynamic friction is bounded by the cone", 0.1, mgl64.Vec3{0.9, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ground := actor.NewRigidBody(actor.Transform{Position: mgl64.Vec3{0, -2, 0}}, &actor.Box{HalfExtents: mgl64.Vec3{10, 1, 10}}, actor.BodyTypeStatic, 1)
			ball := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
			ball.Velocity = mgl64.Vec3{1, -1, 0}

			contacts := []Contact{{
				Body:     [2]*actor.RigidBody{ground, ball},
				Point:    mgl64.Vec3{0, -1, 0},
				Normal:   mgl64.Vec3{0, 1, 0},
				Friction: tt.friction,
			}}

			NewResolver(0, 0).ResolveContacts(contacts, 1.0/60.0)

			pointVelocity := ball.Velocity.Add(ball.AngularVelocity.Cross(mgl64.Vec3{0, -1, 0}))
			if tt.pointStops {
				if pointVelocity.Len() > 1e-6 {
					t.Errorf("contact point velocity = %v, want 0", pointVelocity)
				}
				return
			}
			if !vecApprox(ball.Velocity, tt.wantVelocity, 1e-6) {
				t.Errorf("Velocity = %v, want %v", ball.Velocity, tt.wantVelocity)
			}
			if ball.AngularVelocity.Z() >= 0 {
				t.Errorf("sliding ball should start rolling around -Z, got %v", ball.AngularVelocity)
			}
			if ground.Velocity != (mgl64.Vec3{}) {
				t.Error("static ground should not move")
			}
		})
	}
}

// =============================================================================
// Awake State Tests
// =============================================================================

func TestResolveContacts_WakesSleepingBody(t *testing.T) {
	a := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	b := newSphere(mgl64.Vec3{1.9, 0, 0}, 1, 1)
	b.Sleep()

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{a, b},
		Point:       mgl64.Vec3{0.95, 0, 0},
		Normal:      mgl64.Vec3{1, 0, 0},
		Penetration: 0.1,
	}}

	NewResolver(0, 0).ResolveContacts(contacts, 1.0/60.0)

	if b.IsSleeping {
		t.Error("body hit by an awake body should wake up")
	}
}

func TestResolveContacts_StaticBodyDoesNotWakeSleeper(t *testing.T) {
	ground := actor.NewRigidBody(actor.Transform{Position: mgl64.Vec3{0, -2, 0}}, &actor.Box{HalfExtents: mgl64.Vec3{10, 1, 10}}, actor.BodyTypeStatic, 1)
	ball := newSphere(mgl64.Vec3{0, 0, 0}, 1, 1)
	ball.Sleep()

	contacts := []Contact{{
		Body:        [2]*actor.RigidBody{ground, ball},
		Point:       mgl64.Vec3{0, -1, 0},
		Normal:      mgl64.Vec3{0, 1, 0},
		Penetration: 0.05,
	}}

	NewResolver(0, 0).ResolveContacts(contacts, 1.0/60.0)

	if !ball.IsSleeping {
		t.Error("a static body should not wake a sleeping one")
	}
}
