package collide

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

func newBody(position mgl64.Vec3, rotation mgl64.Quat, shape actor.ShapeInterface) *actor.RigidBody {
	return actor.NewRigidBody(actor.Transform{Position: position, Rotation: rotation}, shape, actor.BodyTypeDynamic, 1)
}

func newSphere(position mgl64.Vec3, radius float64) *actor.RigidBody {
	return newBody(position, mgl64.QuatIdent(), &actor.Sphere{Radius: radius})
}

func newBox(position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.RigidBody {
	return newBody(position, mgl64.QuatIdent(), &actor.Box{HalfExtents: halfExtents})
}

func newRotatedBox(position mgl64.Vec3, angle float64, axis mgl64.Vec3, halfExtents mgl64.Vec3) *actor.RigidBody {
	return newBody(position, mgl64.QuatRotate(angle, axis), &actor.Box{HalfExtents: halfExtents})
}

// newTetrahedron returns a tetrahedron pointing down, its apex one unit below its origin
func newTetrahedron(t *testing.T, position mgl64.Vec3) *actor.RigidBody {
	t.Helper()

	poly, err := actor.NewPolyhedron(
		[]mgl64.Vec3{{0, -1, 0}, {-1, 1, -1}, {1, 1, -1}, {0, 1, 1}},
		[][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}},
	)
	if err != nil {
		t.Fatalf("NewPolyhedron() error = %v", err)
	}

	return newBody(position, mgl64.QuatIdent(), poly)
}

func checkContact(t *testing.T, data *CollisionData, index int, normal, point mgl64.Vec3, penetration float64) {
	t.Helper()

	if index >= data.Used {
		t.Fatalf("contact %d missing, %d generated", index, data.Used)
	}
	c := data.Contacts[index]
	if !vecApprox(c.Normal, normal, 1e-6) {
		t.Errorf("contact %d normal = %v, want %v", index, c.Normal, normal)
	}
	if !vecApprox(c.Point, point, 1e-6) {
		t.Errorf("contact %d point = %v, want %v", index, c.Point, point)
	}
	if math.Abs(c.Penetration-penetration) > 1e-6 {
		t.Errorf("contact %d penetration = %v, want %v", index, c.Penetration, penetration)
	}
}
