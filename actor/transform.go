package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a pose in 3D space: a position and a unit orientation quaternion
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// Matrix builds the 3x4 rotation+translation matrix of the pose.
// The implicit fourth row is [0 0 0 1].
func (t Transform) Matrix() mgl64.Mat3x4 {
	r := t.Rotation.Mat4().Mat3()

	return mgl64.Mat3x4{
		r[0], r[1], r[2],
		r[3], r[4], r[5],
		r[6], r[7], r[8],
		t.Position[0], t.Position[1], t.Position[2],
	}
}

// PointToWorld converts a point from local to world coordinates
func (t Transform) PointToWorld(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(point).Add(t.Position)
}

// PointToLocal converts a point from world to local coordinates
func (t Transform) PointToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(point.Sub(t.Position))
}

// DirectionToWorld rotates a direction from local to world coordinates, ignoring translation
func (t Transform) DirectionToWorld(direction mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(direction)
}

// DirectionToLocal rotates a direction from world to local coordinates, ignoring translation
func (t Transform) DirectionToLocal(direction mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(direction)
}

// Axis returns the world direction of local axis 0, 1 or 2 (a column of the rotation matrix)
func (t Transform) Axis(index int) mgl64.Vec3 {
	var local mgl64.Vec3
	local[index] = 1

	return t.Rotation.Rotate(local)
}
