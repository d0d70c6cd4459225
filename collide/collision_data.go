// Package collide is the narrow phase: it turns pairs of bodies that may touch into contacts.
//
// Every generator appends its contacts to a CollisionData buffer and returns how many it
// wrote. The contact normal always points from Body[0] toward Body[1] (for a contact against
// the world, from the body toward the world) and the penetration is positive when overlapping.
package collide

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultFaceBias is the margin by which an edge-edge axis must beat the best face axis
// in the box-box test
const DefaultFaceBias = 0.001

// CollisionData is a fixed capacity contact buffer, filled by the generators
type CollisionData struct {
	// Contacts is the whole buffer, only the first Used entries are valid
	Contacts []constraint.Contact
	Used     int

	// Friction and Restitution of new contacts, unless UseMaterials is set
	Friction    float64
	Restitution float64
	// UseMaterials mixes the materials of both bodies instead
	UseMaterials bool

	// Tolerance generates contacts for closed-form pairs closer than this distance,
	// with a negative penetration
	Tolerance float64
	// FaceBias favours face contacts over edge-edge contacts in the box-box test
	FaceBias float64
}

// NewCollisionData allocates a buffer for capacity contacts
func NewCollisionData(capacity int) *CollisionData {
	return &CollisionData{
		Contacts: make([]constraint.Contact, capacity),
		FaceBias: DefaultFaceBias,
	}
}

// Reset empties the buffer, keeping its memory
func (d *CollisionData) Reset() {
	d.Used = 0
}

// Remaining is the number of contacts that can still be added
func (d *CollisionData) Remaining() int {
	return len(d.Contacts) - d.Used
}

func (d *CollisionData) HasRemaining() bool {
	return d.Used < len(d.Contacts)
}

// Active returns the contacts generated so far
func (d *CollisionData) Active() []constraint.Contact {
	return d.Contacts[:d.Used]
}

// Free returns the unused part of the buffer, for generators writing contacts themselves
func (d *CollisionData) Free() []constraint.Contact {
	return d.Contacts[d.Used:]
}

// Commit marks count contacts written into Free as used
func (d *CollisionData) Commit(count int) {
	d.Used += count
}

// add appends a contact, and reports whether there was room for it
func (d *CollisionData) add(body0, body1 *actor.RigidBody, point, normal mgl64.Vec3, penetration float64) bool {
	if !d.HasRemaining() {
		return false
	}

	friction, restitution := d.Friction, d.Restitution
	if d.UseMaterials {
		friction, restitution = constraint.MixMaterials(body0, body1)
	}

	d.Contacts[d.Used] = constraint.Contact{
		Body:        [2]*actor.RigidBody{body0, body1},
		Point:       point,
		Normal:      normal,
		Penetration: penetration,
		Friction:    friction,
		Restitution: restitution,
	}
	d.Used++

	return true
}
