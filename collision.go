package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/bvh"
	"github.com/akmonengine/impulse/collide"
)

// BroadPhase rebuilds the hierarchy from the current pose of every body, and writes the pairs
// whose bounding spheres overlap into dst. It returns the number of pairs written, at most len(dst).
func BroadPhase(tree *bvh.Tree, bodies []*actor.RigidBody, dst []bvh.PotentialContact) int {
	tree.Reset()
	for _, body := range bodies {
		tree.Insert(body, bvh.SphereOf(body))
	}

	return tree.PotentialContacts(dst)
}

// NarrowPhase generates the contacts of every potential pair, then of every body against every
// plane, until data is full. Triggers are not tested against planes.
// It returns the number of contacts generated.
func NarrowPhase(pairs []bvh.PotentialContact, bodies []*actor.RigidBody, planes []actor.Plane, data *collide.CollisionData) int {
	start := data.Used

	for _, pair := range pairs {
		if !data.HasRemaining() {
			return data.Used - start
		}
		if !needsCollision(pair.Body[0], pair.Body[1]) {
			continue
		}

		collide.Detect(pair.Body[0], pair.Body[1], data)
	}

	for _, body := range bodies {
		if !isActive(body) || body.IsTrigger {
			continue
		}

		for _, plane := range planes {
			if !data.HasRemaining() {
				return data.Used - start
			}
			collide.DetectPlane(body, plane, data)
		}
	}

	return data.Used - start
}

// isActive reports whether a body moves this frame
func isActive(body *actor.RigidBody) bool {
	return body.HasFiniteMass() && !body.IsSleeping
}

// needsCollision skips the pairs that cannot move: immovable or sleeping on both sides.
// Triggers are still tested, for their events.
func needsCollision(a, b *actor.RigidBody) bool {
	return isActive(a) || isActive(b)
}
