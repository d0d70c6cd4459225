// Package impulse is a real-time 3D rigid-body physics engine.
//
// A World integrates its bodies, finds their contacts through a bounding sphere hierarchy
// and a narrow phase per pair of shapes, and resolves them with an iterative impulse solver.
package impulse

import (
	"fmt"
	"log"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/bvh"
	"github.com/akmonengine/impulse/collide"
	"github.com/akmonengine/impulse/config"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/force"
)

// Stats describes the last simulated frame
type Stats struct {
	Pairs                  int
	Contacts               int
	PositionIterationsUsed int
	VelocityIterationsUsed int
	// PairsFull and ContactsFull report that a buffer overflowed, some collisions are missing
	PairsFull    bool
	ContactsFull bool
}

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Immovable planes, tested against every body
	Planes []actor.Plane
	// Joints and other generators of contacts, added after the collisions every frame
	Joints []constraint.ContactGenerator

	Registry force.Registry
	Resolver *constraint.Resolver
	Tree     *bvh.Tree
	Config   config.Config
	Events   Events
	// Logger receives the diagnostics of the world, nil keeps it silent
	Logger *log.Logger

	Stats Stats

	gravity *force.Gravity
	// both buffers hold one spare slot, to tell an overflow from an exactly full frame
	pairs       []bvh.PotentialContact
	data        *collide.CollisionData
	maxPairs    int
	maxContacts int
}

// NewWorld creates an empty world, its buffers sized from the configuration
func NewWorld(cfg config.Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}

	data := collide.NewCollisionData(cfg.MaxContacts + 1)
	data.Friction = cfg.Friction
	data.Restitution = cfg.Restitution
	data.UseMaterials = cfg.UseMaterials
	data.Tolerance = cfg.Tolerance
	data.FaceBias = cfg.FaceBias

	resolver := constraint.NewResolver(cfg.PositionIterations, cfg.VelocityIterations)
	resolver.SetEpsilon(cfg.PositionEpsilon, cfg.VelocityEpsilon)

	return &World{
		Resolver: resolver,
		Tree:     bvh.NewTree(cfg.MaxPairs),
		Config:   cfg,
		Events:   NewEvents(),
		gravity:     force.NewGravity(cfg.GravityVector()),
		pairs:       make([]bvh.PotentialContact, cfg.MaxPairs+1),
		data:        data,
		maxPairs:    cfg.MaxPairs,
		maxContacts: cfg.MaxContacts,
	}, nil
}

// AddBody adds a rigid body to the world, subject to the world gravity and sleep threshold
func (w *World) AddBody(body *actor.RigidBody) {
	body.SleepEpsilon = w.Config.SleepEpsilon
	body.CalculateDerivedData()

	w.Bodies = append(w.Bodies, body)
	w.Registry.Add(body, w.gravity)
}

// RemoveBody removes a rigid body from the world, with its force generators and its events
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := slices.Index(w.Bodies, body)
	if k == -1 {
		return
	}

	w.Bodies = slices.Delete(w.Bodies, k, k+1)
	w.Registry.RemoveBody(body)
	w.Tree.Remove(body)
	w.Events.forget(body)
}

func (w *World) AddPlane(plane actor.Plane) {
	w.Planes = append(w.Planes, plane)
}

func (w *World) AddJoint(joint constraint.ContactGenerator) {
	w.Joints = append(w.Joints, joint)
}

// RemoveJoint removes a joint, and reports whether it was in the world
func (w *World) RemoveJoint(joint constraint.ContactGenerator) bool {
	k := slices.Index(w.Joints, joint)
	if k == -1 {
		return false
	}

	w.Joints = slices.Delete(w.Joints, k, k+1)
	return true
}

// SetGravity changes the gravity of every body of the world
func (w *World) SetGravity(gravity [3]float64) {
	w.Config.Gravity = gravity
	w.gravity.Gravity = w.Config.GravityVector()
}

// Contacts returns the contacts resolved during the last frame. The slice is reused by the next Step.
func (w *World) Contacts() []constraint.Contact {
	return w.data.Active()
}

// StartFrame clears the force accumulators and refreshes the derived data of every body,
// for callers moving bodies by hand between two steps
func (w *World) StartFrame() {
	for _, body := range w.Bodies {
		body.ClearForces()
		body.CalculateDerivedData()
	}
}

// Step advances the simulation by dt seconds, split in Config.Substeps frames.
// Forces added to bodies before Step apply to its first frame only.
// Events are sent once, at the end of the step.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}

	substeps := max(1, w.Config.Substeps)
	h := dt / float64(substeps)

	for i := 0; i < substeps; i++ {
		w.step(h)
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) step(h float64) {
	// Phase 1: forces and integration
	w.Registry.UpdateForces(h)
	for _, body := range w.Bodies {
		body.Integrate(h)
	}

	// Phase 2: broad phase then narrow phase
	pairs := BroadPhase(w.Tree, w.Bodies, w.pairs)
	w.Stats.PairsFull = pairs > w.maxPairs
	pairs = min(pairs, w.maxPairs)

	w.data.Reset()
	NarrowPhase(w.pairs[:pairs], w.Bodies, w.Planes, w.data)
	w.Stats.ContactsFull = w.data.Used > w.maxContacts
	w.data.Used = min(w.data.Used, w.maxContacts)

	// Phase 3: trigger contacts only feed events, joints are always resolved
	w.data.Used = len(w.Events.recordCollisions(w.data.Active()))
	for _, joint := range w.Joints {
		w.data.Commit(joint.AddContact(w.data.Contacts[w.data.Used:w.maxContacts]))
	}

	// Phase 4: resolution
	w.Resolver.ResolveContacts(w.data.Active(), h)

	w.Stats.Pairs = pairs
	w.Stats.Contacts = w.data.Used
	w.Stats.PositionIterationsUsed = w.Resolver.PositionIterationsUsed
	w.Stats.VelocityIterationsUsed = w.Resolver.VelocityIterationsUsed

	if w.Stats.PairsFull {
		w.logf("potential contact buffer full (%d pairs), collisions were missed", w.maxPairs)
	}
	if w.Stats.ContactsFull {
		w.logf("contact buffer full (%d contacts), contacts were missed", w.maxContacts)
	}
}

func (w *World) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}
