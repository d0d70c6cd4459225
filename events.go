package impulse

import (
	"unsafe"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

// Event types. Events of a Step are sent together once it ends.
const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makePairKey orders the bodies of a pair by address, so (a, b) and (b, a) share a key
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	if uintptr(unsafe.Pointer(bodyB)) < uintptr(unsafe.Pointer(bodyA)) {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

func (p pairKey) isTrigger() bool {
	return p.bodyA.IsTrigger || p.bodyB.IsTrigger
}

func isTrigger(body *actor.RigidBody) bool {
	return body != nil && body.IsTrigger
}

// EventType identifies the kind of an Event, listeners subscribe by type
type EventType uint8

// Event is implemented by every event sent to listeners
type Event interface {
	Type() EventType
}

// TriggerEnterEvent is sent the first frame a body overlaps a trigger
type TriggerEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

// TriggerStayEvent is sent every frame a body keeps overlapping a trigger after it entered
type TriggerStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

// TriggerExitEvent is sent the first frame a body no longer overlaps a trigger
type TriggerExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// CollisionEnterEvent is sent the first frame two solid bodies touch.
// Contact is their deepest contact of the frame, its body order may differ from BodyA and BodyB.
type CollisionEnterEvent struct {
	BodyA   *actor.RigidBody
	BodyB   *actor.RigidBody
	Contact constraint.Contact
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

// CollisionStayEvent is sent every frame two solid bodies keep touching, unless both sleep.
// Contact is their deepest contact of the frame.
type CollisionStayEvent struct {
	BodyA   *actor.RigidBody
	BodyB   *actor.RigidBody
	Contact constraint.Contact
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

// CollisionExitEvent is sent the first frame two bodies stop touching
type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// SleepEvent is sent when a body falls asleep
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

// WakeEvent is sent when a sleeping body is woken up, by a contact or a force
type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener is called for every event of the type it subscribed to
type EventListener func(event Event)

// Events tracks which pairs of bodies touch from frame to frame, and dispatches the
// resulting events to listeners once per Step.
// Contacts against world planes give no events.
type Events struct {
	listeners map[EventType][]EventListener

	// events waiting for the next flush
	buffer []Event

	// deepest contact of every touching pair, this frame and the previous one
	previousActivePairs map[pairKey]constraint.Contact
	currentActivePairs  map[pairKey]constraint.Contact

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]constraint.Contact),
		currentActivePairs:  make(map[pairKey]constraint.Contact),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollisions marks the pairs of the contacts as touching this frame, and removes
// in place the contacts involving a trigger, which must not be resolved.
// Contacts against the world are not recorded.
func (e *Events) recordCollisions(contacts []constraint.Contact) []constraint.Contact {
	n := 0
	for _, c := range contacts {
		bodyA, bodyB := c.Body[0], c.Body[1]
		if bodyA == nil || bodyB == nil {
			if !isTrigger(bodyA) && !isTrigger(bodyB) {
				contacts[n] = c
				n++
			}
			continue
		}

		pair := makePairKey(bodyA, bodyB)
		if deepest, ok := e.currentActivePairs[pair]; !ok || c.Penetration > deepest.Penetration {
			e.currentActivePairs[pair] = c
		}

		if !bodyA.IsTrigger && !bodyB.IsTrigger {
			contacts[n] = c
			n++
		}
	}

	return contacts[:n]
}

// forget drops every record of body, once it left the world
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, pair)
		}
	}
}

// processCollisionEvents compares the pairs of this frame with the previous one
func (e *Events) processCollisionEvents() {
	for pair, contact := range e.currentActivePairs {
		_, stay := e.previousActivePairs[pair]

		// resting piles of sleeping bodies would send a stay event every frame.
		// A pair first seen asleep is not recorded, it enters once a body wakes up.
		if pair.bodyA.IsSleeping && pair.bodyB.IsSleeping {
			if !stay {
				delete(e.currentActivePairs, pair)
			}
			continue
		}

		switch {
		case pair.isTrigger() && stay:
			e.buffer = append(e.buffer, TriggerStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		case pair.isTrigger():
			e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		case stay:
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB, Contact: contact})
		default:
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB, Contact: contact})
		}
	}

	for pair := range e.previousActivePairs {
		if _, ok := e.currentActivePairs[pair]; ok {
			continue
		}

		if pair.isTrigger() {
			e.buffer = append(e.buffer, TriggerExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// processSleepEvents compares the sleep state of every body with the last one seen.
// A body seen for the first time only has its state recorded.
func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		sleeping, known := e.sleepStates[body]
		e.sleepStates[body] = body.IsSleeping
		if !known || sleeping == body.IsSleeping {
			continue
		}

		if body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
		} else {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
		}
	}
}

// flush sends the buffered events to their listeners and empties the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
