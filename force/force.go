// Package force accumulates forces on rigid bodies before they are integrated.
package force

import (
	"github.com/akmonengine/impulse/actor"
)

// Generator adds forces to a body, once per frame
type Generator interface {
	UpdateForce(body *actor.RigidBody, duration float64)
}

type registration struct {
	body      *actor.RigidBody
	generator Generator
}

// Registry holds which generators apply to which bodies.
// A generator may be registered on many bodies, and a body may have many generators.
type Registry struct {
	registrations []registration
}

// Add registers a generator on a body
func (r *Registry) Add(body *actor.RigidBody, generator Generator) {
	r.registrations = append(r.registrations, registration{body: body, generator: generator})
}

// Remove unregisters a generator from a body, and reports whether it was registered
func (r *Registry) Remove(body *actor.RigidBody, generator Generator) bool {
	for i, reg := range r.registrations {
		if reg.body == body && reg.generator == generator {
			r.registrations = append(r.registrations[:i], r.registrations[i+1:]...)
			return true
		}
	}

	return false
}

// RemoveBody unregisters every generator of a body
func (r *Registry) RemoveBody(body *actor.RigidBody) {
	n := 0
	for _, reg := range r.registrations {
		if reg.body != body {
			r.registrations[n] = reg
			n++
		}
	}
	clear(r.registrations[n:])
	r.registrations = r.registrations[:n]
}

// Clear removes every registration, the generators themselves are untouched
func (r *Registry) Clear() {
	clear(r.registrations)
	r.registrations = r.registrations[:0]
}

func (r *Registry) Len() int {
	return len(r.registrations)
}

// UpdateForces calls every generator on its body, in registration order
func (r *Registry) UpdateForces(duration float64) {
	for _, reg := range r.registrations {
		reg.generator.UpdateForce(reg.body, duration)
	}
}
