package constraint

// DefaultEpsilon is the default position and velocity threshold below which contacts are not resolved
const DefaultEpsilon = 0.01

// Resolver resolves a set of contacts in two passes: penetrations first, then velocities.
// Each pass repeatedly fixes the worst contact, then updates the contacts sharing a body with it.
type Resolver struct {
	// PositionIterations bounds the position pass, 0 meaning twice the number of contacts
	PositionIterations int
	// VelocityIterations bounds the velocity pass, 0 meaning twice the number of contacts
	VelocityIterations int

	// Contacts with a smaller penetration are considered resolved
	PositionEpsilon float64
	// Contacts with a smaller desired velocity change are considered resolved
	VelocityEpsilon float64

	// Iterations used during the last ResolveContacts
	PositionIterationsUsed int
	VelocityIterationsUsed int
}

func NewResolver(positionIterations, velocityIterations int) *Resolver {
	return &Resolver{
		PositionIterations: positionIterations,
		VelocityIterations: velocityIterations,
		PositionEpsilon:    DefaultEpsilon,
		VelocityEpsilon:    DefaultEpsilon,
	}
}

func (r *Resolver) SetIterations(positionIterations, velocityIterations int) {
	r.PositionIterations = positionIterations
	r.VelocityIterations = velocityIterations
}

func (r *Resolver) SetEpsilon(positionEpsilon, velocityEpsilon float64) {
	r.PositionEpsilon = positionEpsilon
	r.VelocityEpsilon = velocityEpsilon
}

// IsValid reports whether the resolver settings can be used
func (r *Resolver) IsValid() bool {
	return r.PositionIterations >= 0 &&
		r.VelocityIterations >= 0 &&
		r.PositionEpsilon >= 0 &&
		r.VelocityEpsilon >= 0
}

// ResolveContacts resolves the penetration and the velocity of every contact.
// Contacts are updated in place and bodies are moved, rotated and given impulses.
func (r *Resolver) ResolveContacts(contacts []Contact, duration float64) {
	r.PositionIterationsUsed = 0
	r.VelocityIterationsUsed = 0

	if len(contacts) == 0 || !r.IsValid() {
		return
	}

	r.prepareContacts(contacts, duration)
	r.adjustPositions(contacts)
	r.adjustVelocities(contacts, duration)
}

func (r *Resolver) prepareContacts(contacts []Contact, duration float64) {
	for i := range contacts {
		contacts[i].calculateInternals(duration)
	}
}

func (r *Resolver) adjustPositions(contacts []Contact) {
	iterations := r.iterations(r.PositionIterations, len(contacts))

	for r.PositionIterationsUsed < iterations {
		worst := -1
		maximum := r.PositionEpsilon
		for i := range contacts {
			if contacts[i].Penetration > maximum {
				maximum = contacts[i].Penetration
				worst = i
			}
		}
		if worst == -1 {
			break
		}

		contacts[worst].matchAwakeState()
		adj := contacts[worst].applyPositionChange(maximum)

		// the resolved contact is included, its penetration drops to zero
		for i := range contacts {
			contacts[i] = contacts[i].afterPositionChange(adj)
		}

		r.PositionIterationsUsed++
	}
}

func (r *Resolver) adjustVelocities(contacts []Contact, duration float64) {
	iterations := r.iterations(r.VelocityIterations, len(contacts))

	for r.VelocityIterationsUsed < iterations {
		worst := -1
		maximum := r.VelocityEpsilon
		for i := range contacts {
			if contacts[i].desiredDeltaVelocity > maximum {
				maximum = contacts[i].desiredDeltaVelocity
				worst = i
			}
		}
		if worst == -1 {
			break
		}

		contacts[worst].matchAwakeState()
		adj := contacts[worst].applyVelocityChange()

		for i := range contacts {
			contacts[i] = contacts[i].afterVelocityChange(adj, duration)
		}

		r.VelocityIterationsUsed++
	}
}

func (r *Resolver) iterations(configured, contacts int) int {
	if configured == 0 {
		return 2 * contacts
	}
	return configured
}
