package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrMalformedFace is returned when a polyhedron face cannot define a plane
var ErrMalformedFace = errors.New("malformed polyhedron face")

// Face is a planar convex polygon of a Polyhedron, with an outward unit normal
type Face struct {
	Indices []int
	Normal  mgl64.Vec3
	// Offset is Normal · p for any vertex p of the face
	Offset float64
}

// Polyhedron is a convex polyhedron collision shape, described by its local vertices and faces
type Polyhedron struct {
	Vertices []mgl64.Vec3
	Faces    []Face
	// Edges holds each undirected edge once, as a pair of vertex indices
	Edges [][2]int

	radius float64
}

// NewPolyhedron builds a convex polyhedron from local vertices and faces given as cycles of
// vertex indices. Face normals are oriented away from the vertex centroid, so the winding
// of the input does not matter.
func NewPolyhedron(vertices []mgl64.Vec3, faces [][]int) (*Polyhedron, error) {
	if len(vertices) < 4 {
		return nil, fmt.Errorf("polyhedron needs at least 4 vertices, got %d", len(vertices))
	}

	var centroid mgl64.Vec3
	for _, v := range vertices {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1.0 / float64(len(vertices)))

	p := &Polyhedron{
		Vertices: vertices,
		Faces:    make([]Face, 0, len(faces)),
	}

	seen := make(map[[2]int]bool)
	for f, indices := range faces {
		if len(indices) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices: %w", f, len(indices), ErrMalformedFace)
		}

		for _, index := range indices {
			if index < 0 || index >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d out of %d: %w", f, index, len(vertices), ErrMalformedFace)
			}
		}

		// Newell's method, robust to slightly non planar input
		var normal mgl64.Vec3
		for i, index := range indices {
			nextIndex := indices[(i+1)%len(indices)]
			current := vertices[index]
			next := vertices[nextIndex]
			normal[0] += (current.Y() - next.Y()) * (current.Z() + next.Z())
			normal[1] += (current.Z() - next.Z()) * (current.X() + next.X())
			normal[2] += (current.X() - next.X()) * (current.Y() + next.Y())

			edge := [2]int{min(index, nextIndex), max(index, nextIndex)}
			if !seen[edge] {
				seen[edge] = true
				p.Edges = append(p.Edges, edge)
			}
		}

		if normal.LenSqr() < 1e-20 {
			return nil, fmt.Errorf("face %d is degenerate: %w", f, ErrMalformedFace)
		}
		normal = normal.Normalize()

		anchor := vertices[indices[0]]
		if normal.Dot(anchor.Sub(centroid)) < 0 {
			normal = normal.Mul(-1)
		}

		p.Faces = append(p.Faces, Face{
			Indices: indices,
			Normal:  normal,
			Offset:  normal.Dot(anchor),
		})
	}

	for _, v := range vertices {
		p.radius = math.Max(p.radius, v.Len())
	}

	return p, nil
}

func (p *Polyhedron) Type() ShapeType {
	return ShapeTypePolyhedron
}

// Support returns the vertex furthest along direction
func (p *Polyhedron) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := p.Vertices[0]
	bestDot := best.Dot(direction)
	for _, v := range p.Vertices[1:] {
		if d := v.Dot(direction); d > bestDot {
			best, bestDot = v, d
		}
	}

	return best
}

func (p *Polyhedron) BoundingRadius() float64 {
	return p.radius
}

// Volume of the polyhedron, summing the tetrahedra between the origin and each face fan.
// The origin must lie inside the polyhedron.
func (p *Polyhedron) Volume() float64 {
	var volume float64
	for _, face := range p.Faces {
		a := p.Vertices[face.Indices[0]]
		for i := 1; i+1 < len(face.Indices); i++ {
			b := p.Vertices[face.Indices[i]]
			c := p.Vertices[face.Indices[i+1]]
			volume += math.Abs(a.Dot(b.Cross(c))) / 6.0
		}
	}

	return volume
}

func (p *Polyhedron) ComputeMass(density float64) float64 {
	return density * p.Volume()
}

// ComputeInertia approximates the polyhedron by the cuboid of its local bounds
func (p *Polyhedron) ComputeInertia(mass float64) mgl64.Mat3 {
	lower := p.Vertices[0]
	upper := p.Vertices[0]
	for _, v := range p.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lower[i] = math.Min(lower[i], v[i])
			upper[i] = math.Max(upper[i], v[i])
		}
	}

	return CuboidInertia(upper.Sub(lower).Mul(0.5), mass)
}
