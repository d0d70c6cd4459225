package bvh

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func newSphereBody(position mgl64.Vec3, radius float64) *actor.RigidBody {
	return actor.NewRigidBody(
		actor.Transform{Position: position, Rotation: mgl64.QuatIdent()},
		&actor.Sphere{Radius: radius},
		actor.BodyTypeDynamic,
		1.0,
	)
}

// checkTree verifies the structural invariants: every node has 0 or 2 children,
// parent links agree with child links, every internal volume encloses its children,
// and every body is indexed at its leaf.
func checkTree(t *testing.T, tree *Tree) {
	t.Helper()

	visited := 0
	leaves := 0
	tree.Walk(func(id NodeID, node Node) bool {
		visited++

		if node.IsLeaf() {
			leaves++
			if node.Children != [2]NodeID{Null, Null} {
				t.Errorf("leaf %d has children %v", id, node.Children)
			}
			if leafID, ok := tree.Leaf(node.Body); !ok || leafID != id {
				t.Errorf("body of leaf %d is indexed at %d", id, leafID)
			}
			return true
		}

		for _, child := range node.Children {
			if child == Null {
				t.Errorf("internal node %d has a missing child", id)
				return false
			}
			childNode := tree.Node(child)
			if childNode.Parent != id {
				t.Errorf("child %d of %d has parent %d", child, id, childNode.Parent)
			}
			if !node.Volume.Contains(childNode.Volume, 1e-9) {
				t.Errorf("volume of %d does not enclose child %d", id, child)
			}
		}
		return true
	})

	if visited != tree.Len() {
		t.Errorf("walked %d nodes, Len() = %d", visited, tree.Len())
	}
	if leaves != tree.Bodies() {
		t.Errorf("walked %d leaves, Bodies() = %d", leaves, tree.Bodies())
	}
	// a full binary tree with n leaves has 2n-1 nodes
	if leaves > 0 && visited != 2*leaves-1 {
		t.Errorf("tree with %d leaves has %d nodes, want %d", leaves, visited, 2*leaves-1)
	}
	if root := tree.Root(); root != Null && tree.Node(root).Parent != Null {
		t.Errorf("root has a parent")
	}
}

func TestTree_InsertIntoEmpty(t *testing.T) {
	tree := NewTree(4)
	body := newSphereBody(mgl64.Vec3{1, 2, 3}, 1)

	id := tree.Insert(body, SphereOf(body))

	if tree.Root() != id {
		t.Fatalf("Root() = %v, want the inserted leaf %v", tree.Root(), id)
	}
	root := tree.Node(id)
	if !root.IsLeaf() || root.Body != body {
		t.Errorf("root should be a leaf holding the body")
	}
	checkTree(t, tree)
}

func TestTree_InsertSecondBody(t *testing.T) {
	tree := NewTree(4)
	a := newSphereBody(mgl64.Vec3{0, 0, 0}, 1)
	b := newSphereBody(mgl64.Vec3{5, 0, 0}, 1)

	tree.Insert(a, SphereOf(a))
	tree.Insert(b, SphereOf(b))

	root := tree.Node(tree.Root())
	if root.IsLeaf() {
		t.Fatal("root should be internal after the second insertion")
	}

	bodies := map[*actor.RigidBody]bool{}
	for _, child := range root.Children {
		node := tree.Node(child)
		if !node.IsLeaf() {
			t.Errorf("child %d should be a leaf", child)
		}
		bodies[node.Body] = true
		if !root.Volume.Contains(node.Volume, 1e-9) {
			t.Errorf("root volume %v does not enclose %v", root.Volume, node.Volume)
		}
	}
	if !bodies[a] || !bodies[b] {
		t.Errorf("root children should hold both bodies")
	}
	checkTree(t, tree)
}

func TestTree_InsertPicksLeastGrowth(t *testing.T) {
	tree := NewTree(4)
	a := newSphereBody(mgl64.Vec3{0, 0, 0}, 1)
	b := newSphereBody(mgl64.Vec3{100, 0, 0}, 1)
	c := newSphereBody(mgl64.Vec3{101, 0, 0}, 1)

	tree.Insert(a, SphereOf(a))
	tree.Insert(b, SphereOf(b))
	tree.Insert(c, SphereOf(c))

	leafA, _ := tree.Leaf(a)
	leafB, _ := tree.Leaf(b)
	leafC, _ := tree.Leaf(c)

	if tree.Node(leafA).Parent != tree.Root() {
		t.Errorf("a should stay directly below the root")
	}
	if tree.Node(leafB).Parent != tree.Node(leafC).Parent {
		t.Errorf("b and c should share a parent")
	}
	checkTree(t, tree)
}

func TestTree_FullBinaryInvariant(t *testing.T) {
	tree := NewTree(16)

	var bodies []*actor.RigidBody
	for i := 0; i < 20; i++ {
		position := mgl64.Vec3{float64(i%5) * 3, float64(i/5) * 3, float64(i%3) * 2}
		body := newSphereBody(position, 1+float64(i%4)*0.25)
		bodies = append(bodies, body)
		tree.Insert(body, SphereOf(body))
		checkTree(t, tree)
	}

	// remove every other body, then the rest in reverse order
	for i := 0; i < len(bodies); i += 2 {
		if !tree.Remove(bodies[i]) {
			t.Fatalf("Remove(body %d) = false", i)
		}
		checkTree(t, tree)
	}
	for i := len(bodies) - 1; i >= 1; i -= 2 {
		tree.Remove(bodies[i])
		checkTree(t, tree)
	}

	if tree.Root() != Null || tree.Len() != 0 {
		t.Errorf("tree should be empty, root = %v, Len() = %d", tree.Root(), tree.Len())
	}
}

func TestTree_InsertRemoveRoundTrip(t *testing.T) {
	tree := NewTree(8)
	for i := 0; i < 6; i++ {
		body := newSphereBody(mgl64.Vec3{float64(i) * 2, float64(i % 2), 0}, 1)
		tree.Insert(body, SphereOf(body))
	}

	lenBefore := tree.Len()
	volumeBefore := tree.Node(tree.Root()).Volume

	extra := newSphereBody(mgl64.Vec3{20, 20, 20}, 3)
	tree.Insert(extra, SphereOf(extra))
	if tree.Len() != lenBefore+2 {
		t.Errorf("Len() after insert = %d, want %d", tree.Len(), lenBefore+2)
	}
	tree.Remove(extra)

	if tree.Len() != lenBefore {
		t.Errorf("Len() = %d, want %d", tree.Len(), lenBefore)
	}
	volumeAfter := tree.Node(tree.Root()).Volume
	if volumeAfter.Centre.Sub(volumeBefore.Centre).Len() > 1e-9 || math.Abs(volumeAfter.Radius-volumeBefore.Radius) > 1e-9 {
		t.Errorf("root volume = %v, want %v", volumeAfter, volumeBefore)
	}
	checkTree(t, tree)
}

func TestTree_RemoveUnknownBody(t *testing.T) {
	tree := NewTree(2)
	if tree.Remove(newSphereBody(mgl64.Vec3{}, 1)) {
		t.Error("Remove of an unknown body should return false")
	}
}

func TestTree_ReinsertMovesBody(t *testing.T) {
	tree := NewTree(4)
	a := newSphereBody(mgl64.Vec3{0, 0, 0}, 1)
	b := newSphereBody(mgl64.Vec3{5, 0, 0}, 1)
	tree.Insert(a, SphereOf(a))
	tree.Insert(b, SphereOf(b))

	b.Transform.Position = mgl64.Vec3{1, 0, 0}
	tree.Insert(b, SphereOf(b))

	if tree.Bodies() != 2 {
		t.Errorf("Bodies() = %d, want 2", tree.Bodies())
	}
	pairs := make([]PotentialContact, 4)
	if n := tree.PotentialContacts(pairs); n != 1 {
		t.Errorf("PotentialContacts() = %d, want 1", n)
	}
	checkTree(t, tree)
}

func TestTree_FreeListReuse(t *testing.T) {
	tree := NewTree(4)
	a := newSphereBody(mgl64.Vec3{0, 0, 0}, 1)
	b := newSphereBody(mgl64.Vec3{5, 0, 0}, 1)
	tree.Insert(a, SphereOf(a))
	tree.Insert(b, SphereOf(b))
	slots := len(tree.nodes)

	for i := 0; i < 10; i++ {
		tree.Remove(b)
		tree.Insert(b, SphereOf(b))
	}

	if len(tree.nodes) != slots {
		t.Errorf("arena grew from %d to %d slots", slots, len(tree.nodes))
	}
}

func TestTree_PotentialContacts(t *testing.T) {
	tree := NewTree(32)

	var bodies []*actor.RigidBody
	for i := 0; i < 27; i++ {
		// 3x3x3 lattice, spacing 1.5, radius 1: neighbours along an axis overlap
		position := mgl64.Vec3{float64(i%3) * 1.5, float64((i/3)%3) * 1.5, float64(i/9) * 1.5}
		body := newSphereBody(position, 1)
		bodies = append(bodies, body)
		tree.Insert(body, SphereOf(body))
	}

	expected := map[[2]*actor.RigidBody]bool{}
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			if SphereOf(bodies[i]).Overlaps(SphereOf(bodies[j])) {
				expected[[2]*actor.RigidBody{bodies[i], bodies[j]}] = true
			}
		}
	}

	pairs := make([]PotentialContact, 1000)
	n := tree.PotentialContacts(pairs)
	if n != len(expected) {
		t.Fatalf("PotentialContacts() = %d, want %d", n, len(expected))
	}

	seen := map[[2]*actor.RigidBody]bool{}
	for _, pair := range pairs[:n] {
		key := pair.Body
		if !expected[key] {
			key = [2]*actor.RigidBody{pair.Body[1], pair.Body[0]}
		}
		if !expected[key] {
			t.Errorf("unexpected pair %p %p", pair.Body[0], pair.Body[1])
		}
		if seen[key] {
			t.Errorf("pair %p %p reported twice", pair.Body[0], pair.Body[1])
		}
		seen[key] = true
	}
}

func TestTree_PotentialContactsLimit(t *testing.T) {
	tree := NewTree(8)
	for i := 0; i < 8; i++ {
		// all overlap each other: 28 pairs
		body := newSphereBody(mgl64.Vec3{float64(i) * 0.1, 0, 0}, 1)
		tree.Insert(body, SphereOf(body))
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, 0},
		{1, 1},
		{5, 5},
		{28, 28},
		{100, 28},
	}

	for _, tt := range tests {
		pairs := make([]PotentialContact, tt.limit)
		if n := tree.PotentialContacts(pairs); n != tt.want {
			t.Errorf("limit %d: PotentialContacts() = %d, want %d", tt.limit, n, tt.want)
		}
	}
}

func TestTree_NoPairsWhenSeparated(t *testing.T) {
	tree := NewTree(8)
	for i := 0; i < 8; i++ {
		body := newSphereBody(mgl64.Vec3{float64(i) * 10, 0, 0}, 1)
		tree.Insert(body, SphereOf(body))
	}

	pairs := make([]PotentialContact, 16)
	if n := tree.PotentialContacts(pairs); n != 0 {
		t.Errorf("PotentialContacts() = %d, want 0", n)
	}

	tree.Reset()
	if tree.Root() != Null || tree.Len() != 0 || tree.Bodies() != 0 || tree.Depth() != 0 {
		t.Error("Reset should empty the tree")
	}
	if n := tree.PotentialContacts(pairs); n != 0 {
		t.Errorf("empty tree PotentialContacts() = %d, want 0", n)
	}
}
