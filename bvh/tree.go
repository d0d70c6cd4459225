package bvh

import "github.com/akmonengine/impulse/actor"

// NodeID addresses a node inside the Tree arena
type NodeID int

// Null is the NodeID of a missing node
const Null NodeID = -1

// Node of the hierarchy. A leaf holds a body and no children, an internal node holds
// two children and no body, never a mix.
type Node struct {
	Children [2]NodeID
	// Parent is only used to recompute volumes bottom-up
	Parent NodeID
	Volume BoundingSphere
	Body   *actor.RigidBody
}

func (n Node) IsLeaf() bool {
	return n.Body != nil
}

// PotentialContact is a pair of bodies whose bounding volumes overlap.
// It carries no guarantee that the bodies actually touch.
type PotentialContact struct {
	Body [2]*actor.RigidBody
}

// Tree is a bounding volume hierarchy of spheres over rigid bodies.
// Nodes are pooled in an arena and addressed by index; freed slots are reused.
// The tree is never rebalanced, so insertion order affects its shape.
type Tree struct {
	nodes  []Node
	free   []NodeID
	root   NodeID
	leaves map[*actor.RigidBody]NodeID
}

// NewTree creates an empty tree with room for capacity bodies
func NewTree(capacity int) *Tree {
	return &Tree{
		nodes:  make([]Node, 0, 2*capacity),
		root:   Null,
		leaves: make(map[*actor.RigidBody]NodeID, capacity),
	}
}

// Root returns the root node, Null for an empty tree
func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns a copy of the node addressed by id
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// Len is the number of live nodes
func (t *Tree) Len() int {
	return len(t.nodes) - len(t.free)
}

// Bodies is the number of leaves
func (t *Tree) Bodies() int {
	return len(t.leaves)
}

// Leaf returns the leaf holding body
func (t *Tree) Leaf(body *actor.RigidBody) (NodeID, bool) {
	id, ok := t.leaves[body]
	return id, ok
}

// Reset empties the tree, keeping its memory for the next rebuild
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.root = Null
	clear(t.leaves)
}

// Insert adds a body with its bounding volume and returns its leaf.
// A body already in the tree is moved to the new volume. A nil body is ignored.
func (t *Tree) Insert(body *actor.RigidBody, volume BoundingSphere) NodeID {
	if body == nil {
		return Null
	}
	if _, ok := t.leaves[body]; ok {
		t.Remove(body)
	}

	if t.root == Null {
		t.root = t.allocate(Node{Parent: Null, Volume: volume, Body: body})
		t.leaves[body] = t.root
		return t.root
	}

	id := t.root
	for !t.nodes[id].IsLeaf() {
		children := t.nodes[id].Children
		if t.nodes[children[0]].Volume.Growth(volume) < t.nodes[children[1]].Volume.Growth(volume) {
			id = children[0]
		} else {
			id = children[1]
		}
	}

	// the leaf becomes internal: its body moves down to the first child
	leaf := t.nodes[id]
	first := t.allocate(Node{Parent: id, Volume: leaf.Volume, Body: leaf.Body})
	second := t.allocate(Node{Parent: id, Volume: volume, Body: body})

	t.nodes[id].Body = nil
	t.nodes[id].Children = [2]NodeID{first, second}
	t.leaves[leaf.Body] = first
	t.leaves[body] = second

	t.refit(id)

	return second
}

// Remove deletes the leaf of body. Its sibling is promoted into the parent, so the tree
// stays full. It returns false when body is not in the tree.
func (t *Tree) Remove(body *actor.RigidBody) bool {
	id, ok := t.leaves[body]
	if !ok {
		return false
	}
	delete(t.leaves, body)

	parent := t.nodes[id].Parent
	if parent == Null {
		t.release(id)
		t.root = Null
		return true
	}

	siblingID := t.nodes[parent].Children[0]
	if siblingID == id {
		siblingID = t.nodes[parent].Children[1]
	}
	sibling := t.nodes[siblingID]

	t.nodes[parent].Volume = sibling.Volume
	t.nodes[parent].Body = sibling.Body
	t.nodes[parent].Children = sibling.Children
	if sibling.IsLeaf() {
		t.leaves[sibling.Body] = parent
	} else {
		t.nodes[sibling.Children[0]].Parent = parent
		t.nodes[sibling.Children[1]].Parent = parent
	}

	t.release(id)
	t.release(siblingID)

	if grandParent := t.nodes[parent].Parent; grandParent != Null {
		t.refit(grandParent)
	}

	return true
}

// PotentialContacts writes the pairs of leaves whose volumes overlap into dst,
// and returns how many were written. At most len(dst) pairs are reported.
func (t *Tree) PotentialContacts(dst []PotentialContact) int {
	if t.root == Null {
		return 0
	}
	return t.potentialContacts(t.root, dst)
}

// Walk visits the nodes depth first, parents before children, until fn returns false
func (t *Tree) Walk(fn func(id NodeID, node Node) bool) {
	if t.root == Null {
		return
	}
	t.walk(t.root, fn)
}

// Depth is the number of levels of the tree, 0 when empty
func (t *Tree) Depth() int {
	if t.root == Null {
		return 0
	}
	return t.depth(t.root)
}

func (t *Tree) walk(id NodeID, fn func(id NodeID, node Node) bool) bool {
	node := t.nodes[id]
	if !fn(id, node) {
		return false
	}
	if node.IsLeaf() {
		return true
	}
	return t.walk(node.Children[0], fn) && t.walk(node.Children[1], fn)
}

func (t *Tree) depth(id NodeID) int {
	node := t.nodes[id]
	if node.IsLeaf() {
		return 1
	}
	return 1 + max(t.depth(node.Children[0]), t.depth(node.Children[1]))
}

// potentialContacts reports the pairs below id: the pairs across both children,
// then the pairs inside each child.
func (t *Tree) potentialContacts(id NodeID, dst []PotentialContact) int {
	node := t.nodes[id]
	if node.IsLeaf() || len(dst) == 0 {
		return 0
	}

	count := t.potentialContactsWith(node.Children[0], node.Children[1], dst)
	count += t.potentialContacts(node.Children[0], dst[count:])
	count += t.potentialContacts(node.Children[1], dst[count:])

	return count
}

func (t *Tree) potentialContactsWith(a, b NodeID, dst []PotentialContact) int {
	if len(dst) == 0 {
		return 0
	}

	nodeA, nodeB := t.nodes[a], t.nodes[b]
	if !nodeA.Volume.Overlaps(nodeB.Volume) {
		return 0
	}

	if nodeA.IsLeaf() && nodeB.IsLeaf() {
		dst[0] = PotentialContact{Body: [2]*actor.RigidBody{nodeA.Body, nodeB.Body}}
		return 1
	}

	// descend into the internal node, or the larger one when both are internal
	if nodeB.IsLeaf() || (!nodeA.IsLeaf() && nodeA.Volume.Size() >= nodeB.Volume.Size()) {
		count := t.potentialContactsWith(nodeA.Children[0], b, dst)
		return count + t.potentialContactsWith(nodeA.Children[1], b, dst[count:])
	}

	count := t.potentialContactsWith(a, nodeB.Children[0], dst)
	return count + t.potentialContactsWith(a, nodeB.Children[1], dst[count:])
}

// refit recomputes the volumes of id and all its ancestors
func (t *Tree) refit(id NodeID) {
	for id != Null {
		node := &t.nodes[id]
		if !node.IsLeaf() {
			node.Volume = NewBoundingSphere(t.nodes[node.Children[0]].Volume, t.nodes[node.Children[1]].Volume)
		}
		id = node.Parent
	}
}

func (t *Tree) allocate(node Node) NodeID {
	node.Children = [2]NodeID{Null, Null}

	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[id] = node
		return id
	}

	t.nodes = append(t.nodes, node)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) release(id NodeID) {
	t.nodes[id] = Node{Children: [2]NodeID{Null, Null}, Parent: Null}
	t.free = append(t.free, id)
}
