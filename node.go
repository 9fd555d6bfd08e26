package vptree

import "fmt"

// Node is one node of a vantage-point tree. It spans the contiguous point
// range [Begin, Begin+Count) of the tree's dataset and holds a hollow ball
// bound containing every point in that range and every descendant's bound.
//
// A node has either zero or two children. The left child is the "near" side
// of a split and its first point is the vantage point the split was made
// around; that point is also the center of both children's bounds.
//
// Nodes are immutable once the tree is built, apart from their statistic.
type Node struct {
	left   *Node
	right  *Node
	parent *Node // non-owning; never used for ownership decisions

	begin int
	count int

	bound HollowBallBound
	stat  Statistic

	parentDistance             float64
	furthestDescendantDistance float64

	dataset *Dataset // non-owning; the Tree owns it

	firstPointIsCentroid bool
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.left == nil }

// NumChildren returns 0 for a leaf and 2 otherwise.
func (n *Node) NumChildren() int {
	if n.IsLeaf() {
		return 0
	}
	return 2
}

// Child returns the left (0) or right (1) child. Panics if i is not a valid
// child index for this node.
func (n *Node) Child(i int) *Node {
	switch {
	case i == 0 && n.left != nil:
		return n.left
	case i == 1 && n.right != nil:
		return n.right
	}
	panic(fmt.Sprintf("vptree: child index %d out of range for node with %d children", i, n.NumChildren()))
}

func (n *Node) Left() *Node   { return n.left }
func (n *Node) Right() *Node  { return n.right }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) Begin() int    { return n.begin }
func (n *Node) Count() int    { return n.count }

// Bound returns the node's bound. It must not be modified.
func (n *Node) Bound() *HollowBallBound { return &n.bound }

// Center returns the center of the node's bound.
func (n *Node) Center() []float64 { return n.bound.center }

// Stat returns the node's statistic.
func (n *Node) Stat() Statistic { return n.stat }

// Dataset returns the tree's shared dataset.
func (n *Node) Dataset() *Dataset { return n.dataset }

// ParentDistance returns the distance from this node's center to its
// parent's center, or 0 for the root.
func (n *Node) ParentDistance() float64 { return n.parentDistance }

// FurthestDescendantDistance returns an upper bound (not necessarily tight)
// on the distance from the node's center to any descendant point.
func (n *Node) FurthestDescendantDistance() float64 { return n.furthestDescendantDistance }

// FurthestPointDistance returns the outer radius for a leaf and 0 otherwise.
func (n *Node) FurthestPointDistance() float64 {
	if !n.IsLeaf() {
		return 0
	}
	return n.bound.outerRadius
}

// MinimumBoundDistance returns the outer radius of the node's bound.
func (n *Node) MinimumBoundDistance() float64 { return n.bound.outerRadius }

// FirstPointIsCentroid reports whether the node's first point is the vantage
// point its bound is centered on.
func (n *Node) FirstPointIsCentroid() bool { return n.firstPointIsCentroid }

// NumPoints returns the number of points held directly by this node: every
// point for a leaf, the vantage point for an internal near-side node, and
// none for any other internal node.
func (n *Node) NumPoints() int {
	if n.left == nil {
		return n.count
	}
	if n.firstPointIsCentroid {
		return 1
	}
	return 0
}

// NumDescendants returns the number of points in the node's subtree.
func (n *Node) NumDescendants() int { return n.count }

// Point returns the dataset index of the i-th point held directly by this
// node. Panics if i >= NumPoints().
func (n *Node) Point(i int) int {
	if i < 0 || i >= n.NumPoints() {
		panic(fmt.Sprintf("vptree: point index %d out of range [0, %d)", i, n.NumPoints()))
	}
	return n.begin + i
}

// Descendant returns the dataset index of the i-th point in the node's
// subtree. Panics if i >= NumDescendants().
func (n *Node) Descendant(i int) int {
	if i < 0 || i >= n.count {
		panic(fmt.Sprintf("vptree: descendant index %d out of range [0, %d)", i, n.count))
	}
	return n.begin + i
}
