package vptree

import (
	"context"
	"math"
	"sort"
	"time"
)

// SpanningTree computes a minimum spanning tree of the tree's points under its
// metric using Borůvka rounds. Returns (n-1) edges as [from, to, weight] with
// from < to, in reported indices, sorted by weight. The tree is not modified.
func (t *Tree) SpanningTree() ([][3]float64, error) {
	start := time.Now()
	if t.IsEmpty() {
		t.logger.LogSearch(context.Background(), "mst", 0, 1, time.Since(start), ErrEmptyTree)
		return nil, ErrEmptyTree
	}

	s := newBoruvkaState(t)
	edges := s.spanningTree()
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	t.logger.LogSearch(context.Background(), "mst", t.Len(), 1, time.Since(start), nil)
	return edges, nil
}

// mstCandidate is the best outgoing edge found so far for one component.
// Rows are tree-order; lo and hi are the reported endpoint indices, lo < hi,
// and break ties between equal weights.
type mstCandidate struct {
	dist     float64
	from, to int
	lo, hi   int
}

func (c *mstCandidate) better(d float64, lo, hi int) bool {
	if d != c.dist {
		return d < c.dist
	}
	if lo != c.lo {
		return lo < c.lo
	}
	return hi < c.hi
}

// boruvkaState holds the state shared by all rounds of one spanning tree
// construction. Components are union-find roots over tree rows.
type boruvkaState struct {
	tree *Tree
	uf   *UnionFind

	componentOfPoint []int
	// componentOfNode is the component every point under a node belongs to,
	// or -1 when the node spans several.
	componentOfNode map[*Node]int

	edges [][3]float64
}

func newBoruvkaState(t *Tree) *boruvkaState {
	n := t.Len()
	return &boruvkaState{
		tree:             t,
		uf:               NewUnionFind(n),
		componentOfPoint: make([]int, n),
		componentOfNode:  make(map[*Node]int),
		edges:            make([][3]float64, 0, max(n-1, 0)),
	}
}

func (s *boruvkaState) spanningTree() [][3]float64 {
	for s.uf.Sets() > 1 {
		s.updateComponents()

		best := make(map[int]*mstCandidate)
		for row := range s.componentOfPoint {
			comp := s.componentOfPoint[row]
			c, ok := best[comp]
			if !ok {
				c = &mstCandidate{dist: math.Inf(1), from: -1}
				best[comp] = c
			}
			s.nearestOther(s.tree.root, row, comp, c)
		}

		// Equal weights are ordered by endpoint, so the candidate edges of one
		// round can never close a cycle; the union-find check only skips the
		// edge two components both picked.
		for _, c := range best {
			if c.from < 0 || s.uf.Connected(c.from, c.to) {
				continue
			}
			s.uf.Union(c.from, c.to)
			s.edges = append(s.edges, [3]float64{float64(c.lo), float64(c.hi), c.dist})
		}
	}
	return s.edges
}

func (s *boruvkaState) updateComponents() {
	for row := range s.componentOfPoint {
		s.componentOfPoint[row] = s.uf.Find(row)
	}
	s.componentOfNode = make(map[*Node]int, len(s.componentOfNode))
	s.nodeComponent(s.tree.root)
}

// nodeComponent fills componentOfNode bottom-up and returns n's entry.
func (s *boruvkaState) nodeComponent(n *Node) int {
	comp := s.componentOfPoint[n.begin]
	if n.IsLeaf() {
		for row := n.begin + 1; row < n.begin+n.count; row++ {
			if s.componentOfPoint[row] != comp {
				comp = -1
				break
			}
		}
	} else {
		left := s.nodeComponent(n.left)
		right := s.nodeComponent(n.right)
		if left != right || left != comp {
			comp = -1
		}
	}
	s.componentOfNode[n] = comp
	return comp
}

// nearestOther offers c every point under n outside comp that could beat it.
func (s *boruvkaState) nearestOther(n *Node, row, comp int, c *mstCandidate) {
	if s.componentOfNode[n] == comp {
		return
	}
	t := s.tree
	query := t.dataset.Point(row)
	if n.bound.MinDistance(query) > c.dist {
		return
	}

	for i := 0; i < n.NumPoints(); i++ {
		other := n.Point(i)
		if s.componentOfPoint[other] == comp {
			continue
		}
		d := t.cfg.Metric.Distance(query, t.dataset.Point(other))
		lo, hi := t.originalIndex(row), t.originalIndex(other)
		if lo > hi {
			lo, hi = hi, lo
		}
		if c.better(d, lo, hi) {
			*c = mstCandidate{dist: d, from: row, to: other, lo: lo, hi: hi}
		}
	}
	if n.IsLeaf() {
		return
	}

	near, far := n.left, n.right
	if far.bound.MinDistance(query) < near.bound.MinDistance(query) {
		near, far = far, near
	}
	s.nearestOther(near, row, comp, c)
	s.nearestOther(far, row, comp, c)
}
