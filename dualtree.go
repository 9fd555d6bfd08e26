package vptree

import (
	"context"
	"math"
	"time"
)

// DualSearch finds, for every point of queryTree, its k nearest points in t by
// traversing both trees together. Results are indexed like queryTree's
// Neighbor.Index and match Search point for point. When queryTree is t itself
// each point's own entry is excluded, as in SearchAll.
//
// Both trees must share a metric; t's is used.
func (t *Tree) DualSearch(queryTree *Tree, k int) ([][]Neighbor, error) {
	start := time.Now()
	res, err := t.dualSearch(queryTree, k)
	queries := 0
	if queryTree != nil {
		queries = queryTree.Len()
	}
	t.logger.LogSearch(context.Background(), "dual-knn", queries, k, time.Since(start), err)
	return res, err
}

// DualSearchAll is DualSearch(t, k).
func (t *Tree) DualSearchAll(k int) ([][]Neighbor, error) {
	return t.DualSearch(t, k)
}

func (t *Tree) dualSearch(queryTree *Tree, k int) ([][]Neighbor, error) {
	if t.IsEmpty() || queryTree == nil || queryTree.IsEmpty() {
		return nil, ErrEmptyTree
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if queryTree.Dims() != t.Dims() {
		return nil, &ErrDimensionMismatch{Expected: t.Dims(), Actual: queryTree.Dims()}
	}

	s := &dualTraversal{
		ref:    t,
		query:  queryTree,
		mono:   queryTree == t,
		queues: make([]*neighborQueue, queryTree.Len()),
		bounds: make(map[*Node]float64),
	}
	k = min(k, t.Len())
	for i := range s.queues {
		s.queues[i] = newNeighborQueue(k)
	}
	s.traverse(queryTree.root, t.root)

	results := make([][]Neighbor, queryTree.Len())
	for row, q := range s.queues {
		results[queryTree.originalIndex(row)] = q.sorted()
	}
	return results, nil
}

// dualTraversal holds the per-query queues and the cached pruning bound of
// every query node visited so far.
type dualTraversal struct {
	ref, query *Tree
	mono       bool
	queues     []*neighborQueue
	bounds     map[*Node]float64
}

// bound returns the largest k-th distance any query under q may still need.
func (s *dualTraversal) bound(q *Node) float64 {
	if b, ok := s.bounds[q]; ok {
		return b
	}
	return math.Inf(1)
}

func (s *dualTraversal) traverse(q, r *Node) {
	if q.bound.MinBoundDistance(&r.bound) > s.bound(q) {
		return
	}

	switch {
	case q.IsLeaf() && r.IsLeaf():
		s.pairs(q, r)
	case !q.IsLeaf():
		for i := 0; i < q.NumPoints(); i++ {
			row := q.Point(i)
			s.single(row, s.query.dataset.Point(row), r)
		}
		s.traverse(q.left, r)
		s.traverse(q.right, r)
	default:
		s.pairs(q, r)
		near, far := r.left, r.right
		if q.bound.MinBoundDistance(&far.bound) < q.bound.MinBoundDistance(&near.bound) {
			near, far = far, near
		}
		s.traverse(q, near)
		s.traverse(q, far)
	}

	s.updateBound(q)
}

// pairs scores q's own points against r's own points.
func (s *dualTraversal) pairs(q, r *Node) {
	metric := s.ref.cfg.Metric
	for i := 0; i < q.NumPoints(); i++ {
		qrow := q.Point(i)
		qp := s.query.dataset.Point(qrow)
		queue := s.queues[qrow]
		for j := 0; j < r.NumPoints(); j++ {
			rrow := r.Point(j)
			if s.mono && rrow == qrow {
				continue
			}
			queue.offer(s.ref.originalIndex(rrow), metric.Distance(qp, s.ref.dataset.Point(rrow)))
		}
	}
}

// single searches r's subtree for one query point.
func (s *dualTraversal) single(qrow int, qp []float64, r *Node) {
	skip := -1
	if s.mono {
		skip = qrow
	}
	queue := s.queues[qrow]
	if queue.prunes(r.bound.MinDistance(qp)) {
		return
	}
	s.ref.searchNode(r, qp, skip, queue)
}

func (s *dualTraversal) updateBound(q *Node) {
	b := 0.0
	for i := 0; i < q.NumPoints(); i++ {
		b = math.Max(b, s.queues[q.Point(i)].kth())
	}
	if !q.IsLeaf() {
		b = math.Max(b, math.Max(s.bound(q.left), s.bound(q.right)))
	}
	s.bounds[q] = b
}
