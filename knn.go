package vptree

import (
	"container/heap"
	"context"
	"math"
	"time"
)

// Neighbor is one result of a nearest-neighbor query. Index is the point's
// original index when permutation tracking is enabled, its tree-order row
// otherwise.
type Neighbor struct {
	Index    int
	Distance float64
}

// Search returns the k points nearest to query, closest first. Points at equal
// distance are ordered by ascending Index. Fewer than k results are returned
// when the tree holds fewer than k points.
func (t *Tree) Search(query []float64, k int) ([]Neighbor, error) {
	start := time.Now()
	res, err := t.searchChecked(query, k)
	t.logger.LogSearch(context.Background(), "knn", 1, k, time.Since(start), err)
	return res, err
}

func (t *Tree) searchChecked(query []float64, k int) ([]Neighbor, error) {
	if err := t.checkQuery(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return t.search(query, k, -1), nil
}

// SearchAll returns, for every point in the tree, its k nearest other points.
// The outer slice is indexed like Neighbor.Index.
func (t *Tree) SearchAll(k int) ([][]Neighbor, error) {
	start := time.Now()
	res, err := t.searchAll(k)
	t.logger.LogSearch(context.Background(), "knn-all", t.Len(), k, time.Since(start), err)
	return res, err
}

func (t *Tree) searchAll(k int) ([][]Neighbor, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTree
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	n := t.Len()
	results := make([][]Neighbor, n)
	for row := 0; row < n; row++ {
		results[t.originalIndex(row)] = t.search(t.dataset.Point(row), k, row)
	}
	return results, nil
}

// search runs a single-tree k-NN query, ignoring tree row skip (-1 for none).
func (t *Tree) search(query []float64, k, skip int) []Neighbor {
	q := newNeighborQueue(min(k, t.Len()))
	t.searchNode(t.root, query, skip, q)
	return q.sorted()
}

func (t *Tree) searchNode(n *Node, query []float64, skip int, q *neighborQueue) {
	metric := t.cfg.Metric
	for i := 0; i < n.NumPoints(); i++ {
		row := n.Point(i)
		if row == skip {
			continue
		}
		q.offer(t.originalIndex(row), metric.Distance(query, t.dataset.Point(row)))
	}
	if n.IsLeaf() {
		return
	}

	near, far := n.left, n.right
	nearDist := near.bound.MinDistance(query)
	farDist := far.bound.MinDistance(query)
	if farDist < nearDist {
		near, far = far, near
		nearDist, farDist = farDist, nearDist
	}

	if !q.prunes(nearDist) {
		t.searchNode(near, query, skip, q)
	}
	if !q.prunes(farDist) {
		t.searchNode(far, query, skip, q)
	}
}

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap of knnItem (worst candidate on top) used as a
// bounded priority queue. Equal distances rank the larger index as worse.
type knnHeap []knnItem

func (h knnHeap) Len() int { return len(h) }
func (h knnHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].index > h[j].index
}
func (h knnHeap) Swap(i, j int)  { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x any)   { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// neighborQueue keeps the k best candidates seen so far.
type neighborQueue struct {
	h knnHeap
	k int
}

func newNeighborQueue(k int) *neighborQueue {
	return &neighborQueue{h: make(knnHeap, 0, k), k: k}
}

func (q *neighborQueue) full() bool { return len(q.h) >= q.k }

// offer adds a candidate if it beats the current worst.
func (q *neighborQueue) offer(index int, dist float64) {
	if !q.full() {
		heap.Push(&q.h, knnItem{index: index, dist: dist})
		return
	}
	top := q.h[0]
	if dist < top.dist || (dist == top.dist && index < top.index) {
		q.h[0] = knnItem{index: index, dist: dist}
		heap.Fix(&q.h, 0)
	}
}

// kth returns the current k-th best distance, or +Inf until k candidates
// have been seen.
func (q *neighborQueue) kth() float64 {
	if !q.full() {
		return math.Inf(1)
	}
	return q.h[0].dist
}

// prunes reports whether nothing at distance >= lower can enter the queue.
// Candidates tied with the k-th distance can still win on index, so only a
// strictly larger bound prunes.
func (q *neighborQueue) prunes(lower float64) bool {
	return q.full() && lower > q.h[0].dist
}

// sorted drains the queue into ascending (distance, index) order.
func (q *neighborQueue) sorted() []Neighbor {
	out := make([]Neighbor, len(q.h))
	for i := len(out) - 1; i >= 0; i-- {
		item := heap.Pop(&q.h).(knnItem)
		out[i] = Neighbor{Index: item.index, Distance: item.dist}
	}
	return out
}
