package vptree

import (
	"context"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// SearchRange returns the indices (as reported in Neighbor.Index) of every
// point whose distance to query lies in [lo, hi]. Subtrees whose bound lies
// entirely inside the range are added without evaluating the metric.
func (t *Tree) SearchRange(query []float64, lo, hi float64) (*roaring.Bitmap, error) {
	start := time.Now()
	res, err := t.searchRange(query, lo, hi)
	t.logger.LogSearch(context.Background(), "range", 1, 0, time.Since(start), err)
	return res, err
}

func (t *Tree) searchRange(query []float64, lo, hi float64) (*roaring.Bitmap, error) {
	if err := t.checkQuery(query); err != nil {
		return nil, err
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo < 0 || lo > hi {
		return nil, ErrInvalidRange
	}
	out := roaring.New()
	t.rangeNode(t.root, query, lo, hi, out)
	return out, nil
}

func (t *Tree) rangeNode(n *Node, query []float64, lo, hi float64, out *roaring.Bitmap) {
	bmin, bmax := n.bound.RangeDistance(query)
	if bmin > hi || bmax < lo {
		return
	}
	if lo <= bmin && bmax <= hi {
		t.addSubtree(n, out)
		return
	}

	metric := t.cfg.Metric
	for i := 0; i < n.NumPoints(); i++ {
		row := n.Point(i)
		if d := metric.Distance(query, t.dataset.Point(row)); d >= lo && d <= hi {
			out.Add(uint32(t.originalIndex(row)))
		}
	}
	if !n.IsLeaf() {
		t.rangeNode(n.left, query, lo, hi, out)
		t.rangeNode(n.right, query, lo, hi, out)
	}
}

func (t *Tree) addSubtree(n *Node, out *roaring.Bitmap) {
	if t.oldFromNew == nil {
		out.AddRange(uint64(n.begin), uint64(n.begin+n.count))
		return
	}
	for row := n.begin; row < n.begin+n.count; row++ {
		out.Add(uint32(t.oldFromNew[row]))
	}
}
