package vptree

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
)

// SpatialIndex is the query interface shared by Tree and LinearScan.
type SpatialIndex interface {
	// Search returns the k nearest points to query, sorted by distance and
	// then by index.
	Search(query []float64, k int) ([]Neighbor, error)

	// SearchRange returns every point whose distance to query is in [lo, hi].
	SearchRange(query []float64, lo, hi float64) (*roaring.Bitmap, error)

	// Len returns the number of indexed points.
	Len() int

	// Dims returns the dimensionality of each point.
	Dims() int
}

var (
	_ SpatialIndex = (*Tree)(nil)
	_ SpatialIndex = (*LinearScan)(nil)
)

// LinearScan answers the same queries as Tree by comparing the query against
// every point. It needs no construction and is the reference Tree's results
// are checked against.
type LinearScan struct {
	data   *mat.Dense
	metric DistanceMetric
}

// NewLinearScan indexes a copy of data, one point per row. A nil metric
// means EuclideanMetric.
func NewLinearScan(data mat.Matrix, metric DistanceMetric) (*LinearScan, error) {
	if err := checkMatrix(data); err != nil {
		return nil, err
	}
	if metric == nil {
		metric = EuclideanMetric{}
	}
	return &LinearScan{data: mat.DenseCopyOf(data), metric: metric}, nil
}

func (l *LinearScan) Len() int {
	r, _ := l.data.Dims()
	return r
}

func (l *LinearScan) Dims() int {
	_, c := l.data.Dims()
	return c
}

func (l *LinearScan) check(query []float64) error {
	if len(query) != l.Dims() {
		return &ErrDimensionMismatch{Expected: l.Dims(), Actual: len(query)}
	}
	return nil
}

func (l *LinearScan) Search(query []float64, k int) ([]Neighbor, error) {
	if err := l.check(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	all := make([]Neighbor, l.Len())
	for i := range all {
		all[i] = Neighbor{Index: i, Distance: l.metric.Distance(query, l.data.RawRowView(i))}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].Index < all[j].Index
	})
	return all[:min(k, len(all))], nil
}

func (l *LinearScan) SearchRange(query []float64, lo, hi float64) (*roaring.Bitmap, error) {
	if err := l.check(query); err != nil {
		return nil, err
	}
	if lo < 0 || !(lo <= hi) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, lo, hi)
	}
	out := roaring.New()
	for i := 0; i < l.Len(); i++ {
		if d := l.metric.Distance(query, l.data.RawRowView(i)); d >= lo && d <= hi {
			out.Add(uint32(i))
		}
	}
	return out, nil
}
