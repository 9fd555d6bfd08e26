package vptree

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Dataset is the point storage shared by every node of one tree. Each point
// is a row of a dense matrix. Building a tree reorders rows in place but never
// resizes the matrix or changes a row's contents.
//
// A Dataset belongs to exactly one Tree. Nodes hold a non-owning pointer to
// it; deep copies of a tree allocate one new Dataset for the whole copy.
type Dataset struct {
	m *mat.Dense
}

func newDataset(m *mat.Dense) *Dataset {
	return &Dataset{m: m}
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	r, _ := d.m.Dims()
	return r
}

// Dims returns the dimensionality of each point.
func (d *Dataset) Dims() int {
	_, c := d.m.Dims()
	return c
}

// Point returns a view of the i-th point in tree order. The returned slice
// aliases the dataset and must not be modified.
func (d *Dataset) Point(i int) []float64 {
	return d.m.RawRowView(i)
}

// Matrix returns the underlying matrix, rows in tree order. It must be
// treated as read-only.
func (d *Dataset) Matrix() *mat.Dense {
	return d.m
}

func (d *Dataset) swap(i, j int) {
	if i == j {
		return
	}
	n := d.Dims()
	blas64.Swap(
		blas64.Vector{N: n, Inc: 1, Data: d.m.RawRowView(i)},
		blas64.Vector{N: n, Inc: 1, Data: d.m.RawRowView(j)},
	)
}

func (d *Dataset) clone() *Dataset {
	return newDataset(mat.DenseCopyOf(d.m))
}

// denseFromPoints packs row slices into a new matrix. All rows must share the
// first row's dimensionality.
func denseFromPoints(points [][]float64) (*mat.Dense, error) {
	if len(points) == 0 || len(points[0]) == 0 {
		return nil, ErrEmptyDataset
	}
	dims := len(points[0])
	flat := make([]float64, len(points)*dims)
	for i, p := range points {
		if len(p) != dims {
			return nil, &ErrDimensionMismatch{Expected: dims, Actual: len(p)}
		}
		copy(flat[i*dims:], p)
	}
	return mat.NewDense(len(points), dims, flat), nil
}

func checkMatrix(m mat.Matrix) error {
	if m == nil {
		return ErrEmptyDataset
	}
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return ErrEmptyDataset
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return ErrEmptyDataset
	}
	return nil
}
