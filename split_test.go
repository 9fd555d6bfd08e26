package vptree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVantagePointSplit_PartitionsAroundVantagePoint(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := randomPoints(rng, 200, 3)
	data := newDataset(denseRows(t, points))
	perm := identity(len(points))
	metric := EuclideanMetric{}
	bound := emptyBound(metric)

	begin, count := 10, 150
	splitCol, ok := VantagePointSplit{}.SplitNode(&bound, data, begin, count, perm)
	require.True(t, ok)
	require.Greater(t, splitCol, begin)
	require.Less(t, splitCol, begin+count)

	vantage := data.Point(begin)
	maxNear := 0.0
	for i := begin; i < splitCol; i++ {
		if d := metric.Distance(vantage, data.Point(i)); d > maxNear {
			maxNear = d
		}
	}
	for i := splitCol; i < begin+count; i++ {
		assert.LessOrEqual(t, maxNear, metric.Distance(vantage, data.Point(i)))
	}

	// Rows and permutation moved together; rows outside the range did not move.
	for i, old := range perm {
		assert.Equal(t, points[old], data.Point(i))
		if i < begin || i >= begin+count {
			assert.Equal(t, i, old)
		}
	}
}

func TestVantagePointSplit_RoughlyBalanced(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := newDataset(denseRows(t, randomPoints(rng, 1000, 4)))
	bound := emptyBound(EuclideanMetric{})

	splitCol, ok := VantagePointSplit{MaxSamples: 50}.SplitNode(&bound, data, 0, 1000, nil)
	require.True(t, ok)
	assert.InDelta(t, 500, splitCol, 10, "median split should halve the range")
}

func TestVantagePointSplit_Failures(t *testing.T) {
	data := newDataset(denseRows(t, [][]float64{{1, 1}, {1, 1}, {1, 1}, {2, 2}}))
	bound := emptyBound(EuclideanMetric{})
	s := VantagePointSplit{}

	_, ok := s.SplitNode(&bound, data, 0, 1, nil)
	assert.False(t, ok, "a single point cannot be split")

	_, ok = s.SplitNode(&bound, data, 0, 3, nil)
	assert.False(t, ok, "coincident points cannot be split")

	splitCol, ok := s.SplitNode(&bound, data, 0, 4, nil)
	require.True(t, ok, "one distinct point is enough to split")
	assert.Greater(t, splitCol, 0)
	assert.Less(t, splitCol, 4)
}

func TestVantagePointSplit_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	points := randomPoints(rng, 500, 2)
	bound := emptyBound(EuclideanMetric{})

	split := func() ([]int, int) {
		data := newDataset(denseRows(t, points))
		perm := identity(len(points))
		col, ok := VantagePointSplit{MaxSamples: 20, Seed: 3}.SplitNode(&bound, data, 0, len(points), perm)
		require.True(t, ok)
		return perm, col
	}
	p1, c1 := split()
	p2, c2 := split()
	assert.Equal(t, c1, c2)
	assert.Equal(t, p1, p2)
}

func TestSplitDistance(t *testing.T) {
	assert.Equal(t, 2.0, splitDistance([]float64{0, 1, 2, 3, 4}))
	assert.Equal(t, 3.0, splitDistance([]float64{0, 0, 0, 0, 3}), "falls back to the smallest positive distance")
	assert.Equal(t, 0.0, splitDistance([]float64{0, 0, 0}))
}
