package vptree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// primWeight returns the total weight of a minimum spanning tree computed by
// Prim's algorithm on the dense distance matrix.
func primWeight(points [][]float64, metric DistanceMetric) float64 {
	n := len(points)
	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, metric.Distance(points[i], points[j]))
		}
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	for i := range best {
		best[i] = math.Inf(1)
	}
	best[0] = 0
	total := 0.0
	for step := 0; step < n; step++ {
		u := -1
		for v := 0; v < n; v++ {
			if !inTree[v] && (u < 0 || best[v] < best[u]) {
				u = v
			}
		}
		inTree[u] = true
		total += best[u]
		for v := 0; v < n; v++ {
			if !inTree[v] && dist.At(u, v) < best[v] {
				best[v] = dist.At(u, v)
			}
		}
	}
	return total
}

func checkSpanningTree(t *testing.T, edges [][3]float64, points [][]float64, metric DistanceMetric) float64 {
	t.Helper()
	n := len(points)
	require.Len(t, edges, n-1)

	uf := NewUnionFind(n)
	total := 0.0
	for i, e := range edges {
		from, to := int(e[0]), int(e[1])
		require.Less(t, from, to)
		assert.Equal(t, metric.Distance(points[from], points[to]), e[2])
		if i > 0 {
			assert.LessOrEqual(t, edges[i-1][2], e[2], "edges sorted by weight")
		}
		require.False(t, uf.Connected(from, to), "edge %v closes a cycle", e)
		uf.Union(from, to)
		total += e[2]
	}
	assert.Equal(t, 1, uf.Sets())
	return total
}

func TestTree_SpanningTreeMatchesPrim(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := randomPoints(rng, 400, 3)
	tree := buildTree(t, points, 10)

	edges, err := tree.SpanningTree()
	require.NoError(t, err)
	total := checkSpanningTree(t, edges, points, EuclideanMetric{})
	assert.InDelta(t, primWeight(points, EuclideanMetric{}), total, 1e-9)
}

func TestTree_SpanningTreeManhattan(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	points := randomPoints(rng, 150, 2)
	cfg := DefaultConfig()
	cfg.MaxLeafSize = 6
	cfg.Metric = ManhattanMetric{}
	tree, err := NewFromPoints(points, cfg)
	require.NoError(t, err)

	edges, err := tree.SpanningTree()
	require.NoError(t, err)
	total := checkSpanningTree(t, edges, points, ManhattanMetric{})
	assert.InDelta(t, primWeight(points, ManhattanMetric{}), total, 1e-9)
}

func TestTree_SpanningTreeWithTies(t *testing.T) {
	// A unit grid has many equal-weight edges; the tree must still be acyclic.
	var points [][]float64
	for x := 0; x < 6; x++ {
		for y := 0; y < 5; y++ {
			points = append(points, []float64{float64(x), float64(y)})
		}
	}
	tree := buildTree(t, points, 3)

	edges, err := tree.SpanningTree()
	require.NoError(t, err)
	total := checkSpanningTree(t, edges, points, EuclideanMetric{})
	assert.Equal(t, float64(len(points)-1), total)
}

func TestTree_SpanningTreeDuplicates(t *testing.T) {
	points := [][]float64{{0, 0}, {0, 0}, {0, 0}, {3, 4}, {3, 4}}
	tree := buildTree(t, points, 1)

	edges, err := tree.SpanningTree()
	require.NoError(t, err)
	total := checkSpanningTree(t, edges, points, EuclideanMetric{})
	assert.Equal(t, 5.0, total)
	assert.Equal(t, [3]float64{0, 1, 0}, edges[0])
}

func TestTree_SpanningTreeSinglePoint(t *testing.T) {
	tree := buildTree(t, [][]float64{{1, 2}}, 1)
	edges, err := tree.SpanningTree()
	require.NoError(t, err)
	assert.Empty(t, edges)

	_ = tree.Transfer()
	_, err = tree.SpanningTree()
	assert.ErrorIs(t, err, ErrEmptyTree)
}
