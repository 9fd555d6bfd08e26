package vptree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertSameStructure compares two trees node by node in pre-order.
func assertSameStructure(t *testing.T, a, b *Node) {
	t.Helper()
	require.Equal(t, a.Begin(), b.Begin())
	require.Equal(t, a.Count(), b.Count())
	require.Equal(t, a.IsLeaf(), b.IsLeaf())
	assert.Equal(t, a.FirstPointIsCentroid(), b.FirstPointIsCentroid())
	assert.Equal(t, a.Center(), b.Center())
	assert.Equal(t, a.Bound().InnerRadius(), b.Bound().InnerRadius())
	assert.Equal(t, a.Bound().OuterRadius(), b.Bound().OuterRadius())
	assert.Equal(t, a.ParentDistance(), b.ParentDistance())
	assert.Equal(t, a.FurthestDescendantDistance(), b.FurthestDescendantDistance())
	if a.IsLeaf() {
		return
	}
	assertSameStructure(t, a.Left(), b.Left())
	assertSameStructure(t, a.Right(), b.Right())
}

// assertSingleDataset checks that every node references ds and that parent
// links are consistent.
func assertSingleDataset(t *testing.T, tree *Tree, ds *Dataset) {
	t.Helper()
	tree.Walk(func(n *Node) bool {
		require.Same(t, ds, n.Dataset())
		if !n.IsLeaf() {
			require.Same(t, n, n.Left().Parent())
			require.Same(t, n, n.Right().Parent())
		}
		return true
	})
}

func TestTree_Clone(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := DefaultConfig()
	cfg.MaxLeafSize = 10
	cfg.Statistic = NewMeanStatistic
	src, err := NewFromPoints(randomPoints(rng, 400, 4), cfg)
	require.NoError(t, err)

	c := src.Clone()
	require.False(t, c.IsEmpty())
	assert.NotSame(t, src.Dataset(), c.Dataset())
	assert.NotSame(t, src.Dataset().Matrix(), c.Dataset().Matrix())
	assert.Equal(t, src.Dataset().Matrix().RawMatrix().Data, c.Dataset().Matrix().RawMatrix().Data)
	assert.Equal(t, src.OldFromNew(), c.OldFromNew())
	assert.Equal(t, src.NewFromOld(), c.NewFromOld())

	assertSameStructure(t, src.Root(), c.Root())
	assertSingleDataset(t, c, c.Dataset())
	assertSingleDataset(t, src, src.Dataset())

	// No node is shared, and statistics were deep-copied.
	srcNodes := make(map[*Node]bool)
	src.Walk(func(n *Node) bool { srcNodes[n] = true; return true })
	c.Walk(func(n *Node) bool {
		assert.False(t, srcNodes[n], "clone shares a node with its source")
		return true
	})
	srcStat := src.Root().Stat().(*MeanStatistic)
	cloneStat := c.Root().Stat().(*MeanStatistic)
	assert.NotSame(t, srcStat, cloneStat)
	assert.Equal(t, srcStat, cloneStat)

	// Mutating the copy's data leaves the source alone.
	c.Dataset().Matrix().Set(0, 0, -1)
	assert.NotEqual(t, -1.0, src.Dataset().Matrix().At(0, 0))
	c.OldFromNew()[0] = -1
	assert.NotEqual(t, -1, src.OldFromNew()[0])
}

func TestTree_CloneAnswersQueriesIdentically(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	points := randomPoints(rng, 300, 3)
	src := buildTree(t, points, 8)
	c := src.Clone()

	for i := 0; i < 20; i++ {
		want, err := src.Search(points[i], 4)
		require.NoError(t, err)
		got, err := c.Search(points[i], 4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestTree_Transfer(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	points := randomPoints(rng, 300, 3)
	src := buildTree(t, points, 8)
	reference := src.Clone()

	oldRoot := src.root
	oldDataset := src.Dataset()
	dst := src.Transfer()

	require.False(t, dst.IsEmpty())
	assert.Same(t, oldDataset, dst.Dataset(), "transfer moves, never copies, the dataset")
	assertSameStructure(t, reference.Root(), dst.Root())
	assertSingleDataset(t, dst, dst.Dataset())
	assert.Nil(t, dst.Root().Parent())

	// The source is emptied in place.
	assert.True(t, src.IsEmpty())
	assert.Nil(t, src.Root())
	assert.Nil(t, src.Dataset())
	assert.Nil(t, src.OldFromNew())
	assert.Same(t, oldRoot, src.root)
	assert.True(t, oldRoot.IsLeaf())
	assert.Equal(t, 0, oldRoot.NumChildren())
	assert.Equal(t, 0, oldRoot.Begin())
	assert.Equal(t, 0, oldRoot.Count())
	assert.Equal(t, 0.0, oldRoot.ParentDistance())
	assert.Equal(t, 0.0, oldRoot.FurthestDescendantDistance())
	assert.Nil(t, oldRoot.Dataset())
	assert.Equal(t, 0, src.Len())

	_, err := src.Search(points[0], 1)
	assert.ErrorIs(t, err, ErrEmptyTree)

	got, err := dst.Search(points[0], 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0].Distance)
}

func TestTree_CloneOfEmptyTree(t *testing.T) {
	src := buildTree(t, [][]float64{{1}, {2}}, 1)
	_ = src.Transfer()

	c := src.Clone()
	assert.True(t, c.IsEmpty())
	_, err := c.Search([]float64{1}, 1)
	assert.ErrorIs(t, err, ErrEmptyTree)
}
