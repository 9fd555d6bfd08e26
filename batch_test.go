package vptree

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_SearchBatchMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := randomPoints(rng, 800, 6)
	queries := randomPoints(rng, 257, 6)

	for _, workers := range []int{1, 3, 8, 500} {
		cfg := DefaultConfig()
		cfg.MaxLeafSize = 16
		cfg.Workers = workers
		tree, err := NewFromPoints(points, cfg)
		require.NoError(t, err)

		got, err := tree.SearchBatch(context.Background(), queries, 4)
		require.NoError(t, err)
		require.Len(t, got, len(queries))
		for i, q := range queries {
			want, err := tree.Search(q, 4)
			require.NoError(t, err)
			require.Equal(t, want, got[i], "workers=%d query=%d", workers, i)
		}
	}
}

func TestTree_SearchBatchEmpty(t *testing.T) {
	tree := buildTree(t, [][]float64{{0}, {1}}, 1)
	got, err := tree.SearchBatch(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTree_SearchBatchCancelled(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := randomPoints(rng, 100, 2)
	tree := buildTree(t, points, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tree.SearchBatch(ctx, points, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTree_SearchBatchErrors(t *testing.T) {
	tree := buildTree(t, [][]float64{{0, 0}, {1, 1}}, 1)
	ctx := context.Background()

	_, err := tree.SearchBatch(ctx, [][]float64{{0, 0}, {1}}, 1)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = tree.SearchBatch(ctx, [][]float64{{0, 0}}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_ = tree.Transfer()
	_, err = tree.SearchBatch(ctx, [][]float64{{0, 0}}, 1)
	assert.ErrorIs(t, err, ErrEmptyTree)
}
