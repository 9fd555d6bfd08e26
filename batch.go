package vptree

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// SearchBatch runs Search for every query concurrently over Config.Workers
// goroutines. Each worker handles a contiguous range of queries, so the
// results are identical to calling Search in a loop. It stops early and
// returns ctx's error if ctx is cancelled.
func (t *Tree) SearchBatch(ctx context.Context, queries [][]float64, k int) ([][]Neighbor, error) {
	start := time.Now()
	res, err := t.searchBatch(ctx, queries, k)
	t.logger.LogSearch(ctx, "knn-batch", len(queries), k, time.Since(start), err)
	return res, err
}

func (t *Tree) searchBatch(ctx context.Context, queries [][]float64, k int) ([][]Neighbor, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTree
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	for _, q := range queries {
		if err := t.checkQuery(q); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(queries)
	results := make([][]Neighbor, n)
	workers := t.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	perWorker := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += perWorker {
		lo := lo
		hi := min(lo+perWorker, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = t.search(queries[i], k, -1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
