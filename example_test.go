package vptree_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/TrevorS/vptree"
)

func ExampleTree_Search() {
	points := [][]float64{
		{2, 3},
		{5, 4},
		{9, 6},
		{4, 7},
		{8, 1},
		{7, 2},
	}

	cfg := vptree.DefaultConfig()
	cfg.MaxLeafSize = 1
	tree, err := vptree.NewFromPoints(points, cfg)
	if err != nil {
		log.Fatal(err)
	}

	neighbors, err := tree.Search([]float64{8, 7}, 2)
	if err != nil {
		log.Fatal(err)
	}
	for _, n := range neighbors {
		fmt.Printf("%v d=%.4f\n", points[n.Index], n.Distance)
	}
	// Output:
	// [9 6] d=1.4142
	// [4 7] d=4.0000
}

func ExampleTree_SearchRange() {
	points := [][]float64{
		{2, 3},
		{5, 4},
		{9, 6},
		{4, 7},
		{8, 1},
		{7, 2},
	}
	tree, err := vptree.NewFromPoints(points, vptree.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	within, err := tree.SearchRange([]float64{3, 5}, 0, 3)
	if err != nil {
		log.Fatal(err)
	}
	it := within.Iterator()
	for it.HasNext() {
		fmt.Println(points[it.Next()])
	}
	// Output:
	// [2 3]
	// [5 4]
	// [4 7]
}

func ExampleTree_SearchBatch() {
	points := [][]float64{{0, 0}, {1, 0}, {0, 1}, {5, 5}, {6, 5}}
	tree, err := vptree.NewFromPoints(points, vptree.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	results, err := tree.SearchBatch(context.Background(), [][]float64{{0.1, 0.1}, {5.5, 5}}, 1)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		fmt.Println(r[0].Index)
	}
	// Output:
	// 0
	// 3
}

func ExampleTree_SpanningTree() {
	points := [][]float64{{0}, {1}, {3}, {7}}
	tree, err := vptree.NewFromPoints(points, vptree.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	edges, err := tree.SpanningTree()
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range edges {
		fmt.Printf("%v-%v %v\n", e[0], e[1], e[2])
	}
	// Output:
	// 0-1 1
	// 1-2 2
	// 2-3 4
}

func ExampleLoad() {
	cfg := vptree.DefaultConfig()
	cfg.Compression = vptree.CompressionZSTD
	tree, err := vptree.NewFromPoints([][]float64{{0, 0}, {3, 4}, {6, 8}}, cfg)
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := tree.WriteTo(&buf); err != nil {
		log.Fatal(err)
	}
	loaded, err := vptree.Load(&buf, cfg)
	if err != nil {
		log.Fatal(err)
	}

	n, err := loaded.Search([]float64{6, 7}, 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(loaded.Len(), n[0].Index, n[0].Distance)
	// Output:
	// 3 2 1
}
