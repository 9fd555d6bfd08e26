// Package vptree implements a vantage-point tree: a binary spatial index over
// a fixed point set that prunes nearest-neighbor and range queries using
// nothing but a distance metric.
//
// Each internal node picks a vantage point and splits its points into a
// "near" and a "far" half by their distance to it. Every node is bounded by
// a hollow ball (a spherical shell centered on its parent's vantage point),
// which is all a query needs to skip whole subtrees.
//
// Basic usage:
//
//	cfg := vptree.DefaultConfig()
//	cfg.MaxLeafSize = 20
//	tree, err := vptree.NewFromPoints(points, cfg)
//	neighbors, err := tree.Search(query, 5)
//	// neighbors[0].Index is the original index of the closest point
//
// Building reorders the tree's private copy of the points; OldFromNew and
// NewFromOld map between the caller's order and the tree's. Use NewOwned to
// let the tree reorder a matrix in place instead of copying it.
//
// # Queries
//
// Search, SearchAll and SearchBatch answer k-nearest-neighbor queries one
// point at a time; DualSearch answers them for a whole query tree at once.
// SearchRange returns every point within a distance interval, and
// SpanningTree computes a minimum spanning tree. All of them are read-only
// and safe for concurrent use.
//
// # Persistence
//
// WriteTo and ReadFrom (or SaveFile and LoadFile) store a tree with an
// optional LZ4 or Zstandard compressed payload guarded by a CRC32 checksum:
//
//	cfg.Compression = vptree.CompressionZSTD
//	_, err = tree.WriteTo(w)
//	loaded, err := vptree.Load(r, cfg)
package vptree
