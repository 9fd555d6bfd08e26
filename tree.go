package vptree

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Tree is a vantage-point tree over a fixed set of points.
//
// The tree owns its Dataset. Building reorders the dataset's rows so that
// every node spans a contiguous range; when permutation tracking is enabled
// the mapping back to the caller's order is kept in OldFromNew/NewFromOld.
// Once built the tree is read-only apart from node statistics, so any number
// of goroutines may query it concurrently.
type Tree struct {
	root    *Node
	dataset *Dataset

	// oldFromNew[i] is the original index of the point now at row i;
	// newFromOld is its inverse. Both are nil without permutation tracking.
	oldFromNew []int
	newFromOld []int

	cfg    Config
	logger *Logger
}

// BuildStats summarizes a completed construction.
type BuildStats struct {
	Points   int
	Dims     int
	Nodes    int
	Leaves   int
	Depth    int
	Duration time.Duration
}

// New builds a tree over a copy of data, one point per row. The caller's
// matrix is left untouched.
func New(data mat.Matrix, cfg Config) (*Tree, error) {
	if err := checkMatrix(data); err != nil {
		return nil, err
	}
	return build(mat.DenseCopyOf(data), cfg)
}

// NewOwned builds a tree that takes ownership of data. Its rows are
// reordered in place and the caller must not modify it afterwards.
func NewOwned(data *mat.Dense, cfg Config) (*Tree, error) {
	if data == nil {
		return nil, ErrEmptyDataset
	}
	if err := checkMatrix(data); err != nil {
		return nil, err
	}
	return build(data, cfg)
}

// NewFromPoints builds a tree over a copy of points. Every point must have
// the same dimensionality.
func NewFromPoints(points [][]float64, cfg Config) (*Tree, error) {
	m, err := denseFromPoints(points)
	if err != nil {
		return nil, err
	}
	return build(m, cfg)
}

func build(m *mat.Dense, cfg Config) (*Tree, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	t := &Tree{
		dataset: newDataset(m),
		cfg:     cfg,
		logger:  cfg.Logger,
	}
	if cfg.TrackPermutation {
		t.oldFromNew = identity(t.dataset.Len())
	}

	b := builder{
		dataset:     t.dataset,
		metric:      cfg.Metric,
		splitter:    cfg.Splitter,
		statistic:   cfg.Statistic,
		maxLeafSize: cfg.MaxLeafSize,
		oldFromNew:  t.oldFromNew,
	}
	t.root = b.buildRoot()

	if t.oldFromNew != nil {
		t.newFromOld = invert(t.oldFromNew)
	}

	s := t.Stats()
	s.Duration = time.Since(start)
	t.logger.LogBuild(context.Background(), s)
	return t, nil
}

// builder carries the state shared by every node of one construction.
type builder struct {
	dataset     *Dataset
	metric      DistanceMetric
	splitter    Splitter
	statistic   StatisticBuilder
	maxLeafSize int
	oldFromNew  []int
}

func (b *builder) buildRoot() *Node {
	if b.oldFromNew != nil && len(b.oldFromNew) != b.dataset.Len() {
		panic(fmt.Sprintf("vptree: permutation has %d entries for a dataset of %d points",
			len(b.oldFromNew), b.dataset.Len()))
	}
	root := &Node{
		begin:   0,
		count:   b.dataset.Len(),
		bound:   emptyBound(b.metric),
		dataset: b.dataset,
	}
	b.splitNode(root)
	root.stat = b.statistic(root)
	return root
}

func (b *builder) buildChild(parent *Node, begin, count int, firstPointIsCentroid bool) *Node {
	n := &Node{
		parent:               parent,
		begin:                begin,
		count:                count,
		bound:                emptyBound(b.metric),
		dataset:              b.dataset,
		firstPointIsCentroid: firstPointIsCentroid,
	}
	b.splitNode(n)
	n.stat = b.statistic(n)
	return n
}

// splitNode computes n's bound, widens every ancestor to cover it and, if n
// holds too many points, splits it into a near and a far child.
func (b *builder) splitNode(n *Node) {
	if n.parent != nil {
		n.bound.reset(b.dataset.Point(n.parent.vantagePoint()))
	}
	if n.count > 0 {
		n.bound.unionPoints(b.dataset, n.begin, n.count)
	}

	// Each ancestor absorbs the child on the path to n, so every bound keeps
	// containing the bounds below it as they grow.
	for child, p := n, n.parent; p != nil; child, p = p, p.parent {
		p.bound.Union(&child.bound)
		p.furthestDescendantDistance = 0.5 * p.bound.Diameter()
	}
	n.furthestDescendantDistance = 0.5 * n.bound.Diameter()

	if n.count <= b.maxLeafSize {
		return
	}

	splitBegin, splitCount := n.begin, n.count
	if n.firstPointIsCentroid {
		splitBegin++
		splitCount--
	}

	splitCol, ok := b.splitter.SplitNode(&n.bound, b.dataset, splitBegin, splitCount, b.oldFromNew)
	if !ok {
		return
	}
	if splitCol <= splitBegin || splitCol >= splitBegin+splitCount {
		panic(fmt.Sprintf("vptree: splitter returned column %d outside (%d, %d)",
			splitCol, splitBegin, splitBegin+splitCount))
	}

	n.left = b.buildChild(n, splitBegin, splitCol-splitBegin, true)
	n.right = b.buildChild(n, splitCol, splitBegin+splitCount-splitCol, false)

	n.left.parentDistance = b.metric.Distance(n.bound.center, n.left.bound.center)
	n.right.parentDistance = b.metric.Distance(n.bound.center, n.right.bound.center)
}

// vantagePoint returns the row the children of n are centered on.
func (n *Node) vantagePoint() int {
	if n.firstPointIsCentroid {
		return n.begin + 1
	}
	return n.begin
}

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func invert(p []int) []int {
	inv := make([]int, len(p))
	for i, v := range p {
		inv[v] = i
	}
	return inv
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if t.IsEmpty() {
		return nil
	}
	return t.root
}

// Dataset returns the tree's points in tree order.
func (t *Tree) Dataset() *Dataset { return t.dataset }

// Len returns the number of points in the tree.
func (t *Tree) Len() int {
	if t.dataset == nil {
		return 0
	}
	return t.dataset.Len()
}

// Dims returns the dimensionality of the tree's points.
func (t *Tree) Dims() int {
	if t.dataset == nil {
		return 0
	}
	return t.dataset.Dims()
}

func (t *Tree) Metric() DistanceMetric { return t.cfg.Metric }
func (t *Tree) MaxLeafSize() int       { return t.cfg.MaxLeafSize }

// IsEmpty reports whether the tree holds no points, which is the case after
// its contents have been moved out with Transfer.
func (t *Tree) IsEmpty() bool { return t.root == nil || t.dataset == nil }

// OldFromNew returns the original index of each point in tree order, or nil
// if permutation tracking is disabled. The slice must not be modified.
func (t *Tree) OldFromNew() []int { return t.oldFromNew }

// NewFromOld returns the tree-order row of each original point, or nil if
// permutation tracking is disabled. The slice must not be modified.
func (t *Tree) NewFromOld() []int { return t.newFromOld }

// originalIndex maps a tree-order row to the index reported to callers.
func (t *Tree) originalIndex(i int) int {
	if t.oldFromNew == nil {
		return i
	}
	return t.oldFromNew[i]
}

// Walk visits every node in pre-order. If fn returns false the node's
// children are skipped.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t.IsEmpty() {
		return
	}
	walk(t.root, fn)
}

func walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	if n.left != nil {
		walk(n.left, fn)
	}
	if n.right != nil {
		walk(n.right, fn)
	}
}

// Stats returns the tree's shape. Duration is zero.
func (t *Tree) Stats() BuildStats {
	s := BuildStats{Points: t.Len(), Dims: t.Dims()}
	if t.IsEmpty() {
		return s
	}
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		s.Nodes++
		if depth > s.Depth {
			s.Depth = depth
		}
		if n.IsLeaf() {
			s.Leaves++
			return
		}
		visit(n.left, depth+1)
		visit(n.right, depth+1)
	}
	visit(t.root, 1)
	return s
}

func (t *Tree) NumNodes() int  { return t.Stats().Nodes }
func (t *Tree) NumLeaves() int { return t.Stats().Leaves }

// Depth returns the number of levels; a tree that is a single leaf has depth 1.
func (t *Tree) Depth() int { return t.Stats().Depth }

// RecomputeStatistics replaces every node's statistic, children before
// parents. A nil builder clears them.
func (t *Tree) RecomputeStatistics(builder StatisticBuilder) {
	if builder == nil {
		builder = EmptyStatistic
	}
	if t.IsEmpty() {
		return
	}
	var visit func(n *Node)
	visit = func(n *Node) {
		if n.left != nil {
			visit(n.left)
			visit(n.right)
		}
		n.stat = builder(n)
	}
	visit(t.root)
}

// checkQuery validates a query point against the tree.
func (t *Tree) checkQuery(query []float64) error {
	if t.IsEmpty() {
		return ErrEmptyTree
	}
	if len(query) != t.Dims() {
		return &ErrDimensionMismatch{Expected: t.Dims(), Actual: len(query)}
	}
	return nil
}
