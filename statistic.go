package vptree

import "gonum.org/v1/gonum/floats"

// Statistic is an opaque per-node payload. It is built once a node's subtree
// is complete and is the only node state that may change after construction
// (see Tree.RecomputeStatistics).
//
// Statistics that should survive persistence must be pointers to values that
// round-trip through JSON. A statistic implementing
// interface{ CloneStatistic() Statistic } is deep-copied by Tree.Clone;
// anything else is shared between the copies.
type Statistic any

// StatisticBuilder computes the statistic for a completed node.
type StatisticBuilder func(n *Node) Statistic

type statisticCloner interface {
	CloneStatistic() Statistic
}

// EmptyStatistic attaches no statistic.
func EmptyStatistic(*Node) Statistic { return nil }

// MeanStatistic holds the number of points under a node and their
// arithmetic mean.
type MeanStatistic struct {
	Count int       `json:"count"`
	Mean  []float64 `json:"mean"`
}

// NewMeanStatistic is a StatisticBuilder producing *MeanStatistic.
func NewMeanStatistic(n *Node) Statistic {
	s := &MeanStatistic{Count: n.NumDescendants()}
	if n.dataset == nil || s.Count == 0 {
		return s
	}
	s.Mean = make([]float64, n.dataset.Dims())
	for i := 0; i < s.Count; i++ {
		floats.Add(s.Mean, n.dataset.Point(n.Descendant(i)))
	}
	floats.Scale(1/float64(s.Count), s.Mean)
	return s
}

// CloneStatistic returns a deep copy.
func (s *MeanStatistic) CloneStatistic() Statistic {
	return &MeanStatistic{Count: s.Count, Mean: append([]float64(nil), s.Mean...)}
}
