package vptree

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// defaultSplitSamples is the default number of candidate vantage points, and
// of comparison points per candidate, drawn for each split.
const defaultSplitSamples = 100

// Splitter partitions a node's points around a vantage point.
//
// SplitNode receives the node's bound (for its metric), the shared dataset and
// the contiguous range [begin, begin+count) to split. It must move the chosen
// vantage point to begin and reorder the range in place so that
// [begin, splitCol) holds the points nearer the vantage point and
// [splitCol, begin+count) the farther ones, with begin < splitCol <
// begin+count. When oldFromNew is non-nil every exchange of two points must
// exchange the same two entries of oldFromNew. It reports ok == false, and
// may leave the range in any order, when the range cannot be split.
//
// Implementations must be deterministic for identical input ranges.
type Splitter interface {
	SplitNode(bound *HollowBallBound, data *Dataset, begin, count int, oldFromNew []int) (splitCol int, ok bool)
}

// VantagePointSplit picks, among sampled candidates, the point whose
// distances to a sample of the range are most spread around their median,
// and splits the range at the median distance to it.
type VantagePointSplit struct {
	// MaxSamples bounds the number of candidates and of comparison points per
	// candidate. Ranges no larger than MaxSamples are examined exhaustively.
	// 0 means 100.
	MaxSamples int

	// Seed perturbs candidate sampling. The same seed always builds the same
	// tree from the same data.
	Seed int64
}

// SplitNode implements Splitter.
func (s VantagePointSplit) SplitNode(bound *HollowBallBound, data *Dataset, begin, count int, oldFromNew []int) (int, bool) {
	if count < 2 {
		return 0, false
	}
	metric := bound.Metric()
	rng := rand.New(rand.NewSource(s.Seed ^ int64(begin)<<32 ^ int64(count)))

	vp := s.selectVantagePoint(metric, data, begin, count, rng)
	swapPoints(data, oldFromNew, begin, vp)

	vantage := data.Point(begin)
	dists := make([]float64, count)
	for i := 1; i < count; i++ {
		dists[i] = metric.Distance(vantage, data.Point(begin+i))
	}
	mu := splitDistance(dists)
	if mu == 0 {
		return 0, false // every point coincides with the vantage point
	}

	// Near side: d < mu. The vantage point (d == 0) stays at begin.
	i, j := 0, count-1
	for i <= j {
		if dists[i] < mu {
			i++
			continue
		}
		dists[i], dists[j] = dists[j], dists[i]
		swapPoints(data, oldFromNew, begin+i, begin+j)
		j--
	}
	return begin + i, true
}

func (s VantagePointSplit) selectVantagePoint(metric DistanceMetric, data *Dataset, begin, count int, rng *rand.Rand) int {
	samples := s.MaxSamples
	if samples <= 0 {
		samples = defaultSplitSamples
	}

	candidates := sampleRange(rng, begin, count, samples)
	best, bestSpread := candidates[0], -1.0
	dists := make([]float64, 0, samples)
	for _, c := range candidates {
		cp := data.Point(c)
		dists = dists[:0]
		for _, o := range sampleRange(rng, begin, count, samples) {
			dists = append(dists, metric.Distance(cp, data.Point(o)))
		}
		sort.Float64s(dists)
		mu := stat.Quantile(0.5, stat.Empirical, dists, nil)
		if spread := stat.MomentAbout(2, dists, mu, nil); spread > bestSpread {
			best, bestSpread = c, spread
		}
	}
	return best
}

// splitDistance returns the median of dists, or the smallest positive
// distance when the median is 0. It returns 0 only if every distance is 0.
func splitDistance(dists []float64) float64 {
	sorted := append([]float64(nil), dists...)
	sort.Float64s(sorted)
	if mu := stat.Quantile(0.5, stat.Empirical, sorted, nil); mu > 0 {
		return mu
	}
	for _, d := range sorted {
		if d > 0 {
			return d
		}
	}
	return 0
}

// sampleRange returns every index of [begin, begin+count) when count <= n,
// otherwise n indices drawn uniformly with replacement.
func sampleRange(rng *rand.Rand, begin, count, n int) []int {
	if count <= n {
		out := make([]int, count)
		for i := range out {
			out[i] = begin + i
		}
		return out
	}
	out := make([]int, n)
	for i := range out {
		out[i] = begin + rng.Intn(count)
	}
	return out
}

func swapPoints(data *Dataset, oldFromNew []int, i, j int) {
	data.swap(i, j)
	if oldFromNew != nil {
		oldFromNew[i], oldFromNew[j] = oldFromNew[j], oldFromNew[i]
	}
}
