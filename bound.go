package vptree

import "math"

// HollowBallBound is a spherical shell: every point x it bounds satisfies
// InnerRadius <= d(Center, x) <= OuterRadius. Both ends are inclusive. An
// inner radius of 0 makes it a solid ball.
//
// A bound with no center is empty. Its outer radius is 0 and its inner radius
// is +Inf, and the first point absorbed becomes its center.
type HollowBallBound struct {
	center      []float64
	innerRadius float64
	outerRadius float64
	metric      DistanceMetric
}

// NewHollowBallBound returns a shell around a copy of center.
func NewHollowBallBound(inner, outer float64, center []float64, metric DistanceMetric) *HollowBallBound {
	return &HollowBallBound{
		center:      append([]float64(nil), center...),
		innerRadius: inner,
		outerRadius: outer,
		metric:      metric,
	}
}

func emptyBound(metric DistanceMetric) HollowBallBound {
	return HollowBallBound{innerRadius: math.Inf(1), metric: metric}
}

// Center returns the shell's center. It must not be modified.
func (b *HollowBallBound) Center() []float64 { return b.center }

// InnerRadius returns the radius of the excluded interior.
func (b *HollowBallBound) InnerRadius() float64 { return b.innerRadius }

// OuterRadius returns the radius of the enclosing ball.
func (b *HollowBallBound) OuterRadius() float64 { return b.outerRadius }

// Metric returns the metric the bound measures with.
func (b *HollowBallBound) Metric() DistanceMetric { return b.metric }

// Dims returns the dimensionality of the center, or 0 for an empty bound.
func (b *HollowBallBound) Dims() int { return len(b.center) }

// IsEmpty reports whether the bound has no center yet.
func (b *HollowBallBound) IsEmpty() bool { return b.center == nil }

// Diameter returns twice the outer radius.
func (b *HollowBallBound) Diameter() float64 { return 2 * b.outerRadius }

// Contains reports whether point lies within the shell.
func (b *HollowBallBound) Contains(point []float64) bool {
	if b.IsEmpty() {
		return false
	}
	d := b.metric.Distance(b.center, point)
	return d >= b.innerRadius && d <= b.outerRadius
}

// ContainsBound reports whether every point that other can hold is also
// inside b. The centers need not coincide; the test uses the triangle
// inequality on the center distance.
func (b *HollowBallBound) ContainsBound(other *HollowBallBound) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	d := b.metric.Distance(b.center, other.center)
	if d+other.outerRadius > b.outerRadius {
		return false
	}
	return closestFromCenter(d, other) >= b.innerRadius
}

// closestFromCenter is the smallest distance from a point at distance d of
// other's center to any point other can hold.
func closestFromCenter(d float64, other *HollowBallBound) float64 {
	return math.Max(0, math.Max(other.innerRadius-d, d-other.outerRadius))
}

// MinDistance returns a lower bound on the distance from point to anything
// inside the shell; 0 when point is itself inside.
func (b *HollowBallBound) MinDistance(point []float64) float64 {
	d := b.metric.Distance(b.center, point)
	return math.Max(0, math.Max(d-b.outerRadius, b.innerRadius-d))
}

// MaxDistance returns an upper bound on the distance from point to anything
// inside the shell.
func (b *HollowBallBound) MaxDistance(point []float64) float64 {
	return b.metric.Distance(b.center, point) + b.outerRadius
}

// RangeDistance returns MinDistance and MaxDistance with a single metric
// evaluation.
func (b *HollowBallBound) RangeDistance(point []float64) (lo, hi float64) {
	d := b.metric.Distance(b.center, point)
	return math.Max(0, math.Max(d-b.outerRadius, b.innerRadius-d)), d + b.outerRadius
}

// MinBoundDistance returns a lower bound on the distance between any point in
// b and any point in other.
func (b *HollowBallBound) MinBoundDistance(other *HollowBallBound) float64 {
	d := b.metric.Distance(b.center, other.center)
	lo := d - b.outerRadius - other.outerRadius
	lo = math.Max(lo, b.innerRadius-d-other.outerRadius)
	lo = math.Max(lo, other.innerRadius-d-b.outerRadius)
	return math.Max(0, lo)
}

// MaxBoundDistance returns an upper bound on the distance between any point
// in b and any point in other.
func (b *HollowBallBound) MaxBoundDistance(other *HollowBallBound) float64 {
	return b.metric.Distance(b.center, other.center) + b.outerRadius + other.outerRadius
}

// Union widens b to the smallest shell around its own center that holds
// everything other can hold. The outer radius only grows and the inner radius
// only shrinks. An empty b becomes a copy of other.
func (b *HollowBallBound) Union(other *HollowBallBound) {
	if other.IsEmpty() {
		return
	}
	if b.IsEmpty() {
		b.center = append([]float64(nil), other.center...)
		b.innerRadius = other.innerRadius
		b.outerRadius = other.outerRadius
		return
	}
	d := b.metric.Distance(b.center, other.center)
	b.outerRadius = math.Max(b.outerRadius, d+other.outerRadius)
	b.innerRadius = math.Min(b.innerRadius, closestFromCenter(d, other))
}

// unionPoints widens b to hold rows [begin, begin+count) of data.
func (b *HollowBallBound) unionPoints(data *Dataset, begin, count int) {
	for i := begin; i < begin+count; i++ {
		p := data.Point(i)
		if b.IsEmpty() {
			b.center = append([]float64(nil), p...)
			b.innerRadius = 0
			b.outerRadius = 0
			continue
		}
		d := b.metric.Distance(b.center, p)
		b.outerRadius = math.Max(b.outerRadius, d)
		b.innerRadius = math.Min(b.innerRadius, d)
	}
}

// reset recenters b on a copy of center and clears both radii.
func (b *HollowBallBound) reset(center []float64) {
	b.center = append(b.center[:0:0], center...)
	b.outerRadius = 0
	b.innerRadius = math.Inf(1)
}

func (b *HollowBallBound) clone() HollowBallBound {
	c := *b
	if b.center != nil {
		c.center = append([]float64(nil), b.center...)
	}
	return c
}
