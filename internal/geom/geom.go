// Package geom provides the 2D geometry and statistics primitives used by
// the row detection pipeline. All functions are pure and total: degenerate
// inputs (empty slices, zero-length segments) return sentinel values rather
// than panicking.
package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Point is a 2D location in metres (site frame).
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSq returns the squared Euclidean distance between two points.
// Use this for comparisons to avoid the sqrt.
func DistanceSq(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// NormalizeAngle maps an angle in degrees to the range [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AngleDiff returns the absolute difference between two angles in degrees,
// in the range [0, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Bearing returns the compass bearing in degrees from a to b
// (0 = north/+Y, 90 = east/+X), normalized to [0, 360).
// Identical points return 0.
func Bearing(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return NormalizeAngle(math.Atan2(dx, dy) * 180 / math.Pi)
}

// PointSegmentDistance returns the shortest distance from p to the segment
// [a, b]. A zero-length segment degrades to point distance.
func PointSegmentDistance(p, a, b Point) float64 {
	_, d := ProjectOntoSegment(p, a, b)
	return d
}

// ProjectOntoSegment projects p onto the segment [a, b] and returns the
// segment parameter t in [0, 1] plus the distance from p to the projection.
func ProjectOntoSegment(p, a, b Point) (t, dist float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, Distance(p, a)
	}
	t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return t, Distance(p, proj)
}

// Centroid returns the arithmetic mean of the points, or the zero point for
// an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample standard deviation of xs, or 0 when fewer than
// two values are present.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Variance returns the sample variance of xs, or 0 when fewer than two
// values are present.
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil)
}

// Median returns the median of xs without mutating the input, or 0 for an
// empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// MengerCurvature returns the curvature of the circle through three points:
// 4*Area / (|AB|*|BC|*|CA|). Degenerate triangles (repeated or collinear
// points) return 0.
func MengerCurvature(a, b, c Point) float64 {
	ab := Distance(a, b)
	bc := Distance(b, c)
	ca := Distance(c, a)
	if ab == 0 || bc == 0 || ca == 0 {
		return 0
	}
	// Twice the signed triangle area via the cross product.
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	area := math.Abs(cross) / 2
	return 4 * area / (ab * bc * ca)
}
