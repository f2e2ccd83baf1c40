package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// SimplifyPath applies Douglas-Peucker simplification with the given
// perpendicular-distance threshold and returns the surviving vertices.
// Paths of two or fewer points are returned unchanged (copied).
func SimplifyPath(pts []Point, epsilon float64) []Point {
	if len(pts) <= 2 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}

	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = orb.Point{p.X, p.Y}
	}
	reduced := simplify.DouglasPeucker(epsilon).Simplify(ls).(orb.LineString)

	out := make([]Point, len(reduced))
	for i, p := range reduced {
		out[i] = Point{X: p[0], Y: p[1]}
	}
	return out
}
