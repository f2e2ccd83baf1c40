package pattern

import (
	"math"

	"github.com/geoblast/rowdetect/internal/geom"
)

// B-spline fitting parameters.
const (
	splineDegree        = 3
	splineControlStride = 5
	splineSamples       = 100
)

// bsplineCurve evaluates a clamped uniform B-spline through the control
// points at the given number of parametric samples using Cox-de Boor
// recursion. Fewer control points than degree+1 lower the degree. The
// t == 1 boundary returns the final control point exactly.
func bsplineCurve(control []geom.Point, samples int) []geom.Point {
	m := len(control)
	if m == 0 {
		return nil
	}
	if m == 1 {
		return []geom.Point{control[0]}
	}

	degree := splineDegree
	if degree > m-1 {
		degree = m - 1
	}

	// Clamped uniform knot vector on [0, 1].
	knotCount := m + degree + 1
	knots := make([]float64, knotCount)
	interior := m - degree
	for i := 0; i < knotCount; i++ {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= m:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(interior)
		}
	}

	out := make([]geom.Point, samples)
	for s := 0; s < samples; s++ {
		t := float64(s) / float64(samples-1)
		if t >= 1 {
			out[s] = control[m-1]
			continue
		}
		var x, y float64
		for i := 0; i < m; i++ {
			b := coxDeBoor(i, degree, t, knots)
			x += b * control[i].X
			y += b * control[i].Y
		}
		out[s] = geom.Point{X: x, Y: y}
	}
	return out
}

// coxDeBoor evaluates the i-th B-spline basis function of the given degree
// at t over the knot vector.
func coxDeBoor(i, degree int, t float64, knots []float64) float64 {
	if degree == 0 {
		if knots[i] <= t && t < knots[i+1] {
			return 1
		}
		return 0
	}
	var left, right float64
	if d := knots[i+degree] - knots[i]; d > 0 {
		left = (t - knots[i]) / d * coxDeBoor(i, degree-1, t, knots)
	}
	if d := knots[i+degree+1] - knots[i+1]; d > 0 {
		right = (knots[i+degree+1] - t) / d * coxDeBoor(i+1, degree-1, t, knots)
	}
	return left + right
}

// distanceToPolyline returns the shortest distance from p to any segment
// of the polyline.
func distanceToPolyline(poly []geom.Point, p geom.Point) float64 {
	if len(poly) == 1 {
		return geom.Distance(poly[0], p)
	}
	best := math.Inf(1)
	for i := 1; i < len(poly); i++ {
		if d := geom.PointSegmentDistance(p, poly[i-1], poly[i]); d < best {
			best = d
		}
	}
	return best
}

// DetectRowsByBSpline fits a B-spline through sequence-ordered holes and
// breaks a new row whenever a hole deviates from the spline beyond
// SplineTolFactor times the estimated spacing. An alternative to the
// principal curve for layouts whose IDs already order the traversal; holes
// without a usable numeric order fall back to slice order. Returns nil
// when no break is found (the spline explains a single row).
func DetectRowsByBSpline(holes []*Hole, p Params) [][]int {
	n := len(holes)
	if n < 4 {
		return nil
	}

	order := numericIDOrder(holes)
	if order == nil {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}

	// Every 5th hole is a control point; the last hole always is.
	var control []geom.Point
	for i := 0; i < n; i += splineControlStride {
		control = append(control, holes[order[i]].Point())
	}
	if (n-1)%splineControlStride != 0 {
		control = append(control, holes[order[n-1]].Point())
	}

	spline := bsplineCurve(control, splineSamples)
	if spline == nil {
		return nil
	}

	spacing := estimateSpacing(holes)
	if spacing <= 0 {
		return nil
	}
	tol := p.SplineTolFactor * spacing

	var rows [][]int
	current := []int{order[0]}
	for k := 1; k < n; k++ {
		idx := order[k]
		if distanceToPolyline(spline, holes[idx].Point()) > tol {
			rows = append(rows, current)
			current = []int{idx}
			continue
		}
		current = append(current, idx)
	}
	rows = append(rows, current)

	if len(rows) < 2 {
		return nil
	}
	return rows
}
