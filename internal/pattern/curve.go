package pattern

import (
	"math"
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
)

// Principal-curve fitting parameters (Hastie-Stuetzle).
const (
	curveSamples       = 50
	curveMaxIterations = 20
	curveConvergence   = 0.001
	loessWindowFactor  = 0.3
)

// curveProjection is one hole's relation to the fitted curve: its arc
// length along the curve and its signed perpendicular offset from it.
type curveProjection struct {
	arc  float64
	perp float64
}

// fitPrincipalCurve fits a smooth curve through a point cloud. The curve
// starts as 50 samples along the first principal component and is refined
// by alternating projection and LOESS smoothing until the largest sample
// displacement drops below the convergence threshold.
func fitPrincipalCurve(pts []geom.Point) []geom.Point {
	n := len(pts)
	if n < 2 {
		return nil
	}

	// Initial curve: evenly spaced along PC1 over the projected extent.
	e := geom.PrincipalAxes(pts)
	c := geom.Centroid(pts)
	minT, maxT := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		t := (p.X-c.X)*e.V1.X + (p.Y-c.Y)*e.V1.Y
		minT = math.Min(minT, t)
		maxT = math.Max(maxT, t)
	}
	curve := make([]geom.Point, curveSamples)
	for i := range curve {
		t := minT + (maxT-minT)*float64(i)/float64(curveSamples-1)
		curve[i] = geom.Point{X: c.X + t*e.V1.X, Y: c.Y + t*e.V1.Y}
	}

	window := int(loessWindowFactor * float64(n))
	if window < 3 {
		window = 3
	}
	if window > n {
		window = n
	}

	for iter := 0; iter < curveMaxIterations; iter++ {
		// Project every point onto the current curve and sort by arc length.
		projections := make([]curveProjection, n)
		for i, p := range pts {
			projections[i] = projectOntoPolyline(curve, p)
		}
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return projections[order[a]].arc < projections[order[b]].arc
		})
		sorted := make([]geom.Point, n)
		for i, idx := range order {
			sorted[i] = pts[idx]
		}

		next := loessResample(sorted, curveSamples, window)

		maxShift := 0.0
		for i := range curve {
			if d := geom.Distance(curve[i], next[i]); d > maxShift {
				maxShift = d
			}
		}
		curve = next
		if maxShift < curveConvergence {
			break
		}
	}
	return curve
}

// loessResample produces samples points along the ordered sequence using
// tricube-weighted local averaging over the given index window.
func loessResample(sorted []geom.Point, samples, window int) []geom.Point {
	n := len(sorted)
	out := make([]geom.Point, samples)
	half := float64(window) / 2
	for k := 0; k < samples; k++ {
		center := float64(k) * float64(n-1) / float64(samples-1)
		var sumW, sumX, sumY float64
		for i := 0; i < n; i++ {
			u := math.Abs(float64(i)-center) / half
			if u >= 1 {
				continue
			}
			w := math.Pow(1-u*u*u, 3)
			sumW += w
			sumX += w * sorted[i].X
			sumY += w * sorted[i].Y
		}
		if sumW == 0 {
			// Window missed every point; fall back to the nearest one.
			i := int(math.Round(center))
			out[k] = sorted[i]
			continue
		}
		out[k] = geom.Point{X: sumX / sumW, Y: sumY / sumW}
	}
	return out
}

// extendCurve extrapolates the curve past both ends along its end
// tangents. LOESS smoothing pulls the fitted ends short of the data
// extent, so holes beyond an end would otherwise clamp onto it: their
// offset magnitude absorbs the along-track overshoot and its sign follows
// the bent end segment, which can land an end hole in the wrong band.
func extendCurve(curve []geom.Point, dist float64) []geom.Point {
	if len(curve) < 2 || dist <= 0 {
		return curve
	}
	out := make([]geom.Point, 0, len(curve)+2)
	out = append(out, extrapolate(curve[1], curve[0], dist))
	out = append(out, curve...)
	return append(out, extrapolate(curve[len(curve)-2], curve[len(curve)-1], dist))
}

// boundingDiagonal is the diagonal of the points' bounding box, an upper
// bound on how far past a curve end any point can overshoot.
func boundingDiagonal(pts []geom.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return math.Hypot(maxX-minX, maxY-minY)
}

// extrapolate continues the from->through direction past through by dist.
func extrapolate(from, through geom.Point, dist float64) geom.Point {
	d := geom.Distance(from, through)
	if d == 0 {
		return through
	}
	return geom.Point{
		X: through.X + (through.X-from.X)/d*dist,
		Y: through.Y + (through.Y-from.Y)/d*dist,
	}
}

// projectOntoPolyline finds the nearest point on any curve segment and
// returns the cumulative arc length to it plus the signed perpendicular
// offset (positive = left of travel direction).
func projectOntoPolyline(curve []geom.Point, p geom.Point) curveProjection {
	bestDist := math.Inf(1)
	bestArc := 0.0
	bestPerp := 0.0
	arc := 0.0
	for i := 1; i < len(curve); i++ {
		a, b := curve[i-1], curve[i]
		segLen := geom.Distance(a, b)
		t, d := geom.ProjectOntoSegment(p, a, b)
		if d < bestDist {
			bestDist = d
			bestArc = arc + t*segLen
			// Sign from the cross product of segment direction and offset.
			cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
			if cross < 0 {
				bestPerp = -d
			} else {
				bestPerp = d
			}
		}
		arc += segLen
	}
	return curveProjection{arc: bestArc, perp: bestPerp}
}

// DetectRowsByPrincipalCurve fits a principal curve through the layout,
// projects every hole to (arc length, perpendicular offset), and splits
// rows by 1D k-means over the offsets. k comes from rowCountHint when
// positive, otherwise from the perpendicular extent divided by the
// estimated spacing (capped at n/2). Rows order by mean offset, row 1
// nearest the front, and each row orders internally by arc length.
// Returns nil when the split yields fewer than two rows.
func DetectRowsByPrincipalCurve(holes []*Hole, p Params, rowCountHint int) [][]int {
	n := len(holes)
	if n < 4 {
		return nil
	}

	pts := points(holes)
	curve := fitPrincipalCurve(pts)
	if curve == nil {
		return nil
	}
	curve = extendCurve(curve, boundingDiagonal(pts))

	projections := make([]curveProjection, n)
	minPerp, maxPerp := math.Inf(1), math.Inf(-1)
	for i, h := range holes {
		projections[i] = projectOntoPolyline(curve, h.Point())
		minPerp = math.Min(minPerp, projections[i].perp)
		maxPerp = math.Max(maxPerp, projections[i].perp)
	}

	k := rowCountHint
	if k <= 0 {
		spacing := estimateSpacing(holes)
		if spacing <= 0 {
			return nil
		}
		k = int(math.Round((maxPerp - minPerp) / spacing))
	}
	if k > n/2 {
		k = n / 2
	}
	if k < 1 {
		k = 1
	}

	perps := make([]float64, n)
	for i := range projections {
		perps[i] = projections[i].perp
	}
	labels := kmeans1D(perps, k)

	clusters := make([][]int, k)
	for i, l := range labels {
		clusters[l] = append(clusters[l], i)
	}

	// Order clusters by mean perpendicular offset.
	type rowAgg struct {
		members []int
		mean    float64
	}
	aggs := make([]rowAgg, 0, len(clusters))
	for _, members := range clusters {
		if len(members) == 0 {
			continue
		}
		var sum float64
		for _, m := range members {
			sum += perps[m]
		}
		aggs = append(aggs, rowAgg{members: members, mean: sum / float64(len(members))})
	}
	sort.SliceStable(aggs, func(a, b int) bool { return aggs[a].mean < aggs[b].mean })

	rows := make([][]int, 0, len(aggs))
	for _, agg := range aggs {
		members := agg.members
		sort.SliceStable(members, func(a, b int) bool {
			return projections[members[a]].arc < projections[members[b]].arc
		})
		rows = append(rows, members)
	}
	if len(rows) < 2 {
		// A single band carries no row information beyond the single-row
		// fallback; decline.
		return nil
	}
	return rows
}

// kmeans1D clusters scalar values into k groups with deterministic,
// evenly spaced initial centroids over the observed range. Returns a label
// per value in [0, k). Empty clusters keep their centroid and simply end
// up unused.
func kmeans1D(values []float64, k int) []int {
	n := len(values)
	labels := make([]int, n)
	if k <= 1 || n == 0 {
		return labels
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	centroids := make([]float64, k)
	for i := range centroids {
		centroids[i] = minV + (maxV-minV)*float64(i)/float64(k-1)
	}

	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, v := range values {
			best := 0
			bestD := math.Abs(v - centroids[0])
			for c := 1; c < k; c++ {
				if d := math.Abs(v - centroids[c]); d < bestD {
					bestD = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		sums := make([]float64, k)
		counts := make([]int, k)
		for i, v := range values {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = sums[c] / float64(counts[c])
			}
		}
	}
	return labels
}
