package pattern

import (
	"math"
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
)

// PatternType labels the overall geometry of a hole layout.
type PatternType string

const (
	PatternStraight PatternType = "straight"
	PatternCurved   PatternType = "curved"
	PatternMulti    PatternType = "multi_pattern"
)

// SubPatternRole labels one spatially connected orientation group.
type SubPatternRole string

const (
	RoleMain   SubPatternRole = "main"
	RoleBatter SubPatternRole = "batter"
	RoleBuffer SubPatternRole = "buffer"
)

// SubPattern is one orientation-and-connectivity group of holes.
type SubPattern struct {
	Role        SubPatternRole
	Holes       []int   // indices into the hole slice
	Orientation float64 // axial orientation in degrees [0, 180)
}

// ClassifierMetrics exposes the raw numbers behind a classification.
type ClassifierMetrics struct {
	VarianceRatio       float64
	MeanCurvature       float64
	OrientationClusters int
	EstimatedSpacing    float64
}

// Classification is the result of pattern classification.
type Classification struct {
	Type                PatternType
	Confidence          float64
	SerpentineCandidate bool
	SubPatterns         []SubPattern
	Metrics             ClassifierMetrics
}

// Classification thresholds. A layout is confidently straight when its PCA
// variance ratio is high and its local curvature low; confidently curved
// when either signal crosses the opposite threshold.
const (
	curvedVarianceRatioMax  = 3.0
	curvedCurvatureMin      = 0.3
	straightVarianceRatio   = 5.0
	straightCurvatureMax    = 0.1
	orientationToleranceDeg = 15.0
)

// Classify labels a hole layout straight, curved or multi-pattern. Fewer
// than three holes classify as straight with zero confidence. The decision
// order is multi-pattern (more than one orientation cluster), then curved,
// then straight, with an ambiguous default of straight at confidence 0.5.
func Classify(holes []*Hole, p Params) Classification {
	if len(holes) < 3 {
		return Classification{Type: PatternStraight, Confidence: 0}
	}

	pts := points(holes)
	eigen := geom.PrincipalAxes(pts)
	vr := eigen.VarianceRatio()
	curvature := meanLocalCurvature(pts)
	spacing := estimateSpacing(holes)

	metrics := ClassifierMetrics{
		VarianceRatio:       vr,
		MeanCurvature:       curvature,
		OrientationClusters: countOrientationModes(localOrientations(pts), len(pts)),
		EstimatedSpacing:    spacing,
	}

	c := Classification{
		Metrics:             metrics,
		SerpentineCandidate: serpentineCandidate(holes),
	}

	switch {
	case metrics.OrientationClusters > 1:
		c.Type = PatternMulti
		c.Confidence = 0.85
		c.SubPatterns = SeparateSubPatterns(holes, p)
	case vr < curvedVarianceRatioMax || curvature > curvedCurvatureMin:
		c.Type = PatternCurved
		c.Confidence = 0.8
	case vr > straightVarianceRatio && curvature < straightCurvatureMax:
		c.Type = PatternStraight
		c.Confidence = 0.9
	default:
		c.Type = PatternStraight
		c.Confidence = 0.5
	}
	return c
}

// meanLocalCurvature averages Menger curvature over each point's local
// neighbourhood: for every unordered pair among a point's k nearest
// neighbours, the triangle (neighbour, point, neighbour) contributes one
// curvature sample.
func meanLocalCurvature(pts []geom.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	k := n / 3
	if k > 5 {
		k = 5
	}
	if k < 2 {
		k = 2
	}

	var total float64
	var counted int
	for i := range pts {
		nbrs := nearestNeighbors(pts, i, k)
		var sum float64
		var pairs int
		for a := 0; a < len(nbrs); a++ {
			for b := a + 1; b < len(nbrs); b++ {
				sum += geom.MengerCurvature(pts[nbrs[a]], pts[i], pts[nbrs[b]])
				pairs++
			}
		}
		if pairs > 0 {
			total += sum / float64(pairs)
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

// nearestNeighbors returns the indices of the k points closest to pts[i].
func nearestNeighbors(pts []geom.Point, i, k int) []int {
	type nd struct {
		idx int
		d   float64
	}
	cands := make([]nd, 0, len(pts)-1)
	for j := range pts {
		if j == i {
			continue
		}
		cands = append(cands, nd{idx: j, d: geom.DistanceSq(pts[i], pts[j])})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].d != cands[b].d {
			return cands[a].d < cands[b].d
		}
		return cands[a].idx < cands[b].idx
	})
	if k > len(cands) {
		k = len(cands)
	}
	out := make([]int, k)
	for j := 0; j < k; j++ {
		out[j] = cands[j].idx
	}
	return out
}

// localOrientations estimates each point's axial orientation in degrees
// [0, 180) as the bearing towards its nearest neighbour. Axial folding
// keeps the two directions of one row in the same cluster. The single
// nearest neighbour is deliberate: averaging several neighbours degenerates
// at grid interiors, where row neighbours cancel and the cross-row
// neighbour dominates.
func localOrientations(pts []geom.Point) []float64 {
	n := len(pts)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := range pts {
		nbrs := nearestNeighbors(pts, i, 1)
		out[i] = math.Mod(geom.Bearing(pts[i], pts[nbrs[0]]), 180)
	}
	return out
}

// orientationCluster accumulates axial angles via doubled-angle unit
// vectors so the circular mean is stable across the 0/180 wrap.
type orientationCluster struct {
	sumSin, sumCos float64
}

func (oc *orientationCluster) mean() float64 {
	rad := math.Atan2(oc.sumSin, oc.sumCos)
	deg := rad * 180 / math.Pi / 2
	return math.Mod(deg+180, 180)
}

func (oc *orientationCluster) add(deg float64) {
	rad := deg * 2 * math.Pi / 180
	oc.sumSin += math.Sin(rad)
	oc.sumCos += math.Cos(rad)
}

func axialDiff(a, b float64) float64 {
	d := math.Abs(math.Mod(a, 180) - math.Mod(b, 180))
	if d > 90 {
		d = 180 - d
	}
	return d
}

// clusterOrientations greedily groups axial angles with a circular-mean
// tolerance of 15 degrees.
func clusterOrientations(angles []float64) []*orientationCluster {
	var clusters []*orientationCluster
	for _, a := range angles {
		placed := false
		for _, c := range clusters {
			if axialDiff(a, c.mean()) <= orientationToleranceDeg {
				c.add(a)
				placed = true
				break
			}
		}
		if !placed {
			nc := &orientationCluster{}
			nc.add(a)
			clusters = append(clusters, nc)
		}
	}
	return clusters
}

// countOrientationModes counts distinct orientation modes. The sorted
// axial angles are split wherever consecutive samples (including the
// 0/180 wrap) sit more than twice the clustering tolerance apart; only
// gap-isolated bands with at least n/8 members (minimum 2) count. A
// curved row's tangents sweep a continuum with no such gap, so an arc
// reads as one mode, not as a run of adjacent clusters.
func countOrientationModes(angles []float64, n int) int {
	m := len(angles)
	if m == 0 {
		return 0
	}
	sorted := make([]float64, m)
	for i, a := range angles {
		sorted[i] = math.Mod(math.Mod(a, 180)+180, 180)
	}
	sort.Float64s(sorted)

	// Indices after which a gap splits the axial circle.
	var splits []int
	for i := 0; i < m; i++ {
		gap := sorted[0] + 180 - sorted[m-1]
		if i < m-1 {
			gap = sorted[i+1] - sorted[i]
		}
		if gap > 2*orientationToleranceDeg {
			splits = append(splits, i)
		}
	}
	if len(splits) < 2 {
		return 1
	}

	minSize := n / 8
	if minSize < 2 {
		minSize = 2
	}
	count := 0
	for s, split := range splits {
		next := splits[(s+1)%len(splits)]
		if size := (next - split + m) % m; size >= minSize {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// serpentineCandidate checks whether numeric-ID-dominant layouts reverse
// x-direction often enough to suggest a serpentine traversal: more sign
// changes in consecutive x-displacement than one per ten holes.
func serpentineCandidate(holes []*Hole) bool {
	order := numericIDOrder(holes)
	if order == nil || len(order) < 3 {
		return false
	}

	changes := 0
	prevSign := 0
	for i := 1; i < len(order); i++ {
		dx := holes[order[i]].X - holes[order[i-1]].X
		sign := 0
		if dx > 0 {
			sign = 1
		} else if dx < 0 {
			sign = -1
		}
		if sign != 0 && prevSign != 0 && sign != prevSign {
			changes++
		}
		if sign != 0 {
			prevSign = sign
		}
	}
	return changes > len(order)/10
}

// SeparateSubPatterns splits a multi-orientation layout into spatially
// connected orientation groups. The largest group is MAIN; other groups
// are BATTER when their orientation is 60-120 degrees off MAIN, otherwise
// BUFFER.
func SeparateSubPatterns(holes []*Hole, p Params) []SubPattern {
	n := len(holes)
	if n < 3 {
		return nil
	}
	pts := points(holes)

	// Per-hole orientation assignment against the greedy clusters.
	angles := localOrientations(pts)
	clusters := clusterOrientations(angles)
	assignment := make([]int, n)
	for i, a := range angles {
		best := 0
		bestDiff := math.Inf(1)
		for ci, c := range clusters {
			if d := axialDiff(a, c.mean()); d < bestDiff {
				bestDiff = d
				best = ci
			}
		}
		assignment[i] = best
	}

	// Spatial connectivity within each orientation cluster: union-find
	// flood fill at twice the estimated spacing.
	spacing := estimateSpacing(holes)
	threshold := 2 * spacing
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if assignment[i] != assignment[j] {
				continue
			}
			if geom.Distance(pts[i], pts[j]) <= threshold {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	// Largest first; ties break on lowest member index for determinism.
	sort.Slice(roots, func(a, b int) bool {
		if len(groups[roots[a]]) != len(groups[roots[b]]) {
			return len(groups[roots[a]]) > len(groups[roots[b]])
		}
		return groups[roots[a]][0] < groups[roots[b]][0]
	})

	groupOrientation := func(members []int) float64 {
		var oc orientationCluster
		for _, m := range members {
			oc.add(angles[m])
		}
		return oc.mean()
	}

	subs := make([]SubPattern, 0, len(roots))
	mainOrientation := groupOrientation(groups[roots[0]])
	for gi, r := range roots {
		members := groups[r]
		orientation := groupOrientation(members)
		role := RoleMain
		if gi > 0 {
			if d := axialDiff(orientation, mainOrientation); d >= 60 {
				role = RoleBatter
			} else {
				role = RoleBuffer
			}
		}
		subs = append(subs, SubPattern{Role: role, Holes: members, Orientation: orientation})
	}
	return subs
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
