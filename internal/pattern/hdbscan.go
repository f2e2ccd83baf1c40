package pattern

import (
	"math"
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
	"gonum.org/v1/gonum/stat"
)

// mstEdgeCutSigma is how many standard deviations above the mean an MST
// edge weight must sit before the edge is cut into separate rows.
const mstEdgeCutSigma = 1.5

// Weights of the convex distance combination used by the sequence-weighted
// clustering variant.
const (
	weightSpatial  = 0.7
	weightSequence = 0.3
)

// detectRowsByClustering is the HDBSCAN-style density detector over plain
// spatial distance.
func detectRowsByClustering(holes []*Hole, p Params) [][]int {
	n := len(holes)
	if n < 4 {
		return nil
	}
	return clusterByMutualReachability(holes, spatialDistanceMatrix(holes))
}

// detectRowsByWeightedClustering runs the same density clustering over a
// convex combination of normalized spatial distance and normalized
// ID-sequence distance. Requires parsable numeric IDs on every hole;
// returns nil otherwise. The sequence term keeps spatially close but
// sequence-distant holes (adjacent serpentine rows) apart.
func detectRowsByWeightedClustering(holes []*Hole, p Params) [][]int {
	n := len(holes)
	if n < 4 {
		return nil
	}

	order := numericIDOrder(holes)
	if order == nil {
		return nil
	}
	seqPos := make([]float64, n)
	for rank, idx := range order {
		seqPos[idx] = float64(rank)
	}

	spatial := spatialDistanceMatrix(holes)
	var maxSpatial, maxSeq float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if spatial[i][j] > maxSpatial {
				maxSpatial = spatial[i][j]
			}
			if d := math.Abs(seqPos[i] - seqPos[j]); d > maxSeq {
				maxSeq = d
			}
		}
	}
	if maxSpatial == 0 || maxSeq == 0 {
		return nil
	}

	combined := make([][]float64, n)
	for i := range combined {
		combined[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := weightSpatial*spatial[i][j]/maxSpatial +
				weightSequence*math.Abs(seqPos[i]-seqPos[j])/maxSeq
			combined[i][j] = d
			combined[j][i] = d
		}
	}
	return clusterByMutualReachability(holes, combined)
}

func spatialDistanceMatrix(holes []*Hole) [][]float64 {
	n := len(holes)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := geom.Distance(holes[i].Point(), holes[j].Point())
			d[i][j] = dist
			d[j][i] = dist
		}
	}
	return d
}

// clusterByMutualReachability implements the shared HDBSCAN-style core:
// core distances, mutual reachability, a Prim minimum spanning tree, and a
// cut of edges heavier than mean + 1.5 sigma of the tree's edge weights.
// Components at least minClusterSize strong become rows; stragglers attach
// to the nearest surviving row so every hole lands somewhere. Returns nil
// when fewer than two rows emerge.
func clusterByMutualReachability(holes []*Hole, dist [][]float64) [][]int {
	n := len(holes)

	minClusterSize := n / 10
	if minClusterSize < 2 {
		minClusterSize = 2
	}
	minPts := minClusterSize / 2
	if minPts < 2 {
		minPts = 2
	}

	// Core distance: distance to the minPts-th nearest neighbour.
	core := make([]float64, n)
	buf := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		buf = buf[:0]
		for j := 0; j < n; j++ {
			if j != i {
				buf = append(buf, dist[i][j])
			}
		}
		sort.Float64s(buf)
		k := minPts
		if k > len(buf) {
			k = len(buf)
		}
		core[i] = buf[k-1]
	}

	mreach := func(i, j int) float64 {
		return math.Max(dist[i][j], math.Max(core[i], core[j]))
	}

	// Prim's MST over mutual reachability.
	type mstEdge struct {
		from, to int
		weight   float64
	}
	inTree := make([]bool, n)
	bestW := make([]float64, n)
	bestFrom := make([]int, n)
	for i := range bestW {
		bestW[i] = math.Inf(1)
		bestFrom[i] = -1
	}
	inTree[0] = true
	for j := 1; j < n; j++ {
		bestW[j] = mreach(0, j)
		bestFrom[j] = 0
	}

	edges := make([]mstEdge, 0, n-1)
	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if next == -1 || bestW[j] < bestW[next] {
				next = j
			}
		}
		edges = append(edges, mstEdge{from: bestFrom[next], to: next, weight: bestW[next]})
		inTree[next] = true
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if w := mreach(next, j); w < bestW[j] {
				bestW[j] = w
				bestFrom[j] = next
			}
		}
	}

	weights := make([]float64, len(edges))
	for i, e := range edges {
		weights[i] = e.weight
	}
	cut := stat.Mean(weights, nil)
	if len(weights) > 1 {
		cut += mstEdgeCutSigma * stat.StdDev(weights, nil)
	}

	// Connected components of the tree after removing heavy edges.
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
	for _, e := range edges {
		if e.weight <= cut {
			ra, rb := find(e.from), find(e.to)
			if ra != rb {
				parent[rb] = ra
			}
		}
	}

	components := make(map[int][]int)
	for i := 0; i < n; i++ {
		r := find(i)
		components[r] = append(components[r], i)
	}

	var rows [][]int
	var stragglers []int
	roots := make([]int, 0, len(components))
	for r := range components {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(a, b int) bool { return components[roots[a]][0] < components[roots[b]][0] })
	for _, r := range roots {
		members := components[r]
		if len(members) >= minClusterSize {
			rows = append(rows, members)
		} else {
			stragglers = append(stragglers, members...)
		}
	}
	if len(rows) < 2 {
		return nil
	}

	// Stragglers attach to the row with the nearest centroid.
	for _, idx := range stragglers {
		best := 0
		bestD := math.Inf(1)
		for r := range rows {
			pts := make([]geom.Point, len(rows[r]))
			for i, m := range rows[r] {
				pts[i] = holes[m].Point()
			}
			if d := geom.Distance(holes[idx].Point(), geom.Centroid(pts)); d < bestD {
				bestD = d
				best = r
			}
		}
		rows[best] = append(rows[best], idx)
	}

	// Chain-order each row so positions walk the row end to end.
	for r := range rows {
		rows[r] = chainOrderRow(holes, rows[r])
	}
	sortRowsSpatially(holes, rows)
	return rows
}

// chainOrderRow reorders a row's member indices into a greedy
// nearest-neighbour chain.
func chainOrderRow(holes []*Hole, members []int) []int {
	pts := make([]geom.Point, len(members))
	for i, m := range members {
		pts[i] = holes[m].Point()
	}
	order := geom.ChainOrder(pts)
	out := make([]int, len(members))
	for i, o := range order {
		out[i] = members[o]
	}
	return out
}
