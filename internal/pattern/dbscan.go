package pattern

import (
	"log"
	"math"
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
)

// k-distance parameters for the epsilon elbow estimate.
const (
	kDistNeighbor   = 4
	epsClampLow     = 0.5
	epsClampHigh    = 3.0
	dbscanRetryMult = 1.5
)

// cellIndex is a regular-grid spatial index over hole locations. Cell size
// should approximately match the DBSCAN eps parameter; region queries then
// only need the 3x3 cell neighbourhood.
type cellIndex struct {
	cellSize float64
	grid     map[int64][]int
}

func newCellIndex(holes []*Hole, cellSize float64) *cellIndex {
	ci := &cellIndex{
		cellSize: cellSize,
		grid:     make(map[int64][]int, len(holes)/4+1),
	}
	for i, h := range holes {
		id := ci.cellID(int64(math.Floor(h.X/cellSize)), int64(math.Floor(h.Y/cellSize)))
		ci.grid[id] = append(ci.grid[id], i)
	}
	return ci
}

// cellID pairs two signed cell coordinates into one key using zigzag
// encoding followed by Szudzik's pairing function.
func (ci *cellIndex) cellID(cx, cy int64) int64 {
	var a, b int64
	if cx >= 0 {
		a = 2 * cx
	} else {
		a = -2*cx - 1
	}
	if cy >= 0 {
		b = 2 * cy
	} else {
		b = -2*cy - 1
	}
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// regionQuery returns the indices of all holes within eps of holes[idx].
func (ci *cellIndex) regionQuery(holes []*Hole, idx int, eps float64) []int {
	p := holes[idx]
	eps2 := eps * eps
	cx := int64(math.Floor(p.X / ci.cellSize))
	cy := int64(math.Floor(p.Y / ci.cellSize))

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, cand := range ci.grid[ci.cellID(cx+dx, cy+dy)] {
				ddx := holes[cand].X - p.X
				ddy := holes[cand].Y - p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, cand)
				}
			}
		}
	}
	return neighbors
}

// estimateEps picks the DBSCAN radius from the k-distance curve: sort each
// hole's distance to its 4th nearest neighbour ascending and take the value
// at the point of maximum discrete curvature (second derivative). Small
// inputs (n <= 5) default to the 90th percentile. The result is clamped to
// [0.5, 3] times the median k-distance.
func estimateEps(holes []*Hole) float64 {
	n := len(holes)
	if n < 2 {
		return 0
	}

	kd := make([]float64, n)
	buf := make([]float64, 0, n-1)
	for i := range holes {
		buf = buf[:0]
		for j := range holes {
			if j != i {
				buf = append(buf, geom.Distance(holes[i].Point(), holes[j].Point()))
			}
		}
		sort.Float64s(buf)
		k := kDistNeighbor
		if k > len(buf) {
			k = len(buf)
		}
		kd[i] = buf[k-1]
	}
	sort.Float64s(kd)

	var eps float64
	if n <= 5 {
		eps = kd[int(0.9*float64(n-1))]
	} else {
		bestIdx := 1
		bestCurv := math.Inf(-1)
		for i := 1; i < n-1; i++ {
			curv := kd[i+1] - 2*kd[i] + kd[i-1]
			if curv > bestCurv {
				bestCurv = curv
				bestIdx = i
			}
		}
		eps = kd[bestIdx]
	}

	median := kd[n/2]
	if median > 0 {
		eps = math.Max(epsClampLow*median, math.Min(epsClampHigh*median, eps))
	}
	return eps
}

// runDBSCAN labels holes with cluster IDs (> 0), returning the labels and
// the cluster count. Noise holes keep label -1.
func runDBSCAN(holes []*Hole, eps float64, minPts int) ([]int, int) {
	n := len(holes)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	index := newCellIndex(holes, eps)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := index.regionQuery(holes, i, eps)
		if len(neighbors) < minPts {
			labels[i] = -1
			continue
		}
		clusterID++
		labels[i] = clusterID

		for j := 0; j < len(neighbors); j++ {
			idx := neighbors[j]
			if labels[idx] == -1 {
				labels[idx] = clusterID // noise becomes border point
			}
			if labels[idx] != 0 {
				continue
			}
			labels[idx] = clusterID
			more := index.regionQuery(holes, idx, eps)
			if len(more) >= minPts {
				neighbors = append(neighbors, more...)
			}
		}
	}
	return labels, clusterID
}

// detectRowsByDBSCAN is the last structured fallback before single-row
// assignment: density clustering with an estimated radius, one retry at
// 1.5x the radius when nothing clusters, nearest-neighbour chain ordering
// per cluster, and a Douglas-Peucker pass over each chain purely as a
// structure diagnostic (the row keeps the full chain order).
func detectRowsByDBSCAN(holes []*Hole, p Params) [][]int {
	n := len(holes)
	if n < 3 {
		return nil
	}

	eps := estimateEps(holes)
	if eps <= 0 {
		return nil
	}

	minPts := int(0.05 * float64(n))
	if minPts < 2 {
		minPts = 2
	}
	if minPts > 5 {
		minPts = 5
	}

	labels, count := runDBSCAN(holes, eps, minPts)
	if count == 0 {
		eps *= dbscanRetryMult
		labels, count = runDBSCAN(holes, eps, minPts)
	}
	if count < 2 {
		// One cluster carries no row information beyond the single-row
		// fallback, so decline rather than pretend.
		return nil
	}

	rows := make([][]int, 0, count)
	for cid := 1; cid <= count; cid++ {
		var members []int
		for i, l := range labels {
			if l == cid {
				members = append(members, i)
			}
		}
		if len(members) > 0 {
			rows = append(rows, members)
		}
	}

	// Noise holes attach to the cluster with the nearest member.
	for i, l := range labels {
		if l != -1 {
			continue
		}
		best := 0
		bestD := math.Inf(1)
		for r := range rows {
			for _, m := range rows[r] {
				if d := geom.Distance(holes[i].Point(), holes[m].Point()); d < bestD {
					bestD = d
					best = r
				}
			}
		}
		rows[best] = append(rows[best], i)
	}

	for r := range rows {
		rows[r] = chainOrderRow(holes, rows[r])

		// Diagnostic only: how much structure survives simplification.
		pts := make([]geom.Point, len(rows[r]))
		for i, m := range rows[r] {
			pts[i] = holes[m].Point()
		}
		if len(pts) > 2 {
			var total float64
			for i := 1; i < len(pts); i++ {
				total += geom.Distance(pts[i-1], pts[i])
			}
			avgSpacing := total / float64(len(pts)-1)
			simplified := geom.SimplifyPath(pts, 0.3*avgSpacing)
			log.Printf("pattern: dbscan row %d: %d holes, %d vertices after simplification", r+1, len(pts), len(simplified))
		}
	}

	sortRowsSpatially(holes, rows)
	return rows
}
