package pattern

import (
	"math"
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
)

// rowLine is the fitted line of a partial row: its centroid and principal
// direction (unit vector).
type rowLine struct {
	centroid geom.Point
	dir      geom.Point
}

func fitRowLine(holes []*Hole, members []int) rowLine {
	pts := make([]geom.Point, len(members))
	for i, m := range members {
		pts[i] = holes[m].Point()
	}
	c := geom.Centroid(pts)
	if len(pts) < 2 {
		return rowLine{centroid: c, dir: geom.Point{X: 1, Y: 0}}
	}
	e := geom.PrincipalAxes(pts)
	return rowLine{centroid: c, dir: e.V1}
}

// perpDistance is the distance from p to the infinite line through the row
// centroid along the row direction.
func (rl rowLine) perpDistance(p geom.Point) float64 {
	dx := p.X - rl.centroid.X
	dy := p.Y - rl.centroid.Y
	// Component of the offset perpendicular to dir.
	return math.Abs(dx*rl.dir.Y - dy*rl.dir.X)
}

// projection is the signed coordinate of p along the row direction.
func (rl rowLine) projection(p geom.Point) float64 {
	return (p.X-rl.centroid.X)*rl.dir.X + (p.Y-rl.centroid.Y)*rl.dir.Y
}

// detectRowsByLineFit greedily grows collinear rows in hole slice order.
func detectRowsByLineFit(holes []*Hole, p Params) [][]int {
	order := make([]int, len(holes))
	for i := range order {
		order[i] = i
	}
	return fitRowsInOrder(holes, order, p)
}

// fitRowsInOrder is the greedy collinear grouping core. Seeds are popped in
// the given traversal order; each seed pairs with the next unassigned hole
// to estimate an initial direction, then absorbs every remaining hole whose
// perpendicular distance to the fitted row line is within
// Params.LineFitTolerance, refitting the line after each absorption. A seed
// that attracts nothing is set aside as a leftover rather than returned to
// the pool, which guarantees termination. Leftovers attach to the nearest
// row by centroid distance. Rows are ordered internally by projection onto
// their direction.
func fitRowsInOrder(holes []*Hole, order []int, p Params) [][]int {
	if len(order) < 2 {
		return nil
	}

	assigned := make([]bool, len(holes))
	var rows [][]int
	var leftovers []int

	nextUnassigned := func(from int) int {
		for k := from; k < len(order); k++ {
			if !assigned[order[k]] {
				return k
			}
		}
		return -1
	}

	for pos := 0; ; {
		pos = nextUnassigned(pos)
		if pos == -1 {
			break
		}
		seed := order[pos]
		assigned[seed] = true

		second := nextUnassigned(pos + 1)
		if second == -1 {
			leftovers = append(leftovers, seed)
			break
		}

		row := []int{seed, order[second]}
		assigned[order[second]] = true

		for {
			line := fitRowLine(holes, row)
			grew := false
			for _, k := range order {
				if assigned[k] {
					continue
				}
				if line.perpDistance(holes[k].Point()) <= p.LineFitTolerance {
					row = append(row, k)
					assigned[k] = true
					grew = true
					break // refit the line before absorbing more
				}
			}
			if !grew {
				break
			}
		}

		if len(row) < 2 {
			leftovers = append(leftovers, row...)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil
	}

	// Attach leftovers to the nearest row by centroid distance.
	for _, idx := range leftovers {
		best := len(rows) - 1
		bestD := math.Inf(1)
		for r := range rows {
			line := fitRowLine(holes, rows[r])
			d := geom.Distance(holes[idx].Point(), line.centroid)
			if d < bestD {
				bestD = d
				best = r
			}
		}
		rows[best] = append(rows[best], idx)
	}

	// Order each row along its fitted direction.
	for r := range rows {
		line := fitRowLine(holes, rows[r])
		sort.SliceStable(rows[r], func(a, b int) bool {
			return line.projection(holes[rows[r][a]].Point()) < line.projection(holes[rows[r][b]].Point())
		})
	}

	sortRowsSpatially(holes, rows)
	return rows
}

// sortRowsSpatially orders rows by their centroid position projected onto
// the axis perpendicular to the overall pattern direction, so row 1 is the
// front row. Falls back to centroid Y, then X, for isotropic patterns.
func sortRowsSpatially(holes []*Hole, rows [][]int) {
	if len(rows) < 2 {
		return
	}
	e := geom.PrincipalAxes(points(holes))
	perp := e.V2

	key := func(row []int) float64 {
		pts := make([]geom.Point, len(row))
		for i, m := range row {
			pts[i] = holes[m].Point()
		}
		c := geom.Centroid(pts)
		return c.X*perp.X + c.Y*perp.Y
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return key(rows[a]) < key(rows[b])
	})
}
