package pattern

import "fmt"

// gridHoles builds a rows-by-cols regular grid: spacing metres along x
// within a row, burden metres along y between rows. Holes are appended
// row-major. IDs come from the id function with 0-based row and column.
func gridHoles(rows, cols int, spacing, burden float64, id func(r, c int) string) []*Hole {
	holes := make([]*Hole, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			holes = append(holes, &Hole{
				ID: id(r, c),
				X:  float64(c) * spacing,
				Y:  float64(r) * burden,
			})
		}
	}
	return holes
}

// plainID yields IDs that match neither the numeric nor the alphanumeric
// grammar, forcing purely geometric detection.
func plainID(r, c int) string { return fmt.Sprintf("h%d-%d", r, c) }

// rowMajorNumericID numbers holes 1..n in drilling order.
func rowMajorNumericID(cols int) func(r, c int) string {
	return func(r, c int) string { return fmt.Sprintf("%d", r*cols+c+1) }
}

// sCurveHoles is a single continuous winding traversal: three straight
// legs joined by short turns, numbered 1..18 along the path. Legs are 2 m,
// turns 3 m, so no leg exceeds the winding uniformity limit.
func sCurveHoles() []*Hole {
	var holes []*Hole
	id := 1
	add := func(x, y float64) {
		holes = append(holes, &Hole{ID: fmt.Sprintf("%d", id), X: x, Y: y})
		id++
	}
	for c := 0; c < 7; c++ { // east
		add(float64(c)*2, 0)
	}
	for c := 0; c < 6; c++ { // back west, one bench up
		add(12-float64(c)*2, 3)
	}
	for c := 0; c < 5; c++ { // east again
		add(2+float64(c)*2, 6)
	}
	return holes
}

// serpentineIDGrid is a 3x5 grid whose numeric IDs encode a serpentine
// traversal with a gap between rows: 101..105 west-to-east, 115..119
// east-to-west, 129..133 west-to-east.
func serpentineIDGrid() []*Hole {
	var holes []*Hole
	for c := 0; c < 5; c++ {
		holes = append(holes, &Hole{ID: fmt.Sprintf("%d", 101+c), X: float64(c) * 2, Y: 0})
	}
	for c := 0; c < 5; c++ {
		holes = append(holes, &Hole{ID: fmt.Sprintf("%d", 115+c), X: 8 - float64(c)*2, Y: 3})
	}
	for c := 0; c < 5; c++ {
		holes = append(holes, &Hole{ID: fmt.Sprintf("%d", 129+c), X: float64(c) * 2, Y: 6})
	}
	return holes
}

// assignments extracts the (ID, RowID, PosID) triples for comparison.
type assignment struct {
	ID    string
	RowID int
	PosID int
}

func extractAssignments(holes []*Hole) []assignment {
	out := make([]assignment, len(holes))
	for i, h := range holes {
		out[i] = assignment{ID: h.ID, RowID: h.RowID, PosID: h.PosID}
	}
	return out
}

// cloneHoles deep-copies a fixture so detection runs stay independent.
func cloneHoles(holes []*Hole) []*Hole {
	out := make([]*Hole, len(holes))
	for i, h := range holes {
		c := *h
		out[i] = &c
	}
	return out
}

func totalAssigned(rows [][]int) int {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	return n
}
