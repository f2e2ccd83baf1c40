package pattern

import (
	"log"

	"github.com/geoblast/rowdetect/internal/geom"
)

// Winding-sequence preconditions.
const (
	windingMinHoles = 6
	windingMaxIDGap = 5
	windingLegLimit = 3.0 // reject legs longer than this multiple of the median
)

// detectRowsByWindingSequence segments a single continuous S-curve
// traversal into rows by watching the drilling bearing reverse. The
// pattern differs from classic serpentine rows: consecutive IDs stay
// spatially adjacent through the turns, so there are no long return legs.
// This runs before line fitting in the fallback chain because winding
// patterns have spatially-close-but-sequence-distant holes that collinear
// grouping would incorrectly merge.
//
// Preconditions, each rejecting with nil: at least six holes, all with
// parsable numeric IDs; no ID gap larger than five; no leg longer than
// three times the median leg (a long leg signals a serpentine
// return-carriage, not a continuous winding curve). A reversal is a
// bearing change beyond Params.WindingReversalThreshold compared to
// Params.WindingWindowSize steps back, with at least
// Params.WindingMinHolesPerRow holes since the previous break. The whole
// result is rejected when fewer than two breaks are found or more than
// half the segments are shorter than the minimum row length.
func detectRowsByWindingSequence(holes []*Hole, p Params) [][]int {
	if len(holes) < windingMinHoles {
		return nil
	}

	order := numericIDOrder(holes)
	if order == nil {
		return nil
	}

	// Gapless check over the sorted IDs.
	prevID := parseHoleID(holes[order[0]].ID).number
	for _, idx := range order[1:] {
		id := parseHoleID(holes[idx].ID).number
		if id-prevID > windingMaxIDGap {
			return nil
		}
		prevID = id
	}

	// Leg uniformity: one long jump means a return carriage, not winding.
	legs := make([]float64, len(order)-1)
	for i := 1; i < len(order); i++ {
		legs[i-1] = geom.Distance(holes[order[i-1]].Point(), holes[order[i]].Point())
	}
	medianLeg := geom.Median(legs)
	if medianLeg <= 0 {
		return nil
	}
	for _, leg := range legs {
		if leg > windingLegLimit*medianLeg {
			return nil
		}
	}

	bearings := make([]float64, len(order)-1)
	for i := 1; i < len(order); i++ {
		bearings[i-1] = geom.Bearing(holes[order[i-1]].Point(), holes[order[i]].Point())
	}

	window := p.WindingWindowSize
	minRow := p.WindingMinHolesPerRow

	var breaks []int // index into order where a new row starts
	lastBreak := 0
	for m := window; m < len(bearings); m++ {
		if geom.AngleDiff(bearings[m], bearings[m-window]) <= p.WindingReversalThreshold {
			continue
		}
		if m+1-lastBreak < minRow {
			continue
		}
		breaks = append(breaks, m+1)
		lastBreak = m + 1
	}

	if len(breaks) < 2 {
		return nil
	}

	var rows [][]int
	start := 0
	for _, b := range breaks {
		rows = append(rows, order[start:b])
		start = b
	}
	rows = append(rows, order[start:])

	short := 0
	for _, row := range rows {
		if len(row) < minRow {
			short++
		}
	}
	if short*2 > len(rows) {
		log.Printf("pattern: winding segmentation rejected: %d of %d segments below %d holes", short, len(rows), minRow)
		return nil
	}
	return rows
}
