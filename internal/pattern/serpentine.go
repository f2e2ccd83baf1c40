package pattern

import (
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
)

// SerpentineMinConfidence is the confidence below which an endpoint-based
// serpentine verdict is ignored and forward traversal kept.
const SerpentineMinConfidence = 0.3

// ID-encoded serpentine vote thresholds.
const (
	idEncodedDistanceRatio = 0.7
	idEncodedVoteShare     = 0.6
)

// DetectSerpentinePattern decides, from row endpoints alone, whether
// adjacent rows run forward or alternate direction. For each adjacent row
// pair it compares the distance from the first row's end to the second
// row's start against the distance between the two starts; a closer end
// suggests the drill walked back serpentine-style. Majority vote across
// pairs decides the pattern; confidence is the agreement share scaled by
// the mean normalized distance difference. Returns nil for fewer than two
// rows.
func DetectSerpentinePattern(holes []*Hole, rows [][]int) *DirectionResult {
	if len(rows) < 2 {
		return nil
	}

	var directions []PairDirection
	serpentineVotes := 0
	var deltaSum float64

	for i := 1; i < len(rows); i++ {
		prev, next := rows[i-1], rows[i]
		if len(prev) == 0 || len(next) == 0 {
			continue
		}
		prevStart := holes[prev[0]].Point()
		prevEnd := holes[prev[len(prev)-1]].Point()
		nextStart := holes[next[0]].Point()

		dEnd := geom.Distance(prevEnd, nextStart)
		dStart := geom.Distance(prevStart, nextStart)

		reversed := dEnd < dStart
		maxD := dStart
		if dEnd > maxD {
			maxD = dEnd
		}
		var delta float64
		if maxD > 0 {
			delta = (dStart - dEnd) / maxD
			if delta < 0 {
				delta = -delta
			}
		}
		if reversed {
			serpentineVotes++
		}
		deltaSum += delta
		directions = append(directions, PairDirection{
			RowA:     i,
			RowB:     i + 1,
			Reversed: reversed,
			Delta:    delta,
		})
	}
	if len(directions) == 0 {
		return nil
	}

	pairs := float64(len(directions))
	meanDelta := deltaSum / pairs

	result := &DirectionResult{Directions: directions}
	if float64(serpentineVotes) > pairs/2 {
		result.Pattern = TraversalSerpentine
		result.Confidence = float64(serpentineVotes) / pairs * meanDelta
	} else {
		result.Pattern = TraversalForward
		result.Confidence = (pairs - float64(serpentineVotes)) / pairs * meanDelta
	}
	return result
}

// ApplySerpentineOrdering reverses every second row in place so that
// position numbers follow the physical drilling traversal: odd rows keep
// their order, even rows run back.
func ApplySerpentineOrdering(rows [][]int) {
	for i := 1; i < len(rows); i += 2 {
		row := rows[i]
		for a, b := 0, len(row)-1; a < b; a, b = a+1, b-1 {
			row[a], row[b] = row[b], row[a]
		}
	}
}

// idEncodedSerpentine checks whether numeric hole IDs already encode the
// serpentine traversal. For each adjacent row pair it compares the distance
// from the first row's highest-ID hole to the second row's lowest-ID hole
// against the distance between the two lowest-ID holes, scoring 1 when the
// former is at most 0.7x the latter, 0.5 when merely smaller, else 0. An
// average score above 0.6 means positions can be assigned straight from ID
// order. Requires every hole to carry a numeric ID.
func idEncodedSerpentine(holes []*Hole, rows [][]int) bool {
	if len(rows) < 2 {
		return false
	}
	if numericIDOrder(holes) == nil {
		return false
	}

	idOf := func(idx int) int {
		return parseHoleID(holes[idx].ID).number
	}
	firstLastByID := func(row []int) (first, last int) {
		first, last = row[0], row[0]
		for _, m := range row[1:] {
			if idOf(m) < idOf(first) {
				first = m
			}
			if idOf(m) > idOf(last) {
				last = m
			}
		}
		return first, last
	}

	var total float64
	var pairs int
	for i := 1; i < len(rows); i++ {
		if len(rows[i-1]) == 0 || len(rows[i]) == 0 {
			continue
		}
		_, prevLast := firstLastByID(rows[i-1])
		nextFirst, _ := firstLastByID(rows[i])
		prevFirst, _ := firstLastByID(rows[i-1])

		dLast := geom.Distance(holes[prevLast].Point(), holes[nextFirst].Point())
		dFirst := geom.Distance(holes[prevFirst].Point(), holes[nextFirst].Point())

		switch {
		case dFirst > 0 && dLast <= idEncodedDistanceRatio*dFirst:
			total += 1
		case dLast < dFirst:
			total += 0.5
		}
		pairs++
	}
	if pairs == 0 {
		return false
	}
	return total/float64(pairs) > idEncodedVoteShare
}

// orderRowsByID sorts each row's members by numeric ID so positions follow
// the human-assigned sequence.
func orderRowsByID(holes []*Hole, rows [][]int) {
	for _, row := range rows {
		sort.SliceStable(row, func(a, b int) bool {
			return parseHoleID(holes[row[a]].ID).number < parseHoleID(holes[row[b]].ID).number
		})
	}
}
