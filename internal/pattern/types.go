// Package pattern assigns row and position identifiers to unordered blast
// hole layouts. Input patterns range from straight grids to curved pit-wall
// rows, multi-orientation patterns and serpentine traversal orders, so the
// package runs a chain of independent detectors in order of reliability and
// falls back to a single row when no structure is found. Detection always
// terminates with a successful (best-effort) assignment plus a method name;
// quality is assessed separately by Validate.
package pattern

import (
	"fmt"
	"math"
	"sort"

	"github.com/geoblast/rowdetect/internal/geom"
)

// Hole is one drill/blast hole. X and Y are caller-supplied site
// coordinates in metres and are never modified. RowID and PosID are the
// 1-based outputs of detection, written in place.
type Hole struct {
	ID         string
	X, Y       float64
	RowID      int
	PosID      int
	EntityName string // optional group key, used only for logging and NextRowID
}

// Point returns the hole location as a geometry point.
func (h *Hole) Point() geom.Point {
	return geom.Point{X: h.X, Y: h.Y}
}

// Method identifies which detection strategy produced a result.
type Method string

const (
	MethodWindingSequence    Method = "winding_sequence"
	MethodSequenceIDs        Method = "sequence_ids"
	MethodWeightedClustering Method = "sequence_weighted_clustering"
	MethodDensityClustering  Method = "density_clustering"
	MethodAdaptiveGrid       Method = "adaptive_grid"
	MethodDBSCAN             Method = "dbscan_simplify"
	MethodFallbackSingleRow  Method = "fallback_single_row"
)

// Row is an ordered view over the hole slice: indices of the holes sharing
// one RowID, ordered by PosID.
type Row struct {
	RowID int
	Holes []int
}

// TraversalPattern describes the row-to-row direction relationship.
type TraversalPattern string

const (
	TraversalForward    TraversalPattern = "forward"
	TraversalSerpentine TraversalPattern = "serpentine"
)

// PairDirection records the direction decision for one adjacent row pair.
type PairDirection struct {
	RowA, RowB int     // RowIDs of the pair
	Reversed   bool    // true when RowB runs opposite to RowA
	Delta      float64 // normalized distance-difference magnitude backing the vote
}

// DirectionResult is the outcome of serpentine detection across row pairs.
type DirectionResult struct {
	Pattern    TraversalPattern
	Confidence float64
	Directions []PairDirection
}

// DetectionResult summarises one orchestrator invocation.
type DetectionResult struct {
	Success    bool
	Method     Method
	Rows       []Row
	RowCount   int
	Serpentine *DirectionResult
}

// ValidateInput checks that every hole carries finite coordinates. The
// detection pipeline assumes valid numbers, so malformed records are
// rejected at this boundary instead of surfacing as NaN row assignments.
func ValidateInput(holes []*Hole) error {
	for i, h := range holes {
		if h == nil {
			return fmt.Errorf("hole %d: nil record", i)
		}
		if math.IsNaN(h.X) || math.IsInf(h.X, 0) || math.IsNaN(h.Y) || math.IsInf(h.Y, 0) {
			return fmt.Errorf("hole %d (%q): non-finite coordinates (%v, %v)", i, h.ID, h.X, h.Y)
		}
	}
	return nil
}

// BuildRows reconstructs ordered row views from the RowID/PosID fields.
// It is a pure derivation: the same assignments always produce the same
// arrays. Holes without a RowID are skipped.
func BuildRows(holes []*Hole) []Row {
	byRow := make(map[int][]int)
	for i, h := range holes {
		if h.RowID > 0 {
			byRow[h.RowID] = append(byRow[h.RowID], i)
		}
	}

	rowIDs := make([]int, 0, len(byRow))
	for id := range byRow {
		rowIDs = append(rowIDs, id)
	}
	sort.Ints(rowIDs)

	rows := make([]Row, 0, len(rowIDs))
	for _, id := range rowIDs {
		members := byRow[id]
		sort.Slice(members, func(a, b int) bool {
			if holes[members[a]].PosID != holes[members[b]].PosID {
				return holes[members[a]].PosID < holes[members[b]].PosID
			}
			return members[a] < members[b]
		})
		rows = append(rows, Row{RowID: id, Holes: members})
	}
	return rows
}

// points extracts the hole locations in slice order.
func points(holes []*Hole) []geom.Point {
	pts := make([]geom.Point, len(holes))
	for i, h := range holes {
		pts[i] = geom.Point{X: h.X, Y: h.Y}
	}
	return pts
}

// estimateSpacing returns the median nearest-neighbour distance over a
// sample of at most 20 holes. Returns 0 for fewer than two holes.
func estimateSpacing(holes []*Hole) float64 {
	n := len(holes)
	if n < 2 {
		return 0
	}

	sample := n
	if sample > 20 {
		sample = 20
	}
	step := n / sample

	dists := make([]float64, 0, sample)
	for s := 0; s < sample; s++ {
		i := s * step
		best := math.Inf(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := geom.Distance(holes[i].Point(), holes[j].Point())
			if d < best {
				best = d
			}
		}
		if !math.IsInf(best, 1) {
			dists = append(dists, best)
		}
	}
	return geom.Median(dists)
}
