package pattern

import "sort"

// Editing helpers over the RowID/PosID fields. These are thin array
// transformations for callers adjusting a detected pattern by hand; none
// of them re-run detection.

// NextRowID returns one past the highest RowID present, or 1 for an
// unassigned set. Callers appending a new pattern next to an existing one
// pass this as Options.StartRowID.
func NextRowID(holes []*Hole) int {
	max := 0
	for _, h := range holes {
		if h.RowID > max {
			max = h.RowID
		}
	}
	return max + 1
}

// InvertRow reverses the position order of one row.
func InvertRow(holes []*Hole, rowID int) {
	var members []int
	for i, h := range holes {
		if h.RowID == rowID {
			members = append(members, i)
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		return holes[members[a]].PosID < holes[members[b]].PosID
	})
	n := len(members)
	for i, idx := range members {
		holes[idx].PosID = n - i
	}
}

// RenumberPositions rewrites a row's PosIDs to a gapless 1..n sequence
// preserving the current order.
func RenumberPositions(holes []*Hole, rowID int) {
	var members []int
	for i, h := range holes {
		if h.RowID == rowID {
			members = append(members, i)
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		return holes[members[a]].PosID < holes[members[b]].PosID
	})
	for i, idx := range members {
		holes[idx].PosID = i + 1
	}
}

// RenumberRows maps the RowIDs present onto a contiguous 1..k range
// preserving relative order.
func RenumberRows(holes []*Hole) {
	present := make(map[int]bool)
	for _, h := range holes {
		if h.RowID > 0 {
			present[h.RowID] = true
		}
	}
	ids := make([]int, 0, len(present))
	for id := range present {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	remap := make(map[int]int, len(ids))
	for i, id := range ids {
		remap[id] = i + 1
	}
	for _, h := range holes {
		if h.RowID > 0 {
			h.RowID = remap[h.RowID]
		}
	}
}
