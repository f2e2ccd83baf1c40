package pattern

import (
	"math"
	"sort"
)

// detectRowsByAdaptiveGrid bins holes along the axis perpendicular to the
// pattern's longer extent (rows run along the longer extent). Bin width is
// Params.GridBinFactor times the estimated spacing. Non-empty bins become
// rows, each sorted along the row axis. A simple fallback for straight
// axis-aligned patterns; returns nil when the spacing estimate degenerates.
func detectRowsByAdaptiveGrid(holes []*Hole, p Params) [][]int {
	if len(holes) < 2 {
		return nil
	}

	spacing := estimateSpacing(holes)
	if spacing <= 0 {
		return nil
	}
	binWidth := p.GridBinFactor * spacing

	minX, maxX := holes[0].X, holes[0].X
	minY, maxY := holes[0].Y, holes[0].Y
	for _, h := range holes[1:] {
		minX = math.Min(minX, h.X)
		maxX = math.Max(maxX, h.X)
		minY = math.Min(minY, h.Y)
		maxY = math.Max(maxY, h.Y)
	}

	// Rows run along the longer extent; bins slice across the shorter one.
	rowsAlongX := (maxX - minX) >= (maxY - minY)

	binCoord := func(h *Hole) float64 {
		if rowsAlongX {
			return h.Y
		}
		return h.X
	}
	rowCoord := func(h *Hole) float64 {
		if rowsAlongX {
			return h.X
		}
		return h.Y
	}
	origin := minY
	if !rowsAlongX {
		origin = minX
	}

	bins := make(map[int][]int)
	for i, h := range holes {
		b := int(math.Floor((binCoord(h) - origin) / binWidth))
		bins[b] = append(bins[b], i)
	}

	keys := make([]int, 0, len(bins))
	for b := range bins {
		keys = append(keys, b)
	}
	sort.Ints(keys)

	rows := make([][]int, 0, len(keys))
	for _, b := range keys {
		members := bins[b]
		sort.SliceStable(members, func(x, y int) bool {
			return rowCoord(holes[members[x]]) < rowCoord(holes[members[y]])
		})
		rows = append(rows, members)
	}
	if len(rows) < 2 {
		// A single bin is no better than the single-row fallback; decline
		// so a later strategy (or the fallback) takes over.
		return nil
	}
	return rows
}
