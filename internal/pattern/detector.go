package pattern

import (
	"log"
)

// Options configures one detection run.
type Options struct {
	// Params supplies detector thresholds; the zero value means
	// DefaultParams.
	Params Params

	// StartRowID offsets the assigned row IDs (default 1). Callers
	// appending to a pattern that already has rows elsewhere pass
	// NextRowID of the existing holes.
	StartRowID int

	// Renumber forces row IDs back to a contiguous 1..k range regardless
	// of StartRowID, preserving relative order.
	Renumber bool

	// ForceDirection overrides serpentine detection: TraversalForward or
	// TraversalSerpentine. Empty means detect.
	ForceDirection TraversalPattern
}

// detectFunc is one strategy in the fallback chain: holes in, ordered rows
// of hole indices out, nil when the strategy finds no structure.
type detectFunc func(holes []*Hole, p Params) [][]int

// chain lists the strategies in priority order. Winding-sequence runs
// first because its spatially-close-but-sequence-distant holes would be
// merged incorrectly by every later strategy; the rest are ordered by
// reliability. The single-row fallback is appended by Detect and always
// succeeds.
var chain = []struct {
	method Method
	detect detectFunc
}{
	{MethodWindingSequence, detectRowsByWindingSequence},
	{MethodSequenceIDs, detectRowsBySequence},
	{MethodWeightedClustering, detectRowsByWeightedClustering},
	{MethodDensityClustering, detectRowsByClustering},
	{MethodAdaptiveGrid, detectRowsByAdaptiveGrid},
	{MethodDBSCAN, detectRowsByDBSCAN},
}

// Detect assigns RowID and PosID to every hole. Strategies are tried in a
// fixed priority order and the first that finds structure wins; a
// pathological input still succeeds via the single-row fallback. Detection
// mutates the holes in place and is not safe for concurrent use on the
// same slice. Identical input always produces identical assignments.
func Detect(holes []*Hole, opts Options) (*DetectionResult, error) {
	if err := ValidateInput(holes); err != nil {
		return nil, err
	}

	p := opts.Params
	if p == (Params{}) {
		p = DefaultParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if len(holes) == 0 {
		return &DetectionResult{Success: true, Method: MethodFallbackSingleRow}, nil
	}

	// A detection run owns the output fields outright.
	for _, h := range holes {
		h.RowID = 0
		h.PosID = 0
	}

	method := MethodFallbackSingleRow
	var rows [][]int
	for _, strategy := range chain {
		if r := strategy.detect(holes, p); len(r) > 0 {
			method = strategy.method
			rows = r
			break
		}
		log.Printf("pattern: %s found no structure, falling back", strategy.method)
	}
	if rows == nil {
		rows = [][]int{allIndices(len(holes))}
	}
	log.Printf("pattern: %s assigned %d rows over %d holes", method, len(rows), len(holes))

	// Direction resolution. Winding segmentation already encodes the
	// traversal direction in its row order, so it skips this pass.
	var direction *DirectionResult
	if method != MethodWindingSequence && len(rows) > 1 {
		switch {
		case idEncodedSerpentine(holes, rows):
			orderRowsByID(holes, rows)
			direction = &DirectionResult{Pattern: TraversalSerpentine, Confidence: 1}
			log.Printf("pattern: hole IDs encode the traversal; positions follow ID order")
		case opts.ForceDirection == TraversalSerpentine:
			ApplySerpentineOrdering(rows)
			direction = &DirectionResult{Pattern: TraversalSerpentine, Confidence: 1}
		case opts.ForceDirection == TraversalForward:
			direction = &DirectionResult{Pattern: TraversalForward, Confidence: 1}
		default:
			direction = DetectSerpentinePattern(holes, rows)
			if direction != nil && direction.Pattern == TraversalSerpentine &&
				direction.Confidence > SerpentineMinConfidence {
				ApplySerpentineOrdering(rows)
			}
		}
	}

	start := opts.StartRowID
	if start < 1 || opts.Renumber {
		start = 1
	}
	for r, row := range rows {
		for pos, idx := range row {
			holes[idx].RowID = start + r
			holes[idx].PosID = pos + 1
		}
	}

	result := &DetectionResult{
		Success:    true,
		Method:     method,
		Rows:       BuildRows(holes),
		RowCount:   len(rows),
		Serpentine: direction,
	}
	return result, nil
}
