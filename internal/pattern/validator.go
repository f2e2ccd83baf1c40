package pattern

import (
	"fmt"
	"math"

	"github.com/geoblast/rowdetect/internal/geom"
)

// ValidationStatus grades a row assignment.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusWarning ValidationStatus = "warning"
	StatusInvalid ValidationStatus = "invalid"
)

// GridStyle classifies the row-to-row stagger of a validated pattern.
type GridStyle string

const (
	GridSquare    GridStyle = "square"
	GridStaggered GridStyle = "staggered"
	GridIrregular GridStyle = "irregular"
)

// ValidationMetrics are the raw quality numbers behind a validation.
type ValidationMetrics struct {
	HoleCount    int     `json:"hole_count"`
	RowCount     int     `json:"row_count"`
	OrphanRatio  float64 `json:"orphan_ratio"`
	SpacingMean  float64 `json:"spacing_mean_m"`
	SpacingCV    float64 `json:"spacing_cv"`
	BurdenMean   float64 `json:"burden_mean_m"`
	BurdenCV     float64 `json:"burden_cv"`
	RowSizeRatio float64 `json:"row_size_ratio"`
	OffsetRatio  float64 `json:"offset_ratio"`
}

// ValidationResult is the independent post-hoc quality assessment of a row
// assignment. It never fails: problems lower the confidence and add
// issues/warnings instead.
type ValidationResult struct {
	Status     ValidationStatus
	Issues     []string
	Warnings   []string
	Metrics    ValidationMetrics
	Confidence float64
	GridStyle  GridStyle
}

// Validation thresholds and confidence penalties.
const (
	spacingCVWarn = 0.5
	burdenCVWarn  = 0.5
	sizeRatioWarn = 3.0

	penaltyOrphanFactor = 0.1
	penaltySpacingCV    = 0.15
	penaltyBurdenCV     = 0.1
	penaltySizeRatio    = 0.1
	penaltyPosGaps      = 0.05
	penaltyDuplicates   = 0.2
)

// Validate measures the quality of the RowID/PosID assignment on holes.
// Only duplicate position IDs make a result INVALID; every other defect is
// a warning with a confidence penalty.
func Validate(holes []*Hole) *ValidationResult {
	res := &ValidationResult{
		Status:     StatusValid,
		Confidence: 1.0,
		GridStyle:  GridIrregular,
	}
	res.Metrics.HoleCount = len(holes)
	if len(holes) == 0 {
		return res
	}

	rows := BuildRows(holes)
	res.Metrics.RowCount = len(rows)

	// Orphans: holes the detection never placed.
	orphans := 0
	for _, h := range holes {
		if h.RowID <= 0 {
			orphans++
		}
	}
	res.Metrics.OrphanRatio = float64(orphans) / float64(len(holes))
	if orphans > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d holes without a row assignment", orphans))
	}
	res.Confidence -= penaltyOrphanFactor * res.Metrics.OrphanRatio

	// Position gaps and duplicates per row.
	gaps, duplicates := 0, 0
	for _, row := range rows {
		seen := make(map[int]int)
		maxPos := 0
		for _, idx := range row.Holes {
			pos := holes[idx].PosID
			seen[pos]++
			if pos > maxPos {
				maxPos = pos
			}
		}
		for pos, count := range seen {
			if count > 1 {
				duplicates++
				res.Issues = append(res.Issues, fmt.Sprintf("row %d: position %d assigned %d times", row.RowID, pos, count))
			}
		}
		if maxPos > len(row.Holes) {
			gaps++
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: position numbering has gaps (max %d over %d holes)", row.RowID, maxPos, len(row.Holes)))
		}
	}
	if gaps > 0 {
		res.Confidence -= penaltyPosGaps
	}
	if duplicates > 0 {
		res.Confidence -= penaltyDuplicates
		res.Status = StatusInvalid
	}

	// Spacing consistency: mean CV of intra-row consecutive distances.
	var spacingCVs, spacingMeans []float64
	for _, row := range rows {
		if len(row.Holes) < 2 {
			continue
		}
		dists := make([]float64, 0, len(row.Holes)-1)
		for i := 1; i < len(row.Holes); i++ {
			dists = append(dists, geom.Distance(holes[row.Holes[i-1]].Point(), holes[row.Holes[i]].Point()))
		}
		mean := geom.Mean(dists)
		spacingMeans = append(spacingMeans, mean)
		if mean > 0 {
			spacingCVs = append(spacingCVs, geom.StdDev(dists)/mean)
		}
	}
	res.Metrics.SpacingMean = geom.Mean(spacingMeans)
	res.Metrics.SpacingCV = geom.Mean(spacingCVs)
	if res.Metrics.SpacingCV > spacingCVWarn {
		res.Warnings = append(res.Warnings, fmt.Sprintf("intra-row spacing varies widely (CV %.2f)", res.Metrics.SpacingCV))
		res.Confidence -= penaltySpacingCV
	}

	// Burden consistency: CV of consecutive row centroid distances.
	if len(rows) > 1 {
		centroids := make([]geom.Point, len(rows))
		for i, row := range rows {
			pts := make([]geom.Point, len(row.Holes))
			for j, idx := range row.Holes {
				pts[j] = holes[idx].Point()
			}
			centroids[i] = geom.Centroid(pts)
		}
		burdens := make([]float64, 0, len(rows)-1)
		for i := 1; i < len(centroids); i++ {
			burdens = append(burdens, geom.Distance(centroids[i-1], centroids[i]))
		}
		res.Metrics.BurdenMean = geom.Mean(burdens)
		if res.Metrics.BurdenMean > 0 {
			res.Metrics.BurdenCV = geom.StdDev(burdens) / res.Metrics.BurdenMean
		}
		if res.Metrics.BurdenCV > burdenCVWarn {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row burden varies widely (CV %.2f)", res.Metrics.BurdenCV))
			res.Confidence -= penaltyBurdenCV
		}
	}

	// Row size balance.
	if len(rows) > 0 {
		minSize, maxSize := len(rows[0].Holes), len(rows[0].Holes)
		for _, row := range rows[1:] {
			if len(row.Holes) < minSize {
				minSize = len(row.Holes)
			}
			if len(row.Holes) > maxSize {
				maxSize = len(row.Holes)
			}
		}
		if minSize > 0 {
			res.Metrics.RowSizeRatio = float64(maxSize) / float64(minSize)
		}
		if res.Metrics.RowSizeRatio > sizeRatioWarn {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row sizes unbalanced (%d to %d holes)", minSize, maxSize))
			res.Confidence -= penaltySizeRatio
		}
	}

	res.Metrics.OffsetRatio = patternOffsetRatio(holes, rows)
	switch {
	case len(rows) < 2 || res.Metrics.SpacingCV > spacingCVWarn:
		res.GridStyle = GridIrregular
	case res.Metrics.OffsetRatio >= 0.35:
		res.GridStyle = GridStaggered
	case res.Metrics.OffsetRatio <= 0.15:
		res.GridStyle = GridSquare
	default:
		res.GridStyle = GridIrregular
	}

	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Status == StatusValid && len(res.Warnings) > 0 {
		res.Status = StatusWarning
	}
	return res
}

// patternOffsetRatio measures row-to-row stagger, normalized to [0, 0.5]:
// near 0 is a square grid, near 0.5 a fully staggered one. For each
// adjacent row pair the second row's holes are projected onto the first
// row's direction and their fractional offset within the first row's
// spacing grid is folded to [0, 0.5].
func patternOffsetRatio(holes []*Hole, rows []Row) float64 {
	if len(rows) < 2 {
		return 0
	}

	var offsets []float64
	for i := 1; i < len(rows); i++ {
		ref := rows[i-1].Holes
		if len(ref) < 2 || len(rows[i].Holes) == 0 {
			continue
		}
		line := fitRowLine(holes, ref)

		// Reference row spacing along its own direction.
		proj := make([]float64, len(ref))
		for j, idx := range ref {
			proj[j] = line.projection(holes[idx].Point())
		}
		spacings := make([]float64, 0, len(proj)-1)
		for j := 1; j < len(proj); j++ {
			spacings = append(spacings, math.Abs(proj[j]-proj[j-1]))
		}
		s := geom.Mean(spacings)
		if s <= 0 {
			continue
		}

		for _, idx := range rows[i].Holes {
			t := line.projection(holes[idx].Point())
			// Fractional position within the reference spacing grid.
			frac := math.Mod(math.Abs(t-proj[0]), s) / s
			if frac > 0.5 {
				frac = 1 - frac
			}
			offsets = append(offsets, frac)
		}
	}
	return geom.Mean(offsets)
}

// Method reliability adjustments for the combined confidence score.
var methodConfidenceBonus = map[Method]float64{
	MethodSequenceIDs:        0.1,
	MethodWindingSequence:    0.05,
	MethodWeightedClustering: 0.05,
	MethodDensityClustering:  0,
	MethodAdaptiveGrid:       -0.05,
	MethodDBSCAN:             -0.1,
	MethodFallbackSingleRow:  -0.3,
}

// CombineConfidence folds the detection method's reliability into a
// validator confidence, clamped to [0, 1]. Sequence-based methods earn a
// bonus; the single-row fallback is heavily discounted.
func CombineConfidence(validation *ValidationResult, method Method) float64 {
	c := validation.Confidence + methodConfidenceBonus[method]
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
