package pattern

import (
	"math"
	"testing"
)

// assignGrid stamps RowID/PosID onto a grid fixture row-major.
func assignGrid(holes []*Hole, cols int) {
	for i, h := range holes {
		h.RowID = i/cols + 1
		h.PosID = i%cols + 1
	}
}

func TestValidateCleanGrid(t *testing.T) {
	holes := gridHoles(3, 5, 2, 3, plainID)
	assignGrid(holes, 5)

	res := Validate(holes)
	if res.Status != StatusValid {
		t.Fatalf("Status = %s (warnings %v, issues %v), want %s", res.Status, res.Warnings, res.Issues, StatusValid)
	}
	if res.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
	if res.GridStyle != GridSquare {
		t.Errorf("GridStyle = %s, want %s (offset %v)", res.GridStyle, GridSquare, res.Metrics.OffsetRatio)
	}
	if res.Metrics.SpacingCV > 1e-9 || res.Metrics.BurdenCV > 1e-9 {
		t.Errorf("CVs = (%v, %v), want 0", res.Metrics.SpacingCV, res.Metrics.BurdenCV)
	}
	if math.Abs(res.Metrics.SpacingMean-2) > 1e-9 {
		t.Errorf("SpacingMean = %v, want 2", res.Metrics.SpacingMean)
	}
	if math.Abs(res.Metrics.BurdenMean-3) > 1e-9 {
		t.Errorf("BurdenMean = %v, want 3", res.Metrics.BurdenMean)
	}
}

func TestValidateStaggeredGrid(t *testing.T) {
	var holes []*Hole
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			offset := 0.0
			if r%2 == 1 {
				offset = 1 // half the 2 m spacing
			}
			holes = append(holes, &Hole{
				ID: plainID(r, c),
				X:  float64(c)*2 + offset,
				Y:  float64(r) * 3,
			})
		}
	}
	assignGrid(holes, 4)

	res := Validate(holes)
	if res.GridStyle != GridStaggered {
		t.Errorf("GridStyle = %s, want %s (offset %v)", res.GridStyle, GridStaggered, res.Metrics.OffsetRatio)
	}
	if math.Abs(res.Metrics.OffsetRatio-0.5) > 1e-9 {
		t.Errorf("OffsetRatio = %v, want 0.5", res.Metrics.OffsetRatio)
	}
}

func TestValidateDuplicatePositionsInvalid(t *testing.T) {
	holes := []*Hole{
		{ID: "1", X: 0, Y: 0, RowID: 1, PosID: 1},
		{ID: "2", X: 2, Y: 0, RowID: 1, PosID: 2},
		{ID: "3", X: 4, Y: 0, RowID: 1, PosID: 2},
		{ID: "4", X: 6, Y: 0, RowID: 1, PosID: 3},
	}

	res := Validate(holes)
	if res.Status != StatusInvalid {
		t.Fatalf("Status = %s, want %s", res.Status, StatusInvalid)
	}
	if len(res.Issues) == 0 {
		t.Error("expected an issue for the duplicate position")
	}
	if math.Abs(res.Confidence-0.8) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.8", res.Confidence)
	}
}

func TestValidatePositionGapsWarn(t *testing.T) {
	holes := []*Hole{
		{ID: "1", X: 0, Y: 0, RowID: 1, PosID: 1},
		{ID: "2", X: 2, Y: 0, RowID: 1, PosID: 2},
		{ID: "3", X: 4, Y: 0, RowID: 1, PosID: 4},
	}

	res := Validate(holes)
	if res.Status != StatusWarning {
		t.Fatalf("Status = %s, want %s", res.Status, StatusWarning)
	}
	if math.Abs(res.Confidence-0.95) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.95", res.Confidence)
	}
	if len(res.Issues) != 0 {
		t.Errorf("gaps must warn, not invalidate: issues %v", res.Issues)
	}
}

func TestValidateOrphans(t *testing.T) {
	holes := gridHoles(2, 5, 2, 3, plainID)
	assignGrid(holes, 5)
	holes[3].RowID = 0
	holes[7].RowID = 0

	res := Validate(holes)
	if math.Abs(res.Metrics.OrphanRatio-0.2) > 1e-9 {
		t.Errorf("OrphanRatio = %v, want 0.2", res.Metrics.OrphanRatio)
	}
	if res.Status != StatusWarning {
		t.Errorf("Status = %s, want %s", res.Status, StatusWarning)
	}
}

func TestValidateEmpty(t *testing.T) {
	res := Validate(nil)
	if res.Status != StatusValid || res.Confidence != 1.0 {
		t.Errorf("got (%s, %v), want (%s, 1.0)", res.Status, res.Confidence, StatusValid)
	}
}

func TestCombineConfidence(t *testing.T) {
	tests := []struct {
		base   float64
		method Method
		want   float64
	}{
		{0.95, MethodSequenceIDs, 1.0}, // clamped
		{0.8, MethodWindingSequence, 0.85},
		{0.8, MethodDensityClustering, 0.8},
		{0.8, MethodDBSCAN, 0.7},
		{0.95, MethodFallbackSingleRow, 0.65},
		{0.1, MethodFallbackSingleRow, 0}, // clamped at zero
	}
	for _, tt := range tests {
		v := &ValidationResult{Confidence: tt.base}
		if got := CombineConfidence(v, tt.method); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CombineConfidence(%v, %s) = %v, want %v", tt.base, tt.method, got, tt.want)
		}
	}
}
