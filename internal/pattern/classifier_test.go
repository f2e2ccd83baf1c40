package pattern

import (
	"fmt"
	"math"
	"testing"
)

func TestClassifyStraightRow(t *testing.T) {
	holes := make([]*Hole, 10)
	for i := range holes {
		holes[i] = &Hole{ID: plainID(0, i), X: float64(i) * 2, Y: 0}
	}

	c := Classify(holes, DefaultParams())
	if c.Type != PatternStraight {
		t.Fatalf("Type = %s, want %s", c.Type, PatternStraight)
	}
	if c.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", c.Confidence)
	}
	if !math.IsInf(c.Metrics.VarianceRatio, 1) {
		t.Errorf("VarianceRatio = %v, want +Inf for collinear holes", c.Metrics.VarianceRatio)
	}
	if c.Metrics.OrientationClusters != 1 {
		t.Errorf("OrientationClusters = %d, want 1", c.Metrics.OrientationClusters)
	}
	if c.Metrics.MeanCurvature > 1e-9 {
		t.Errorf("MeanCurvature = %v, want 0", c.Metrics.MeanCurvature)
	}
}

func TestClassifyTooFewHoles(t *testing.T) {
	holes := []*Hole{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 5, Y: 5},
	}
	c := Classify(holes, DefaultParams())
	if c.Type != PatternStraight || c.Confidence != 0 {
		t.Fatalf("got (%s, %v), want (%s, 0)", c.Type, c.Confidence, PatternStraight)
	}
}

func TestClassifyCurvedArc(t *testing.T) {
	// Semicircle of radius 2: Menger curvature 1/r = 0.5 everywhere.
	holes := make([]*Hole, 10)
	for i := range holes {
		theta := float64(i) * 20 * math.Pi / 180
		holes[i] = &Hole{
			ID: fmt.Sprintf("arc-%d", i),
			X:  2 * math.Cos(theta),
			Y:  2 * math.Sin(theta),
		}
	}

	c := Classify(holes, DefaultParams())
	if c.Type != PatternCurved {
		t.Fatalf("Type = %s, want %s (metrics %+v)", c.Type, PatternCurved, c.Metrics)
	}
	if c.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", c.Confidence)
	}
	if c.Metrics.MeanCurvature < 0.45 || c.Metrics.MeanCurvature > 0.55 {
		t.Errorf("MeanCurvature = %v, want about 0.5", c.Metrics.MeanCurvature)
	}
	// The arc's tangents sweep a continuum; they must not read as
	// several distinct orientation modes.
	if c.Metrics.OrientationClusters != 1 {
		t.Errorf("OrientationClusters = %d, want 1", c.Metrics.OrientationClusters)
	}
}

func TestCountOrientationModes(t *testing.T) {
	cases := []struct {
		name   string
		angles []float64
		n      int
		want   int
	}{
		{"empty", nil, 0, 0},
		{"single band", []float64{88, 90, 92, 89, 91}, 5, 1},
		{"two isolated modes", []float64{0, 1, 0, 2, 1, 90, 91, 89}, 8, 2},
		{"tangent continuum", []float64{0, 20, 40, 60, 80, 100, 120, 140, 160}, 9, 1},
		{"undersized second band", []float64{0, 0, 0, 0, 0, 0, 0, 90}, 8, 1},
		{"wrap-spanning band", []float64{170, 175, 5, 10, 90, 92, 88}, 7, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := countOrientationModes(tc.angles, tc.n); got != tc.want {
				t.Errorf("got %d modes, want %d", got, tc.want)
			}
		})
	}
}

func TestClassifyMultiPattern(t *testing.T) {
	// Main 3x5 grid with horizontal rows plus a vertical batter line to
	// the east.
	holes := gridHoles(3, 5, 2, 3, plainID)
	for i := 0; i < 5; i++ {
		holes = append(holes, &Hole{ID: fmt.Sprintf("b%d-x", i), X: 14, Y: float64(i) * 2})
	}

	c := Classify(holes, DefaultParams())
	if c.Type != PatternMulti {
		t.Fatalf("Type = %s, want %s (metrics %+v)", c.Type, PatternMulti, c.Metrics)
	}
	if c.Metrics.OrientationClusters != 2 {
		t.Errorf("OrientationClusters = %d, want 2", c.Metrics.OrientationClusters)
	}
	if len(c.SubPatterns) != 2 {
		t.Fatalf("SubPatterns = %d, want 2", len(c.SubPatterns))
	}
	if c.SubPatterns[0].Role != RoleMain || len(c.SubPatterns[0].Holes) != 15 {
		t.Errorf("sub 0 = (%s, %d holes), want (%s, 15)", c.SubPatterns[0].Role, len(c.SubPatterns[0].Holes), RoleMain)
	}
	if c.SubPatterns[1].Role != RoleBatter || len(c.SubPatterns[1].Holes) != 5 {
		t.Errorf("sub 1 = (%s, %d holes), want (%s, 5)", c.SubPatterns[1].Role, len(c.SubPatterns[1].Holes), RoleBatter)
	}
}

func TestSeparateSubPatternsBuffer(t *testing.T) {
	// A detached block with the same row orientation as the main pattern
	// is a buffer, not a batter.
	holes := gridHoles(3, 5, 2, 3, plainID)
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			holes = append(holes, &Hole{
				ID: fmt.Sprintf("buf%d-%d", r, c),
				X:  30 + float64(c)*2,
				Y:  float64(r) * 3,
			})
		}
	}

	subs := SeparateSubPatterns(holes, DefaultParams())
	if len(subs) != 2 {
		t.Fatalf("got %d sub-patterns, want 2", len(subs))
	}
	if subs[0].Role != RoleMain || len(subs[0].Holes) != 15 {
		t.Errorf("sub 0 = (%s, %d holes), want (%s, 15)", subs[0].Role, len(subs[0].Holes), RoleMain)
	}
	if subs[1].Role != RoleBuffer || len(subs[1].Holes) != 6 {
		t.Errorf("sub 1 = (%s, %d holes), want (%s, 6)", subs[1].Role, len(subs[1].Holes), RoleBuffer)
	}
}

func TestSerpentineCandidate(t *testing.T) {
	serp := gridHoles(3, 4, 2, 3, plainID)
	// Renumber along a serpentine path: x reverses every row.
	id := 1
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			idx := r*4 + c
			if r%2 == 1 {
				idx = r*4 + (3 - c)
			}
			serp[idx].ID = fmt.Sprintf("%d", id)
			id++
		}
	}
	if !serpentineCandidate(serp) {
		t.Error("serpentine-numbered grid not flagged as candidate")
	}

	straight := make([]*Hole, 10)
	for i := range straight {
		straight[i] = &Hole{ID: fmt.Sprintf("%d", i+1), X: float64(i) * 2, Y: 0}
	}
	if serpentineCandidate(straight) {
		t.Error("monotone row flagged as serpentine candidate")
	}

	if serpentineCandidate(gridHoles(3, 4, 2, 3, plainID)) {
		t.Error("non-numeric IDs flagged as serpentine candidate")
	}
}
