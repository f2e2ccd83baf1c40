package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDistance(t *testing.T) {
	d := Distance(Point{0, 0}, Point{3, 4})
	if d != 5 {
		t.Errorf("expected 5, got %f", d)
	}
	if Distance(Point{1, 1}, Point{1, 1}) != 0 {
		t.Error("identical points should have zero distance")
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{720.5, 0.5},
	}
	for _, c := range cases {
		if got := NormalizeAngle(c.in); !almostEqual(got, c.want, 1e-9) {
			t.Errorf("NormalizeAngle(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}

func TestAngleDiff(t *testing.T) {
	if got := AngleDiff(350, 10); !almostEqual(got, 20, 1e-9) {
		t.Errorf("expected wraparound diff 20, got %f", got)
	}
	if got := AngleDiff(90, 270); !almostEqual(got, 180, 1e-9) {
		t.Errorf("expected 180, got %f", got)
	}
}

func TestBearing(t *testing.T) {
	cases := []struct {
		a, b Point
		want float64
	}{
		{Point{0, 0}, Point{0, 1}, 0},   // north
		{Point{0, 0}, Point{1, 0}, 90},  // east
		{Point{0, 0}, Point{0, -1}, 180},
		{Point{0, 0}, Point{-1, 0}, 270},
		{Point{0, 0}, Point{0, 0}, 0}, // degenerate
	}
	for _, c := range cases {
		if got := Bearing(c.a, c.b); !almostEqual(got, c.want, 1e-9) {
			t.Errorf("Bearing(%v, %v) = %f, want %f", c.a, c.b, got, c.want)
		}
	}
}

func TestPointSegmentDistance(t *testing.T) {
	// Perpendicular drop inside the segment
	d := PointSegmentDistance(Point{5, 3}, Point{0, 0}, Point{10, 0})
	if !almostEqual(d, 3, 1e-9) {
		t.Errorf("expected 3, got %f", d)
	}
	// Beyond the segment end: distance to the endpoint
	d = PointSegmentDistance(Point{13, 4}, Point{0, 0}, Point{10, 0})
	if !almostEqual(d, 5, 1e-9) {
		t.Errorf("expected 5, got %f", d)
	}
	// Zero-length segment degrades to point distance
	d = PointSegmentDistance(Point{3, 4}, Point{0, 0}, Point{0, 0})
	if !almostEqual(d, 5, 1e-9) {
		t.Errorf("expected 5 for degenerate segment, got %f", d)
	}
}

func TestMedian(t *testing.T) {
	xs := []float64{5, 1, 3}
	if got := Median(xs); got != 3 {
		t.Errorf("expected 3, got %f", got)
	}
	// Input must not be mutated
	if xs[0] != 5 || xs[1] != 1 || xs[2] != 3 {
		t.Error("Median mutated its input")
	}
	if Median(nil) != 0 {
		t.Error("expected 0 for empty input")
	}
}

func TestStdDevDegenerate(t *testing.T) {
	if StdDev([]float64{4}) != 0 {
		t.Error("single value should have zero stddev")
	}
	if StdDev(nil) != 0 {
		t.Error("empty slice should have zero stddev")
	}
}

func TestMengerCurvature(t *testing.T) {
	// Points on a unit circle have curvature 1
	a := Point{1, 0}
	b := Point{0, 1}
	c := Point{-1, 0}
	if got := MengerCurvature(a, b, c); !almostEqual(got, 1, 1e-9) {
		t.Errorf("expected curvature 1, got %f", got)
	}
	// Collinear points have curvature 0
	if got := MengerCurvature(Point{0, 0}, Point{1, 0}, Point{2, 0}); got != 0 {
		t.Errorf("expected 0 for collinear points, got %f", got)
	}
	// Repeated points have curvature 0
	if got := MengerCurvature(a, a, c); got != 0 {
		t.Errorf("expected 0 for repeated points, got %f", got)
	}
}

func TestEigenDecompose2Straight(t *testing.T) {
	// Collinear points along x: Lambda2 ~ 0, variance ratio effectively infinite
	pts := make([]Point, 10)
	for i := range pts {
		pts[i] = Point{X: float64(i) * 2, Y: 0}
	}
	e := PrincipalAxes(pts)
	if e.Lambda2 > 1e-9 {
		t.Errorf("expected Lambda2 ~ 0 for collinear points, got %g", e.Lambda2)
	}
	if !math.IsInf(e.VarianceRatio(), 1) {
		t.Errorf("expected infinite variance ratio, got %f", e.VarianceRatio())
	}
	if math.Abs(e.V1.X) < 0.999 {
		t.Errorf("principal axis should be x-aligned, got %v", e.V1)
	}
}

func TestEigenDecompose2Isotropic(t *testing.T) {
	// A symmetric square of points has equal eigenvalues
	pts := []Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	e := PrincipalAxes(pts)
	if !almostEqual(e.Lambda1, e.Lambda2, 1e-9) {
		t.Errorf("expected equal eigenvalues, got %f and %f", e.Lambda1, e.Lambda2)
	}
}

func TestEigenvectorsOrthogonal(t *testing.T) {
	pts := []Point{{0, 0}, {2, 1}, {4, 2.2}, {6, 2.8}, {8, 4.1}}
	e := PrincipalAxes(pts)
	dot := e.V1.X*e.V2.X + e.V1.Y*e.V2.Y
	if !almostEqual(dot, 0, 1e-9) {
		t.Errorf("eigenvectors not orthogonal, dot=%g", dot)
	}
}

func TestChainOrder(t *testing.T) {
	// A zig-zag line: the chain must start at one extreme and walk through
	pts := []Point{{4, 0}, {0, 0}, {2, 0}, {6, 0}, {8, 0}}
	order := ChainOrder(pts)
	if len(order) != len(pts) {
		t.Fatalf("expected %d indices, got %d", len(pts), len(order))
	}
	first := pts[order[0]]
	if first.X != 0 && first.X != 8 {
		t.Errorf("chain should start at an endpoint, started at %v", first)
	}
	// Walking the chain should be monotone in x for a straight line
	prev := pts[order[0]].X
	increasing := pts[order[1]].X > prev
	for _, idx := range order[1:] {
		x := pts[idx].X
		if increasing && x < prev || !increasing && x > prev {
			t.Fatalf("chain order not monotone: %v", order)
		}
		prev = x
	}
}

func TestChainOrderDegenerate(t *testing.T) {
	if ChainOrder(nil) != nil {
		t.Error("expected nil for empty input")
	}
	order := ChainOrder([]Point{{1, 2}})
	if len(order) != 1 || order[0] != 0 {
		t.Errorf("expected [0], got %v", order)
	}
}

func TestSimplifyPath(t *testing.T) {
	// A straight line with a tiny wiggle collapses to its endpoints
	pts := []Point{{0, 0}, {1, 0.01}, {2, -0.01}, {3, 0}, {4, 0.02}, {5, 0}}
	out := SimplifyPath(pts, 0.1)
	if len(out) != 2 {
		t.Errorf("expected 2 surviving vertices, got %d", len(out))
	}
	if out[0] != pts[0] || out[len(out)-1] != pts[len(pts)-1] {
		t.Error("simplification must preserve endpoints")
	}

	// A sharp corner survives
	corner := []Point{{0, 0}, {5, 0}, {5, 5}}
	out = SimplifyPath(corner, 0.1)
	if len(out) != 3 {
		t.Errorf("expected corner to survive, got %d vertices", len(out))
	}
}
