package pattern

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAdaptiveGridHorizontalRows(t *testing.T) {
	holes := gridHoles(3, 5, 2, 3, plainID)

	rows := detectRowsByAdaptiveGrid(holes, DefaultParams())
	want := [][]int{
		{0, 1, 2, 3, 4},
		{5, 6, 7, 8, 9},
		{10, 11, 12, 13, 14},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestAdaptiveGridVerticalRows(t *testing.T) {
	// Rows run along y: the y extent (8 m) exceeds the x extent (6 m).
	var holes []*Hole
	for r := 0; r < 3; r++ {
		for c := 0; c < 5; c++ {
			holes = append(holes, &Hole{X: float64(r) * 3, Y: float64(c) * 2})
		}
	}

	rows := detectRowsByAdaptiveGrid(holes, DefaultParams())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for r, row := range rows {
		if len(row) != 5 {
			t.Fatalf("row %d has %d holes, want 5", r, len(row))
		}
		// Members ordered along the row axis (y).
		for i := 1; i < len(row); i++ {
			if holes[row[i]].Y <= holes[row[i-1]].Y {
				t.Fatalf("row %d not ordered along y", r)
			}
		}
	}
}

func TestAdaptiveGridDeclinesSingleBin(t *testing.T) {
	var holes []*Hole
	for i := 0; i < 5; i++ {
		holes = append(holes, &Hole{X: float64(i) * 2, Y: 0})
	}
	if rows := detectRowsByAdaptiveGrid(holes, DefaultParams()); rows != nil {
		t.Errorf("expected nil for a single collinear row, got %d rows", len(rows))
	}

	pair := []*Hole{{X: 0, Y: 0}, {X: 10, Y: 7}}
	if rows := detectRowsByAdaptiveGrid(pair, DefaultParams()); rows != nil {
		t.Errorf("expected nil for two points, got %d rows", len(rows))
	}
}
