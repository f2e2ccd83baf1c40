package pattern

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// twoRowHoles is two parallel rows of six at 1 m spacing, 3 m apart.
func twoRowHoles() []*Hole {
	var holes []*Hole
	for r := 0; r < 2; r++ {
		for c := 0; c < 6; c++ {
			holes = append(holes, &Hole{
				ID: plainID(r, c),
				X:  float64(c),
				Y:  float64(r) * 3,
			})
		}
	}
	return holes
}

func TestClusteringSplitsTwoRows(t *testing.T) {
	rows := detectRowsByClustering(twoRowHoles(), DefaultParams())
	want := [][]int{
		{0, 1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10, 11},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestClusteringDeterministic(t *testing.T) {
	a := detectRowsByClustering(twoRowHoles(), DefaultParams())
	b := detectRowsByClustering(twoRowHoles(), DefaultParams())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("two runs disagree (-first +second):\n%s", diff)
	}
}

func TestClusteringDeclinesTightGrid(t *testing.T) {
	// Burden close to spacing: the reachability tree has no edge heavy
	// enough to cut, so the detector declines rather than invent rows.
	holes := gridHoles(3, 5, 2, 3, plainID)
	if rows := detectRowsByClustering(holes, DefaultParams()); rows != nil {
		t.Errorf("expected nil, got %d rows", len(rows))
	}
}

func TestClusteringTooFew(t *testing.T) {
	holes := []*Hole{{X: 0}, {X: 1}, {X: 2}}
	if rows := detectRowsByClustering(holes, DefaultParams()); rows != nil {
		t.Error("expected nil for fewer than four holes")
	}
}

func TestWeightedClusteringSeparatesSerpentineRows(t *testing.T) {
	// Two serpentine rows: IDs run 1..6 west-to-east then 7..12 back.
	var holes []*Hole
	for c := 0; c < 6; c++ {
		holes = append(holes, &Hole{ID: fmt.Sprintf("%d", c+1), X: float64(c), Y: 0})
	}
	for c := 0; c < 6; c++ {
		holes = append(holes, &Hole{ID: fmt.Sprintf("%d", c+7), X: 5 - float64(c), Y: 3})
	}

	rows := detectRowsByWeightedClustering(holes, DefaultParams())
	want := [][]int{
		{0, 1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10, 11},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWeightedClusteringRequiresNumericIDs(t *testing.T) {
	holes := twoRowHoles()
	if rows := detectRowsByWeightedClustering(holes, DefaultParams()); rows != nil {
		t.Error("expected nil without numeric IDs")
	}
}

func TestChainOrderRow(t *testing.T) {
	holes := []*Hole{
		{X: 4, Y: 0}, {X: 0, Y: 0}, {X: 2, Y: 0}, {X: 6, Y: 0},
	}
	got := chainOrderRow(holes, []int{0, 1, 2, 3})
	want := []int{1, 2, 0, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chain order mismatch (-want +got):\n%s", diff)
	}
}
