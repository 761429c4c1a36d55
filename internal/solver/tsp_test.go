package solver

import "testing"

func TestTwoOptRouteImproves(t *testing.T) {
	// Four jobs on a line visited in a zig-zag; 2-opt must untangle them.
	pos := []int64{0, 10, 30, 20, 40}
	n := len(pos)
	m := make([][]Cost, n)
	for i := range m {
		m[i] = make([]Cost, n)
		for j := range m[i] {
			d := pos[i] - pos[j]
			if d < 0 {
				d = -d
			}
			m[i][j] = Cost(d)
		}
	}
	in := &Input{
		Jobs: jobs(1, 1, 1, 1),
		Vehicles: []Vehicle{
			{ID: "v", Start: intp(0), End: intp(0), Capacity: Amount{4}},
		},
		Matrix: m,
	}
	route := []int{0, 1, 2, 3} // 0 -> 10 -> 30 -> 20 -> 40 -> 0
	before := in.RouteCost(0, route)
	improved := TwoOptRoute(in, 0, route)
	after := in.RouteCost(0, improved)
	if after >= before {
		t.Fatalf("2-opt did not improve: %d -> %d", before, after)
	}
	if !samePermutation(route, improved) {
		t.Fatalf("2-opt result is not a permutation: %v", improved)
	}
	if after != 80 {
		t.Fatalf("expected the straight sweep cost 80, got %d", after)
	}
}

func TestTwoOptRouteTrivial(t *testing.T) {
	in := &Input{
		Jobs:     jobs(1),
		Vehicles: []Vehicle{{ID: "v", Start: intp(0), End: intp(0), Capacity: Amount{1}}},
		Matrix:   symm(2, map[[2]int]Cost{{0, 1}: 5}),
	}
	if got := TwoOptRoute(in, 0, []int{0}); len(got) != 1 || got[0] != 0 {
		t.Fatalf("single-job route changed: %v", got)
	}
	if got := TwoOptRoute(in, 0, nil); len(got) != 0 {
		t.Fatalf("empty route changed: %v", got)
	}
}

// A TSP callback returning a different job set must abort the solve.
func TestTSPNonPermutationPanics(t *testing.T) {
	in, routes := randomInstance(7)
	e, err := NewEngine(in, routes)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.TSP = func(_ int, route []int) []int { return route[:len(route)-1] }
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on non-permutation TSP result")
		}
	}()
	e.runTSP(0)
}
