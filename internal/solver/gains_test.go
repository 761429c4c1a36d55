package solver

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
)

// randomInstance builds a reproducible asymmetric instance with every job
// assigned: 4 closed-tour vehicles, 12 jobs, capacities loose enough that
// most moves are feasible.
func randomInstance(seed int64) (*Input, [][]int) {
	rng := rand.New(rand.NewSource(seed))
	const nJobs, nVehicles = 12, 4
	n := nJobs + nVehicles + 1
	m := make([][]Cost, n)
	for i := range m {
		m[i] = make([]Cost, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = Cost(1 + rng.Intn(99))
			}
		}
	}
	in := &Input{Matrix: m}
	for j := 0; j < nJobs; j++ {
		in.Jobs = append(in.Jobs, Job{ID: string(rune('a' + j)), Index: j + 1, Amount: Amount{1}})
	}
	for v := 0; v < nVehicles; v++ {
		depot := nJobs + 1 + v
		in.Vehicles = append(in.Vehicles, Vehicle{
			ID:       string(rune('A' + v)),
			Start:    intp(depot),
			End:      intp(depot),
			Capacity: Amount{5},
		})
	}
	routes := make([][]int, nVehicles)
	for j := 0; j < nJobs; j++ {
		routes[j%nVehicles] = append(routes[j%nVehicles], j)
	}
	return in, routes
}

func withoutRank(route []int, i int) []int {
	out := append([]int(nil), route[:i]...)
	return append(out, route[i+1:]...)
}

// Node gain must equal the exact route-cost delta of removing that job, and
// edge gain the delta minus the segment's internal edge (which travels with
// the segment).
func TestGainCachesMatchBruteForce(t *testing.T) {
	in, routes := randomInstance(1)
	e, err := NewEngine(in, routes)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for v, route := range e.sol {
		full := in.RouteCost(v, route)
		for i := range route {
			want := full - in.RouteCost(v, withoutRank(route, i))
			if got := e.gains.nodeGains[v][i]; got != want {
				t.Fatalf("node gain v%d[%d]: got %d, want %d", v, i, got, want)
			}
		}
		for i := 0; i+1 < len(route); i++ {
			stripped := withoutRank(withoutRank(route, i+1), i)
			internal := in.Matrix[in.jobIndex(route[i])][in.jobIndex(route[i+1])]
			want := full - in.RouteCost(v, stripped) - internal
			if got := e.gains.edgeGains[v][i]; got != want {
				t.Fatalf("edge gain v%d[%d]: got %d, want %d", v, i, got, want)
			}
		}
	}
}

// Every valid operator's advertised gain must match the exact cost delta of
// applying it.
func TestOperatorGainsExact(t *testing.T) {
	in, routes := randomInstance(2)
	e, err := NewEngine(in, routes)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	before := e.Cost()

	check := func(op operator) {
		t.Helper()
		if !op.valid() {
			return
		}
		gain := op.gain()
		saved := make([][]int, len(e.sol))
		for i := range e.sol {
			saved[i] = append([]int(nil), e.sol[i]...)
		}
		op.apply()
		if diff := before - e.Cost(); diff != gain {
			t.Fatalf("%s: gain %d but cost delta %d", op.describe(), gain, diff)
		}
		for i := range saved {
			e.sol[i] = saved[i]
		}
	}

	V := len(in.Vehicles)
	for s := 0; s < V; s++ {
		for tv := 0; tv < V; tv++ {
			if s == tv {
				continue
			}
			for sr := 0; sr < len(e.sol[s]); sr++ {
				for tr := 0; tr <= len(e.sol[tv]); tr++ {
					check(newRelocate(e, s, sr, tv, tr))
					if tr < len(e.sol[tv]) {
						check(newExchange(e, s, sr, tv, tr))
					}
				}
			}
			for sr := 0; sr+1 < len(e.sol[s]); sr++ {
				for tr := 0; tr <= len(e.sol[tv]); tr++ {
					check(newOrOpt(e, s, sr, tv, tr))
					if tr+1 < len(e.sol[tv]) {
						check(newCrossExchange(e, s, sr, tv, tr))
					}
				}
			}
		}
	}
}

// Relocating a job and relocating it straight back restores the routes and
// nets zero gain.
func TestRelocateRoundTrip(t *testing.T) {
	in, routes := randomInstance(3)
	e, err := NewEngine(in, routes)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	original := e.Routes()

	fwd := newRelocate(e, 0, 1, 1, 2)
	if !fwd.valid() {
		t.Fatal("forward relocate unexpectedly invalid")
	}
	g1 := fwd.gain()
	fwd.apply()
	for _, v := range []int{0, 1} {
		e.updateAmounts(v)
		e.setNodeGains(v)
		e.setEdgeGains(v)
	}

	back := newRelocate(e, 1, 2, 0, 1)
	if !back.valid() {
		t.Fatal("inverse relocate unexpectedly invalid")
	}
	g2 := back.gain()
	back.apply()

	if g1+g2 != 0 {
		t.Fatalf("round trip gain: %d + %d != 0", g1, g2)
	}
	if !reflect.DeepEqual(e.Routes(), original) {
		t.Fatalf("round trip did not restore routes: %v vs %v", e.Routes(), original)
	}
}

// insertionCost and segmentInsertionCost must equal the exact route-cost
// delta for all three placement cases (empty route, append, insert-before).
func TestInsertionCostsExact(t *testing.T) {
	in, routes := randomInstance(4)
	// Hold three jobs out of the initial solution.
	routes[0] = routes[0][:1]
	routes[1] = routes[1][:2]
	e, err := NewEngine(in, routes)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	pending := e.Unassigned()
	if len(pending) < 2 {
		t.Fatalf("expected held-out jobs, got %v", pending)
	}
	j1, j2 := pending[0], pending[1]

	for v := range e.sol {
		for r := 0; r <= len(e.sol[v]); r++ {
			with := append([]int(nil), e.sol[v][:r]...)
			with = append(with, j1)
			with = append(with, e.sol[v][r:]...)
			want := in.RouteCost(v, with) - in.RouteCost(v, e.sol[v])
			if got := e.insertionCost(v, r, in.jobIndex(j1)); got != want {
				t.Fatalf("insertionCost v%d[%d]: got %d, want %d", v, r, got, want)
			}

			seg := append([]int(nil), e.sol[v][:r]...)
			seg = append(seg, j1, j2)
			seg = append(seg, e.sol[v][r:]...)
			internal := in.Matrix[in.jobIndex(j1)][in.jobIndex(j2)]
			want = in.RouteCost(v, seg) - in.RouteCost(v, e.sol[v]) - internal
			if got := e.segmentInsertionCost(v, r, in.jobIndex(j1), in.jobIndex(j2)); got != want {
				t.Fatalf("segmentInsertionCost v%d[%d]: got %d, want %d", v, r, got, want)
			}
		}
	}
}

// The nearest-rank index breaks ties on the smallest target rank.
func TestNearestRankTieBreak(t *testing.T) {
	in := &Input{
		Jobs: jobs(1, 1, 1),
		Vehicles: []Vehicle{
			{ID: "v0", Start: intp(0), End: intp(0), Capacity: Amount{3}},
			{ID: "v1", Start: intp(0), End: intp(0), Capacity: Amount{3}},
		},
		// All inter-job costs equal: every rank ties.
		Matrix: symm(4, map[[2]int]Cost{
			{0, 1}: 5, {0, 2}: 5, {0, 3}: 5,
			{1, 2}: 5, {1, 3}: 5, {2, 3}: 5,
		}),
	}
	e, err := NewEngine(in, [][]int{{0}, {1, 2}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if got := e.nearest.from[0][1][0]; got != 0 {
		t.Fatalf("nearest-from tie: got rank %d, want 0", got)
	}
	if got := e.nearest.to[0][1][0]; got != 0 {
		t.Fatalf("nearest-to tie: got rank %d, want 0", got)
	}
}

// With every job assigned up front, each accepted move strictly lowers the
// total cost, and the final state keeps all invariants.
func TestRunMonotoneAndFeasible(t *testing.T) {
	in, routes := randomInstance(5)
	e, err := NewEngine(in, routes)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	last := e.Cost()
	e.OnStep = func(step int, stepRoutes [][]int) {
		var total Cost
		for v, route := range stepRoutes {
			total += in.RouteCost(v, route)
		}
		if total >= last {
			t.Fatalf("step %d: cost %d did not decrease from %d", step, total, last)
		}
		last = total
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertInvariants(t, e)
	if got := e.Cost(); got != last {
		t.Fatalf("final cost %d does not match last step %d", got, last)
	}
}

// The engine is deterministic: identical inputs produce identical solves.
func TestRunDeterministic(t *testing.T) {
	run := func() (*Engine, []string) {
		in, routes := randomInstance(6)
		e, err := NewEngine(in, routes)
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		var moves []string
		e.OnMove = func(desc string) { moves = append(moves, desc) }
		if err := e.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return e, moves
	}
	e1, moves1 := run()
	e2, moves2 := run()
	if !reflect.DeepEqual(e1.Routes(), e2.Routes()) {
		t.Fatalf("routes differ between runs:\n%v\n%v", e1.Routes(), e2.Routes())
	}
	if !reflect.DeepEqual(moves1, moves2) {
		t.Fatalf("move logs differ:\n%v\n%v", moves1, moves2)
	}
	if e1.Metrics != e2.Metrics {
		t.Fatalf("metrics differ: %+v vs %+v", e1.Metrics, e2.Metrics)
	}
}
