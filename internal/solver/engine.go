package solver

import (
	"context"
	"fmt"
	"sort"
)

// TSPFunc re-optimizes the order of a single route. It receives the vehicle
// rank and the current job sequence and returns a permutation of the same
// jobs; the engine adopts the result only when it is strictly cheaper under
// the open-tour route cost. The engine blocks until the call returns.
type TSPFunc func(vehicle int, route []int) []int

// Engine is the inter-route local-search improver: it owns a working
// solution and repeatedly applies relocate, exchange, or-opt and
// cross-exchange moves between routes, re-inserting unassigned jobs
// whenever a move makes room. All state is owned exclusively by the engine
// for its lifetime; the Input is read-only and may be shared.
type Engine struct {
	in  *Input
	sol [][]int

	amounts    [][]Amount
	gains      gainCache
	nearest    nearestIndex
	unassigned map[int]struct{}

	lowerBound       Amount
	doubleLowerBound Amount

	// TSP re-optimizes one route between moves; defaults to the built-in
	// two-opt pass. OnStep receives the full solution after every accepted
	// move, OnMove a one-line description of each move.
	TSP    TSPFunc
	OnStep func(step int, routes [][]int)
	OnMove func(desc string)

	Metrics Metrics

	step int
}

// NewEngine validates the problem and the initial assignment, takes
// ownership of a copy of the routes, and builds the gain caches and the
// nearest-rank index. An infeasible initial solution is refused.
func NewEngine(in *Input, routes [][]int) (*Engine, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if err := in.CheckSolution(routes); err != nil {
		return nil, fmt.Errorf("infeasible initial solution: %w", err)
	}

	v := len(in.Vehicles)
	e := &Engine{
		in:      in,
		sol:     make([][]int, v),
		amounts: make([][]Amount, v),
		gains:   newGainCache(v),
		nearest: newNearestIndex(v),
	}
	for i, route := range routes {
		e.sol[i] = append([]int(nil), route...)
	}

	e.lowerBound = in.AmountLowerBound()
	e.doubleLowerBound = e.lowerBound.Add(e.lowerBound)

	e.unassigned = make(map[int]struct{}, len(in.Jobs))
	for j := range in.Jobs {
		e.unassigned[j] = struct{}{}
	}
	for _, route := range e.sol {
		for _, j := range route {
			delete(e.unassigned, j)
		}
	}

	for i := 0; i < v; i++ {
		e.updateAmounts(i)
		e.setNodeGains(i)
		e.setEdgeGains(i)
	}
	for v1 := 0; v1 < v; v1++ {
		for v2 := 0; v2 < v; v2++ {
			if v1 == v2 {
				continue
			}
			e.updateNearestJobRanks(v1, v2)
		}
	}

	e.TSP = func(vehicle int, route []int) []int {
		return TwoOptRoute(in, vehicle, route)
	}
	return e, nil
}

// Run drives the full pipeline: the fixed-source-and-target regime to a
// fixed point, then fixed-source, then exhaustive. Cancellation is honored
// between sweeps only, never mid-move.
func (e *Engine) Run(ctx context.Context) error {
	for _, reg := range []Regime{RegimeFixedSourceTarget, RegimeFixedSource, RegimeExhaustive} {
		if err := e.runRegime(ctx, reg); err != nil {
			return err
		}
	}
	return nil
}

// RunRegimes runs the pipeline only up to the given regime ceiling.
func (e *Engine) RunRegimes(ctx context.Context, upTo Regime) error {
	for _, reg := range []Regime{RegimeFixedSourceTarget, RegimeFixedSource, RegimeExhaustive} {
		if reg > upTo {
			break
		}
		if err := e.runRegime(ctx, reg); err != nil {
			return err
		}
	}
	return nil
}

// Routes returns a copy of the current per-vehicle job sequences.
func (e *Engine) Routes() [][]int {
	out := make([][]int, len(e.sol))
	for i, route := range e.sol {
		out[i] = append([]int(nil), route...)
	}
	return out
}

// Unassigned returns the jobs not currently served by any route, sorted.
func (e *Engine) Unassigned() []int {
	out := make([]int, 0, len(e.unassigned))
	for j := range e.unassigned {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// Cost is the total open-tour-aware travel cost of the current solution.
func (e *Engine) Cost() Cost {
	var total Cost
	for v, route := range e.sol {
		total += e.in.RouteCost(v, route)
	}
	return total
}

// runTSP hands one route to the TSP callback and adopts the returned order
// only if strictly cheaper. A result that is not a permutation of the input
// jobs indicates a broken solver and panics.
func (e *Engine) runTSP(v int) {
	if len(e.sol[v]) == 0 || e.TSP == nil {
		return
	}
	before := e.in.RouteCost(v, e.sol[v])
	newRoute := e.TSP(v, append([]int(nil), e.sol[v]...))
	if !samePermutation(e.sol[v], newRoute) {
		panic(fmt.Sprintf("solver: TSP returned a non-permutation for vehicle %d", v))
	}
	after := e.in.RouteCost(v, newRoute)
	if after < before {
		e.sol[v] = newRoute
		e.Metrics.TSPAdoptions++
		e.Metrics.TSPGain += int64(before - after)
	}
}

func samePermutation(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int]int, len(a))
	for _, j := range a {
		counts[j]++
	}
	for _, j := range b {
		counts[j]--
		if counts[j] < 0 {
			return false
		}
	}
	return true
}

func (e *Engine) logStep() {
	e.step++
	if e.OnStep != nil {
		e.OnStep(e.step, e.Routes())
	}
}
