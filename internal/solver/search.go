package solver

import (
	"context"
	"sort"
)

// regime selects how candidate positions are enumerated during a sweep.
// The fastest regime fixes the source rank to the best cached gain and
// draws target ranks from the nearest-rank index; the middle one keeps the
// fixed source but scans every target position; the exhaustive one scans
// both sides.
type Regime int

const (
	RegimeFixedSourceTarget Regime = iota
	RegimeFixedSource
	RegimeExhaustive
)

func (r Regime) String() string {
	switch r {
	case RegimeFixedSourceTarget:
		return "fixed-source-and-target"
	case RegimeFixedSource:
		return "fixed-source"
	default:
		return "exhaustive"
	}
}

// runRegime sweeps source/target vehicle pairs under one enumeration
// policy until no operator yields a positive gain. Every accepted move
// re-optimizes both touched routes with the TSP callback, offers them to
// the unassigned-job reinserter, and invalidates exactly the cached state
// the move dirtied.
func (e *Engine) runRegime(ctx context.Context, reg Regime) error {
	V := len(e.in.Vehicles)
	if V < 2 {
		return nil
	}

	bestGains := make([][]Cost, V)
	bestOps := make([][]operator, V)
	for v := 0; v < V; v++ {
		bestGains[v] = make([]Cost, V)
		bestOps[v] = make([]operator, V)
	}

	pairs := make([][2]int, 0, V*(V-1))
	for s := 0; s < V; s++ {
		for t := 0; t < V; t++ {
			if s != t {
				pairs = append(pairs, [2]int{s, t})
			}
		}
	}

	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		e.Metrics.Sweeps++

		// Relocate.
		for _, st := range pairs {
			s, t := st[0], st[1]
			if !e.totalAmount(t).Add(e.lowerBound).LTE(e.in.Vehicles[t].Capacity) {
				// No single job can fit in t.
				continue
			}
			if len(e.sol[s]) == 0 {
				continue
			}
			for _, sRank := range e.nodeSourceRanks(reg, s) {
				for _, tRank := range e.relocateTargetRanks(reg, s, sRank, t) {
					op := newRelocate(e, s, sRank, t, tRank)
					if op.valid() {
						if g := op.gain(); g > bestGains[s][t] {
							bestGains[s][t] = g
							bestOps[s][t] = op
						}
					}
				}
			}
		}

		// Exchange.
		for _, st := range pairs {
			s, t := st[0], st[1]
			if reg == RegimeExhaustive && t <= s {
				// Symmetric operator.
				continue
			}
			if len(e.sol[s]) == 0 || len(e.sol[t]) == 0 {
				continue
			}
			for _, sRank := range e.nodeSourceRanks(reg, s) {
				for _, tRank := range e.exchangeTargetRanks(reg, s, sRank, t) {
					op := newExchange(e, s, sRank, t, tRank)
					if op.valid() {
						if g := op.gain(); g > bestGains[s][t] {
							bestGains[s][t] = g
							bestOps[s][t] = op
						}
					}
				}
			}
		}

		// Or-opt.
		for _, st := range pairs {
			s, t := st[0], st[1]
			if !e.totalAmount(t).Add(e.doubleLowerBound).LTE(e.in.Vehicles[t].Capacity) {
				// No two jobs can fit in t.
				continue
			}
			if len(e.sol[s]) < 2 {
				continue
			}
			for _, sRank := range e.edgeSourceRanks(reg, s) {
				for _, tRank := range e.orOptTargetRanks(reg, s, sRank, t) {
					op := newOrOpt(e, s, sRank, t, tRank)
					if op.valid() {
						if g := op.gain(); g > bestGains[s][t] {
							bestGains[s][t] = g
							bestOps[s][t] = op
						}
					}
				}
			}
		}

		// Cross-exchange.
		for _, st := range pairs {
			s, t := st[0], st[1]
			if reg == RegimeExhaustive && t <= s {
				continue
			}
			if len(e.sol[s]) < 2 || len(e.sol[t]) < 2 {
				continue
			}
			for _, sRank := range e.edgeSourceRanks(reg, s) {
				for _, tRank := range e.crossTargetRanks(reg, s, sRank, t) {
					op := newCrossExchange(e, s, sRank, t, tRank)
					if op.valid() {
						if g := op.gain(); g > bestGains[s][t] {
							bestGains[s][t] = g
							bestOps[s][t] = op
						}
					}
				}
			}
		}

		// Best overall gain; ties go to the smallest (source, target).
		var bestGain Cost
		bestSource, bestTarget := 0, 0
		for s := 0; s < V; s++ {
			for t := 0; t < V; t++ {
				if s == t {
					continue
				}
				if bestGains[s][t] > bestGain {
					bestGain = bestGains[s][t]
					bestSource = s
					bestTarget = t
				}
			}
		}

		if bestGain <= 0 {
			return nil
		}

		op := bestOps[bestSource][bestTarget]
		if e.OnMove != nil {
			e.OnMove(op.describe())
		}
		op.apply()
		e.Metrics.countMove(op)
		e.Metrics.TotalGain += int64(bestGain)

		e.runTSP(bestSource)
		e.runTSP(bestTarget)

		e.updateAmounts(bestSource)
		e.updateAmounts(bestTarget)

		e.tryJobAdditions(op.additionCandidates())

		e.logStep()

		e.setNodeGains(bestSource)
		e.setNodeGains(bestTarget)
		e.setEdgeGains(bestSource)
		e.setEdgeGains(bestTarget)

		// Only pairs touching a mutated route need re-testing next sweep.
		pairs = pairs[:0]
		bestGains[bestSource] = make([]Cost, V)
		bestGains[bestTarget] = make([]Cost, V)

		pairs = append(pairs, [2]int{bestSource, bestTarget}, [2]int{bestTarget, bestSource})
		if reg == RegimeFixedSourceTarget {
			e.updateNearestJobRanks(bestSource, bestTarget)
			e.updateNearestJobRanks(bestTarget, bestSource)
		}

		for v := 0; v < V; v++ {
			if v == bestSource || v == bestTarget {
				continue
			}
			pairs = append(pairs,
				[2]int{bestSource, v}, [2]int{v, bestSource},
				[2]int{bestTarget, v}, [2]int{v, bestTarget})
			bestGains[v][bestSource] = 0
			bestGains[v][bestTarget] = 0
			if reg == RegimeFixedSourceTarget {
				e.updateNearestJobRanks(bestSource, v)
				e.updateNearestJobRanks(v, bestSource)
				e.updateNearestJobRanks(bestTarget, v)
				e.updateNearestJobRanks(v, bestTarget)
			}
		}
	}
}

// nodeSourceRanks yields the source ranks to try for single-job operators.
func (e *Engine) nodeSourceRanks(reg Regime, s int) []int {
	if reg == RegimeExhaustive {
		ranks := make([]int, len(e.sol[s]))
		for i := range ranks {
			ranks[i] = i
		}
		return ranks
	}
	return []int{e.gains.nodeCandidates[s]}
}

// edgeSourceRanks yields the source edge ranks for segment operators.
func (e *Engine) edgeSourceRanks(reg Regime, s int) []int {
	if reg == RegimeExhaustive {
		ranks := make([]int, len(e.sol[s])-1)
		for i := range ranks {
			ranks[i] = i
		}
		return ranks
	}
	return []int{e.gains.edgeCandidates[s]}
}

func rankRange(n int) []int {
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = i
	}
	return ranks
}

// dedupRanks sorts and deduplicates a small candidate set so sweep order
// (and thereby tie-breaking) is reproducible.
func dedupRanks(ranks []int) []int {
	sort.Ints(ranks)
	out := ranks[:0]
	for i, r := range ranks {
		if i == 0 || r != out[len(out)-1] {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) relocateTargetRanks(reg Regime, s, sRank, t int) []int {
	if reg != RegimeFixedSourceTarget {
		return rankRange(len(e.sol[t]) + 1)
	}
	// Before the nearest-from job, and after the nearest-to job (or rank 0
	// of an empty route).
	ranks := []int{e.nearest.from[s][t][sRank]}
	if len(e.sol[t]) == 0 {
		ranks = append(ranks, 0)
	} else {
		ranks = append(ranks, e.nearest.to[s][t][sRank]+1)
	}
	return dedupRanks(ranks)
}

func (e *Engine) exchangeTargetRanks(reg Regime, s, sRank, t int) []int {
	if reg != RegimeFixedSourceTarget {
		return rankRange(len(e.sol[t]))
	}
	var ranks []int
	// Proximity to the surrounding jobs in the source route.
	if sRank > 0 {
		ranks = append(ranks, e.nearest.from[s][t][sRank-1])
	}
	if sRank < len(e.sol[s])-1 {
		ranks = append(ranks, e.nearest.to[s][t][sRank+1])
	}
	// Proximity to the surrounding candidates in the target route: the job
	// before the nearest-from, and the job after the nearest-to.
	nearestFrom := e.nearest.from[s][t][sRank]
	if nearestFrom == 0 {
		ranks = append(ranks, 0)
	} else {
		ranks = append(ranks, nearestFrom-1)
	}
	nearestTo := e.nearest.to[s][t][sRank]
	if nearestTo == len(e.sol[t])-1 {
		ranks = append(ranks, nearestTo)
	} else {
		ranks = append(ranks, nearestTo+1)
	}
	return dedupRanks(ranks)
}

func (e *Engine) orOptTargetRanks(reg Regime, s, sRank, t int) []int {
	if reg != RegimeFixedSourceTarget {
		return rankRange(len(e.sol[t]) + 1)
	}
	ranks := []int{e.nearest.from[s][t][sRank+1]}
	if len(e.sol[t]) == 0 {
		ranks = append(ranks, 0)
	} else {
		ranks = append(ranks, e.nearest.to[s][t][sRank]+1)
	}
	return dedupRanks(ranks)
}

func (e *Engine) crossTargetRanks(reg Regime, s, sRank, t int) []int {
	if reg != RegimeFixedSourceTarget {
		n := len(e.sol[t]) - 1
		if n < 0 {
			n = 0
		}
		return rankRange(n)
	}
	var ranks []int
	tLen := len(e.sol[t])
	if sRank > 0 {
		nearestFrom := e.nearest.from[s][t][sRank-1]
		if nearestFrom < tLen-1 {
			ranks = append(ranks, nearestFrom)
		} else {
			ranks = append(ranks, tLen-2)
		}
	}
	if sRank < len(e.sol[s])-2 {
		nearestTo := e.nearest.to[s][t][sRank+2]
		if nearestTo == 0 {
			ranks = append(ranks, 0)
		} else {
			ranks = append(ranks, nearestTo-1)
		}
	}
	nearestFrom := e.nearest.from[s][t][sRank+1]
	if nearestFrom >= 2 {
		ranks = append(ranks, nearestFrom-2)
	} else {
		ranks = append(ranks, 0)
	}
	nearestTo := e.nearest.to[s][t][sRank]
	if nearestTo < tLen-2 {
		ranks = append(ranks, nearestTo+1)
	} else {
		ranks = append(ranks, tLen-2)
	}
	return dedupRanks(ranks)
}
