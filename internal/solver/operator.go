package solver

import "fmt"

// operator is one tentative inter-route move, bound to a source and target
// vehicle plus a rank in each. Valid and Gain are cheap and side-effect
// free; Apply mutates both routes at once. AdditionCandidates names the
// routes worth offering to the unassigned-job reinserter afterwards.
type operator interface {
	valid() bool
	gain() Cost
	apply()
	additionCandidates() []int
	describe() string
}

// moveBase carries the shared operator surface: the engine (for the problem
// description, routes and gain caches) and the move coordinates.
type moveBase struct {
	e      *Engine
	sVehicle, sRank int
	tVehicle, tRank int
}

func (m moveBase) additionCandidates() []int { return []int{m.sVehicle, m.tVehicle} }

func (m moveBase) coords() string {
	return fmt.Sprintf("v%d[%d] -> v%d[%d]", m.sVehicle, m.sRank, m.tVehicle, m.tRank)
}

// insertionCost is the extra cost of placing job (matrix position jIndex)
// at rank tRank of route tVehicle: the two new legs minus the edge they
// replace, with the usual open-tour omissions. Three cases: empty route,
// append past the end, insert before an existing job.
func (e *Engine) insertionCost(tVehicle, tRank, jIndex int) Cost {
	in := e.in
	route := e.sol[tVehicle]
	veh := in.Vehicles[tVehicle]

	var previousCost, nextCost, oldEdgeCost Cost
	if tRank == len(route) {
		if len(route) == 0 {
			if veh.Start != nil {
				previousCost = in.Matrix[*veh.Start][jIndex]
			}
			if veh.End != nil {
				nextCost = in.Matrix[jIndex][*veh.End]
			}
		} else {
			pIndex := in.jobIndex(route[tRank-1])
			previousCost = in.Matrix[pIndex][jIndex]
			if veh.End != nil {
				nIndex := *veh.End
				oldEdgeCost = in.Matrix[pIndex][nIndex]
				nextCost = in.Matrix[jIndex][nIndex]
			}
		}
	} else {
		nIndex := in.jobIndex(route[tRank])
		nextCost = in.Matrix[jIndex][nIndex]
		if tRank == 0 {
			if veh.Start != nil {
				pIndex := *veh.Start
				previousCost = in.Matrix[pIndex][jIndex]
				oldEdgeCost = in.Matrix[pIndex][nIndex]
			}
		} else {
			pIndex := in.jobIndex(route[tRank-1])
			previousCost = in.Matrix[pIndex][jIndex]
			oldEdgeCost = in.Matrix[pIndex][nIndex]
		}
	}
	return previousCost + nextCost - oldEdgeCost
}

// segmentInsertionCost is the insertionCost analogue for a two-job segment
// (c1Index then c2Index); the segment's internal edge travels with it and
// cancels out.
func (e *Engine) segmentInsertionCost(tVehicle, tRank, c1Index, c2Index int) Cost {
	in := e.in
	route := e.sol[tVehicle]
	veh := in.Vehicles[tVehicle]

	var previousCost, nextCost, oldEdgeCost Cost
	if tRank == len(route) {
		if len(route) == 0 {
			if veh.Start != nil {
				previousCost = in.Matrix[*veh.Start][c1Index]
			}
			if veh.End != nil {
				nextCost = in.Matrix[c2Index][*veh.End]
			}
		} else {
			pIndex := in.jobIndex(route[tRank-1])
			previousCost = in.Matrix[pIndex][c1Index]
			if veh.End != nil {
				nIndex := *veh.End
				oldEdgeCost = in.Matrix[pIndex][nIndex]
				nextCost = in.Matrix[c2Index][nIndex]
			}
		}
	} else {
		nIndex := in.jobIndex(route[tRank])
		nextCost = in.Matrix[c2Index][nIndex]
		if tRank == 0 {
			if veh.Start != nil {
				pIndex := *veh.Start
				previousCost = in.Matrix[pIndex][c1Index]
				oldEdgeCost = in.Matrix[pIndex][nIndex]
			}
		} else {
			pIndex := in.jobIndex(route[tRank-1])
			previousCost = in.Matrix[pIndex][c1Index]
			oldEdgeCost = in.Matrix[pIndex][nIndex]
		}
	}
	return previousCost + nextCost - oldEdgeCost
}

// costAroundNode is the cost of the edges a job at matrix position jIndex
// would have if it occupied rank r of route v (which stays occupied, so no
// bridge term applies). Used by Exchange to price a swapped-in job.
func (e *Engine) costAroundNode(v, r, jIndex int) Cost {
	in := e.in
	route := e.sol[v]
	veh := in.Vehicles[v]

	var previousCost, nextCost Cost
	if r == 0 {
		if veh.Start != nil {
			previousCost = in.Matrix[*veh.Start][jIndex]
		}
	} else {
		previousCost = in.Matrix[in.jobIndex(route[r-1])][jIndex]
	}
	if r == len(route)-1 {
		if veh.End != nil {
			nextCost = in.Matrix[jIndex][*veh.End]
		}
	} else {
		nextCost = in.Matrix[jIndex][in.jobIndex(route[r+1])]
	}
	return previousCost + nextCost
}

// costAroundEdge prices a two-job segment (c1Index, c2Index) occupying edge
// rank r of route v: the legs into c1 and out of c2. The segment's internal
// edge is the caller's business.
func (e *Engine) costAroundEdge(v, r, c1Index, c2Index int) Cost {
	in := e.in
	route := e.sol[v]
	veh := in.Vehicles[v]

	var previousCost, nextCost Cost
	if r == 0 {
		if veh.Start != nil {
			previousCost = in.Matrix[*veh.Start][c1Index]
		}
	} else {
		previousCost = in.Matrix[in.jobIndex(route[r-1])][c1Index]
	}
	if r+1 == len(route)-1 {
		if veh.End != nil {
			nextCost = in.Matrix[c2Index][*veh.End]
		}
	} else {
		nextCost = in.Matrix[c2Index][in.jobIndex(route[r+2])]
	}
	return previousCost + nextCost
}
