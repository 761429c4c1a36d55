package solver

// gainCache holds, per route, the cost saved by removing each single job
// (node gains) or each two-job segment (edge gains), the raw cost of the
// edges around each, and the rank with the best gain. Operators read the
// cache; only the driver writes it. It is owned by the engine - there is no
// package-level state.
type gainCache struct {
	nodeGains           [][]Cost
	edgeCostsAroundNode [][]Cost
	nodeCandidates      []int

	edgeGains           [][]Cost
	edgeCostsAroundEdge [][]Cost
	edgeCandidates      []int
}

func newGainCache(v int) gainCache {
	return gainCache{
		nodeGains:           make([][]Cost, v),
		edgeCostsAroundNode: make([][]Cost, v),
		nodeCandidates:      make([]int, v),
		edgeGains:           make([][]Cost, v),
		edgeCostsAroundEdge: make([][]Cost, v),
		edgeCandidates:      make([]int, v),
	}
}

// setNodeGains recomputes node gains for vehicle v. Removing the job at
// rank i saves the edges around it minus the bridge edge that replaces
// them; ranks 0 and n-1 take open-tour handling since either neighbor may
// be a depot or missing entirely.
func (e *Engine) setNodeGains(v int) {
	route := e.sol[v]
	e.gains.nodeGains[v] = make([]Cost, len(route))
	e.gains.edgeCostsAroundNode[v] = make([]Cost, len(route))

	if len(route) == 0 {
		return
	}

	in := e.in
	veh := in.Vehicles[v]
	cIndex := in.jobIndex(route[0])

	var previousCost, nextCost, newEdgeCost Cost

	if veh.Start != nil {
		pIndex := *veh.Start
		previousCost = in.Matrix[pIndex][cIndex]
		if len(route) > 1 {
			nIndex := in.jobIndex(route[1])
			nextCost = in.Matrix[cIndex][nIndex]
			newEdgeCost = in.Matrix[pIndex][nIndex]
		} else if veh.End != nil {
			// Single job, also the last one. No bridge: removing it
			// leaves the vehicle idle rather than deadheading start
			// to end.
			nextCost = in.Matrix[cIndex][*veh.End]
		}
	} else {
		if len(route) > 1 {
			nextCost = in.Matrix[cIndex][in.jobIndex(route[1])]
		} else if veh.End != nil {
			nextCost = in.Matrix[cIndex][*veh.End]
		}
	}

	edgesCostsAround := previousCost + nextCost
	e.gains.edgeCostsAroundNode[v][0] = edgesCostsAround

	currentGain := edgesCostsAround - newEdgeCost
	e.gains.nodeGains[v][0] = currentGain
	bestGain := currentGain
	e.gains.nodeCandidates[v] = 0

	if len(route) == 1 {
		return
	}

	// Interior jobs always have a previous and next job.
	for i := 1; i < len(route)-1; i++ {
		pIndex := in.jobIndex(route[i-1])
		cIndex = in.jobIndex(route[i])
		nIndex := in.jobIndex(route[i+1])

		edgesCostsAround = in.Matrix[pIndex][cIndex] + in.Matrix[cIndex][nIndex]
		e.gains.edgeCostsAroundNode[v][i] = edgesCostsAround

		currentGain = edgesCostsAround - in.Matrix[pIndex][nIndex]
		e.gains.nodeGains[v][i] = currentGain

		if currentGain > bestGain {
			bestGain = currentGain
			e.gains.nodeCandidates[v] = i
		}
	}

	lastRank := len(route) - 1
	cIndex = in.jobIndex(route[lastRank])

	previousCost, nextCost, newEdgeCost = 0, 0, 0

	if veh.End != nil {
		nIndex := *veh.End
		nextCost = in.Matrix[cIndex][nIndex]
		pIndex := in.jobIndex(route[lastRank-1])
		previousCost = in.Matrix[pIndex][cIndex]
		newEdgeCost = in.Matrix[pIndex][nIndex]
	} else {
		pIndex := in.jobIndex(route[lastRank-1])
		previousCost = in.Matrix[pIndex][cIndex]
	}

	edgesCostsAround = previousCost + nextCost
	e.gains.edgeCostsAroundNode[v][lastRank] = edgesCostsAround

	currentGain = edgesCostsAround - newEdgeCost
	e.gains.nodeGains[v][lastRank] = currentGain

	// Candidate moves to the last rank without refreshing bestGain; a
	// matching rendition of the reference engine, kept so move selection
	// is identical on identical inputs.
	if currentGain > bestGain {
		e.gains.nodeCandidates[v] = lastRank
	}
}

// setEdgeGains recomputes two-job segment gains for vehicle v. The segment
// keeps its internal edge wherever it goes, so only the surrounding edges
// and the bridge count.
func (e *Engine) setEdgeGains(v int) {
	route := e.sol[v]
	nbEdges := 0
	if len(route) >= 2 {
		nbEdges = len(route) - 1
	}

	e.gains.edgeGains[v] = make([]Cost, nbEdges)
	e.gains.edgeCostsAroundEdge[v] = make([]Cost, nbEdges)

	if nbEdges == 0 {
		return
	}

	in := e.in
	veh := in.Vehicles[v]
	cIndex := in.jobIndex(route[0])
	afterCIndex := in.jobIndex(route[1])

	var previousCost, nextCost, newEdgeCost Cost

	if veh.Start != nil {
		pIndex := *veh.Start
		previousCost = in.Matrix[pIndex][cIndex]
		if len(route) > 2 {
			nIndex := in.jobIndex(route[2])
			nextCost = in.Matrix[afterCIndex][nIndex]
			newEdgeCost = in.Matrix[pIndex][nIndex]
		} else if veh.End != nil {
			nextCost = in.Matrix[afterCIndex][*veh.End]
		}
	} else {
		if len(route) > 2 {
			nextCost = in.Matrix[afterCIndex][in.jobIndex(route[2])]
		} else if veh.End != nil {
			nextCost = in.Matrix[afterCIndex][*veh.End]
		}
	}

	edgesCostsAround := previousCost + nextCost
	e.gains.edgeCostsAroundEdge[v][0] = edgesCostsAround

	currentGain := edgesCostsAround - newEdgeCost
	e.gains.edgeGains[v][0] = currentGain
	bestGain := currentGain
	e.gains.edgeCandidates[v] = 0

	if len(route) == 2 {
		return
	}

	for i := 1; i < nbEdges-1; i++ {
		pIndex := in.jobIndex(route[i-1])
		cIndex = in.jobIndex(route[i])
		afterCIndex = in.jobIndex(route[i+1])
		nIndex := in.jobIndex(route[i+2])

		edgesCostsAround = in.Matrix[pIndex][cIndex] + in.Matrix[afterCIndex][nIndex]
		e.gains.edgeCostsAroundEdge[v][i] = edgesCostsAround

		currentGain = edgesCostsAround - in.Matrix[pIndex][nIndex]
		e.gains.edgeGains[v][i] = currentGain

		if currentGain > bestGain {
			bestGain = currentGain
			e.gains.edgeCandidates[v] = i
		}
	}

	lastEdgeRank := nbEdges - 1
	cIndex = in.jobIndex(route[lastEdgeRank])
	afterCIndex = in.jobIndex(route[lastEdgeRank+1])

	previousCost, nextCost, newEdgeCost = 0, 0, 0

	if veh.End != nil {
		nIndex := *veh.End
		nextCost = in.Matrix[afterCIndex][nIndex]
		pIndex := in.jobIndex(route[lastEdgeRank-1])
		previousCost = in.Matrix[pIndex][cIndex]
		newEdgeCost = in.Matrix[pIndex][nIndex]
	} else {
		pIndex := in.jobIndex(route[lastEdgeRank-1])
		previousCost = in.Matrix[pIndex][cIndex]
	}

	edgesCostsAround = previousCost + nextCost
	e.gains.edgeCostsAroundEdge[v][lastEdgeRank] = edgesCostsAround

	currentGain = edgesCostsAround - newEdgeCost
	e.gains.edgeGains[v][lastEdgeRank] = currentGain

	if currentGain > bestGain {
		e.gains.edgeCandidates[v] = lastEdgeRank
	}
}
