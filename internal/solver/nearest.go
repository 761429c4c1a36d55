package solver

// nearestIndex answers, for the job at rank r1 of route v1, which rank of
// route v2 holds the job nearest from it (outgoing cost) and nearest to it
// (incoming cost). Rows are recomputed whenever either route of the pair
// changes; ties break on the smallest rank. An empty target route leaves
// the row entries at rank 0.
type nearestIndex struct {
	from [][][]int
	to   [][][]int
}

func newNearestIndex(v int) nearestIndex {
	idx := nearestIndex{
		from: make([][][]int, v),
		to:   make([][][]int, v),
	}
	for i := range idx.from {
		idx.from[i] = make([][]int, v)
		idx.to[i] = make([][]int, v)
	}
	return idx
}

func (e *Engine) updateNearestJobRanks(v1, v2 int) {
	r1len := len(e.sol[v1])
	e.nearest.from[v1][v2] = make([]int, r1len)
	e.nearest.to[v1][v2] = make([]int, r1len)

	for r1 := 0; r1 < r1len; r1++ {
		indexR1 := e.in.jobIndex(e.sol[v1][r1])

		var minFrom, minTo Cost
		bestFromRank, bestToRank := 0, 0
		for r2, j2 := range e.sol[v2] {
			indexR2 := e.in.jobIndex(j2)
			if r2 == 0 || e.in.Matrix[indexR1][indexR2] < minFrom {
				minFrom = e.in.Matrix[indexR1][indexR2]
				bestFromRank = r2
			}
			if r2 == 0 || e.in.Matrix[indexR2][indexR1] < minTo {
				minTo = e.in.Matrix[indexR2][indexR1]
				bestToRank = r2
			}
		}

		e.nearest.from[v1][v2][r1] = bestFromRank
		e.nearest.to[v1][v2][r1] = bestToRank
	}
}
