package solver

import "sort"

// tryJobAdditions greedily re-inserts unassigned jobs into the given routes:
// repeatedly pick the cheapest feasible (job, route, rank) insertion and
// take it, until nothing fits. Insertions are taken even when they worsen
// total cost - serving a job always beats leaving it unassigned.
func (e *Engine) tryJobAdditions(routes []int) {
	for {
		var (
			found     bool
			bestCost  Cost
			bestJob   int
			bestRoute int
			bestRank  int
		)

		pending := make([]int, 0, len(e.unassigned))
		for j := range e.unassigned {
			pending = append(pending, j)
		}
		sort.Ints(pending)

		for _, v := range routes {
			vAmount := e.totalAmount(v)
			for _, j := range pending {
				if !e.in.vehicleOK(v, j) {
					continue
				}
				if !vAmount.Add(e.in.Jobs[j].Amount).LTE(e.in.Vehicles[v].Capacity) {
					continue
				}
				indexJ := e.in.jobIndex(j)
				for r := 0; r <= len(e.sol[v]); r++ {
					currentCost := e.insertionCost(v, r, indexJ)
					if !found || currentCost < bestCost {
						found = true
						bestCost = currentCost
						bestJob = j
						bestRoute = v
						bestRank = r
					}
				}
			}
		}

		if !found {
			return
		}

		e.insertJob(bestRoute, bestRank, bestJob)
		delete(e.unassigned, bestJob)
		e.Metrics.JobsAdded++
		if e.OnMove != nil {
			e.OnMove("add job " + e.in.Jobs[bestJob].ID + " to route " + e.in.Vehicles[bestRoute].ID)
		}
	}
}
