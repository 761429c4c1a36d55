package solver

// GreedySeed builds an initial feasible assignment: cycle over the
// vehicles, each time appending the eligible unrouted job that is cheapest
// to reach from the route's current tail, until no vehicle can take
// anything more. Jobs that fit nowhere stay unassigned; the engine's
// reinserter gets another chance at them later.
func GreedySeed(in *Input) [][]int {
	routes := make([][]int, len(in.Vehicles))
	totals := make([]Amount, len(in.Vehicles))
	for v := range totals {
		totals[v] = ZeroAmount(in.AmountSize())
	}
	used := make([]bool, len(in.Jobs))

	assigned := 0
	for assigned < len(in.Jobs) {
		progress := false
		for v := range in.Vehicles {
			bestJob := -1
			var bestDelta Cost
			for j := range in.Jobs {
				if used[j] || !in.vehicleOK(v, j) {
					continue
				}
				if !totals[v].Add(in.Jobs[j].Amount).LTE(in.Vehicles[v].Capacity) {
					continue
				}
				var delta Cost
				if len(routes[v]) == 0 {
					delta = in.StartCost(v, in.jobIndex(j))
				} else {
					last := in.jobIndex(routes[v][len(routes[v])-1])
					delta = in.Matrix[last][in.jobIndex(j)]
				}
				if bestJob == -1 || delta < bestDelta {
					bestDelta = delta
					bestJob = j
				}
			}
			if bestJob >= 0 {
				routes[v] = append(routes[v], bestJob)
				totals[v] = totals[v].Add(in.Jobs[bestJob].Amount)
				used[bestJob] = true
				assigned++
				progress = true
				if assigned == len(in.Jobs) {
					break
				}
			}
		}
		if !progress {
			break
		}
	}
	return routes
}
