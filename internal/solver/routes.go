package solver

// Route state bookkeeping: every vehicle v owns an ordered job sequence
// e.sol[v] and a matching prefix-sum ladder e.amounts[v], where
// e.amounts[v][i] is the load after serving ranks 0..i.

// updateAmounts rebuilds the cumulative load ladder for vehicle v from
// scratch. The driver calls this after every accepted move; localized edits
// (the reinserter) patch the ladder incrementally instead.
func (e *Engine) updateAmounts(v int) {
	route := e.sol[v]
	e.amounts[v] = make([]Amount, len(route))
	current := ZeroAmount(e.in.AmountSize())
	for i, j := range route {
		current = current.Add(e.in.Jobs[j].Amount)
		e.amounts[v][i] = current
	}
}

// totalAmount is the full load of vehicle v, the last prefix entry.
func (e *Engine) totalAmount(v int) Amount {
	if len(e.amounts[v]) == 0 {
		return ZeroAmount(e.in.AmountSize())
	}
	return e.amounts[v][len(e.amounts[v])-1]
}

// insertJob places job j at rank in route v and patches the amount ladder
// from the insertion point forward.
func (e *Engine) insertJob(v, rank, j int) {
	route := e.sol[v]
	route = append(route, 0)
	copy(route[rank+1:], route[rank:])
	route[rank] = j
	e.sol[v] = route

	amount := e.in.Jobs[j].Amount
	ladder := e.amounts[v]
	var base Amount
	if rank == 0 {
		base = ZeroAmount(e.in.AmountSize())
	} else {
		base = ladder[rank-1]
	}
	ladder = append(ladder, nil)
	copy(ladder[rank+1:], ladder[rank:])
	ladder[rank] = base.Add(amount)
	for i := rank + 1; i < len(ladder); i++ {
		ladder[i] = ladder[i].Add(amount)
	}
	e.amounts[v] = ladder
}
