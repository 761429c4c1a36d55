package solver

import "fmt"

// crossExchange swaps the two-job segments starting at sRank and tRank,
// each keeping its internal order. Symmetric like exchange.
type crossExchange struct {
	moveBase
}

func newCrossExchange(e *Engine, sVehicle, sRank, tVehicle, tRank int) crossExchange {
	return crossExchange{moveBase{e: e, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
}

func (c crossExchange) valid() bool {
	e := c.e
	if len(e.sol[c.sVehicle]) < 2 || c.sRank > len(e.sol[c.sVehicle])-2 {
		return false
	}
	if len(e.sol[c.tVehicle]) < 2 || c.tRank > len(e.sol[c.tVehicle])-2 {
		return false
	}
	s1 := e.sol[c.sVehicle][c.sRank]
	s2 := e.sol[c.sVehicle][c.sRank+1]
	t1 := e.sol[c.tVehicle][c.tRank]
	t2 := e.sol[c.tVehicle][c.tRank+1]
	if !e.in.vehicleOK(c.tVehicle, s1) || !e.in.vehicleOK(c.tVehicle, s2) ||
		!e.in.vehicleOK(c.sVehicle, t1) || !e.in.vehicleOK(c.sVehicle, t2) {
		return false
	}
	sSeg := e.in.Jobs[s1].Amount.Add(e.in.Jobs[s2].Amount)
	tSeg := e.in.Jobs[t1].Amount.Add(e.in.Jobs[t2].Amount)
	sLoad := e.totalAmount(c.sVehicle).Sub(sSeg).Add(tSeg)
	if !sLoad.LTE(e.in.Vehicles[c.sVehicle].Capacity) {
		return false
	}
	tLoad := e.totalAmount(c.tVehicle).Sub(tSeg).Add(sSeg)
	return tLoad.LTE(e.in.Vehicles[c.tVehicle].Capacity)
}

func (c crossExchange) gain() Cost {
	e := c.e
	s1 := e.in.jobIndex(e.sol[c.sVehicle][c.sRank])
	s2 := e.in.jobIndex(e.sol[c.sVehicle][c.sRank+1])
	t1 := e.in.jobIndex(e.sol[c.tVehicle][c.tRank])
	t2 := e.in.jobIndex(e.sol[c.tVehicle][c.tRank+1])
	current := e.gains.edgeCostsAroundEdge[c.sVehicle][c.sRank] +
		e.gains.edgeCostsAroundEdge[c.tVehicle][c.tRank]
	swapped := e.costAroundEdge(c.sVehicle, c.sRank, t1, t2) +
		e.costAroundEdge(c.tVehicle, c.tRank, s1, s2)
	return current - swapped
}

func (c crossExchange) apply() {
	e := c.e
	e.sol[c.sVehicle][c.sRank], e.sol[c.tVehicle][c.tRank] =
		e.sol[c.tVehicle][c.tRank], e.sol[c.sVehicle][c.sRank]
	e.sol[c.sVehicle][c.sRank+1], e.sol[c.tVehicle][c.tRank+1] =
		e.sol[c.tVehicle][c.tRank+1], e.sol[c.sVehicle][c.sRank+1]
}

func (c crossExchange) describe() string {
	return fmt.Sprintf("cross-exchange %s", c.coords())
}
