package solver

import "fmt"

// exchange swaps single jobs between two routes. The operator is symmetric
// in its vehicles; the exhaustive regime therefore only enumerates ordered
// pairs with tVehicle > sVehicle.
type exchange struct {
	moveBase
}

func newExchange(e *Engine, sVehicle, sRank, tVehicle, tRank int) exchange {
	return exchange{moveBase{e: e, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
}

func (x exchange) valid() bool {
	e := x.e
	if x.sRank >= len(e.sol[x.sVehicle]) || x.tRank >= len(e.sol[x.tVehicle]) {
		return false
	}
	js := e.sol[x.sVehicle][x.sRank]
	jt := e.sol[x.tVehicle][x.tRank]
	if !e.in.vehicleOK(x.tVehicle, js) || !e.in.vehicleOK(x.sVehicle, jt) {
		return false
	}
	// Capacity from the demand delta, not a prefix rebuild.
	sLoad := e.totalAmount(x.sVehicle).Sub(e.in.Jobs[js].Amount).Add(e.in.Jobs[jt].Amount)
	if !sLoad.LTE(e.in.Vehicles[x.sVehicle].Capacity) {
		return false
	}
	tLoad := e.totalAmount(x.tVehicle).Sub(e.in.Jobs[jt].Amount).Add(e.in.Jobs[js].Amount)
	return tLoad.LTE(e.in.Vehicles[x.tVehicle].Capacity)
}

func (x exchange) gain() Cost {
	e := x.e
	js := e.sol[x.sVehicle][x.sRank]
	jt := e.sol[x.tVehicle][x.tRank]
	current := e.gains.edgeCostsAroundNode[x.sVehicle][x.sRank] +
		e.gains.edgeCostsAroundNode[x.tVehicle][x.tRank]
	swapped := e.costAroundNode(x.sVehicle, x.sRank, e.in.jobIndex(jt)) +
		e.costAroundNode(x.tVehicle, x.tRank, e.in.jobIndex(js))
	return current - swapped
}

func (x exchange) apply() {
	e := x.e
	e.sol[x.sVehicle][x.sRank], e.sol[x.tVehicle][x.tRank] =
		e.sol[x.tVehicle][x.tRank], e.sol[x.sVehicle][x.sRank]
}

func (x exchange) describe() string {
	return fmt.Sprintf("exchange %s", x.coords())
}
