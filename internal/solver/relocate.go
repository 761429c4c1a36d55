package solver

import "fmt"

// relocate removes the job at sRank of the source route and inserts it at
// tRank of the target route (tRank may equal the target length to append).
type relocate struct {
	moveBase
}

func newRelocate(e *Engine, sVehicle, sRank, tVehicle, tRank int) relocate {
	return relocate{moveBase{e: e, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
}

func (r relocate) valid() bool {
	e := r.e
	if r.sRank >= len(e.sol[r.sVehicle]) || r.tRank > len(e.sol[r.tVehicle]) {
		return false
	}
	j := e.sol[r.sVehicle][r.sRank]
	if !e.in.vehicleOK(r.tVehicle, j) {
		return false
	}
	load := e.totalAmount(r.tVehicle).Add(e.in.Jobs[j].Amount)
	return load.LTE(e.in.Vehicles[r.tVehicle].Capacity)
}

func (r relocate) gain() Cost {
	e := r.e
	j := e.sol[r.sVehicle][r.sRank]
	return e.gains.nodeGains[r.sVehicle][r.sRank] - e.insertionCost(r.tVehicle, r.tRank, e.in.jobIndex(j))
}

func (r relocate) apply() {
	e := r.e
	j := e.sol[r.sVehicle][r.sRank]
	e.sol[r.sVehicle] = append(e.sol[r.sVehicle][:r.sRank], e.sol[r.sVehicle][r.sRank+1:]...)
	target := e.sol[r.tVehicle]
	target = append(target, 0)
	copy(target[r.tRank+1:], target[r.tRank:])
	target[r.tRank] = j
	e.sol[r.tVehicle] = target
}

func (r relocate) describe() string {
	return fmt.Sprintf("relocate %s", r.coords())
}
