package solver

import "fmt"

// orOpt moves the two-job segment starting at sRank into the target route
// at tRank, keeping the segment order.
type orOpt struct {
	moveBase
}

func newOrOpt(e *Engine, sVehicle, sRank, tVehicle, tRank int) orOpt {
	return orOpt{moveBase{e: e, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
}

func (o orOpt) valid() bool {
	e := o.e
	if len(e.sol[o.sVehicle]) < 2 || o.sRank > len(e.sol[o.sVehicle])-2 {
		return false
	}
	if o.tRank > len(e.sol[o.tVehicle]) {
		return false
	}
	c1 := e.sol[o.sVehicle][o.sRank]
	c2 := e.sol[o.sVehicle][o.sRank+1]
	if !e.in.vehicleOK(o.tVehicle, c1) || !e.in.vehicleOK(o.tVehicle, c2) {
		return false
	}
	load := e.totalAmount(o.tVehicle).Add(e.in.Jobs[c1].Amount).Add(e.in.Jobs[c2].Amount)
	return load.LTE(e.in.Vehicles[o.tVehicle].Capacity)
}

func (o orOpt) gain() Cost {
	e := o.e
	c1 := e.sol[o.sVehicle][o.sRank]
	c2 := e.sol[o.sVehicle][o.sRank+1]
	return e.gains.edgeGains[o.sVehicle][o.sRank] -
		e.segmentInsertionCost(o.tVehicle, o.tRank, e.in.jobIndex(c1), e.in.jobIndex(c2))
}

func (o orOpt) apply() {
	e := o.e
	c1 := e.sol[o.sVehicle][o.sRank]
	c2 := e.sol[o.sVehicle][o.sRank+1]
	e.sol[o.sVehicle] = append(e.sol[o.sVehicle][:o.sRank], e.sol[o.sVehicle][o.sRank+2:]...)
	target := e.sol[o.tVehicle]
	target = append(target, 0, 0)
	copy(target[o.tRank+2:], target[o.tRank:])
	target[o.tRank] = c1
	target[o.tRank+1] = c2
	e.sol[o.tVehicle] = target
}

func (o orOpt) describe() string {
	return fmt.Sprintf("or-opt %s", o.coords())
}
