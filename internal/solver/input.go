package solver

import "fmt"

// Cost is a signed travel cost. Gains are cost differences and share the
// type; int64 holds any sum of matrix rows this engine will see.
type Cost int64

// Job is a serviceable task: a stable id, a position in the cost matrix and
// a demand vector.
type Job struct {
	ID     string
	Index  int
	Amount Amount
}

// Vehicle has optional start and end depots (matrix positions); a route
// missing one is open on that side and the corresponding leg costs zero.
type Vehicle struct {
	ID       string
	Start    *int
	End      *int
	Capacity Amount
}

// Input is the read-only problem description the engine works against. The
// matrix and tables may be shared; the engine never mutates them.
type Input struct {
	Jobs     []Job
	Vehicles []Vehicle
	Matrix   [][]Cost

	// VehicleOK reports whether vehicle v may serve job j (both by rank).
	// nil means every vehicle may serve every job.
	VehicleOK func(v, j int) bool
}

func (in *Input) vehicleOK(v, j int) bool {
	if in.VehicleOK == nil {
		return true
	}
	return in.VehicleOK(v, j)
}

// Validate checks the problem description itself, before any solution is
// attached to it.
func (in *Input) Validate() error {
	n := len(in.Matrix)
	for i, row := range in.Matrix {
		if len(row) != n {
			return fmt.Errorf("matrix row %d has %d entries, want %d", i, len(row), n)
		}
	}
	arity := in.AmountSize()
	for j, job := range in.Jobs {
		if job.Index < 0 || job.Index >= n {
			return fmt.Errorf("job %d (%s): matrix index %d out of range [0,%d)", j, job.ID, job.Index, n)
		}
		if len(job.Amount) != arity {
			return fmt.Errorf("job %d (%s): amount arity %d, want %d", j, job.ID, len(job.Amount), arity)
		}
	}
	for v, veh := range in.Vehicles {
		if len(veh.Capacity) != arity {
			return fmt.Errorf("vehicle %d (%s): capacity arity %d, want %d", v, veh.ID, len(veh.Capacity), arity)
		}
		if veh.Start != nil && (*veh.Start < 0 || *veh.Start >= n) {
			return fmt.Errorf("vehicle %d (%s): start index %d out of range", v, veh.ID, *veh.Start)
		}
		if veh.End != nil && (*veh.End < 0 || *veh.End >= n) {
			return fmt.Errorf("vehicle %d (%s): end index %d out of range", v, veh.ID, *veh.End)
		}
	}
	return nil
}

// AmountSize is the arity of every demand and capacity vector.
func (in *Input) AmountSize() int {
	if len(in.Jobs) > 0 {
		return len(in.Jobs[0].Amount)
	}
	if len(in.Vehicles) > 0 {
		return len(in.Vehicles[0].Capacity)
	}
	return 0
}

// AmountLowerBound is a vector componentwise <= every job's demand, used as
// a coarse capacity prescreen when picking candidate target routes.
func (in *Input) AmountLowerBound() Amount {
	bound := ZeroAmount(in.AmountSize())
	for r := range bound {
		for j, job := range in.Jobs {
			if j == 0 || job.Amount[r] < bound[r] {
				bound[r] = job.Amount[r]
			}
		}
	}
	return bound
}

func (in *Input) jobIndex(j int) int { return in.Jobs[j].Index }

// EdgeCost is the directed cost between two matrix positions.
func (in *Input) EdgeCost(a, b int) Cost { return in.Matrix[a][b] }

// StartCost is the leg from vehicle v's start depot to matrix position idx,
// zero when the route is open at its start.
func (in *Input) StartCost(v, idx int) Cost {
	if s := in.Vehicles[v].Start; s != nil {
		return in.Matrix[*s][idx]
	}
	return 0
}

// EndCost is the leg from matrix position idx to vehicle v's end depot,
// zero when the route is open at its end.
func (in *Input) EndCost(idx, v int) Cost {
	if e := in.Vehicles[v].End; e != nil {
		return in.Matrix[idx][*e]
	}
	return 0
}

// RouteCost is the open-tour-aware cost of serving route (a sequence of job
// ranks) with vehicle v.
func (in *Input) RouteCost(v int, route []int) Cost {
	if len(route) == 0 {
		return 0
	}
	cost := in.StartCost(v, in.jobIndex(route[0]))
	prev := in.jobIndex(route[0])
	for _, j := range route[1:] {
		idx := in.jobIndex(j)
		cost += in.Matrix[prev][idx]
		prev = idx
	}
	cost += in.EndCost(prev, v)
	return cost
}

// CheckSolution verifies that an initial assignment is feasible: every route
// references known jobs without duplicates, only eligible jobs, and within
// vehicle capacity. The engine refuses to start otherwise.
func (in *Input) CheckSolution(routes [][]int) error {
	if len(routes) != len(in.Vehicles) {
		return fmt.Errorf("solution has %d routes, want %d", len(routes), len(in.Vehicles))
	}
	seen := make(map[int]bool, len(in.Jobs))
	for v, route := range routes {
		total := ZeroAmount(in.AmountSize())
		for r, j := range route {
			if j < 0 || j >= len(in.Jobs) {
				return fmt.Errorf("vehicle %d rank %d: unknown job %d", v, r, j)
			}
			if seen[j] {
				return fmt.Errorf("vehicle %d rank %d: job %s assigned twice", v, r, in.Jobs[j].ID)
			}
			seen[j] = true
			if !in.vehicleOK(v, j) {
				return fmt.Errorf("vehicle %d rank %d: job %s not eligible", v, r, in.Jobs[j].ID)
			}
			total.AddInPlace(in.Jobs[j].Amount)
			if !total.LTE(in.Vehicles[v].Capacity) {
				return fmt.Errorf("vehicle %d rank %d: load %v exceeds capacity %v", v, r, total, in.Vehicles[v].Capacity)
			}
		}
	}
	return nil
}
