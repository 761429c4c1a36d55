package api

import (
	"fmt"

	"fleetopt/internal/model"
)

func validateProblem(p *model.ProblemIn) error {
	if len(p.Jobs) == 0 {
		return fmt.Errorf("jobs required")
	}
	if len(p.Vehicles) == 0 {
		return fmt.Errorf("vehicles required")
	}
	n := len(p.Matrix)
	if n == 0 {
		return fmt.Errorf("matrix required")
	}
	for i, row := range p.Matrix {
		if len(row) != n {
			return fmt.Errorf("matrix row %d has %d entries, want %d", i, len(row), n)
		}
	}
	arity := len(p.Jobs[0].Amount)
	for _, j := range p.Jobs {
		if j.Index < 0 || j.Index >= n {
			return fmt.Errorf("job %s: index %d out of matrix range", j.ID, j.Index)
		}
		if len(j.Amount) != arity {
			return fmt.Errorf("job %s: amount arity %d, want %d", j.ID, len(j.Amount), arity)
		}
		for _, a := range j.Amount {
			if a < 0 {
				return fmt.Errorf("job %s: negative amount", j.ID)
			}
		}
	}
	for _, v := range p.Vehicles {
		if len(v.Capacity) != arity {
			return fmt.Errorf("vehicle %s: capacity arity %d, want %d", v.ID, len(v.Capacity), arity)
		}
		if v.Start != nil && (*v.Start < 0 || *v.Start >= n) {
			return fmt.Errorf("vehicle %s: start index out of matrix range", v.ID)
		}
		if v.End != nil && (*v.End < 0 || *v.End >= n) {
			return fmt.Errorf("vehicle %s: end index out of matrix range", v.ID)
		}
	}
	return nil
}

func validateSolveRequest(req *model.SolveRequest) error {
	if req.Effort != "" && req.Effort != "fast" && req.Effort != "balanced" && req.Effort != "full" {
		return fmt.Errorf("invalid effort: %s (allowed: fast, balanced, full)", req.Effort)
	}
	if req.Problem == nil && req.ProblemID == "" {
		return fmt.Errorf("either problem or problemId required")
	}
	if req.Problem != nil && req.ProblemID != "" {
		return fmt.Errorf("problem and problemId are mutually exclusive")
	}
	if req.Problem != nil {
		return validateProblem(req.Problem)
	}
	return nil
}
