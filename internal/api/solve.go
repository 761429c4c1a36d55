package api

import (
    "context"
    "fmt"
    "strings"
    "time"

    "fleetopt/internal/metrics"
    "fleetopt/internal/model"
    "fleetopt/internal/solver"
)

// buildInput converts a wire problem into the solver's read-only input.
func buildInput(p model.ProblemIn) (*solver.Input, error) {
    if len(p.Jobs) == 0 { return nil, fmt.Errorf("problem has no jobs") }
    if len(p.Vehicles) == 0 { return nil, fmt.Errorf("problem has no vehicles") }

    in := &solver.Input{}
    jobRank := map[string]int{}
    for i, j := range p.Jobs {
        if j.ID == "" { return nil, fmt.Errorf("job %d: missing id", i) }
        if _, dup := jobRank[j.ID]; dup { return nil, fmt.Errorf("duplicate job id %q", j.ID) }
        jobRank[j.ID] = i
        in.Jobs = append(in.Jobs, solver.Job{ID: j.ID, Index: j.Index, Amount: solver.Amount(j.Amount)})
    }
    vehRank := map[string]int{}
    for i, v := range p.Vehicles {
        if v.ID == "" { return nil, fmt.Errorf("vehicle %d: missing id", i) }
        if _, dup := vehRank[v.ID]; dup { return nil, fmt.Errorf("duplicate vehicle id %q", v.ID) }
        vehRank[v.ID] = i
        in.Vehicles = append(in.Vehicles, solver.Vehicle{ID: v.ID, Start: v.Start, End: v.End, Capacity: solver.Amount(v.Capacity)})
    }
    in.Matrix = make([][]solver.Cost, len(p.Matrix))
    for i, row := range p.Matrix {
        in.Matrix[i] = make([]solver.Cost, len(row))
        for j, c := range row {
            in.Matrix[i][j] = solver.Cost(c)
        }
    }
    // Per-job vehicle allowlists become the eligibility predicate.
    allowed := map[int]map[int]bool{}
    for i, j := range p.Jobs {
        if len(j.AllowedVehicles) == 0 { continue }
        set := map[int]bool{}
        for _, vid := range j.AllowedVehicles {
            vr, ok := vehRank[vid]
            if !ok { return nil, fmt.Errorf("job %q allows unknown vehicle %q", j.ID, vid) }
            set[vr] = true
        }
        allowed[i] = set
    }
    if len(allowed) > 0 {
        in.VehicleOK = func(v, j int) bool {
            set, restricted := allowed[j]
            return !restricted || set[v]
        }
    }
    if err := in.Validate(); err != nil { return nil, err }
    return in, nil
}

func effortRegime(effort string) (solver.Regime, error) {
    switch effort {
    case "", "full":
        return solver.RegimeExhaustive, nil
    case "balanced":
        return solver.RegimeFixedSource, nil
    case "fast":
        return solver.RegimeFixedSourceTarget, nil
    }
    return 0, fmt.Errorf("invalid effort: %s", effort)
}

// runSolve executes the local search and assembles the stored solution.
func (s *Server) runSolve(ctx context.Context, tenant string, req model.SolveRequest, p model.ProblemIn) (model.Solution, error) {
    in, err := buildInput(p)
    if err != nil { return model.Solution{}, err }
    upTo, err := effortRegime(req.Effort)
    if err != nil { return model.Solution{}, err }

    var routes [][]int
    if len(req.InitialRoutes) > 0 {
        if len(req.InitialRoutes) != len(p.Vehicles) {
            return model.Solution{}, fmt.Errorf("initialRoutes has %d routes, want %d", len(req.InitialRoutes), len(p.Vehicles))
        }
        byID := map[string]int{}
        for i, j := range in.Jobs { byID[j.ID] = i }
        routes = make([][]int, len(req.InitialRoutes))
        for v, ids := range req.InitialRoutes {
            for _, id := range ids {
                j, ok := byID[id]
                if !ok { return model.Solution{}, fmt.Errorf("initialRoutes: unknown job %q", id) }
                routes[v] = append(routes[v], j)
            }
        }
    } else {
        routes = solver.GreedySeed(in)
    }

    eng, err := solver.NewEngine(in, routes)
    if err != nil { return model.Solution{}, err }

    solveID := req.SolveID
    eng.OnMove = func(desc string) {
        family := desc
        if i := strings.IndexByte(desc, ' '); i > 0 { family = desc[:i] }
        metrics.SolveMoves.WithLabelValues(family).Inc()
        if solveID != "" {
            s.Broker.Publish(solveID, SSEEvent{Type: "search.move", Data: map[string]any{"solveId": solveID, "move": desc}})
        }
    }
    if req.LogSteps && solveID != "" {
        eng.OnStep = func(step int, stepRoutes [][]int) {
            out := make([][]string, len(stepRoutes))
            for v, route := range stepRoutes {
                out[v] = make([]string, len(route))
                for i, j := range route { out[v][i] = in.Jobs[j].ID }
            }
            s.Broker.Publish(solveID, SSEEvent{Type: "search.step", Data: map[string]any{"solveId": solveID, "step": step, "routes": out}})
        }
    }

    initialCost := eng.Cost()
    start := time.Now()
    if err := eng.RunRegimes(ctx, upTo); err != nil { return model.Solution{}, err }
    elapsed := time.Since(start)

    sol := model.Solution{
        SolveID:   solveID,
        TenantID:  tenant,
        ProblemID: req.ProblemID,
    }
    finalRoutes := eng.Routes()
    for v, route := range finalRoutes {
        r := model.RouteOut{VehicleID: in.Vehicles[v].ID, Jobs: make([]string, len(route)), Cost: int64(in.RouteCost(v, route))}
        for i, j := range route { r.Jobs[i] = in.Jobs[j].ID }
        sol.Routes = append(sol.Routes, r)
    }
    sol.Unassigned = []string{}
    for _, j := range eng.Unassigned() {
        sol.Unassigned = append(sol.Unassigned, in.Jobs[j].ID)
    }
    sol.TotalCost = int64(eng.Cost())
    m := eng.Metrics
    sol.Metrics = model.SolveMetrics{
        Sweeps:         m.Sweeps,
        Relocates:      m.Relocates,
        Exchanges:      m.Exchanges,
        OrOpts:         m.OrOpts,
        CrossExchanges: m.CrossExchanges,
        JobsAdded:      m.JobsAdded,
        TSPAdoptions:   m.TSPAdoptions,
        TotalGain:      m.TotalGain,
        TSPGain:        m.TSPGain,
        InitialCost:    int64(initialCost),
        FinalCost:      sol.TotalCost,
        DurationMs:     elapsed.Milliseconds(),
    }

    effort := req.Effort
    if effort == "" { effort = "full" }
    metrics.Solves.WithLabelValues(effort, "ok").Inc()
    metrics.SolveDuration.WithLabelValues(effort).Observe(elapsed.Seconds())
    metrics.SolveGain.Add(float64(m.TotalGain + m.TSPGain))
    metrics.JobsReinserted.Add(float64(m.JobsAdded))

    id, err := s.Store.SaveSolution(ctx, sol)
    if err != nil { return model.Solution{}, err }
    sol.ID = id
    if req.ProblemID != "" {
        _ = s.Store.SaveSolveMetrics(ctx, tenant, req.ProblemID, effort, sol.Metrics)
    }

    if solveID != "" {
        s.Broker.Publish(solveID, SSEEvent{Type: "solve.completed", Data: map[string]any{"solveId": solveID, "solutionId": id, "totalCost": sol.TotalCost, "unassigned": len(sol.Unassigned)}})
    }
    s.Pub.Emit(ctx, tenant, "solve.completed", map[string]any{
        "solutionId": id,
        "problemId": req.ProblemID,
        "totalCost": sol.TotalCost,
        "unassigned": sol.Unassigned,
    })
    return sol, nil
}
