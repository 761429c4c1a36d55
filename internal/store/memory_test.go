package store

import (
    "context"
    "testing"

    "fleetopt/internal/model"
)

func TestMemoryProblemsAndSolutions(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()

    id, err := m.CreateProblem(ctx, "t1", model.ProblemIn{Name: "p", Jobs: []model.JobIn{{ID: "j"}}, Vehicles: []model.VehicleIn{{ID: "v"}}})
    if err != nil || id == "" { t.Fatalf("create problem: %v", err) }

    if _, err := m.GetProblem(ctx, "t2", id); err != ErrNotFound {
        t.Fatalf("cross-tenant get should be not found, got %v", err)
    }
    p, err := m.GetProblem(ctx, "t1", id)
    if err != nil || p.Name != "p" { t.Fatalf("get problem: %v %+v", err, p) }

    items, _, err := m.ListProblems(ctx, "t1", "", 10)
    if err != nil || len(items) != 1 { t.Fatalf("list problems: %v %v", err, items) }

    sid, err := m.SaveSolution(ctx, model.Solution{TenantID: "t1", ProblemID: id, TotalCost: 42})
    if err != nil || sid == "" { t.Fatalf("save solution: %v", err) }
    sol, err := m.GetSolution(ctx, "t1", sid)
    if err != nil || sol.TotalCost != 42 { t.Fatalf("get solution: %v %+v", err, sol) }
    if _, err := m.GetSolution(ctx, "t2", sid); err != ErrNotFound {
        t.Fatalf("cross-tenant solution should be not found, got %v", err)
    }
}

func TestMemorySolveMetricsUpsert(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    if err := m.SaveSolveMetrics(ctx, "t1", "p1", "full", model.SolveMetrics{Sweeps: 3}); err != nil {
        t.Fatalf("save: %v", err)
    }
    if err := m.SaveSolveMetrics(ctx, "t1", "p1", "full", model.SolveMetrics{Sweeps: 5}); err != nil {
        t.Fatalf("save again: %v", err)
    }
    items, err := m.ListSolveMetrics(ctx, "t1", "p1")
    if err != nil || len(items) != 1 { t.Fatalf("expected single upserted row: %v %v", err, items) }
    if items[0]["sweeps"] != 5 { t.Fatalf("expected latest sweeps, got %v", items[0]["sweeps"]) }
}

func TestMemorySubscriptionsByEvent(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    _, err := m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "https://x", Events: []string{"solve.completed"}})
    if err != nil { t.Fatalf("create: %v", err) }
    subs, err := m.GetSubscriptionsForEvent(ctx, "t1", "solve.completed")
    if err != nil || len(subs) != 1 { t.Fatalf("by event: %v %v", err, subs) }
    subs, err = m.GetSubscriptionsForEvent(ctx, "t1", "solve.failed")
    if err != nil || len(subs) != 0 { t.Fatalf("unrelated event: %v %v", err, subs) }
}
