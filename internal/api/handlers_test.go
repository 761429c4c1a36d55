package api

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "fleetopt/internal/model"
)

func newTestServer(t *testing.T) *Server {
    t.Helper()
    s, err := NewServer()
    if err != nil { t.Fatalf("NewServer: %v", err) }
    return s
}

// testProblem: two jobs behind one depot; splitting them across the two
// vehicles is optimal at total cost 22.
func testProblem() model.ProblemIn {
    start0, end0 := 0, 0
    return model.ProblemIn{
        Name: "two-jobs",
        Jobs: []model.JobIn{
            {ID: "j1", Index: 1, Amount: []int64{1}},
            {ID: "j2", Index: 2, Amount: []int64{1}},
        },
        Vehicles: []model.VehicleIn{
            {ID: "v0", Start: &start0, End: &end0, Capacity: []int64{2}},
            {ID: "v1", Start: &start0, End: &end0, Capacity: []int64{2}},
        },
        Matrix: [][]int64{
            {0, 10, 1},
            {10, 0, 20},
            {1, 20, 0},
        },
    }
}

func TestHealthReady(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    if rr.Code != 200 { t.Fatalf("health: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    if rr.Code != 200 { t.Fatalf("ready: got %d", rr.Code) }
}

func TestProblemsCreateListGet(t *testing.T) {
    s := newTestServer(t)
    b, _ := json.Marshal(testProblem())
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/problems", bytes.NewReader(b))
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Tenant-Id", "t_test")
    s.ProblemsHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("problem create: got %d: %s", rr.Code, rr.Body.String()) }
    var created struct{ ID string `json:"id"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil || created.ID == "" {
        t.Fatalf("decode create: %v %s", err, rr.Body.String())
    }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/problems?limit=5", nil)
    req.Header.Set("X-Tenant-Id", "t_test")
    s.ProblemsHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("problem list: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/problems/"+created.ID, nil)
    req.Header.Set("X-Tenant-Id", "t_test")
    s.ProblemByIDHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("problem get: got %d", rr.Code) }
}

func TestSolveInlineProblem(t *testing.T) {
    s := newTestServer(t)
    p := testProblem()
    body, _ := json.Marshal(model.SolveRequest{TenantID: "t_test", Problem: &p})
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Tenant-Id", "t_test")
    req.Header.Set("X-Role", "dispatcher")
    s.SolveHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("solve: got %d: %s", rr.Code, rr.Body.String()) }
    var sol model.Solution
    if err := json.Unmarshal(rr.Body.Bytes(), &sol); err != nil { t.Fatalf("decode solution: %v", err) }
    if sol.TotalCost != 22 { t.Fatalf("total cost: got %d, want 22", sol.TotalCost) }
    if len(sol.Unassigned) != 0 { t.Fatalf("unassigned: %v", sol.Unassigned) }
    if len(sol.Routes) != 2 || len(sol.Routes[0].Jobs) != 1 || len(sol.Routes[1].Jobs) != 1 {
        t.Fatalf("expected one job per vehicle, got %+v", sol.Routes)
    }
    if sol.ID == "" { t.Fatalf("solution id missing") }

    // Stored solution must be retrievable.
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/solutions/"+sol.ID, nil)
    req.Header.Set("X-Tenant-Id", "t_test")
    s.SolutionByIDHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("solution get: got %d", rr.Code) }
}

func TestSolveStoredProblemRecordsMetrics(t *testing.T) {
    s := newTestServer(t)
    b, _ := json.Marshal(testProblem())
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/problems", bytes.NewReader(b))
    req.Header.Set("X-Tenant-Id", "t_test")
    s.ProblemsHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("problem create: %d", rr.Code) }
    var created struct{ ID string `json:"id"` }
    _ = json.Unmarshal(rr.Body.Bytes(), &created)

    body, _ := json.Marshal(model.SolveRequest{ProblemID: created.ID, Effort: "balanced"})
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
    req.Header.Set("X-Tenant-Id", "t_test")
    req.Header.Set("X-Role", "admin")
    s.SolveHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("solve: got %d: %s", rr.Code, rr.Body.String()) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/admin/solve-metrics?problemId="+created.ID, nil)
    req.Header.Set("X-Tenant-Id", "t_test")
    req.Header.Set("X-Role", "admin")
    s.SolveMetricsHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("solve metrics: got %d", rr.Code) }
    var res struct{ Items []map[string]any `json:"items"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode metrics: %v", err) }
    if len(res.Items) == 0 { t.Fatalf("expected stored solve metrics") }
}

func TestSolveRejectsBadRequests(t *testing.T) {
    s := newTestServer(t)
    // Neither problem nor problemId.
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader([]byte(`{}`)))
    req.Header.Set("X-Role", "admin")
    s.SolveHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("empty solve: got %d", rr.Code) }

    // Unknown effort.
    p := testProblem()
    body, _ := json.Marshal(model.SolveRequest{Problem: &p, Effort: "turbo"})
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
    req.Header.Set("X-Role", "admin")
    s.SolveHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("bad effort: got %d", rr.Code) }

    // Viewer may not solve.
    body, _ = json.Marshal(model.SolveRequest{Problem: &p})
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
    req.Header.Set("X-Role", "viewer")
    s.SolveHandler(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("viewer solve: got %d", rr.Code) }

    // Infeasible initial routes surface as unprocessable.
    over := testProblem()
    over.Vehicles[0].Capacity = []int64{1}
    over.Vehicles[1].Capacity = []int64{1}
    body, _ = json.Marshal(model.SolveRequest{Problem: &over, InitialRoutes: [][]string{{"j1", "j2"}, {}}})
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
    req.Header.Set("X-Role", "admin")
    s.SolveHandler(rr, req)
    if rr.Code != http.StatusUnprocessableEntity { t.Fatalf("infeasible: got %d: %s", rr.Code, rr.Body.String()) }
}

func TestSolveEnqueuesWebhook(t *testing.T) {
    s := newTestServer(t)
    subBody := []byte(`{"tenantId":"t_test","url":"https://example.invalid/webhook","events":["solve.completed"],"secret":"shh"}`)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(subBody))
    req.Header.Set("X-Tenant-Id", "t_test")
    req.Header.Set("X-Role", "admin")
    s.SubscriptionsHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create sub: %d", rr.Code) }

    p := testProblem()
    body, _ := json.Marshal(model.SolveRequest{Problem: &p})
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
    req.Header.Set("X-Tenant-Id", "t_test")
    req.Header.Set("X-Role", "admin")
    s.SolveHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("solve: %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-deliveries?limit=5", nil)
    req.Header.Set("X-Tenant-Id", "t_test")
    req.Header.Set("X-Role", "admin")
    s.WebhookDeliveriesHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("deliveries: %d", rr.Code) }
    var dres struct{ Items []map[string]any `json:"items"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &dres); err != nil { t.Fatalf("decode deliveries: %v", err) }
    if len(dres.Items) == 0 { t.Fatalf("expected at least one delivery") }
    if et, ok := dres.Items[0]["eventType"].(string); !ok || et != "solve.completed" {
        t.Fatalf("unexpected event type: %v", dres.Items[0]["eventType"])
    }
}

// sseRecorder is a minimal ResponseWriter that implements http.Flusher
// and captures writes for SSE tests.
type sseRecorder struct {
    hdr  http.Header
    buf  bytes.Buffer
    code int
}

func (r *sseRecorder) Header() http.Header { if r.hdr == nil { r.hdr = http.Header{} }; return r.hdr }
func (r *sseRecorder) WriteHeader(c int) { r.code = c }
func (r *sseRecorder) Write(p []byte) (int, error) { return r.buf.Write(p) }
func (r *sseRecorder) Flush() {}

func TestSolveEventsSSE(t *testing.T) {
    s := newTestServer(t)
    solveID := "solve-sse-test"

    sseReq := httptest.NewRequest(http.MethodGet, "/v1/solves/"+solveID+"/events/stream", nil)
    ctx, cancel := context.WithTimeout(context.Background(), time.Second)
    defer cancel()
    sseReq = sseReq.WithContext(ctx)
    sseReq.Header.Set("X-Tenant-Id", "t_test")

    rec := &sseRecorder{}
    done := make(chan struct{})
    go func() {
        s.SolveEventsHandler(rec, sseReq)
        close(done)
    }()

    time.Sleep(50 * time.Millisecond)
    s.Broker.Publish(solveID, SSEEvent{Type: "search.move", Data: map[string]any{"solveId": solveID, "move": "relocate v0[0] -> v1[0]"}})

    deadline := time.Now().Add(500 * time.Millisecond)
    for time.Now().Before(deadline) {
        if bytes.Contains(rec.buf.Bytes(), []byte("event: search.move")) {
            break
        }
        time.Sleep(10 * time.Millisecond)
    }
    if !bytes.Contains(rec.buf.Bytes(), []byte("event: search.move")) {
        t.Fatalf("SSE did not contain expected event. Body: %s", rec.buf.String())
    }
    cancel()
    select {
    case <-done:
    case <-time.After(200 * time.Millisecond):
        t.Fatal("handler did not exit after cancel")
    }
}
