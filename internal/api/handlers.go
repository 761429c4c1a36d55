package api

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"

    "fleetopt/internal/model"
    "fleetopt/internal/store"
)

// ProblemsHandler handles POST/GET /v1/problems
func (s *Server) ProblemsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        var req model.ProblemIn
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateProblem(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid problem", err.Error(), r.URL.Path)
            return
        }
        tenant := s.tenantFor(r)
        id, err := s.Store.CreateProblem(r.Context(), tenant, req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create problem failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, map[string]any{"id": id, "jobs": len(req.Jobs), "vehicles": len(req.Vehicles)})
    case http.MethodGet:
        tenant := s.tenantFor(r)
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListProblems(r.Context(), tenant, cursor, limit)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List problems failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// ProblemByIDHandler handles GET /v1/problems/{id}
func (s *Server) ProblemByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    id := strings.TrimPrefix(r.URL.Path, "/v1/problems/")
    if id == "" || strings.Contains(id, "/") {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
        return
    }
    p, err := s.Store.GetProblem(r.Context(), s.tenantFor(r), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            writeProblem(w, http.StatusNotFound, "Problem not found", "", r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Get problem failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, p)
}

// SolveHandler handles POST /v1/solve
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.CanSolve() { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    var req model.SolveRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateSolveRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
        return
    }
    if req.TenantID == "" { req.TenantID = p.Tenant }
    if req.SolveID == "" { req.SolveID = uuid.New().String() }

    prob := req.Problem
    if prob == nil {
        loaded, err := s.Store.GetProblem(r.Context(), req.TenantID, req.ProblemID)
        if err != nil {
            if errors.Is(err, store.ErrNotFound) {
                writeProblem(w, http.StatusNotFound, "Problem not found", req.ProblemID, r.URL.Path)
                return
            }
            writeProblem(w, http.StatusInternalServerError, "Load problem failed", err.Error(), r.URL.Path)
            return
        }
        prob = &loaded
    }

    sol, err := s.runSolve(r.Context(), req.TenantID, req, *prob)
    if err != nil {
        s.Pub.Emit(r.Context(), req.TenantID, "solve.failed", map[string]any{"problemId": req.ProblemID, "error": err.Error()})
        writeProblem(w, http.StatusUnprocessableEntity, "Solve failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, sol)
}

// SolutionByIDHandler handles GET /v1/solutions/{id}
func (s *Server) SolutionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    id := strings.TrimPrefix(r.URL.Path, "/v1/solutions/")
    if id == "" || strings.Contains(id, "/") {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
        return
    }
    sol, err := s.Store.GetSolution(r.Context(), s.tenantFor(r), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            writeProblem(w, http.StatusNotFound, "Solution not found", "", r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Get solution failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, sol)
}

// SolveEventsHandler handles GET /v1/solves/{id}/events/stream (SSE)
func (s *Server) SolveEventsHandler(w http.ResponseWriter, r *http.Request) {
    path := r.URL.Path
    rest := strings.TrimPrefix(path, "/v1/solves/")
    if rest == path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    if len(parts) < 3 || parts[1] != "events" || parts[2] != "stream" {
        writeProblem(w, http.StatusNotFound, "Not Found", "", path)
        return
    }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path); return }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    ch := s.Broker.Subscribe(id)
    defer s.Broker.Unsubscribe(id, ch)
    // initial heartbeat
    fmt.Fprintf(w, "event: heartbeat\n")
    fmt.Fprintf(w, "data: {\"solveId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
    flusher.Flush()
    notify := r.Context().Done()
    for {
        select {
        case <-notify:
            return
        case evt := <-ch:
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        case <-time.After(15 * time.Second):
            fmt.Fprintf(w, "event: heartbeat\n")
            fmt.Fprintf(w, "data: {\"solveId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
            flusher.Flush()
        }
    }
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        p := s.getPrincipal(r)
        if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
        var req model.SubscriptionRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.URL == "" || len(req.Events) == 0 {
            writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events required", r.URL.Path)
            return
        }
        if req.TenantID == "" { req.TenantID = p.Tenant }
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
            return
        }
        sub.Secret = ""
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        tenant := s.tenantFor(r)
        items, next, err := s.Store.ListSubscriptions(r.Context(), tenant, r.URL.Query().Get("cursor"), 100)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodDelete {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
    if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil {
        writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, r.URL.Query().Get("status"), r.URL.Query().Get("cursor"), limit)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// WebhookDeliveryRetryHandler handles POST /v1/admin/webhook-deliveries/{id}/retry
func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    rest := strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/")
    parts := strings.Split(rest, "/")
    if len(parts) != 2 || parts[1] != "retry" {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }
    if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, parts[0]); err != nil {
        writeProblem(w, http.StatusInternalServerError, "Retry failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SolveMetricsHandler handles GET /v1/admin/solve-metrics?problemId=
func (s *Server) SolveMetricsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    problemID := r.URL.Query().Get("problemId")
    if problemID == "" {
        writeProblem(w, http.StatusBadRequest, "Missing problemId", "", r.URL.Path)
        return
    }
    items, err := s.Store.ListSolveMetrics(r.Context(), p.Tenant, problemID)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "List solve metrics failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
