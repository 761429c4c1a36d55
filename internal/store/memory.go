package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "fleetopt/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu        sync.Mutex
    problems  map[string]model.ProblemIn
    probMeta  map[string]model.ProblemOut
    probByTen map[string][]string
    solutions map[string]model.Solution
    subs      map[string][]model.Subscription
    // Webhooks queue state
    deliveries         map[string]*memDelivery
    deliveriesByTenant map[string][]string
    dlq                []map[string]any
    solveMx            map[string]map[string][]map[string]any // tenant -> problem -> items
}

func NewMemory() *Memory {
    return &Memory{
        problems:  map[string]model.ProblemIn{},
        probMeta:  map[string]model.ProblemOut{},
        probByTen: map[string][]string{},
        solutions: map[string]model.Solution{},
        subs:      map[string][]model.Subscription{},
        deliveries: map[string]*memDelivery{},
        deliveriesByTenant: map[string][]string{},
        dlq:     []map[string]any{},
        solveMx: map[string]map[string][]map[string]any{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

func (m *Memory) CreateProblem(ctx context.Context, tenantID string, p model.ProblemIn) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    m.problems[id] = p
    m.probMeta[id] = model.ProblemOut{ID: id, TenantID: tenantID, Name: p.Name, Jobs: len(p.Jobs), Vehicles: len(p.Vehicles)}
    m.probByTen[tenantID] = append(m.probByTen[tenantID], id)
    return id, nil
}

func (m *Memory) GetProblem(ctx context.Context, tenantID, id string) (model.ProblemIn, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    meta, ok := m.probMeta[id]
    if !ok || meta.TenantID != tenantID { return model.ProblemIn{}, ErrNotFound }
    return m.problems[id], nil
}

func (m *Memory) ListProblems(ctx context.Context, tenantID, cursor string, limit int) ([]model.ProblemOut, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.probByTen[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.ProblemOut{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        out = append(out, m.probMeta[ids[i]])
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) SaveSolution(ctx context.Context, sol model.Solution) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if sol.ID == "" { sol.ID = uuid.New().String() }
    m.solutions[sol.ID] = sol
    return sol.ID, nil
}

func (m *Memory) GetSolution(ctx context.Context, tenantID, id string) (model.Solution, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    sol, ok := m.solutions[id]
    if !ok || sol.TenantID != tenantID { return model.Solution{}, ErrNotFound }
    return sol, nil
}

func (m *Memory) SaveSolveMetrics(ctx context.Context, tenantID, problemID, effort string, sm model.SolveMetrics) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if m.solveMx[tenantID] == nil { m.solveMx[tenantID] = map[string][]map[string]any{} }
    items := m.solveMx[tenantID][problemID]
    met := map[string]any{
        "effort": effort,
        "sweeps": sm.Sweeps,
        "moves": sm.Relocates + sm.Exchanges + sm.OrOpts + sm.CrossExchanges,
        "relocates": sm.Relocates,
        "exchanges": sm.Exchanges,
        "orOpts": sm.OrOpts,
        "crossExchanges": sm.CrossExchanges,
        "jobsAdded": sm.JobsAdded,
        "tspAdoptions": sm.TSPAdoptions,
        "totalGain": sm.TotalGain,
        "tspGain": sm.TSPGain,
        "initialCost": sm.InitialCost,
        "finalCost": sm.FinalCost,
        "durationMs": sm.DurationMs,
    }
    replaced := false
    for i := range items {
        if items[i]["effort"] == effort { items[i] = met; replaced = true; break }
    }
    if !replaced { items = append(items, met) }
    m.solveMx[tenantID][problemID] = items
    return nil
}

func (m *Memory) ListSolveMetrics(ctx context.Context, tenantID, problemID string) ([]map[string]any, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    items := m.solveMx[tenantID][problemID]
    return append([]map[string]any(nil), items...), nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
    m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
    return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var out []model.Subscription
    for _, s := range m.subs[tenantID] {
        for _, e := range s.Events {
            if e == eventType { out = append(out, s); break }
        }
    }
    return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    list := m.subs[tenantID]
    start := 0
    if cursor != "" {
        for i := range list { if list[i].ID == cursor { start = i+1; break } }
    }
    if limit <= 0 { limit = 100 }
    end := start + limit
    if end > len(list) { end = len(list) }
    items := append([]model.Subscription(nil), list[start:end]...)
    next := ""
    if end < len(list) { next = list[end-1].ID }
    return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    arr := m.subs[tenantID]
    out := make([]model.Subscription, 0, len(arr))
    for _, s := range arr { if s.ID != id { out = append(out, s) } }
    m.subs[tenantID] = out
    return nil
}

// Webhook deliveries
func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, TenantID: tenantID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, id := range m.iterDeliveryIDs() {
        d := m.deliveries[id]
        if d == nil { continue }
        if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if limit > 0 && len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
        now := time.Now()
        d.DeliveredAt = &now
    } else {
        d.Status = "retry"
        d.LastError = lastError
        if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d != nil { d.Status = "failed" }
    m.dlq = append(m.dlq, map[string]any{"id": id, "lastError": lastError, "responseCode": responseCode, "latencyMs": latencyMs})
    return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []map[string]any{}
    ids := m.deliveriesByTenant[tenantID]
    for _, id := range ids {
        d := m.deliveries[id]
        if d == nil { continue }
        if status == "" || d.Status == status {
            item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
            if !d.NextAttemptAt.IsZero() { item["nextAttemptAt"] = d.NextAttemptAt }
            if d.LastError != "" { item["lastError"] = d.LastError }
            out = append(out, item)
        }
    }
    return out, "", nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d != nil && d.TenantID == tenantID {
        d.Status = "pending"
        d.NextAttemptAt = time.Now()
    }
    return nil
}

// helper: iterate delivery IDs by tenant order
func (m *Memory) iterDeliveryIDs() []string {
    ids := []string{}
    for _, lst := range m.deliveriesByTenant {
        ids = append(ids, lst...)
    }
    return ids
}
