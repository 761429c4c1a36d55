package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "fleetopt/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

// MigrateDir executes *.sql files in name order. Dev helper; production
// schemas are managed externally.
func (p *Postgres) MigrateDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    names := []string{}
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
    }
    sort.Strings(names)
    for _, n := range names {
        b, err := os.ReadFile(filepath.Join(dir, n))
        if err != nil { return err }
        if _, err := p.db.Exec(string(b)); err != nil { return err }
    }
    return nil
}

func toJSON(v any) []byte {
    b, _ := json.Marshal(v)
    return b
}

func (p *Postgres) CreateProblem(ctx context.Context, tenantID string, in model.ProblemIn) (string, error) {
    id := uuid.New()
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO problems (id, tenant_id, name, jobs, vehicles, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
        id, tenantID, in.Name, len(in.Jobs), len(in.Vehicles), toJSON(in))
    if err != nil { return "", err }
    return id.String(), nil
}

func (p *Postgres) GetProblem(ctx context.Context, tenantID, id string) (model.ProblemIn, error) {
    var payload []byte
    err := p.db.QueryRowContext(ctx,
        `SELECT payload FROM problems WHERE tenant_id=$1 AND id=$2`, tenantID, id).Scan(&payload)
    if errors.Is(err, sql.ErrNoRows) { return model.ProblemIn{}, ErrNotFound }
    if err != nil { return model.ProblemIn{}, err }
    var out model.ProblemIn
    if err := json.Unmarshal(payload, &out); err != nil { return model.ProblemIn{}, err }
    return out, nil
}

func (p *Postgres) ListProblems(ctx context.Context, tenantID, cursor string, limit int) ([]model.ProblemOut, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, name, jobs, vehicles FROM problems WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, name, jobs, vehicles FROM problems WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.ProblemOut{}
    var last string
    for rows.Next() {
        var o model.ProblemOut
        var name sql.NullString
        if err := rows.Scan(&o.ID, &name, &o.Jobs, &o.Vehicles); err != nil { return nil, "", err }
        o.TenantID = tenantID
        o.Name = name.String
        out = append(out, o)
        last = o.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) SaveSolution(ctx context.Context, sol model.Solution) (string, error) {
    if sol.ID == "" { sol.ID = uuid.New().String() }
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO solutions (id, tenant_id, problem_id, solve_id, total_cost, payload)
         VALUES ($1,$2,$3,$4,$5,$6)
         ON CONFLICT (id) DO UPDATE SET total_cost=EXCLUDED.total_cost, payload=EXCLUDED.payload`,
        sol.ID, sol.TenantID, nullIfEmpty(sol.ProblemID), nullIfEmpty(sol.SolveID), sol.TotalCost, toJSON(sol))
    if err != nil { return "", err }
    return sol.ID, nil
}

func (p *Postgres) GetSolution(ctx context.Context, tenantID, id string) (model.Solution, error) {
    var payload []byte
    err := p.db.QueryRowContext(ctx,
        `SELECT payload FROM solutions WHERE tenant_id=$1 AND id=$2`, tenantID, id).Scan(&payload)
    if errors.Is(err, sql.ErrNoRows) { return model.Solution{}, ErrNotFound }
    if err != nil { return model.Solution{}, err }
    var out model.Solution
    if err := json.Unmarshal(payload, &out); err != nil { return model.Solution{}, err }
    return out, nil
}

func (p *Postgres) SaveSolveMetrics(ctx context.Context, tenantID, problemID, effort string, m model.SolveMetrics) error {
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO solve_metrics (tenant_id, problem_id, effort, metrics, updated_at)
         VALUES ($1,$2,$3,$4,now())
         ON CONFLICT (tenant_id, problem_id, effort) DO UPDATE SET metrics=EXCLUDED.metrics, updated_at=now()`,
        tenantID, problemID, effort, toJSON(m))
    return err
}

func (p *Postgres) ListSolveMetrics(ctx context.Context, tenantID, problemID string) ([]map[string]any, error) {
    rows, err := p.db.QueryContext(ctx,
        `SELECT effort, metrics FROM solve_metrics WHERE tenant_id=$1 AND problem_id=$2 ORDER BY effort`, tenantID, problemID)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []map[string]any{}
    for rows.Next() {
        var effort string
        var raw []byte
        if err := rows.Scan(&effort, &raw); err != nil { return nil, err }
        item := map[string]any{}
        _ = json.Unmarshal(raw, &item)
        item["effort"] = effort
        out = append(out, item)
    }
    return out, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    id := uuid.New()
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
        id, req.TenantID, req.URL, toJSON(req.Events), req.Secret)
    if err != nil { return model.Subscription{}, err }
    return model.Subscription{ID: id.String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx,
        `SELECT id::text, url, events, secret FROM subscriptions WHERE tenant_id=$1`, tenantID)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        var events []byte
        if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil { return nil, err }
        _ = json.Unmarshal(events, &s.Events)
        s.TenantID = tenantID
        for _, e := range s.Events {
            if e == eventType { out = append(out, s); break }
        }
    }
    return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, events FROM subscriptions WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, events FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Subscription{}
    var last string
    for rows.Next() {
        var s model.Subscription
        var events []byte
        if err := rows.Scan(&s.ID, &s.URL, &events); err != nil { return nil, "", err }
        _ = json.Unmarshal(events, &s.Events)
        s.TenantID = tenantID
        out = append(out, s)
        last = s.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New()
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now())`,
        id, tenantID, nullIfEmpty(subscriptionID), eventType, url, secret, payload)
    if err != nil { return "", err }
    return id.String(), nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 50 }
    rows, err := p.db.QueryContext(ctx,
        `SELECT id::text, tenant_id, COALESCE(subscription_id::text,''), event_type, url, secret, payload, status, attempts
         FROM webhook_deliveries
         WHERE status IN ('pending','retry') AND next_attempt_at <= now()
         ORDER BY next_attempt_at LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil { return nil, err }
        out = append(out, d)
    }
    return out, nil
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    if success {
        _, err := p.db.ExecContext(ctx,
            `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, response_code=$2, latency_ms=$3, delivered_at=now() WHERE id=$1`,
            id, responseCode, latencyMs)
        return err
    }
    var next any
    if nextAttemptAt != nil { next = *nextAttemptAt }
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET status='retry', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, next_attempt_at=COALESCE($5, now() + interval '1 minute') WHERE id=$1`,
        id, lastError, responseCode, latencyMs, next)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET status='failed', last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
        id, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, event_type, status, attempts, url, next_attempt_at, COALESCE(last_error,'') FROM webhook_deliveries WHERE tenant_id=$1`
    args := []any{tenantID}
    if status != "" {
        q += ` AND status=$2`
        args = append(args, status)
    }
    q += ` ORDER BY id LIMIT 500`
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []map[string]any{}
    for rows.Next() {
        var id, eventType, st, url, lastErr string
        var attempts int
        var next sql.NullTime
        if err := rows.Scan(&id, &eventType, &st, &attempts, &url, &next, &lastErr); err != nil { return nil, "", err }
        item := map[string]any{"id": id, "eventType": eventType, "status": st, "attempts": attempts, "url": url}
        if next.Valid { item["nextAttemptAt"] = next.Time }
        if lastErr != "" { item["lastError"] = lastErr }
        out = append(out, item)
        if len(out) >= limit { break }
    }
    return out, "", nil
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    return err
}

func nullIfEmpty(s string) any {
    if s == "" { return nil }
    return s
}
