package store

import (
    "context"
    "errors"
    "time"

    "fleetopt/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Problems
    CreateProblem(ctx context.Context, tenantID string, p model.ProblemIn) (string, error)
    GetProblem(ctx context.Context, tenantID, id string) (model.ProblemIn, error)
    ListProblems(ctx context.Context, tenantID, cursor string, limit int) ([]model.ProblemOut, string, error)

    // Solutions
    SaveSolution(ctx context.Context, sol model.Solution) (string, error)
    GetSolution(ctx context.Context, tenantID, id string) (model.Solution, error)

    // Solve metrics per problem/effort
    SaveSolveMetrics(ctx context.Context, tenantID, problemID, effort string, m model.SolveMetrics) error
    ListSolveMetrics(ctx context.Context, tenantID, problemID string) ([]map[string]any, error)

    // Subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, tenantID, id string) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
    RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
