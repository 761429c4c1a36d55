package main

import (
    "log"
    "net/http"
    "os"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "fleetopt/internal/api"
    "fleetopt/internal/metrics"
)

func main() {
    srvDeps, err := api.NewServer()
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }
    metrics.RegisterDefault()

    mux := http.NewServeMux()

    // Problems
    mux.HandleFunc("/v1/problems", srvDeps.ProblemsHandler)
    mux.HandleFunc("/v1/problems/", srvDeps.ProblemByIDHandler)

    // Solving
    mux.HandleFunc("/v1/solve", srvDeps.SolveHandler)
    mux.HandleFunc("/v1/solutions/", srvDeps.SolutionByIDHandler)
    mux.HandleFunc("/v1/solves/ws", srvDeps.SolveWSHandler)
    mux.HandleFunc("/v1/solves/", srvDeps.SolveEventsHandler) // /{id}/events/stream

    // Subscriptions
    mux.HandleFunc("/v1/subscriptions", srvDeps.SubscriptionsHandler)
    mux.HandleFunc("/v1/subscriptions/", srvDeps.SubscriptionByIDHandler)

    // Health
    mux.HandleFunc("/healthz", srvDeps.HealthHandler)
    mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

    // Admin
    mux.HandleFunc("/v1/admin/webhook-deliveries", srvDeps.WebhookDeliveriesHandler)
    mux.HandleFunc("/v1/admin/webhook-deliveries/", srvDeps.WebhookDeliveryRetryHandler)
    mux.HandleFunc("/v1/admin/solve-metrics", srvDeps.SolveMetricsHandler)

    // Observability & docs
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
    mux.HandleFunc("/debug", srvDeps.DebugJSON)
    mux.HandleFunc("/docs", srvDeps.DocsHandler)
    mux.HandleFunc("/openapi.json", srvDeps.OpenAPIHandler)

    addr := ":8080"
    if v := os.Getenv("PORT"); v != "" {
        addr = ":" + v
    }

    srv := &http.Server{
        Addr:              addr,
        Handler:           api.Middleware(mux),
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on %s", addr)
    // Start webhook worker
    if srvDeps.Pub != nil {
        worker := srvDeps.NewWebhookWorker()
        worker.Start()
    }
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}
