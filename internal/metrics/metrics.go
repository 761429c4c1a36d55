package metrics

import (
    "sync"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // Solves counts completed solves by effort and outcome
    Solves = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "solves_total", Help: "Completed solves by effort and outcome."},
        []string{"effort", "outcome"},
    )
    // SolveDuration tracks solve wall time in seconds
    SolveDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120}},
        []string{"effort"},
    )
    // SolveMoves counts accepted local-search moves by operator family
    SolveMoves = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "solve_moves_total", Help: "Accepted local-search moves by operator."},
        []string{"operator"},
    )
    // SolveGain accumulates the cost removed by accepted moves
    SolveGain = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "solve_gain_total", Help: "Total cost removed by accepted moves."},
    )
    // JobsReinserted counts unassigned jobs placed back into routes
    JobsReinserted = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "solve_jobs_reinserted_total", Help: "Unassigned jobs placed back into routes."},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latencies in milliseconds
    WebhookLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"event_type", "status"},
    )
)

// RegisterDefault registers the collectors on the dedicated Registry, once.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(Solves)
        Registry.MustRegister(SolveDuration)
        Registry.MustRegister(SolveMoves)
        Registry.MustRegister(SolveGain)
        Registry.MustRegister(JobsReinserted)
        Registry.MustRegister(WebhookDeliveries)
        Registry.MustRegister(WebhookLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
