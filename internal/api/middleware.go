package api

import (
    "fmt"
    "log"
    "net/http"
    "os"
    "strconv"
    "time"

    "golang.org/x/time/rate"

    "fleetopt/internal/metrics"
)

// statusRecorder captures the response status for logging/metrics.
type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (r *statusRecorder) WriteHeader(c int) { r.status = c; r.ResponseWriter.WriteHeader(c) }

func (r *statusRecorder) Flush() {
    if f, ok := r.ResponseWriter.(http.Flusher); ok { f.Flush() }
}

// Middleware wraps a handler with request logging, Prometheus counters and
// a global rate limit honoring RATE_RPS / RATE_BURST.
func Middleware(next http.Handler) http.Handler {
    limiter := limiterFromEnv()
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if limiter != nil && !limiter.Allow() {
            writeProblem(w, http.StatusTooManyRequests, "Rate limited", "try again later", r.URL.Path)
            return
        }
        rec := &statusRecorder{ResponseWriter: w, status: 200}
        start := time.Now()
        next.ServeHTTP(rec, r)
        dur := time.Since(start)
        status := fmt.Sprintf("%d", rec.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
        log.Printf("%s %s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, status, dur)
    })
}

func limiterFromEnv() *rate.Limiter {
    rps := 0.0
    if v := os.Getenv("RATE_RPS"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil { rps = f }
    }
    if rps <= 0 { return nil }
    burst := int(rps)
    if v := os.Getenv("RATE_BURST"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 { burst = n }
    }
    if burst <= 0 { burst = 1 }
    return rate.NewLimiter(rate.Limit(rps), burst)
}
