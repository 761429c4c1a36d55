package api

import (
    "net/http"
    "os"
    "strings"

    "fleetopt/internal/auth"
    "fleetopt/internal/store"
    "fleetopt/internal/webhooks"
)

type Server struct {
    Store  store.Store
    Pub    *webhooks.Publisher
    Auth   *auth.Verifier
    Broker EventBroker
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
    dsn := os.Getenv("DATABASE_URL")
    var s store.Store
    if strings.TrimSpace(dsn) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(dsn)
        if err != nil {
            return nil, err
        }
        // Run migrations (dev helper)
        if os.Getenv("DB_MIGRATE") != "false" {
            _ = sp.MigrateDir("db/migrations")
        }
        s = sp
    }
    // Broker selection
    var broker EventBroker
    if os.Getenv("REDIS_URL") != "" {
        if rb, err := NewRedisBroker(); err == nil { broker = rb } else { broker = NewBroker() }
    } else {
        broker = NewBroker()
    }
    return &Server{Store: s, Pub: webhooks.NewPublisher(s), Auth: auth.NewVerifierFromEnv(), Broker: broker}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store)
}

func (s *Server) tenantFor(r *http.Request) string {
    return s.getPrincipal(r).Tenant
}
