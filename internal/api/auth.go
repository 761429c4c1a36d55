// Package api implements HTTP handlers and helpers for the solving service.
package api

import (
    "net/http"
    "strings"
)

type Principal struct {
    Tenant string
    Role   string // admin, dispatcher, viewer
}

// getPrincipal extracts tenant and role from JWT or headers.
// - If Authorization: Bearer is present, uses configured verifier (dev/hmac/jwks).
// - Else falls back to headers for dev.
func (s *Server) getPrincipal(r *http.Request) Principal {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
        tok := strings.TrimSpace(authz[len("Bearer "):])
        if pr, err := s.Auth.Verify(tok); err == nil {
            return Principal{Tenant: pr.Tenant, Role: pr.Role}
        }
    }
    tenant := r.Header.Get("X-Tenant-Id")
    role := r.Header.Get("X-Role")
    if tenant == "" {
        tenant = "t_demo"
    }
    if role == "" {
        role = "admin"
    }
    return Principal{Tenant: tenant, Role: role}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

// CanSolve reports whether the principal may trigger optimizations.
func (p Principal) CanSolve() bool { return p.IsAdmin() || p.Role == "dispatcher" }
