// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package authz

import (
	"net/http"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize enforces access to resource, deriving the action from the
// HTTP method. It must run after auth.Middleware.Authenticate.
func (m *Middleware) Authorize(resource string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Require(resource, MethodToAction(r.Method), next)(w, r)
	}
}

// Require enforces a fixed action on resource.
func (m *Middleware) Require(resource, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			response.New(w, r).Forbidden("no authentication context")
			return
		}

		allowed, err := m.enforcer.Enforce(claims.Role, resource, action)
		if err != nil {
			metrics.AuthzDecisions.WithLabelValues(resource, action, "error").Inc()
			logging.CtxErr(r.Context(), err).Str("role", claims.Role).Msg("Authorization error")
			response.New(w, r).Forbidden("insufficient permissions")
			return
		}
		if !allowed {
			metrics.AuthzDecisions.WithLabelValues(resource, action, "deny").Inc()
			logging.Ctx(r.Context()).Debug().
				Str("username", claims.Username).
				Str("role", claims.Role).
				Str("resource", resource).
				Str("action", action).
				Msg("Access denied")
			response.New(w, r).Forbidden("insufficient permissions")
			return
		}

		metrics.AuthzDecisions.WithLabelValues(resource, action, "allow").Inc()
		next(w, r)
	}
}

// MethodToAction maps HTTP methods to Casbin actions.
func MethodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}
