// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// TokenCookie is the cookie the login endpoint sets.
const TokenCookie = "token"

const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// DevClaims is the identity injected when authentication is bypassed.
func DevClaims() *Claims {
	return &Claims{Username: "dev", Role: models.RoleAdmin}
}

// Middleware provides authentication middleware
type Middleware struct {
	jwtManager  *JWTManager
	authMode    string
	corsOrigins []string
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(jwtManager *JWTManager, cfg *config.SecurityConfig) *Middleware {
	mode := cfg.AuthMode
	if mode == "" {
		mode = ModeJWT
	}
	return &Middleware{
		jwtManager:  jwtManager,
		authMode:    mode,
		corsOrigins: cfg.CORSOrigins,
	}
}

// Authenticate is middleware that enforces authentication
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == ModeNone {
			next(w, r.WithContext(ContextWithClaims(r.Context(), DevClaims())))
			return
		}

		token, err := extractToken(r)
		if err != nil {
			response.New(w, r).Unauthorized(err.Error())
			return
		}
		if m.jwtManager == nil {
			response.New(w, r).Unauthorized("authentication is not configured")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			response.New(w, r).Unauthorized("invalid token")
			return
		}

		next(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	}
}

// extractToken reads the Bearer token, falling back to the token cookie.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return "", fmt.Errorf("missing token")
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return token, nil
}

// RequireRole is middleware that enforces a specific role. Admin satisfies
// every role.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.New(w, r).Unauthorized("authentication required")
			return
		}
		if claims.Role != role && claims.Role != models.RoleAdmin {
			response.New(w, r).Forbidden("insufficient permissions")
			return
		}
		next(w, r)
	}
}

// SecurityHeaders adds security headers to API responses.
func (m *Middleware) SecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next(w, r)
	}
}

// SetTokenCookie writes the session cookie for a login response.
func SetTokenCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteStrictMode,
	})
}

// CORSOrigins returns the configured CORS allowed origins.
func (m *Middleware) CORSOrigins() []string {
	return m.corsOrigins
}

// Mode returns the effective authentication mode.
func (m *Middleware) Mode() string {
	return m.authMode
}

// ContextWithClaims stores claims in ctx.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, c)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return c, ok && c != nil
}
