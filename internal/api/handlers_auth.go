// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"errors"
	"net/http"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// CreateUserRequest is the body of POST /api/v1/admin/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin editor viewer"`
}

// Login verifies credentials, sets the token cookie and returns the session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		unavailable(w, r, "authentication")
		return
	}
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Warn().Str("username", sanitizeLogValue(req.Username)).Msg("Login failed")
			response.New(w, r).Unauthorized("invalid username or password")
			return
		}
		logging.CtxErr(r.Context(), err).Msg("Login error")
		response.New(w, r).InternalError("login failed")
		return
	}

	auth.SetTokenCookie(w, r, session.Token, session.ExpiresAt)
	response.New(w, r).Success(session)
}

// Me returns the caller's identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		response.New(w, r).Unauthorized("authentication required")
		return
	}
	data := map[string]any{
		"username":  claims.Username,
		"role":      claims.Role,
		"auth_mode": h.config.Security.AuthMode,
	}
	if claims.ExpiresAt != nil {
		data["expires_at"] = claims.ExpiresAt.Time
	}
	response.New(w, r).Success(data)
}

// CreateUser adds a local account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Password hashing failed")
		response.New(w, r).InternalError("could not create user")
		return
	}
	u := &models.User{Username: req.Username, PasswordHash: hash, Role: req.Role}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		respondStoreError(w, r, "user", err)
		return
	}
	response.New(w, r).Created(u)
}
