// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

var (
	// ErrInvalidCredentials indicates the username or password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserLookup is the slice of the store the authenticator needs.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Authenticator verifies username/password pairs and issues tokens.
type Authenticator struct {
	jwt           *JWTManager
	users         UserLookup
	adminUsername string
	adminHash     []byte
}

// NewAuthenticator creates an authenticator. The admin password, when set,
// is hashed once here so login never handles it in plaintext again.
func NewAuthenticator(jwtManager *JWTManager, users UserLookup, adminUsername, adminPassword string) (*Authenticator, error) {
	a := &Authenticator{jwt: jwtManager, users: users, adminUsername: adminUsername}
	if adminUsername != "" && adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		a.adminHash = hash
	}
	return a, nil
}

// Login checks the configured admin account first and then the users table.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	role, err := a.verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expires, err := a.jwt.GenerateToken(username, role)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("username", username).Str("role", role).Msg("User logged in")
	return &Session{Token: token, ExpiresAt: expires, Username: username, Role: role}, nil
}

func (a *Authenticator) verify(ctx context.Context, username, password string) (string, error) {
	if a.adminHash != nil && subtle.ConstantTimeCompare([]byte(username), []byte(a.adminUsername)) == 1 {
		if bcrypt.CompareHashAndPassword(a.adminHash, []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
		return models.RoleAdmin, nil
	}

	if a.users == nil {
		return "", ErrInvalidCredentials
	}
	user, err := a.users.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return user.Role, nil
}
