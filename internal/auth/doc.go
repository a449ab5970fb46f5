// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

/*
Package auth provides authentication and security middleware.

Key Components:

  - JWTManager: token issue and validation using HMAC-SHA256
  - Authenticator: username/password login against the configured admin
    account and the users table
  - Middleware: HTTP middleware for authentication, role checks and
    security headers
  - HashPassword / CheckPassword: bcrypt helpers

Authentication Modes (configured via AUTH_MODE):

 1. jwt (default): a Bearer token in the Authorization header, or the
    "token" cookie set by the login endpoint.
 2. none: development bypass. Every request runs as the "dev" user with
    the admin role. Config validation refuses this mode in production.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, &cfg.Security)
	r.Use(chiMiddleware(mw.Authenticate))

Role checks treat admin as satisfying every role. Fine-grained resource
permissions live in package authz.
*/
package auth
