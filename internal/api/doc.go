// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

/*
Package api provides the HTTP REST API layer for SignalDesk.

Every response uses the envelope written by package response:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "...", "pagination": {...}}}
	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "...", "details": {...}}}

API Categories:

1. Public (/api/v1/health, /api/v1/auth/login, /metrics)

2. Workspace CRUD (/api/v1/organizations, /projects, /content, /media-contacts,
/opportunities). Lists take limit (default 50, max 500), offset,
organization_id and status.

3. Proxies (/api/v1/llm/{provider}/complete, /api/v1/search/{source},
/api/v1/scrape). Upstream failures answer 502, unknown providers 400.

4. Orchestration (/api/v1/intelligence, /api/v1/campaigns,
/api/v1/brands/{orgID}/snapshot, /api/v1/admin/cache).

5. WebSocket (/api/v1/ws) streaming run progress and domain events.

Authenticated routes chain rate limit, security headers, Prometheus
metrics, authentication and Casbin authorization, in that order.

Usage Example:

	handler := api.NewHandler(api.Deps{Store: store, Config: cfg, ...})
	router := api.NewRouter(handler, authMW, authzMW, api.NewChiMiddlewareFromConfig(&cfg.Security), hub)
	srv := &http.Server{Addr: ":8080", Handler: router.Setup()}
*/
package api
