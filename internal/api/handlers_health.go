// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/logging"
)

// HealthLive reports that the process is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	response.New(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 only when the store answers a ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Readiness check failed")
		response.New(w, r).ServiceUnavailable("database is not reachable")
		return
	}

	data := map[string]any{
		"ready":    true,
		"database": h.config.Database.Driver,
		"uptime":   time.Since(h.startTime).Seconds(),
	}
	if h.llm != nil {
		data["llm_providers"] = h.llm.Names()
	}
	if h.search != nil {
		data["search_sources"] = h.search.Names()
	}
	response.New(w, r).Success(data)
}
