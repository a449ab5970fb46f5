// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/campaign"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/intelligence"
	"github.com/signaldesk/signaldesk/internal/logging"
)

// respondRunError maps orchestrator and campaign errors. Source and model
// failures never reach here; they are recorded on the result instead.
func respondRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		response.New(w, r).NotFound("organization not found")
	case errors.Is(err, intelligence.ErrNoSources):
		response.New(w, r).ServiceUnavailable(err.Error())
	default:
		response.New(w, r).DatabaseError(err)
	}
}

// StartRun runs the intelligence chain synchronously and returns the run.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	if h.intel == nil {
		unavailable(w, r, "intelligence")
		return
	}
	var req intelligence.RunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	run, err := h.intel.Run(r.Context(), req)
	if err != nil {
		respondRunError(w, r, err)
		return
	}
	h.invalidateBrand(run.OrganizationID)
	response.New(w, r).Created(run)
}

// StartRealtimeRun runs the last-24h pass with detection for one organization.
func (h *Handler) StartRealtimeRun(w http.ResponseWriter, r *http.Request) {
	if h.intel == nil {
		unavailable(w, r, "intelligence")
		return
	}
	run, err := h.intel.RunRealtime(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		respondRunError(w, r, err)
		return
	}
	h.invalidateBrand(run.OrganizationID)
	response.New(w, r).Created(run)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		response.New(w, r).BadRequest(err.Error())
		return
	}
	runs, err := h.store.ListRuns(r.Context(), probe(opts))
	if err != nil {
		respondStoreError(w, r, "runs", err)
		return
	}
	respondList(w, r, runs, opts)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "run", err)
		return
	}
	response.New(w, r).Success(run)
}

// CampaignResearch builds a research brief for a topic.
func (h *Handler) CampaignResearch(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, r, "campaigns")
		return
	}
	var req campaign.ResearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	brief, err := h.campaigns.Research(r.Context(), req)
	if err != nil {
		respondRunError(w, r, err)
		return
	}
	response.New(w, r).Success(brief)
}

// CampaignBlueprint plans a phased campaign.
func (h *Handler) CampaignBlueprint(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, r, "campaigns")
		return
	}
	var req campaign.BlueprintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bp, err := h.campaigns.Blueprint(r.Context(), req)
	if err != nil {
		respondRunError(w, r, err)
		return
	}
	response.New(w, r).Success(bp)
}

// BrandSnapshot serves the cached snapshot, building it on a miss. The
// X-Cache header reports which happened.
func (h *Handler) BrandSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand cache")
		return
	}
	snap, cached, err := h.brands.Get(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		respondStoreError(w, r, "organization", err)
		return
	}
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	response.New(w, r).Success(snap)
}

// WarmCache rebuilds every brand snapshot now.
func (h *Handler) WarmCache(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand cache")
		return
	}
	stats, err := h.brands.WarmAll(r.Context())
	if err != nil {
		respondStoreError(w, r, "organizations", err)
		return
	}
	response.New(w, r).Success(stats)
}

// ClearCache drops every brand snapshot.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand cache")
		return
	}
	n := h.brands.Clear()
	logging.Ctx(r.Context()).Info().Int("entries", n).Msg("Brand cache cleared")
	response.New(w, r).Success(map[string]int{"cleared": n})
}
