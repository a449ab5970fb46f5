// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

// ListOpportunities lists opportunities best score first. Filter with
// organization_id and status.
func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		response.New(w, r).BadRequest(err.Error())
		return
	}
	opps, err := h.store.ListOpportunities(r.Context(), probe(opts))
	if err != nil {
		respondStoreError(w, r, "opportunities", err)
		return
	}
	respondList(w, r, opps, opts)
}

func (h *Handler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOpportunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	response.New(w, r).Success(o)
}

func (h *Handler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req OpportunityRequest
	if !decodeBody(w, r, &req) || !h.requireOrganization(w, r, req.OrganizationID) {
		return
	}
	o := &models.Opportunity{Source: "manual"}
	req.apply(o)
	if err := h.store.CreateOpportunity(r.Context(), o); err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	h.invalidateBrand(o.OrganizationID)
	response.New(w, r).Created(o)
}

func (h *Handler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req OpportunityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o := &models.Opportunity{ID: chi.URLParam(r, "id")}
	req.apply(o)
	if err := h.store.UpdateOpportunity(r.Context(), o); err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	h.invalidateBrand(o.OrganizationID)
	response.New(w, r).Success(o)
}

// UpdateOpportunityStatus moves an opportunity between open, pursuing,
// dismissed and expired.
func (h *Handler) UpdateOpportunityStatus(w http.ResponseWriter, r *http.Request) {
	var req OpportunityStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := h.store.GetOpportunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	previous := o.Status
	o.Status = req.Status
	if err := h.store.UpdateOpportunity(r.Context(), o); err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	h.invalidateBrand(o.OrganizationID)
	logging.Ctx(r.Context()).Info().
		Str("opportunity_id", o.ID).
		Str("from", previous).
		Str("to", o.Status).
		Msg("Opportunity status changed")
	response.New(w, r).Success(o)
}

func (h *Handler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.store.GetOpportunity(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	if err := h.store.DeleteOpportunity(r.Context(), id); err != nil {
		respondStoreError(w, r, "opportunity", err)
		return
	}
	h.invalidateBrand(o.OrganizationID)
	response.New(w, r).NoContent()
}
