// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/models"
)

// Organizations

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		response.New(w, r).BadRequest(err.Error())
		return
	}
	orgs, err := h.store.ListOrganizations(r.Context(), probe(opts))
	if err != nil {
		respondStoreError(w, r, "organizations", err)
		return
	}
	respondList(w, r, orgs, opts)
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.store.GetOrganization(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "organization", err)
		return
	}
	response.New(w, r).Success(org)
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	org := &models.Organization{}
	req.apply(org)
	if err := h.store.CreateOrganization(r.Context(), org); err != nil {
		respondStoreError(w, r, "organization", err)
		return
	}
	response.New(w, r).Created(org)
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	org := &models.Organization{ID: chi.URLParam(r, "id")}
	req.apply(org)
	if err := h.store.UpdateOrganization(r.Context(), org); err != nil {
		respondStoreError(w, r, "organization", err)
		return
	}
	h.invalidateBrand(org.ID)
	response.New(w, r).Success(org)
}

func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteOrganization(r.Context(), id); err != nil {
		respondStoreError(w, r, "organization", err)
		return
	}
	h.invalidateBrand(id)
	response.New(w, r).NoContent()
}

func (h *Handler) invalidateBrand(orgID string) {
	if h.brands != nil {
		h.brands.Invalidate(orgID)
	}
}

// Projects

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		response.New(w, r).BadRequest(err.Error())
		return
	}
	projects, err := h.store.ListProjects(r.Context(), probe(opts))
	if err != nil {
		respondStoreError(w, r, "projects", err)
		return
	}
	respondList(w, r, projects, opts)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "project", err)
		return
	}
	response.New(w, r).Success(p)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !decodeBody(w, r, &req) || !h.requireOrganization(w, r, req.OrganizationID) {
		return
	}
	p := &models.Project{}
	req.apply(p)
	if err := h.store.CreateProject(r.Context(), p); err != nil {
		respondStoreError(w, r, "project", err)
		return
	}
	response.New(w, r).Created(p)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p := &models.Project{ID: chi.URLParam(r, "id")}
	req.apply(p)
	if err := h.store.UpdateProject(r.Context(), p); err != nil {
		respondStoreError(w, r, "project", err)
		return
	}
	response.New(w, r).Success(p)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "project", err)
		return
	}
	response.New(w, r).NoContent()
}

// Content items

func (h *Handler) ListContentItems(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		response.New(w, r).BadRequest(err.Error())
		return
	}
	items, err := h.store.ListContentItems(r.Context(), probe(opts))
	if err != nil {
		respondStoreError(w, r, "content", err)
		return
	}
	respondList(w, r, items, opts)
}

func (h *Handler) GetContentItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetContentItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "content item", err)
		return
	}
	response.New(w, r).Success(c)
}

func (h *Handler) CreateContentItem(w http.ResponseWriter, r *http.Request) {
	var req ContentItemRequest
	if !decodeBody(w, r, &req) || !h.requireOrganization(w, r, req.OrganizationID) {
		return
	}
	c := &models.ContentItem{}
	req.apply(c)
	if err := h.store.CreateContentItem(r.Context(), c); err != nil {
		respondStoreError(w, r, "content item", err)
		return
	}
	response.New(w, r).Created(c)
}

func (h *Handler) UpdateContentItem(w http.ResponseWriter, r *http.Request) {
	var req ContentItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := &models.ContentItem{ID: chi.URLParam(r, "id")}
	req.apply(c)
	if err := h.store.UpdateContentItem(r.Context(), c); err != nil {
		respondStoreError(w, r, "content item", err)
		return
	}
	response.New(w, r).Success(c)
}

func (h *Handler) DeleteContentItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteContentItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "content item", err)
		return
	}
	response.New(w, r).NoContent()
}

// Media contacts

func (h *Handler) ListMediaContacts(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		response.New(w, r).BadRequest(err.Error())
		return
	}
	contacts, err := h.store.ListMediaContacts(r.Context(), probe(opts))
	if err != nil {
		respondStoreError(w, r, "media contacts", err)
		return
	}
	respondList(w, r, contacts, opts)
}

func (h *Handler) GetMediaContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetMediaContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "media contact", err)
		return
	}
	response.New(w, r).Success(c)
}

func (h *Handler) CreateMediaContact(w http.ResponseWriter, r *http.Request) {
	var req MediaContactRequest
	if !decodeBody(w, r, &req) || !h.requireOrganization(w, r, req.OrganizationID) {
		return
	}
	c := &models.MediaContact{}
	req.apply(c)
	if err := h.store.CreateMediaContact(r.Context(), c); err != nil {
		respondStoreError(w, r, "media contact", err)
		return
	}
	response.New(w, r).Created(c)
}

func (h *Handler) UpdateMediaContact(w http.ResponseWriter, r *http.Request) {
	var req MediaContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := &models.MediaContact{ID: chi.URLParam(r, "id")}
	req.apply(c)
	if err := h.store.UpdateMediaContact(r.Context(), c); err != nil {
		respondStoreError(w, r, "media contact", err)
		return
	}
	response.New(w, r).Success(c)
}

func (h *Handler) DeleteMediaContact(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteMediaContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "media contact", err)
		return
	}
	response.New(w, r).NoContent()
}
