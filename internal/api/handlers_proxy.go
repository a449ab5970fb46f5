// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/search"
)

// respondUpstreamError maps provider failures: unknown names are the
// client's fault, an open breaker is 503 and anything else is 502.
func respondUpstreamError(w http.ResponseWriter, r *http.Request, service string, err error) {
	rw := response.New(w, r)
	switch {
	case errors.Is(err, llm.ErrProviderNotConfigured), errors.Is(err, search.ErrSourceNotConfigured):
		rw.BadRequest(err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		rw.ServiceUnavailable(service + " is temporarily unavailable")
	default:
		rw.ExternalServiceError(service, err)
	}
}

// LLMProviders lists configured providers and the default.
func (h *Handler) LLMProviders(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		unavailable(w, r, "llm")
		return
	}
	response.New(w, r).Success(map[string]any{
		"providers": h.llm.Names(),
		"default":   h.llm.Default(),
	})
}

// LLMComplete proxies one completion. The provider "default" selects the
// configured default provider.
func (h *Handler) LLMComplete(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		unavailable(w, r, "llm")
		return
	}
	provider := chi.URLParam(r, "provider")
	if provider == "default" {
		provider = ""
	}
	var req llm.Request
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.llm.Complete(r.Context(), provider, req)
	if err != nil {
		respondUpstreamError(w, r, "llm:"+sanitizeLogValue(chi.URLParam(r, "provider")), err)
		return
	}
	response.New(w, r).Success(resp)
}

// SearchSources lists configured search sources.
func (h *Handler) SearchSources(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		unavailable(w, r, "search")
		return
	}
	response.New(w, r).Success(map[string]any{"sources": h.search.Names()})
}

// Search proxies one query to a single source.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		unavailable(w, r, "search")
		return
	}
	source := chi.URLParam(r, "source")
	var q search.Query
	if !decodeBody(w, r, &q) {
		return
	}

	results, err := h.search.Search(r.Context(), source, q)
	if err != nil {
		respondUpstreamError(w, r, "search:"+sanitizeLogValue(source), err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	response.New(w, r).SuccessWithMeta(results, &response.Meta{
		Pagination: &response.Pagination{Count: len(results), Limit: q.Limit},
	})
}

// Scrape fetches one page as markdown.
func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		unavailable(w, r, "search")
		return
	}
	var req ScrapeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	page, err := h.search.Scrape(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, search.ErrSourceNotConfigured) {
			unavailable(w, r, "scraping")
			return
		}
		respondUpstreamError(w, r, "scrape", err)
		return
	}
	response.New(w, r).Success(page)
}
