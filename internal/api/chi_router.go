// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	gorillaws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/authz"
	"github.com/signaldesk/signaldesk/internal/middleware"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/websocket"
)

// Router wires handlers, authentication, authorization and rate limits
// into one chi tree.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
	hub           *websocket.Hub
	upgrader      *gorillaws.Upgrader
}

// NewRouter creates a router. hub may be nil, in which case /api/v1/ws is
// not registered.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware, hub *websocket.Hub) *Router {
	router := &Router{
		handler:       handler,
		middleware:    authMW,
		authz:         authzMW,
		chiMiddleware: chiMW,
		hub:           hub,
	}
	if hub != nil {
		router.upgrader = websocket.NewUpgrader(authMW.CORSOrigins())
	}
	return router
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// authorize enforces resource access with the action taken from the method.
func (router *Router) authorize(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return router.authz.Authorize(resource, next.ServeHTTP)
	}
}

// require enforces a fixed action on resource.
func (router *Router) require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return router.authz.Require(resource, action, next.ServeHTTP)
	}
}

// requireRole rejects callers whose token role is below role, whatever the
// casbin policy grants.
func (router *Router) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return router.middleware.RequireRole(role, next.ServeHTTP)
	}
}

// Setup builds the HTTP handler.
func (router *Router) Setup() http.Handler {
	h := router.handler
	limits := router.chiMiddleware
	r := chi.NewRouter()

	// Global middleware, applied to every route in order
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(limits.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.New(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.New(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(limits.RateLimitHealth())
		r.Use(chiMiddleware(router.middleware.SecurityHeaders))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(chiMiddleware(router.middleware.SecurityHeaders))
		r.With(limits.RateLimitAuth(), limits.RateLimitLogin()).Post("/login", h.Login)
		r.With(limits.RateLimit(), chiMiddleware(router.middleware.Authenticate)).Get("/me", h.Me)
	})

	// Authenticated API: rate limit, security headers, metrics, authenticate,
	// then per-resource authorization.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limits.RateLimit())
		r.Use(chiMiddleware(router.middleware.SecurityHeaders))
		r.Use(middleware.PrometheusMetrics)
		r.Use(chiMiddleware(router.middleware.Authenticate))

		r.Route("/organizations", func(r chi.Router) {
			r.Use(router.authorize("organizations"))
			r.Get("/", h.ListOrganizations)
			r.With(limits.RateLimitWrite()).Post("/", h.CreateOrganization)
			r.Get("/{id}", h.GetOrganization)
			r.Put("/{id}", h.UpdateOrganization)
			r.Delete("/{id}", h.DeleteOrganization)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Use(router.authorize("projects"))
			r.Get("/", h.ListProjects)
			r.With(limits.RateLimitWrite()).Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Put("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.DeleteProject)
		})

		r.Route("/content", func(r chi.Router) {
			r.Use(router.authorize("content"))
			r.Get("/", h.ListContentItems)
			r.With(limits.RateLimitWrite()).Post("/", h.CreateContentItem)
			r.Get("/{id}", h.GetContentItem)
			r.Put("/{id}", h.UpdateContentItem)
			r.Delete("/{id}", h.DeleteContentItem)
		})

		r.Route("/media-contacts", func(r chi.Router) {
			r.Use(router.authorize("media-contacts"))
			r.Get("/", h.ListMediaContacts)
			r.With(limits.RateLimitWrite()).Post("/", h.CreateMediaContact)
			r.Get("/{id}", h.GetMediaContact)
			r.Put("/{id}", h.UpdateMediaContact)
			r.Delete("/{id}", h.DeleteMediaContact)
		})

		r.Route("/opportunities", func(r chi.Router) {
			r.Use(router.authorize("opportunities"))
			r.Get("/", h.ListOpportunities)
			r.With(limits.RateLimitWrite()).Post("/", h.CreateOpportunity)
			r.Get("/{id}", h.GetOpportunity)
			r.Put("/{id}", h.UpdateOpportunity)
			r.Patch("/{id}/status", h.UpdateOpportunityStatus)
			r.Delete("/{id}", h.DeleteOpportunity)
		})

		r.Route("/llm", func(r chi.Router) {
			r.Use(router.authorize("llm"))
			r.Get("/providers", h.LLMProviders)
			r.With(limits.RateLimitLLM()).Post("/{provider}/complete", h.LLMComplete)
		})

		r.Route("/search", func(r chi.Router) {
			r.Use(router.authorize("search"))
			r.Get("/sources", h.SearchSources)
			r.Post("/{source}", h.Search)
		})
		r.With(router.authorize("search")).Post("/scrape", h.Scrape)

		r.Route("/intelligence", func(r chi.Router) {
			r.Use(router.authorize("intelligence"))
			r.With(limits.RateLimitLLM()).Post("/runs", h.StartRun)
			r.Get("/runs", h.ListRuns)
			r.Get("/runs/{id}", h.GetRun)
			r.With(limits.RateLimitLLM()).Post("/realtime/{orgID}", h.StartRealtimeRun)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Use(router.authorize("campaigns"))
			r.Use(limits.RateLimitLLM())
			r.Post("/research", h.CampaignResearch)
			r.Post("/blueprint", h.CampaignBlueprint)
		})

		r.With(router.authorize("brands")).Get("/brands/{orgID}/snapshot", h.BrandSnapshot)

		r.Route("/admin", func(r chi.Router) {
			r.Use(router.requireRole(models.RoleAdmin))
			r.With(router.require("cache", authz.ActionWrite)).Post("/cache/warm", h.WarmCache)
			r.With(router.require("cache", authz.ActionDelete)).Delete("/cache", h.ClearCache)
			r.With(router.require("users", authz.ActionWrite)).Post("/users", h.CreateUser)
		})

		if router.hub != nil {
			r.With(limits.RateLimitWebSocket(), router.authorize("intelligence")).
				Get("/ws", router.hub.ServeHTTP(router.upgrader))
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
