// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"context"
	"time"

	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/brandcache"
	"github.com/signaldesk/signaldesk/internal/campaign"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/intelligence"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/search"
)

// LLMProxy is the part of llm.Registry the proxy endpoints use.
type LLMProxy interface {
	Complete(ctx context.Context, name string, req llm.Request) (*llm.Response, error)
	Names() []string
	Default() string
}

// SearchProxy is the part of search.Registry the proxy endpoints use.
type SearchProxy interface {
	Search(ctx context.Context, name string, q search.Query) ([]search.Result, error)
	Scrape(ctx context.Context, url string) (*search.Page, error)
	Names() []string
}

// IntelligenceRunner starts orchestrator runs.
type IntelligenceRunner interface {
	Run(ctx context.Context, req intelligence.RunRequest) (*models.IntelligenceRun, error)
	RunRealtime(ctx context.Context, orgID string) (*models.IntelligenceRun, error)
}

// CampaignPlanner produces research briefs and blueprints.
type CampaignPlanner interface {
	Research(ctx context.Context, req campaign.ResearchRequest) (*models.ResearchBrief, error)
	Blueprint(ctx context.Context, req campaign.BlueprintRequest) (*models.Blueprint, error)
}

// BrandCache serves and warms brand snapshots.
type BrandCache interface {
	Get(ctx context.Context, orgID string) (*models.BrandSnapshot, bool, error)
	Invalidate(orgID string)
	WarmAll(ctx context.Context) (brandcache.WarmStats, error)
	Clear() int
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: liveness and readiness
//   - handlers_auth.go: login, me and user management
//   - handlers_crud.go: organizations, projects, content, media contacts
//   - handlers_opportunities.go: opportunity CRUD and status changes
//   - handlers_proxy.go: LLM and search proxies
//   - handlers_intelligence.go: runs, campaigns and brand snapshots
type Handler struct {
	store     database.Store
	auth      *auth.Authenticator
	llm       LLMProxy
	search    SearchProxy
	intel     IntelligenceRunner
	campaigns CampaignPlanner
	brands    BrandCache
	config    *config.Config
	startTime time.Time
}

// Deps are the services a Handler fronts. Store and Config are required;
// endpoints whose dependency is nil answer 503.
type Deps struct {
	Store         database.Store
	Authenticator *auth.Authenticator
	LLM           LLMProxy
	Search        SearchProxy
	Intelligence  IntelligenceRunner
	Campaigns     CampaignPlanner
	Brands        BrandCache
	Config        *config.Config
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:     d.Store,
		auth:      d.Authenticator,
		llm:       d.LLM,
		search:    d.Search,
		intel:     d.Intelligence,
		campaigns: d.Campaigns,
		brands:    d.Brands,
		config:    d.Config,
		startTime: time.Now(),
	}
}
