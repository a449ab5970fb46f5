// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/signaldesk/signaldesk/internal/api"
	"github.com/signaldesk/signaldesk/internal/archive"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/authz"
	"github.com/signaldesk/signaldesk/internal/batch"
	"github.com/signaldesk/signaldesk/internal/brandcache"
	"github.com/signaldesk/signaldesk/internal/campaign"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/events"
	"github.com/signaldesk/signaldesk/internal/intelligence"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/opportunity"
	"github.com/signaldesk/signaldesk/internal/search"
	"github.com/signaldesk/signaldesk/internal/supervisor"
	"github.com/signaldesk/signaldesk/internal/supervisor/services"
	ws "github.com/signaldesk/signaldesk/internal/websocket"
)

// app holds every long-lived component. close releases them in reverse
// order of construction.
type app struct {
	cfg *config.Config

	store    database.Store
	llm      *llm.Registry
	search   *search.Registry
	bus      *events.Bus
	router   *events.Router
	hub      *ws.Hub
	sink     archive.Sink
	orch     *intelligence.Orchestrator
	sched    *intelligence.Scheduler
	warmer   *brandcache.Warmer
	enforcer *authz.Enforcer
	server   *http.Server

	closers []func() error
}

func (a *app) onClose(name string, fn func() error) {
	a.closers = append(a.closers, func() error {
		if err := fn(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		return nil
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Error().Err(err).Msg("Shutdown cleanup failed")
		}
	}
}

// newApp builds the component graph. On error everything built so far is
// released.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.store, err = database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.onClose("database", a.store.Close)
	logging.Info().Str("driver", cfg.Database.Driver).Msg("Database initialized")

	a.llm, err = llm.NewRegistryFromConfig(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("configure llm providers: %w", err)
	}
	a.onClose("llm cache", a.llm.Close)
	a.search = search.NewRegistryFromConfig(&cfg.Search)
	logging.Info().
		Strs("llm_providers", a.llm.Names()).
		Str("llm_default", a.llm.Default()).
		Strs("search_sources", a.search.Names()).
		Msg("Upstream providers configured")

	detector, err := opportunity.NewDetector(cfg.Opportunity)
	if err != nil {
		return nil, fmt.Errorf("compile opportunity rules: %w", err)
	}

	a.bus, err = events.NewBus(ctx, cfg.Events)
	if err != nil {
		return nil, fmt.Errorf("start event bus: %w", err)
	}
	a.onClose("event bus", a.bus.Close)
	a.hub = ws.NewHub()
	a.router = events.NewRouter(a.bus, cfg.Events.RouterRetries, cfg.Events.RouterRetryInterval)
	a.router.Handle("websocket-forward", events.Forward(a.hub))

	a.sink, err = archive.New(ctx, cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("configure archive: %w", err)
	}

	opts := []intelligence.Option{
		intelligence.WithEvents(a.bus),
		intelligence.WithProgress(a.hub),
	}
	if a.sink != nil {
		a.onClose("archive", a.sink.Close)
		opts = append(opts, intelligence.WithArchive(a.sink))
		logging.Info().Str("backend", cfg.Archive.Backend).Str("bucket", cfg.Archive.Bucket).Msg("Run archive enabled")
	}
	a.orch = intelligence.New(a.store, a.search, a.llm, detector, cfg.Intelligence, opts...)
	a.sched = intelligence.NewScheduler(a.store, a.orch, cfg.Intelligence.SchedulerInterval, batch.Options{
		Size:  cfg.Intelligence.BatchSize,
		Delay: cfg.Intelligence.BatchDelay,
	})
	campaigns := campaign.NewService(a.store, a.search, a.llm, cfg.Intelligence)

	a.warmer = brandcache.NewWarmer(a.store, cfg.CacheWarmer, brandcache.WithEvents(a.bus))
	a.onClose("brand cache", func() error { a.warmer.Close(); return nil })

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil && cfg.Security.AuthMode == auth.ModeJWT {
		return nil, fmt.Errorf("configure jwt: %w", err)
	}
	var authenticator *auth.Authenticator
	if jwtManager != nil {
		authenticator, err = auth.NewAuthenticator(jwtManager, a.store, cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("configure authenticator: %w", err)
		}
	}
	a.enforcer, err = authz.NewEnforcer(authz.ConfigFromSecurity(&cfg.Security))
	if err != nil {
		return nil, fmt.Errorf("load authorization policy: %w", err)
	}
	a.onClose("authorization", func() error { a.enforcer.Close(); return nil })

	deps := api.Deps{
		Store:         a.store,
		Authenticator: authenticator,
		LLM:           a.llm,
		Search:        a.search,
		Intelligence:  a.orch,
		Campaigns:     campaigns,
		Brands:        a.warmer,
		Config:        cfg,
	}
	handler := api.NewHandler(deps)
	router := api.NewRouter(handler,
		auth.NewMiddleware(jwtManager, &cfg.Security),
		authz.NewMiddleware(a.enforcer),
		api.NewChiMiddlewareFromConfig(&cfg.Security),
		a.hub,
	)

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// writeTimeout leaves room for the slowest synchronous endpoint, a full
// intelligence run with synthesis.
func writeTimeout(cfg *config.Config) time.Duration {
	run := cfg.Intelligence.SourceTimeout + cfg.Intelligence.SynthesisTimeout + 10*time.Second
	return max(cfg.Server.Timeout, run)
}

// supervise places every service in its layer.
func (a *app) supervise(tree *supervisor.Tree) {
	if embedded := a.bus.Embedded(); embedded != nil {
		tree.AddMessagingService(embedded)
	}
	tree.AddMessagingService(a.router)
	tree.AddMessagingService(a.hub)

	if a.cfg.CacheWarmer.Enabled {
		tree.AddDataService(a.warmer)
	} else {
		logging.Info().Msg("Brand cache warmer disabled (CACHE_WARMER_ENABLED=false)")
	}
	if a.cfg.Intelligence.SchedulerEnabled {
		tree.AddDataService(a.sched)
	} else {
		logging.Info().Msg("Intelligence scheduler disabled (INTEL_SCHEDULER_ENABLED=false)")
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server.Addr, a.server, services.WithShutdownTimeout(10*time.Second)))
}
