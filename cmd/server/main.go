// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package main is the SignalDesk API server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging and OTLP tracing
//  3. Store (DuckDB, Postgres or memory)
//  4. LLM and search registries, opportunity detector
//  5. Event bus (memory or NATS JetStream, optionally embedded), websocket hub
//  6. Orchestrator, scheduler, campaign planner, brand cache warmer
//  7. Auth, casbin policy and the chi router
//  8. Supervisor tree
//
// Minimal development run:
//
//	export AUTH_MODE=none
//	export DATABASE_DRIVER=memory
//	export ANTHROPIC_API_KEY=...
//	export NEWSAPI_API_KEY=...
//	./signaldesk
//
// SIGINT and SIGTERM cancel the tree; in-flight requests get ten seconds.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/supervisor"
	"github.com/signaldesk/signaldesk/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: "signaldesk",
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("database", cfg.Database.Driver).
		Str("events", cfg.Events.Backend).
		Msg("Starting SignalDesk")
	warnInsecureSettings(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, version, cfg.Server.Environment)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logging.Error().Err(err).Msg("Error flushing traces")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.close()

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	a.supervise(tree)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", a.server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	logging.Info().Msg("SignalDesk stopped")
}

func warnInsecureSettings(cfg *config.Config) {
	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); every request runs as a development admin")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins before exposing the API")
	}
}
