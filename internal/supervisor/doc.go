// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

/*
Package supervisor runs the long-lived SignalDesk services under suture v4.

The tree has three layers so that failures stay local:

	signaldesk
	├── data-layer
	│   ├── brand-cache-warmer (CACHE_WARMER_ENABLED)
	│   └── intelligence-scheduler (INTEL_SCHEDULER_ENABLED)
	├── messaging-layer
	│   ├── nats-server (EVENTS_BACKEND=nats, embedded)
	│   ├── event-router
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Every component implements suture.Service directly (Serve(ctx) error plus
String), except the HTTP server, which is wrapped by
services.HTTPServerService. Supervisor events are logged through sutureslog
on the zerolog-backed slog handler from internal/logging.

Usage:

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server.Addr, server))
	return tree.Serve(ctx)

Cancelling ctx stops every service; services still running after
ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
