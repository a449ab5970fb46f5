// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

/*
Package websocket streams run progress and domain events to browser clients.

A single Hub owns the set of connected clients. Each Client runs two
goroutines: readPump answers application-level pings and detects disconnects,
writePump drains the client's send queue and keeps the connection alive with
protocol pings.

Every frame is a JSON Message:

	{"type": "run.progress", "data": {...}}

Broadcasts never block the caller. When the hub's queue is full the message is
dropped and logged; when a client's queue is full that client is disconnected.

Hub.Serve blocks until its context is cancelled, so the hub can run under a
suture supervisor.
*/
package websocket
