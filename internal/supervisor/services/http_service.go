// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package services adapts blocking servers to suture.Service.
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/signaldesk/signaldesk/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// Server is the part of *http.Server the service drives.
type Server interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// HTTPServerService binds addr, serves until the supervisor cancels, then
// drains in-flight requests for at most the shutdown timeout. Each restart
// binds a fresh listener, so a failed bind is retried with the tree's backoff.
//
//	tree.AddAPIService(services.NewHTTPServerService(server.Addr, server))
type HTTPServerService struct {
	addr    string
	server  Server
	timeout time.Duration
	name    string
	listen  func(network, address string) (net.Listener, error)

	mu    sync.RWMutex
	bound net.Addr
}

// Option configures an HTTPServerService.
type Option func(*HTTPServerService)

// WithShutdownTimeout bounds the drain after cancellation. Non-positive
// values keep the default of ten seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *HTTPServerService) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithName sets the name reported to the supervisor and in logs.
func WithName(name string) Option {
	return func(h *HTTPServerService) {
		if name != "" {
			h.name = name
		}
	}
}

// NewHTTPServerService wraps server, listening on addr.
func NewHTTPServerService(addr string, server Server, opts ...Option) *HTTPServerService {
	h := &HTTPServerService{
		addr:    addr,
		server:  server,
		timeout: defaultShutdownTimeout,
		name:    "http-server",
		listen:  net.Listen,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Addr returns the bound address while the service is serving, nil otherwise.
func (h *HTTPServerService) Addr() net.Addr {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bound
}

func (h *HTTPServerService) setBound(a net.Addr) {
	h.mu.Lock()
	h.bound = a
	h.mu.Unlock()
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	log := logging.WithComponent(h.name)

	ln, err := h.listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("%s: listen on %s: %w", h.name, h.addr, err)
	}
	defer ln.Close()
	h.setBound(ln.Addr())
	defer h.setBound(nil)

	errCh := make(chan error, 1)
	go func() { errCh <- h.server.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", h.name, err)
	case <-ctx.Done():
	}

	started := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", h.name, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("HTTP server returned an error while draining")
	}
	log.Info().Dur("drain", time.Since(started)).Msg("HTTP server stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return h.name }
