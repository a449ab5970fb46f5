// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
)

// Handler consumes one decoded event. Returning an error triggers a retry.
type Handler func(ctx context.Context, ev *Event) error

type namedHandler struct {
	name string
	fn   Handler
}

// Router consumes every topic of a Bus and dispatches each event to the
// registered handlers in registration order.
type Router struct {
	bus           *Bus
	retries       int
	retryInterval time.Duration

	mu       sync.Mutex
	handlers []namedHandler
	ready    chan struct{}
	once     sync.Once
}

// NewRouter creates a router over bus. retries and interval configure the
// Retry middleware.
func NewRouter(bus *Bus, retries int, interval time.Duration) *Router {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Router{
		bus:           bus,
		retries:       max(retries, 0),
		retryInterval: interval,
		ready:         make(chan struct{}),
	}
}

// Handle registers fn under name. Handlers must be registered before Serve.
func (r *Router) Handle(name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, namedHandler{name: name, fn: fn})
}

// Ready is closed once the router first starts consuming.
func (r *Router) Ready() <-chan struct{} { return r.ready }

func (r *Router) String() string { return "event-router" }

// Serve runs a watermill router until ctx is cancelled. Each call builds a
// fresh router so the supervisor can restart it.
func (r *Router) Serve(ctx context.Context) error {
	wr, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, r.bus.logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	wr.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      r.retries,
			InitialInterval: r.retryInterval,
			MaxInterval:     10 * r.retryInterval,
			Multiplier:      2,
			Logger:          r.bus.logger,
		}.Middleware,
	)

	for _, topic := range r.bus.topics {
		wr.AddConsumerHandler("dispatch:"+topic, topic, r.bus.sub, r.dispatch)
	}

	go func() {
		select {
		case <-wr.Running():
			r.once.Do(func() { close(r.ready) })
		case <-ctx.Done():
		}
	}()

	if err := wr.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

func (r *Router) dispatch(msg *message.Message) error {
	ev, err := Unmarshal(msg.Payload)
	if err != nil {
		// Undecodable messages are acked; retrying cannot fix them.
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed domain event")
		return nil
	}

	r.mu.Lock()
	handlers := r.handlers
	r.mu.Unlock()

	for _, h := range handlers {
		if err := h.fn(msg.Context(), ev); err != nil {
			return fmt.Errorf("handler %s: %w", h.name, err)
		}
		metrics.EventsConsumed.WithLabelValues(h.name).Inc()
	}
	return nil
}

// Broadcaster receives events forwarded to websocket clients.
type Broadcaster interface {
	BroadcastRaw(messageType string, payload []byte) bool
}

// Forward returns a handler that sends each event envelope to b under the
// event's type.
func Forward(b Broadcaster) Handler {
	return func(_ context.Context, ev *Event) error {
		data, err := ev.Marshal()
		if err != nil {
			return err
		}
		b.BroadcastRaw(ev.Type, data)
		return nil
	}
}
