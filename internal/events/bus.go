// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/resilience"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// Bus publishes domain events and hands the subscriber side to a Router.
type Bus struct {
	backend  string
	pub      message.Publisher
	sub      message.Subscriber
	topics   []string
	breaker  *resilience.Breaker[struct{}]
	embedded *EmbeddedServer
	logger   watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus builds the configured backend. For NATS it starts the embedded
// server when enabled and provisions the stream before connecting.
func NewBus(ctx context.Context, cfg config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger().With("component", "events"))

	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryBus(logger), nil
	case BackendNATS:
		return newNATSBus(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewMemoryBus returns an in-process bus. Events published while nothing is
// subscribed are dropped.
func NewMemoryBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)

	topics := make([]string, len(Types))
	for i, t := range Types {
		topics[i] = Topic(t)
	}
	return newBus(BackendMemory, ch, ch, topics, logger)
}

func newNATSBus(ctx context.Context, cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	url := cfg.NATSURL
	var embedded *EmbeddedServer
	if cfg.EmbeddedServer {
		srv, err := StartEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort, cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		embedded = srv
		url = srv.ClientURL()
	}

	cleanup := func() {
		if embedded != nil {
			embedded.Shutdown()
		}
	}

	if err := provisionStream(ctx, url, cfg); err != nil {
		cleanup()
		return nil, err
	}
	pub, err := newNATSPublisher(url, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	sub, err := newNATSSubscriber(url, cfg, logger)
	if err != nil {
		_ = pub.Close()
		cleanup()
		return nil, err
	}

	b := newBus(BackendNATS, pub, sub, []string{SubjectPrefix + ">"}, logger)
	b.embedded = embedded
	logging.Info().Str("url", url).Str("stream", cfg.StreamName).Msg("NATS event bus connected")
	return b, nil
}

func newBus(backend string, pub message.Publisher, sub message.Subscriber, topics []string, logger watermill.LoggerAdapter) *Bus {
	return &Bus{
		backend: backend,
		pub:     pub,
		sub:     sub,
		topics:  topics,
		breaker: resilience.New[struct{}](resilience.DefaultSettings("events-publish")),
		logger:  logger,
	}
}

// Backend returns the backend name.
func (b *Bus) Backend() string { return b.backend }

// Embedded returns the embedded NATS server, or nil.
func (b *Bus) Embedded() *EmbeddedServer { return b.embedded }

// Publish sends ev through the circuit breaker.
func (b *Bus) Publish(ctx context.Context, ev *Event) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrBusClosed
	}

	if err := ev.Validate(); err != nil {
		return err
	}
	data, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, data)
	msg.Metadata.Set(MetadataType, ev.Type)
	msg.Metadata.Set(MetadataOrganizationID, ev.OrganizationID)
	msg.SetContext(ctx)

	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.pub.Publish(ev.Topic(), msg)
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Type, "success").Inc()
	return nil
}

// Emit publishes an event built from its parts and logs, rather than
// returns, any failure.
func (b *Bus) Emit(ctx context.Context, eventType, orgID, runID string, payload any) {
	ev, err := New(eventType, orgID, runID, payload)
	if err == nil {
		err = b.Publish(ctx, ev)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event_type", eventType).
			Str("organization_id", orgID).
			Msg("Failed to publish domain event")
	}
}

// Close closes the publisher, the subscriber and the embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.pub.Close(); err != nil {
		errs = append(errs, err)
	}
	if b.sub != nil && any(b.sub) != any(b.pub) {
		if err := b.sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
	return errors.Join(errs...)
}
