// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/httpjson"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/resilience"
)

type guarded struct {
	provider Provider
	breaker  *resilience.Breaker[*Response]
	limiter  *rate.Limiter
}

// Registry routes completions to named providers.
type Registry struct {
	providers   map[string]*guarded
	defaultName string
	timeout     time.Duration
	rps         rate.Limit
	burst       int
	cache       ResponseCache
	tracer      trace.Tracer
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefault sets the provider used when a call names none.
func WithDefault(name string) RegistryOption {
	return func(r *Registry) { r.defaultName = name }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.timeout = d }
}

// WithRateLimit sets the per-provider token bucket. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) RegistryOption {
	return func(r *Registry) {
		if rps <= 0 {
			r.rps = rate.Inf
		} else {
			r.rps = rate.Limit(rps)
		}
		r.burst = max(burst, 1)
	}
}

// WithCache enables response caching.
func WithCache(c ResponseCache) RegistryOption {
	return func(r *Registry) { r.cache = c }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		providers:   make(map[string]*guarded),
		defaultName: ProviderAnthropic,
		timeout:     60 * time.Second,
		rps:         rate.Inf,
		burst:       1,
		tracer:      otel.Tracer("github.com/signaldesk/signaldesk/internal/llm"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRegistryFromConfig registers every provider that has an API key.
func NewRegistryFromConfig(ctx context.Context, cfg *config.LLMConfig) (*Registry, error) {
	respCache, err := NewCacheFromConfig(cfg.Cache)
	if err != nil {
		return nil, err
	}

	r := NewRegistry(
		WithDefault(cfg.DefaultProvider),
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		WithCache(respCache),
	)

	// The registry applies the timeout; the HTTP client only guards against
	// a hung connection.
	client := httpjson.New(cfg.Timeout + 5*time.Second)

	if cfg.Anthropic.APIKey != "" {
		r.Register(NewAnthropic(cfg.Anthropic, cfg.MaxTokens, client))
	}
	if cfg.OpenAI.APIKey != "" {
		r.Register(NewOpenAI(cfg.OpenAI, cfg.MaxTokens, client))
	}
	if cfg.Perplexity.APIKey != "" {
		r.Register(NewPerplexity(cfg.Perplexity, cfg.MaxTokens, client))
	}
	if cfg.Gemini.APIKey != "" {
		g, err := NewGemini(ctx, cfg.Gemini, cfg.MaxTokens, client.HTTP)
		if err != nil {
			return nil, err
		}
		r.Register(g)
	}

	if len(r.providers) == 0 {
		logging.Warn().Msg("No LLM providers configured; completions will use fallbacks")
	} else if _, ok := r.providers[r.defaultName]; !ok {
		logging.Warn().Str("default", r.defaultName).Strs("providers", r.Names()).
			Msg("Default LLM provider is not configured")
	}
	return r, nil
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	settings := resilience.DefaultSettings("llm-" + p.Name())
	settings.IsFailure = isBreakerFailure
	r.providers[p.Name()] = &guarded{
		provider: p,
		breaker:  resilience.New[*Response](settings),
		limiter:  rate.NewLimiter(r.rps, r.burst),
	}
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the default provider name.
func (r *Registry) Default() string { return r.defaultName }

// Has reports whether name (or the default, when empty) is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.providers[r.resolve(name)]
	return ok
}

// Complete sends req to the named provider. An empty name uses the default.
func (r *Registry) Complete(ctx context.Context, name string, req Request) (*Response, error) {
	name = r.resolve(name)
	g, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, name)
	}

	ctx, span := r.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", name),
		attribute.String("llm.model", req.Model),
	))
	defer span.End()

	key := ""
	if r.cache != nil && len(req.Messages) == 0 {
		key = CacheKey(name, req.Model, req.System, req.Prompt)
		if resp, hit, err := r.cache.Get(ctx, key); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("provider", name).Msg("LLM cache read failed")
		} else if hit {
			metrics.CacheHits.WithLabelValues("llm").Inc()
			metrics.RecordLLMRequest(name, "cached", 0, 0, 0)
			span.SetAttributes(attribute.Bool("llm.cached", true))
			resp.Cached = true
			return resp, nil
		} else {
			metrics.CacheMisses.WithLabelValues("llm").Inc()
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := g.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limited")
		return nil, fmt.Errorf("%s: rate limit wait: %w", name, err)
	}

	started := time.Now()
	resp, err := g.breaker.Execute(func() (*Response, error) {
		return g.provider.Complete(ctx, req)
	})
	elapsed := time.Since(started)

	if err != nil {
		outcome := "error"
		if resilience.IsRejected(err) {
			outcome = "rejected"
		}
		metrics.RecordLLMRequest(name, outcome, elapsed, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logging.Ctx(ctx).Warn().Err(err).Str("provider", name).Dur("duration", elapsed).Msg("LLM completion failed")
		return nil, err
	}

	metrics.RecordLLMRequest(name, "success", elapsed, resp.InputTokens, resp.OutputTokens)
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.InputTokens),
		attribute.Int("llm.output_tokens", resp.OutputTokens),
	)
	logging.Ctx(ctx).Debug().Str("provider", name).Str("model", resp.Model).
		Int("input_tokens", resp.InputTokens).Int("output_tokens", resp.OutputTokens).
		Dur("duration", elapsed).Msg("LLM completion")

	if key != "" {
		if err := r.cache.Set(ctx, key, resp); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("provider", name).Msg("LLM cache write failed")
		}
	}
	return resp, nil
}

// Close releases the response cache.
func (r *Registry) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

func (r *Registry) resolve(name string) string {
	if name == "" {
		return r.defaultName
	}
	return name
}

// isBreakerFailure ignores cancellations and requests the provider rejected
// as malformed.
func isBreakerFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.clientError() {
		return false
	}
	return true
}
