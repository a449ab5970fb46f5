// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
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
	source  Source
	breaker *resilience.Breaker[[]Result]
	limiter *rate.Limiter
}

// Registry routes searches to named sources.
type Registry struct {
	sources map[string]*guarded
	scraper Scraper
	scrapeB *resilience.Breaker[*Page]
	timeout time.Duration
	rps     rate.Limit
	burst   int
	tracer  trace.Tracer
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout bounds each source call.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithRateLimit sets the per-source token bucket. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *Registry) {
		if rps <= 0 {
			r.rps = rate.Inf
		} else {
			r.rps = rate.Limit(rps)
		}
		r.burst = max(burst, 1)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sources: make(map[string]*guarded),
		timeout: 15 * time.Second,
		rps:     rate.Inf,
		burst:   1,
		tracer:  otel.Tracer("github.com/signaldesk/signaldesk/internal/search"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRegistryFromConfig registers every source that has a key. Reddit is
// registered when enabled; Google also needs an engine ID.
func NewRegistryFromConfig(cfg *config.SearchConfig) *Registry {
	r := NewRegistry(WithTimeout(cfg.Timeout), WithRateLimit(cfg.RequestsPerSecond, cfg.Burst))
	client := httpjson.New(cfg.Timeout + 5*time.Second)

	if cfg.Firecrawl.APIKey != "" {
		r.Register(NewFirecrawl(cfg.Firecrawl, client))
	}
	if cfg.NewsAPI.APIKey != "" {
		r.Register(NewNewsAPI(cfg.NewsAPI, client))
	}
	if cfg.Reddit.Enabled {
		r.Register(NewReddit(cfg.Reddit, client))
	}
	if cfg.Twitter.APIKey != "" {
		r.Register(NewTwitter(cfg.Twitter, client))
	}
	if cfg.Google.APIKey != "" && cfg.Google.EngineID != "" {
		r.Register(NewGoogle(cfg.Google, client))
	}
	if cfg.YouCom.APIKey != "" {
		r.Register(NewYouCom(cfg.YouCom, client))
	}

	logging.Info().Strs("sources", r.Names()).Bool("scrape", r.scraper != nil).Msg("Search sources configured")
	return r
}

// Register adds or replaces a source. A source that also implements Scraper
// becomes the scraper.
func (r *Registry) Register(s Source) {
	settings := resilience.DefaultSettings("search-" + s.Name())
	r.sources[s.Name()] = &guarded{
		source:  s,
		breaker: resilience.New[[]Result](settings),
		limiter: rate.NewLimiter(r.rps, r.burst),
	}
	if sc, ok := s.(Scraper); ok {
		r.scraper = sc
		r.scrapeB = resilience.New[*Page](resilience.DefaultSettings("scrape-" + s.Name()))
	}
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.sources[name]
	return ok
}

// Search runs q against one source.
func (r *Registry) Search(ctx context.Context, name string, q Query) ([]Result, error) {
	g, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotConfigured, name)
	}
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, fmt.Errorf("%s: empty query", name)
	}

	ctx, span := r.tracer.Start(ctx, "search.query", trace.WithAttributes(
		attribute.String("search.source", name),
		attribute.Int("search.limit", q.Limit),
	))
	defer span.End()

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
	results, err := g.breaker.Execute(func() ([]Result, error) {
		return g.source.Search(ctx, q)
	})
	elapsed := time.Since(started)
	metrics.RecordSearchRequest(name, elapsed, len(results), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		logging.Ctx(ctx).Warn().Err(err).Str("source", name).Dur("duration", elapsed).Msg("Search failed")
		return nil, err
	}

	for i := range results {
		if results[i].Source == "" {
			results[i].Source = name
		}
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	logging.Ctx(ctx).Debug().Str("source", name).Int("results", len(results)).Dur("duration", elapsed).Msg("Search completed")
	return results, nil
}

// Scrape fetches one page through the registered scraper.
func (r *Registry) Scrape(ctx context.Context, url string) (*Page, error) {
	if r.scraper == nil {
		return nil, fmt.Errorf("%w: scrape", ErrSourceNotConfigured)
	}

	ctx, span := r.tracer.Start(ctx, "search.scrape", trace.WithAttributes(attribute.String("scrape.url", url)))
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*r.timeout)
		defer cancel()
	}

	page, err := r.scrapeB.Execute(func() (*Page, error) {
		return r.scraper.Scrape(ctx, url)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		return nil, err
	}
	return page, nil
}
