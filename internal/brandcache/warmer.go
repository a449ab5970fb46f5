// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package brandcache keeps a TTL cache of brand snapshots warm so the
// dashboard can render an organization without touching the store.
package brandcache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk/internal/batch"
	"github.com/signaldesk/signaldesk/internal/cache"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/events"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/models"
)

const (
	keyPrefix   = "brand:"
	topKeywords = 5
	countPage   = 500
)

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, eventType, orgID, runID string, payload any)
}

// WarmStats summarizes one warm pass.
type WarmStats struct {
	Organizations int           `json:"organizations"`
	Warmed        int           `json:"warmed"`
	Failed        int           `json:"failed"`
	Duration      time.Duration `json:"duration"`
}

// Warmer builds brand snapshots and keeps them cached under brand:{orgID}.
// It implements suture.Service.
type Warmer struct {
	store    database.Store
	cache    *cache.Cache
	interval time.Duration
	batch    batch.Options
	events   Emitter
	now      func() time.Time
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithEvents publishes cache.warmed after each pass.
func WithEvents(e Emitter) Option {
	return func(w *Warmer) { w.events = e }
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Warmer) { w.now = now }
}

// NewWarmer creates a Warmer. Zero durations default to a 30m interval and a
// 1h TTL.
func NewWarmer(store database.Store, cfg config.CacheWarmerConfig, opts ...Option) *Warmer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	w := &Warmer{
		store:    store,
		cache:    cache.New("brand", ttl, cache.WithSweepInterval(ttl/2)),
		interval: interval,
		batch:    batch.Options{Size: cfg.BatchSize, Delay: cfg.BatchDelay},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func key(orgID string) string { return keyPrefix + orgID }

// Get returns the cached snapshot for orgID, building and caching it on a miss.
func (w *Warmer) Get(ctx context.Context, orgID string) (*models.BrandSnapshot, bool, error) {
	if v, ok := w.cache.Get(key(orgID)); ok {
		snap := v.(models.BrandSnapshot)
		return &snap, true, nil
	}
	snap, err := w.Build(ctx, orgID)
	if err != nil {
		return nil, false, err
	}
	w.cache.Set(key(orgID), *snap)
	w.recordEntries()
	return snap, false, nil
}

// Invalidate drops one organization's snapshot.
func (w *Warmer) Invalidate(orgID string) {
	w.cache.Delete(key(orgID))
	w.recordEntries()
}

// Clear drops every snapshot and returns how many were cached.
func (w *Warmer) Clear() int {
	n := w.cache.Len()
	w.cache.Clear()
	w.recordEntries()
	return n
}

func (w *Warmer) recordEntries() {
	metrics.BrandCacheEntries.Set(float64(w.cache.Len()))
}

// Len returns the number of cached snapshots.
func (w *Warmer) Len() int { return w.cache.Len() }

// Close stops the cache sweep.
func (w *Warmer) Close() { w.cache.Close() }

// Build assembles a fresh snapshot from the store without caching it.
func (w *Warmer) Build(ctx context.Context, orgID string) (*models.BrandSnapshot, error) {
	org, err := w.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization %s: %w", orgID, err)
	}

	snap := &models.BrandSnapshot{
		Organization: *org,
		Themes:       []string{},
		BuiltAt:      w.now().UTC(),
	}

	if err := w.addOpportunities(ctx, snap); err != nil {
		return nil, err
	}

	runs, err := w.store.ListRuns(ctx, models.ListOptions{OrganizationID: orgID, Status: models.RunCompleted, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("load last run for %s: %w", orgID, err)
	}
	var last *models.IntelligenceRun
	if len(runs) > 0 {
		last = &runs[0]
		snap.LastRunID = last.ID
		snap.LastRunAt = last.CompletedAt
		if last.Synthesis != nil {
			snap.LastSummary = last.Synthesis.Summary
			snap.Themes = append(snap.Themes, last.Synthesis.KeyThemes...)
		}
	}
	snap.TopKeywords = rankKeywords(org.Keywords, last)
	return snap, nil
}

// addOpportunities counts open opportunities. List results are sorted best
// first, so the first one seen is the top opportunity.
func (w *Warmer) addOpportunities(ctx context.Context, snap *models.BrandSnapshot) error {
	for offset := 0; ; offset += countPage {
		page, err := w.store.ListOpportunities(ctx, models.ListOptions{
			OrganizationID: snap.Organization.ID,
			Status:         models.OpportunityOpen,
			Limit:          countPage,
			Offset:         offset,
		})
		if err != nil {
			return fmt.Errorf("load opportunities for %s: %w", snap.Organization.ID, err)
		}
		if offset == 0 && len(page) > 0 {
			top := page[0]
			snap.TopOpportunity = &top
		}
		snap.OpenOpportunities += len(page)
		if len(page) < countPage {
			return nil
		}
	}
}

// rankKeywords orders keywords by how many of the run's findings mention
// them, keeping the configured order for ties, and returns the top few.
func rankKeywords(keywords []string, run *models.IntelligenceRun) []string {
	type ranked struct {
		term  string
		hits  int
		order int
	}
	var rs []ranked
	for i, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		r := ranked{term: k, order: i}
		if run != nil {
			lk := strings.ToLower(k)
			for _, f := range run.Findings {
				if strings.Contains(strings.ToLower(f.Title+" "+f.Snippet), lk) {
					r.hits++
				}
			}
		}
		rs = append(rs, r)
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].hits > rs[j].hits })

	out := make([]string, 0, min(len(rs), topKeywords))
	for _, r := range rs {
		if len(out) == topKeywords {
			break
		}
		out = append(out, r.term)
	}
	return out
}

// WarmAll rebuilds the snapshot of every organization in batches.
func (w *Warmer) WarmAll(ctx context.Context) (WarmStats, error) {
	started := time.Now()
	orgs, err := database.AllOrganizations(ctx, w.store)
	if err != nil {
		return WarmStats{}, fmt.Errorf("list organizations: %w", err)
	}

	outcomes := batch.Run(ctx, orgs, w.batch, func(ctx context.Context, org models.Organization) (*models.BrandSnapshot, error) {
		return w.Build(ctx, org.ID)
	})

	stats := WarmStats{Organizations: len(orgs)}
	for _, o := range outcomes {
		if o.Err != nil {
			stats.Failed++
			logging.Warn().Err(o.Err).Str("organization_id", orgs[o.Index].ID).Msg("Brand snapshot build failed")
			continue
		}
		w.cache.Set(key(o.Value.Organization.ID), *o.Value)
		stats.Warmed++
	}
	stats.Duration = time.Since(started)

	metrics.BrandCacheWarmDuration.Observe(stats.Duration.Seconds())
	w.recordEntries()
	if w.events != nil {
		w.events.Emit(ctx, events.TypeCacheWarmed, "", "", stats)
	}
	logging.Info().
		Int("organizations", stats.Organizations).
		Int("warmed", stats.Warmed).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("Brand cache warmed")
	return stats, nil
}

// Serve warms immediately and then every interval until ctx is cancelled.
func (w *Warmer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.WarmAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Brand cache warm failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Warmer) String() string { return "brand-cache-warmer" }
