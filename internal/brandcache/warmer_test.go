// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package brandcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/events"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/models"
)

type emitted struct {
	mu    sync.Mutex
	types []string
	stats []WarmStats
}

func (e *emitted) Emit(_ context.Context, eventType, _, _ string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, eventType)
	if s, ok := payload.(WarmStats); ok {
		e.stats = append(e.stats, s)
	}
}

// brokenOpportunities fails opportunity listing for one organization.
type brokenOpportunities struct {
	*database.MemoryStore
	orgID string
}

func (b brokenOpportunities) ListOpportunities(ctx context.Context, opts models.ListOptions) ([]models.Opportunity, error) {
	if opts.OrganizationID == b.orgID {
		return nil, errors.New("query timeout")
	}
	return b.MemoryStore.ListOpportunities(ctx, opts)
}

func seed(t *testing.T, store *database.MemoryStore) *models.Organization {
	t.Helper()
	ctx := context.Background()
	org := &models.Organization{Name: "Acme", Keywords: []string{"anvils", "rockets", "magnets"}}
	if err := store.CreateOrganization(ctx, org); err != nil {
		t.Fatal(err)
	}

	opps := []models.Opportunity{
		{OrganizationID: org.ID, Title: "Best", Score: 90, SourceURL: "https://a.example/1"},
		{OrganizationID: org.ID, Title: "Other", Score: 40, SourceURL: "https://a.example/2"},
		{OrganizationID: org.ID, Title: "Dismissed", Score: 95, SourceURL: "https://a.example/3", Status: models.OpportunityDismissed},
	}
	if _, err := store.UpsertOpportunities(ctx, opps); err != nil {
		t.Fatal(err)
	}

	done := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	run := &models.IntelligenceRun{
		OrganizationID: org.ID,
		Kind:           models.RunKindStandard,
		Status:         models.RunCompleted,
		Findings: []models.Finding{
			{Title: "Acme rockets soar"},
			{Title: "Rockets again", Snippet: "more rockets"},
			{Title: "Magnets recalled"},
		},
		Synthesis:   &models.Synthesis{Summary: "Rockets everywhere.", KeyThemes: []string{"launch"}},
		StartedAt:   done.Add(-time.Minute),
		CompletedAt: &done,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	return org
}

func TestBuildSnapshot(t *testing.T) {
	t.Parallel()
	store := database.NewMemoryStore()
	org := seed(t, store)
	w := NewWarmer(store, config.CacheWarmerConfig{})
	defer w.Close()

	snap, err := w.Build(context.Background(), org.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.OpenOpportunities != 2 {
		t.Errorf("open opportunities = %d, want 2", snap.OpenOpportunities)
	}
	if snap.TopOpportunity == nil || snap.TopOpportunity.Title != "Best" {
		t.Errorf("top opportunity = %+v", snap.TopOpportunity)
	}
	if snap.LastSummary != "Rockets everywhere." || len(snap.Themes) != 1 || snap.LastRunID == "" {
		t.Errorf("last run = %+v", snap)
	}
	want := []string{"rockets", "magnets", "anvils"}
	for i, k := range want {
		if snap.TopKeywords[i] != k {
			t.Fatalf("top keywords = %v, want %v", snap.TopKeywords, want)
		}
	}
	if w.Len() != 0 {
		t.Error("Build must not populate the cache")
	}
}

func TestGetCachesOnMiss(t *testing.T) {
	t.Parallel()
	store := database.NewMemoryStore()
	org := seed(t, store)
	w := NewWarmer(store, config.CacheWarmerConfig{TTL: time.Hour})
	defer w.Close()

	_, cached, err := w.Get(context.Background(), org.ID)
	if err != nil || cached {
		t.Fatalf("first Get cached=%v err=%v", cached, err)
	}
	snap, cached, err := w.Get(context.Background(), org.ID)
	if err != nil || !cached || snap.Organization.ID != org.ID {
		t.Fatalf("second Get cached=%v err=%v snap=%+v", cached, err, snap)
	}

	w.Invalidate(org.ID)
	if _, cached, _ := w.Get(context.Background(), org.ID); cached {
		t.Error("Get after Invalidate served a cached snapshot")
	}

	if _, _, err := w.Get(context.Background(), "missing"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("missing org err = %v", err)
	}
}

func TestWarmAll(t *testing.T) {
	t.Parallel()
	mem := database.NewMemoryStore()
	org := seed(t, mem)
	broken := &models.Organization{Name: "Broken"}
	if err := mem.CreateOrganization(context.Background(), broken); err != nil {
		t.Fatal(err)
	}
	third := &models.Organization{Name: "Third"}
	if err := mem.CreateOrganization(context.Background(), third); err != nil {
		t.Fatal(err)
	}

	rec := &emitted{}
	w := NewWarmer(brokenOpportunities{mem, broken.ID}, config.CacheWarmerConfig{BatchSize: 2, BatchDelay: time.Millisecond}, WithEvents(rec))
	defer w.Close()

	stats, err := w.WarmAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Organizations != 3 || stats.Warmed != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if w.Len() != 2 {
		t.Errorf("cached = %d, want 2", w.Len())
	}
	if _, cached, _ := w.Get(context.Background(), org.ID); !cached {
		t.Error("warmed snapshot not served from cache")
	}
	if len(rec.types) != 1 || rec.types[0] != events.TypeCacheWarmed || rec.stats[0].Warmed != 2 {
		t.Errorf("events = %v %+v", rec.types, rec.stats)
	}

	if n := w.Clear(); n != 2 || w.Len() != 0 {
		t.Errorf("Clear = %d, len after = %d", n, w.Len())
	}
}

func TestServeWarmsImmediately(t *testing.T) {
	t.Parallel()
	store := database.NewMemoryStore()
	seed(t, store)
	w := NewWarmer(store, config.CacheWarmerConfig{Interval: time.Hour})
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for w.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v", err)
	}
	if w.Len() != 1 {
		t.Errorf("cached = %d after first pass", w.Len())
	}
	if w.String() != "brand-cache-warmer" {
		t.Errorf("String() = %s", w.String())
	}
}

func TestRankKeywordsWithoutRun(t *testing.T) {
	t.Parallel()
	got := rankKeywords([]string{"a", " ", "b", "c", "d", "e", "f"}, nil)
	if len(got) != 5 || got[0] != "a" || got[4] != "e" {
		t.Errorf("rankKeywords = %v", got)
	}
}

// Not parallel: BrandCacheEntries is a process-wide gauge.
func TestEntriesGaugeTracksCache(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemoryStore()
	org := seed(t, mem)
	other := &models.Organization{Name: "Globex"}
	if err := mem.CreateOrganization(ctx, other); err != nil {
		t.Fatal(err)
	}

	store := &brokenOpportunities{MemoryStore: mem}
	w := NewWarmer(store, config.CacheWarmerConfig{BatchSize: 2})
	defer w.Close()

	if _, err := w.WarmAll(ctx); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.BrandCacheEntries); got != 2 {
		t.Fatalf("entries after full warm = %v, want 2", got)
	}

	// A failed rebuild keeps the previous snapshot cached.
	store.orgID = other.ID
	stats, err := w.WarmAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Warmed != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := testutil.ToFloat64(metrics.BrandCacheEntries); got != 2 {
		t.Errorf("entries after partial warm = %v, want 2", got)
	}

	w.Invalidate(org.ID)
	if got := testutil.ToFloat64(metrics.BrandCacheEntries); got != 1 {
		t.Errorf("entries after Invalidate = %v, want 1", got)
	}
	if _, _, err := w.Get(ctx, org.ID); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.BrandCacheEntries); got != 2 {
		t.Errorf("entries after read-through Get = %v, want 2", got)
	}

	w.Clear()
	if got := testutil.ToFloat64(metrics.BrandCacheEntries); got != 0 {
		t.Errorf("entries after Clear = %v, want 0", got)
	}
}
