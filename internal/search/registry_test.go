// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/resilience"
)

type fakeSource struct {
	name  string
	calls int
	fn    func(ctx context.Context, q Query) ([]Result, error)
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(ctx context.Context, q Query) ([]Result, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx, q)
	}
	return []Result{{Title: q.Text, URL: "https://example.com/" + q.Text}}, nil
}

type fakeScraper struct{ fakeSource }

func (f *fakeScraper) Scrape(_ context.Context, url string) (*Page, error) {
	return &Page{URL: url, Markdown: "md"}, nil
}

func TestRegistrySearch(t *testing.T) {
	t.Parallel()
	src := &fakeSource{name: "fake-ok"}
	r := NewRegistry()
	r.Register(src)

	results, err := r.Search(context.Background(), "fake-ok", Query{Text: "  acme  "})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Source != "fake-ok" || results[0].Title != "acme" {
		t.Errorf("results = %+v", results)
	}

	if _, err := r.Search(context.Background(), "missing", Query{Text: "x"}); !errors.Is(err, ErrSourceNotConfigured) {
		t.Errorf("error = %v, want ErrSourceNotConfigured", err)
	}
	if _, err := r.Search(context.Background(), "fake-ok", Query{Text: "   "}); err == nil {
		t.Error("expected empty query error")
	}
	if src.calls != 1 {
		t.Errorf("calls = %d, want 1", src.calls)
	}
}

func TestRegistryTimeout(t *testing.T) {
	t.Parallel()
	src := &fakeSource{name: "fake-slow", fn: func(ctx context.Context, _ Query) ([]Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := NewRegistry(WithTimeout(20 * time.Millisecond))
	r.Register(src)

	if _, err := r.Search(context.Background(), "fake-slow", Query{Text: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestRegistryBreakerOpens(t *testing.T) {
	t.Parallel()
	src := &fakeSource{name: "fake-down", fn: func(context.Context, Query) ([]Result, error) {
		return nil, errors.New("503")
	}}
	r := NewRegistry()
	r.Register(src)

	for i := 0; i < 10; i++ {
		_, _ = r.Search(context.Background(), "fake-down", Query{Text: "x"})
	}
	_, err := r.Search(context.Background(), "fake-down", Query{Text: "x"})
	if !resilience.IsRejected(err) {
		t.Errorf("error = %v, want rejection", err)
	}
	if src.calls != 10 {
		t.Errorf("calls = %d, want 10", src.calls)
	}
}

func TestRegistryScrape(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if _, err := r.Scrape(context.Background(), "https://x.example"); !errors.Is(err, ErrSourceNotConfigured) {
		t.Errorf("error = %v, want ErrSourceNotConfigured", err)
	}

	r.Register(&fakeScraper{fakeSource{name: "fake-scraper"}})
	page, err := r.Scrape(context.Background(), "https://x.example")
	if err != nil {
		t.Fatal(err)
	}
	if page.Markdown != "md" {
		t.Errorf("page = %+v", page)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Parallel()
	r := NewRegistryFromConfig(&config.SearchConfig{
		Timeout:   time.Second,
		Firecrawl: config.SourceConfig{APIKey: "fc"},
		NewsAPI:   config.SourceConfig{APIKey: "n"},
		Reddit:    config.SourceConfig{Enabled: true},
		Google:    config.SourceConfig{APIKey: "g"},
	})
	names := r.Names()
	want := []string{SourceFirecrawl, SourceNewsAPI, SourceReddit}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v (google needs an engine id)", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if !r.Has(SourceReddit) || r.Has(SourceTwitter) {
		t.Error("Has() mismatch")
	}
}
