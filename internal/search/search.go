// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package search proxies news, social and web search APIs behind one
// Source interface, plus Firecrawl page scraping.
//
// Scores are not comparable across sources. Social sources (Reddit,
// Twitter) report raw engagement counts; search engines report a rank-based
// relevance in (0, 1].
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/signaldesk/signaldesk/internal/httpjson"
)

// Source names
const (
	SourceFirecrawl = "firecrawl"
	SourceNewsAPI   = "newsapi"
	SourceReddit    = "reddit"
	SourceTwitter   = "twitter"
	SourceGoogle    = "google"
	SourceYouCom    = "youcom"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// ErrSourceNotConfigured is returned for unknown or disabled sources.
var ErrSourceNotConfigured = errors.New("search source not configured")

// Query is a provider-neutral search.
type Query struct {
	Text     string    `json:"text" validate:"required,max=500"`
	Limit    int       `json:"limit,omitempty" validate:"gte=0,lte=100"`
	Since    time.Time `json:"since,omitempty"`
	Language string    `json:"language,omitempty" validate:"omitempty,len=2"`
}

// Result is one hit from any source.
type Result struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Snippet     string    `json:"snippet,omitempty"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Score       float64   `json:"score"`
}

// Source searches one upstream API.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Page is a scraped web page.
type Page struct {
	URL         string         `json:"url"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Markdown    string         `json:"markdown"`
	StatusCode  int            `json:"status_code,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Scraper fetches a single page as markdown.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
}

// clampLimit applies a source's default and maximum page size.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// rankScore turns a zero-based rank into a relevance in (0, 1].
func rankScore(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - float64(i)/float64(n)
}

// truncate shortens s to at most n runes on a word boundary.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	cut := len(r)
	for i := len(r) - 1; i > n/2; i-- {
		if r[i] == ' ' {
			cut = i
			break
		}
	}
	return string(r[:cut]) + "…"
}

func wrapErr(source string, err error) error {
	var se *httpjson.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%s: upstream status %d: %w", source, se.StatusCode, err)
	}
	return fmt.Errorf("%s: %w", source, err)
}

func baseURL(configured, def string) string {
	if configured == "" {
		configured = def
	}
	return strings.TrimRight(configured, "/")
}

// admits reports whether t passes the Since filter. Undated results pass.
func (q Query) admits(t time.Time) bool {
	return q.Since.IsZero() || t.IsZero() || !t.Before(q.Since)
}
