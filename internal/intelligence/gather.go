// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package intelligence

import (
	"context"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk/internal/batch"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/search"
)

// Searcher is the part of search.Registry the gatherer uses.
type Searcher interface {
	Search(ctx context.Context, name string, q search.Query) ([]search.Result, error)
	Names() []string
}

// GatherRequest describes one fan-out across search sources.
type GatherRequest struct {
	Query   string
	Sources []string
	Since   time.Time
}

// GatherOptions tunes a fan-out.
type GatherOptions struct {
	Batch            batch.Options
	SourceTimeout    time.Duration
	ResultsPerSource int
	MaxFindings      int
}

// Gather queries every source in batches and merges the results into
// findings. A failing source becomes a RunError; it never fails the gather.
func Gather(ctx context.Context, s Searcher, req GatherRequest, opts GatherOptions) ([]models.Finding, []models.RunError) {
	q := search.Query{Text: req.Query, Limit: opts.ResultsPerSource, Since: req.Since}

	outcomes := batch.Run(ctx, req.Sources, opts.Batch, func(ctx context.Context, source string) ([]search.Result, error) {
		if opts.SourceTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.SourceTimeout)
			defer cancel()
		}
		return s.Search(ctx, source, q)
	})

	var (
		findings []models.Finding
		errs     []models.RunError
	)
	for _, o := range outcomes {
		source := req.Sources[o.Index]
		if o.Err != nil {
			errs = append(errs, models.RunError{Stage: StageGather, Source: source, Message: o.Err.Error()})
			continue
		}
		for _, r := range o.Value {
			findings = append(findings, toFinding(source, r))
		}
	}
	return MergeFindings(findings, opts.MaxFindings), errs
}

// MergeFindings dedupes by normalized URL (keeping the higher score), sorts by
// score then recency, and caps the result at limit when limit > 0.
func MergeFindings(findings []models.Finding, limit int) []models.Finding {
	byKey := make(map[string]int, len(findings))
	out := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		key := NormalizeURL(f.URL)
		if key == "" {
			key = "title:" + strings.ToLower(strings.TrimSpace(f.Title))
		}
		if i, ok := byKey[key]; ok {
			if f.Score > out[i].Score {
				out[i] = f
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return newer(out[i].PublishedAt, out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// newer orders dated findings before undated ones, latest first.
func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

// NormalizeURL lowercases the host, drops a leading "www.", the fragment and
// any trailing slash. Unparseable input is returned lowercased and trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

func toFinding(source string, r search.Result) models.Finding {
	f := models.Finding{
		Source:  source,
		Title:   r.Title,
		URL:     r.URL,
		Snippet: r.Snippet,
		Author:  r.Author,
		Score:   NormalizeScore(source, r.Score),
	}
	if !r.PublishedAt.IsZero() {
		t := r.PublishedAt.UTC()
		f.PublishedAt = &t
	}
	return f
}

// NormalizeScore maps a source-native score to 0..1. Social sources report
// engagement counts, which are log-scaled so that 1000 interactions saturate.
// Search engines already report rank relevance in 0..1.
func NormalizeScore(source string, raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	switch source {
	case search.SourceReddit, search.SourceTwitter:
		return math.Min(1, math.Log10(1+raw)/3)
	default:
		return math.Min(1, raw)
	}
}

// BuildQuery quotes the organization name, keywords and competitors and
// joins them with OR. Duplicates are skipped case-insensitively.
func BuildQuery(org *models.Organization, includeCompetitors bool) string {
	terms := append([]string{org.Name}, org.Keywords...)
	if includeCompetitors {
		terms = append(terms, org.Competitors...)
	}

	seen := make(map[string]bool, len(terms))
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		if strings.ContainsRune(t, ' ') {
			t = strconv.Quote(t)
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " OR ")
}
