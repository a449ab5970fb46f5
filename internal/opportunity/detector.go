// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package opportunity scores intelligence findings into PR opportunities.
//
// Every finding gets a base score out of 100:
//
//	keyword relevance  up to 40 (20 per distinct brand term matched)
//	competitor mention 15
//	recency            up to 25, decaying linearly to 0 over 72h (undated: 10)
//	engagement         up to 20, from the finding's normalized score
//
// Configured CEL rules then add their boost when they match, and the total
// is clamped to 0..100.
package opportunity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/models"
)

const (
	maxRelevance   = 40.0
	termWeight     = 20.0
	competitorHit  = 15.0
	maxRecency     = 25.0
	undatedRecency = 10.0
	recencyWindow  = 72 * time.Hour
	maxEngagement  = 20.0

	trendingEngagement = 0.5
)

var crisisTerms = []string{
	"lawsuit", "sued", "recall", "recalls", "breach", "data leak", "hacked", "scandal",
	"outage", "boycott", "layoffs", "fraud", "investigation", "backlash", "controversy",
	"class action", "fined", "crisis",
}

var socialSources = map[string]bool{"reddit": true, "twitter": true}

type rule struct {
	name  string
	boost float64
	prg   cel.Program
}

// Detector turns findings into scored opportunities.
type Detector struct {
	rules      []rule
	minScore   float64
	maxResults int
	now        func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// NewDetector compiles the configured rules. A rule that does not compile or
// does not yield a bool is an error.
func NewDetector(cfg config.OpportunityConfig, opts ...Option) (*Detector, error) {
	d := &Detector{
		minScore:   cfg.MinScore,
		maxResults: cfg.MaxResults,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	if len(cfg.Rules) == 0 {
		return d, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("finding", cel.DynType),
		cel.Variable("org", cel.DynType),
		cel.Variable("score", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	for _, r := range cfg.Rules {
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("opportunity rule %q: compile: %w", r.Name, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("opportunity rule %q: expression must be boolean, got %s", r.Name, ast.OutputType())
		}
		prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
		if err != nil {
			return nil, fmt.Errorf("opportunity rule %q: program: %w", r.Name, err)
		}
		d.rules = append(d.rules, rule{name: r.Name, boost: r.Boost, prg: prg})
	}
	return d, nil
}

// Detect scores findings for org and returns the opportunities that clear the
// minimum score, deduped by URL, best first, capped at the configured maximum.
func (d *Detector) Detect(ctx context.Context, org *models.Organization, findings []models.Finding) []models.Opportunity {
	now := d.now()
	byKey := make(map[string]models.Opportunity, len(findings))

	for _, f := range findings {
		opp := d.Evaluate(ctx, org, f, now)
		if opp.Score < d.minScore {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(f.URL))
		if key == "" {
			key = "title:" + strings.ToLower(f.Title)
		}
		if prev, ok := byKey[key]; ok && prev.Score >= opp.Score {
			continue
		}
		byKey[key] = opp
	}

	out := make([]models.Opportunity, 0, len(byKey))
	for _, o := range byKey {
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SourceURL < out[j].SourceURL
	})
	if d.maxResults > 0 && len(out) > d.maxResults {
		out = out[:d.maxResults]
	}

	for _, o := range out {
		metrics.OpportunitiesDetected.WithLabelValues(o.Type, o.Urgency).Inc()
	}
	return out
}

// Evaluate scores and classifies a single finding.
func (d *Detector) Evaluate(ctx context.Context, org *models.Organization, f models.Finding, now time.Time) models.Opportunity {
	text := normalize(f.Title + " " + f.Snippet)

	terms := append([]string{org.Name}, org.Keywords...)
	hits := 0
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		nt := normalize(t)
		if nt == "" || seen[nt] {
			continue
		}
		seen[nt] = true
		if containsTerm(text, nt) {
			hits++
		}
	}
	score := min(float64(hits)*termWeight, maxRelevance)

	competitor := mentionsAny(text, org.Competitors)
	if competitor {
		score += competitorHit
	}

	switch {
	case f.PublishedAt == nil || f.PublishedAt.IsZero():
		score += undatedRecency
	default:
		age := now.Sub(*f.PublishedAt)
		if age < 0 {
			age = 0
		}
		if age < recencyWindow {
			score += maxRecency * (1 - float64(age)/float64(recencyWindow))
		}
	}

	engagement := clamp(f.Score, 0, 1)
	score += engagement * maxEngagement

	typ := models.OpportunityNewsHook
	switch {
	case mentionsAny(text, crisisTerms):
		typ = models.OpportunityCrisis
	case competitor:
		typ = models.OpportunityCompetitorMove
	case socialSources[f.Source] && engagement >= trendingEngagement:
		typ = models.OpportunityTrendingTopic
	}

	var matched []string
	if len(d.rules) > 0 {
		vars := map[string]any{
			"finding": findingVars(f, typ),
			"org":     orgVars(org),
			"score":   score,
		}
		for _, r := range d.rules {
			out, _, err := r.prg.Eval(vars)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Str("rule", r.name).Msg("Opportunity rule did not evaluate")
				continue
			}
			if ok, _ := out.Value().(bool); ok {
				score += r.boost
				matched = append(matched, r.name)
			}
		}
	}
	score = round1(clamp(score, 0, 100))

	urgency, ttl := urgencyFor(score, typ)
	return models.Opportunity{
		OrganizationID: org.ID,
		Type:           typ,
		Title:          f.Title,
		Description:    f.Snippet,
		Score:          score,
		Urgency:        urgency,
		Source:         f.Source,
		SourceURL:      f.URL,
		MatchedRules:   matched,
		Status:         models.OpportunityOpen,
		ExpiresAt:      now.Add(ttl),
	}
}

// urgencyFor maps a score to an urgency and how long the opportunity stays open.
func urgencyFor(score float64, typ string) (string, time.Duration) {
	switch {
	case typ == models.OpportunityCrisis || score >= 75:
		return models.UrgencyHigh, 24 * time.Hour
	case score >= 50:
		return models.UrgencyMedium, 72 * time.Hour
	default:
		return models.UrgencyLow, 7 * 24 * time.Hour
	}
}

func findingVars(f models.Finding, typ string) map[string]any {
	published := ""
	if f.PublishedAt != nil {
		published = f.PublishedAt.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"source":       f.Source,
		"title":        f.Title,
		"url":          f.URL,
		"snippet":      f.Snippet,
		"author":       f.Author,
		"published_at": published,
		"score":        f.Score,
		"type":         typ,
	}
}

func orgVars(o *models.Organization) map[string]any {
	return map[string]any{
		"id":          o.ID,
		"name":        o.Name,
		"industry":    o.Industry,
		"keywords":    o.Keywords,
		"competitors": o.Competitors,
	}
}

// normalize lowercases s and collapses everything but letters and digits to
// single spaces, padded so that terms can be matched on word boundaries.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	space := true
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127
}

func containsTerm(normalizedText, normalizedTerm string) bool {
	if normalizedTerm == "" {
		return false
	}
	return strings.Contains(" "+normalizedText+" ", " "+normalizedTerm+" ")
}

func mentionsAny(normalizedText string, terms []string) bool {
	for _, t := range terms {
		if containsTerm(normalizedText, normalize(t)) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
