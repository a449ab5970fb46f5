// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package campaign produces research briefs and phased campaign blueprints.
// Both ask the model for a JSON document and fall back to a brief or plan
// derived locally when the model is unavailable or answers badly.
package campaign

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk/internal/batch"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/intelligence"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

// briefFindings is how many findings a brief carries and quotes to the model.
const briefFindings = 15

// ResearchRequest asks for a research brief on a topic.
type ResearchRequest struct {
	OrganizationID string   `json:"organization_id" validate:"required"`
	Topic          string   `json:"topic" validate:"required,min=2,max=300"`
	Sources        []string `json:"sources,omitempty" validate:"omitempty,max=6,dive,source"`
}

// BlueprintRequest asks for a campaign plan.
type BlueprintRequest struct {
	OrganizationID string                `json:"organization_id" validate:"required"`
	Objective      string                `json:"objective" validate:"required,min=5,max=1000"`
	Audience       string                `json:"audience,omitempty" validate:"max=300"`
	DurationWeeks  int                   `json:"duration_weeks,omitempty" validate:"omitempty,min=3,max=52"`
	Research       *models.ResearchBrief `json:"research,omitempty"`
}

// Service runs campaign research and planning.
type Service struct {
	store    database.Store
	searcher intelligence.Searcher
	llm      llm.Completer
	cfg      config.IntelligenceConfig
	now      func() time.Time
}

// NewService creates a Service. The intelligence config supplies the gather
// batching, timeouts and the provider used for completions.
func NewService(store database.Store, searcher intelligence.Searcher, completer llm.Completer, cfg config.IntelligenceConfig) *Service {
	return &Service{store: store, searcher: searcher, llm: completer, cfg: cfg, now: time.Now}
}

// Research gathers coverage of the topic and turns it into a brief.
func (s *Service) Research(ctx context.Context, req ResearchRequest) (*models.ResearchBrief, error) {
	org, err := s.store.GetOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization %s: %w", req.OrganizationID, err)
	}

	sources := req.Sources
	if len(sources) == 0 {
		sources = s.searcher.Names()
	}
	findings, errs := intelligence.Gather(ctx, s.searcher, intelligence.GatherRequest{
		Query:   researchQuery(org, req.Topic),
		Sources: sources,
	}, intelligence.GatherOptions{
		Batch:            batch.Options{Size: s.cfg.BatchSize, Delay: s.cfg.BatchDelay},
		SourceTimeout:    s.cfg.SourceTimeout,
		ResultsPerSource: s.cfg.ResultsPerSource,
		MaxFindings:      briefFindings,
	})

	fallback := fallbackBrief(org, req.Topic, findings)
	brief := fallback
	if s.llm != nil {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		fellBack, cause := llm.CompleteJSON(ctx, s.llm, s.cfg.SynthesisProvider, llm.Request{
			System: researchSystem,
			Prompt: researchPrompt(org, req.Topic, findings),
		}, researchSchema, &brief, fallback)
		if fellBack {
			errs = append(errs, models.RunError{Stage: "research", Message: cause.Error()})
		}
	}

	brief.OrganizationID = org.ID
	brief.Topic = req.Topic
	brief.Findings = findings
	brief.Errors = errs
	brief.GeneratedAt = s.now().UTC()
	if brief.Findings == nil {
		brief.Findings = []models.Finding{}
	}

	logging.Ctx(ctx).Info().
		Str("organization_id", org.ID).
		Int("findings", len(findings)).
		Bool("fallback", brief.Fallback).
		Msg("Campaign research brief generated")
	return &brief, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.SynthesisTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.SynthesisTimeout)
	}
	return context.WithCancel(ctx)
}

func researchQuery(org *models.Organization, topic string) string {
	topic = strings.TrimSpace(topic)
	if strings.ContainsRune(topic, ' ') {
		topic = strconv.Quote(topic)
	}
	if org.Industry != "" {
		return topic + " " + org.Industry
	}
	return topic
}

const researchSystem = `You are a PR strategist preparing campaign research. Base every claim on the
coverage you are given. Answer with a single JSON object and nothing else.`

var researchSchema = llm.MustCompileSchema("campaign-research", `{
  "type": "object",
  "required": ["summary", "audience", "narratives", "angles", "media_targets"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "audience": {"type": "array", "items": {"type": "string"}},
    "narratives": {"type": "array", "items": {"type": "string"}},
    "angles": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "media_targets": {"type": "array", "items": {"type": "string"}}
  }
}`)

func researchPrompt(org *models.Organization, topic string, findings []models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Organization: %s\n", org.Name)
	if org.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", org.Industry)
	}
	if org.Description != "" {
		fmt.Fprintf(&b, "About: %s\n", org.Description)
	}
	fmt.Fprintf(&b, "Campaign topic: %s\n\nCurrent coverage:\n", topic)
	if len(findings) == 0 {
		b.WriteString("(none found)\n")
	}
	for i, f := range findings {
		fmt.Fprintf(&b, "%d. [%s] %s - %s\n", i+1, f.Source, f.Title, f.URL)
	}
	b.WriteString(`
Return JSON:
{"summary": "2-3 sentences on the landscape", "audience": ["target audiences"],
 "narratives": ["narratives already in the coverage"], "angles": ["fresh angles for the brand"],
 "media_targets": ["outlets or journalists to pitch"]}`)
	return b.String()
}

// fallbackBrief derives a brief from the findings alone: the outlets that
// covered the topic become media targets and the top headlines become the
// narratives.
func fallbackBrief(org *models.Organization, topic string, findings []models.Finding) models.ResearchBrief {
	audience := []string{"Trade and industry press"}
	if org.Industry != "" {
		audience = []string{org.Industry + " decision makers", org.Industry + " trade press"}
	}

	narratives := []string{}
	for _, f := range findings {
		if len(narratives) == 3 {
			break
		}
		if f.Title != "" {
			narratives = append(narratives, f.Title)
		}
	}

	summary := fmt.Sprintf("No recent coverage of %s was found; %s can set the narrative.", topic, org.Name)
	if len(findings) > 0 {
		summary = fmt.Sprintf("%d recent pieces cover %s. %s can respond to the leading narratives with its own perspective.",
			len(findings), topic, org.Name)
	}

	return models.ResearchBrief{
		Summary:    summary,
		Audience:   audience,
		Narratives: narratives,
		Angles: []string{
			fmt.Sprintf("%s's perspective on %s", org.Name, topic),
			fmt.Sprintf("Data-led commentary on %s", topic),
		},
		MediaTargets: outlets(findings),
		Fallback:     true,
	}
}

// outlets returns the distinct hosts of the findings, most frequent first.
func outlets(findings []models.Finding) []string {
	counts := map[string]int{}
	for _, f := range findings {
		u, err := url.Parse(f.URL)
		if err != nil || u.Host == "" {
			continue
		}
		counts[strings.TrimPrefix(strings.ToLower(u.Host), "www.")]++
	}
	hosts := make([]string, 0, len(counts))
	for h := range counts {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		if counts[hosts[i]] != counts[hosts[j]] {
			return counts[hosts[i]] > counts[hosts[j]]
		}
		return hosts[i] < hosts[j]
	})
	if len(hosts) > 10 {
		hosts = hosts[:10]
	}
	return hosts
}
