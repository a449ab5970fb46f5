// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package campaign

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

// DefaultDurationWeeks applies when a blueprint request leaves the duration out.
const DefaultDurationWeeks = 6

const blueprintSystem = `You are a PR campaign planner. Produce practical, phased plans that a small
communications team can execute. Answer with a single JSON object and nothing else.`

var blueprintSchema = llm.MustCompileSchema("campaign-blueprint", `{
  "type": "object",
  "required": ["summary", "phases", "channels", "kpis"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "phases": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "start_week", "end_week", "tactics"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "goal": {"type": "string"},
          "start_week": {"type": "integer", "minimum": 1},
          "end_week": {"type": "integer", "minimum": 1},
          "tactics": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "channels": {"type": "array", "items": {"type": "string"}},
    "kpis": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "target"],
        "properties": {"name": {"type": "string"}, "target": {"type": "string"}}
      }
    }
  }
}`)

// Blueprint plans a campaign for the objective.
func (s *Service) Blueprint(ctx context.Context, req BlueprintRequest) (*models.Blueprint, error) {
	org, err := s.store.GetOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization %s: %w", req.OrganizationID, err)
	}
	weeks := req.DurationWeeks
	if weeks <= 0 {
		weeks = DefaultDurationWeeks
	}
	weeks = max(weeks, 3)

	fallback := FallbackBlueprint(org, req.Objective, weeks)
	bp := fallback
	if s.llm != nil {
		llmCtx, cancel := s.withTimeout(ctx)
		defer cancel()
		if fellBack, _ := llm.CompleteJSON(llmCtx, s.llm, s.cfg.SynthesisProvider, llm.Request{
			System: blueprintSystem,
			Prompt: blueprintPrompt(org, req, weeks),
		}, blueprintSchema, &bp, fallback); !fellBack {
			if err := checkPhases(bp.Phases, weeks); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("Model blueprint rejected")
				bp = fallback
			}
		}
	}

	bp.OrganizationID = org.ID
	bp.Objective = req.Objective
	bp.DurationWeeks = weeks
	bp.GeneratedAt = s.now().UTC()

	logging.Ctx(ctx).Info().
		Str("organization_id", org.ID).
		Int("phases", len(bp.Phases)).
		Bool("fallback", bp.Fallback).
		Msg("Campaign blueprint generated")
	return &bp, nil
}

// checkPhases rejects timelines that run backwards or past the campaign.
func checkPhases(phases []models.BlueprintPhase, weeks int) error {
	for _, p := range phases {
		if p.EndWeek < p.StartWeek {
			return fmt.Errorf("phase %q ends in week %d before it starts in week %d", p.Name, p.EndWeek, p.StartWeek)
		}
		if p.EndWeek > weeks {
			return fmt.Errorf("phase %q runs to week %d of %d", p.Name, p.EndWeek, weeks)
		}
	}
	return nil
}

func blueprintPrompt(org *models.Organization, req BlueprintRequest, weeks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Organization: %s\n", org.Name)
	if org.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", org.Industry)
	}
	if len(org.Competitors) > 0 {
		fmt.Fprintf(&b, "Competitors: %s\n", strings.Join(org.Competitors, ", "))
	}
	fmt.Fprintf(&b, "Objective: %s\n", req.Objective)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	}
	fmt.Fprintf(&b, "Duration: %d weeks\n", weeks)

	if r := req.Research; r != nil {
		fmt.Fprintf(&b, "\nResearch summary: %s\n", r.Summary)
		if len(r.Angles) > 0 {
			fmt.Fprintf(&b, "Angles: %s\n", strings.Join(r.Angles, "; "))
		}
		if len(r.MediaTargets) > 0 {
			fmt.Fprintf(&b, "Media targets: %s\n", strings.Join(r.MediaTargets, ", "))
		}
	}

	fmt.Fprintf(&b, `
Return JSON:
{"summary": "...", "phases": [{"name": "...", "goal": "...", "start_week": 1, "end_week": 2, "tactics": ["..."]}],
 "channels": ["..."], "kpis": [{"name": "...", "target": "..."}]}
Phases must cover weeks 1 to %d without running past week %d.`, weeks, weeks)
	return b.String()
}

// FallbackBlueprint is the three-phase plan used without a model: foundation,
// launch and sustain, splitting the weeks as evenly as possible with any
// remainder going to the launch phase first.
func FallbackBlueprint(org *models.Organization, objective string, weeks int) models.Blueprint {
	weeks = max(weeks, 3)
	base, extra := weeks/3, weeks%3
	lengths := []int{base, base, base}
	for i := 1; extra > 0; i = (i + 1) % 3 {
		lengths[i]++
		extra--
	}

	names := []string{"Foundation", "Launch", "Sustain"}
	goals := []string{
		"Align messaging and prepare assets",
		"Announce and secure earned coverage",
		"Extend reach and measure impact",
	}
	tactics := [][]string{
		{"Finalize key messages and proof points", "Build a targeted media list", "Brief spokespeople"},
		{"Distribute the announcement", "Pitch tier-one outlets with exclusives", "Publish owned content across channels"},
		{"Follow up with secondary outlets", "Share coverage on social channels", "Report results against KPIs"},
	}

	phases := make([]models.BlueprintPhase, 3)
	start := 1
	for i := range phases {
		phases[i] = models.BlueprintPhase{
			Name:      names[i],
			Goal:      goals[i],
			StartWeek: start,
			EndWeek:   start + lengths[i] - 1,
			Tactics:   tactics[i],
		}
		start += lengths[i]
	}

	return models.Blueprint{
		Summary:  fmt.Sprintf("A %d-week, three-phase campaign for %s to %s.", weeks, org.Name, strings.TrimSuffix(lowerFirst(objective), ".")),
		Phases:   phases,
		Channels: []string{"Earned media", "Owned blog", "LinkedIn", "Email newsletter"},
		KPIs: []models.KPI{
			{Name: "Earned media placements", Target: "10+"},
			{Name: "Share of voice vs competitors", Target: "+5 points"},
			{Name: "Referral traffic from coverage", Target: "+20%"},
		},
		DurationWeeks: weeks,
		Fallback:      true,
	}
}

func lowerFirst(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
