// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package models

import "time"

// ResearchBrief is the campaign research output for one topic.
type ResearchBrief struct {
	OrganizationID string     `json:"organization_id"`
	Topic          string     `json:"topic"`
	Audience       []string   `json:"audience"`
	Narratives     []string   `json:"narratives"`
	Angles         []string   `json:"angles"`
	MediaTargets   []string   `json:"media_targets"`
	Summary        string     `json:"summary"`
	Findings       []Finding  `json:"findings"`
	Errors         []RunError `json:"errors,omitempty"`
	Fallback       bool       `json:"fallback"`
	GeneratedAt    time.Time  `json:"generated_at"`
}

// Blueprint is a phased campaign plan.
type Blueprint struct {
	OrganizationID string           `json:"organization_id"`
	Objective      string           `json:"objective"`
	Summary        string           `json:"summary"`
	Phases         []BlueprintPhase `json:"phases"`
	Channels       []string         `json:"channels"`
	KPIs           []KPI            `json:"kpis"`
	DurationWeeks  int              `json:"duration_weeks"`
	Fallback       bool             `json:"fallback"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// BlueprintPhase is one stage of a campaign timeline. Weeks are 1-based and
// inclusive.
type BlueprintPhase struct {
	Name      string   `json:"name"`
	Goal      string   `json:"goal"`
	StartWeek int      `json:"start_week"`
	EndWeek   int      `json:"end_week"`
	Tactics   []string `json:"tactics"`
}

// KPI is a measurable campaign target.
type KPI struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// BrandSnapshot is the cached brand profile served to the dashboard.
type BrandSnapshot struct {
	Organization      Organization `json:"organization"`
	OpenOpportunities int          `json:"open_opportunities"`
	TopOpportunity    *Opportunity `json:"top_opportunity,omitempty"`
	LastRunID         string       `json:"last_run_id,omitempty"`
	LastRunAt         *time.Time   `json:"last_run_at,omitempty"`
	LastSummary       string       `json:"last_summary,omitempty"`
	Themes            []string     `json:"themes"`
	TopKeywords       []string     `json:"top_keywords"`
	BuiltAt           time.Time    `json:"built_at"`
}
