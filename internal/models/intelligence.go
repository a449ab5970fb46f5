// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package models

import "time"

// Run kinds.
const (
	RunKindStandard = "standard"
	RunKindRealtime = "realtime"
)

// Run statuses.
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// IntelligenceRun records one gather/synthesize pass for an organization.
type IntelligenceRun struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organization_id"`
	Kind             string     `json:"kind"`
	Status           string     `json:"status"`
	Query            string     `json:"query"`
	Sources          []string   `json:"sources"`
	Findings         []Finding  `json:"findings"`
	Synthesis        *Synthesis `json:"synthesis,omitempty"`
	Errors           []RunError `json:"errors,omitempty"`
	OpportunityCount int        `json:"opportunity_count"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Finding is one search or scrape result gathered during a run.
type Finding struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Snippet     string     `json:"snippet,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Score       float64    `json:"score"` // source-native engagement, normalized to 0..1
}

// RunError records a source or stage that failed without failing the run.
type RunError struct {
	Stage   string `json:"stage"` // gather, synthesize, detect, archive
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// Synthesis is the LLM summary of a run's findings. Fallback is true when
// the summary was derived locally because the model call or parse failed.
type Synthesis struct {
	Summary         string   `json:"summary"`
	KeyThemes       []string `json:"key_themes"`
	Sentiment       string   `json:"sentiment"` // positive, neutral, negative, mixed
	Recommendations []string `json:"recommendations"`
	Risks           []string `json:"risks"`
	Provider        string   `json:"provider,omitempty"`
	Fallback        bool     `json:"fallback"`
}
