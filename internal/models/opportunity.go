// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package models

import "time"

// Opportunity types.
const (
	OpportunityNewsHook       = "news_hook"
	OpportunityTrendingTopic  = "trending_topic"
	OpportunityCompetitorMove = "competitor_move"
	OpportunityCrisis         = "crisis"
)

// Urgency levels.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Opportunity statuses.
const (
	OpportunityOpen      = "open"
	OpportunityPursuing  = "pursuing"
	OpportunityDismissed = "dismissed"
	OpportunityExpired   = "expired"
)

// Opportunity is a scored, time-boxed PR opening derived from a finding.
type Opportunity struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	RunID          string    `json:"run_id,omitempty"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Score          float64   `json:"score"` // 0..100
	Urgency        string    `json:"urgency"`
	Source         string    `json:"source,omitempty"`
	SourceURL      string    `json:"source_url,omitempty"`
	MatchedRules   []string  `json:"matched_rules,omitempty"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Expired reports whether the opportunity window has closed at now.
func (o *Opportunity) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}
