// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Request bodies for the CRUD endpoints. PUT replaces every editable field.

// OrganizationRequest creates or replaces an organization.
type OrganizationRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Industry    string   `json:"industry,omitempty" validate:"max=100"`
	Website     string   `json:"website,omitempty" validate:"omitempty,url,max=500"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	Keywords    []string `json:"keywords,omitempty" validate:"max=50,dive,required,max=100"`
	Competitors []string `json:"competitors,omitempty" validate:"max=20,dive,required,max=200"`
}

func (req OrganizationRequest) apply(o *models.Organization) {
	o.Name = req.Name
	o.Industry = req.Industry
	o.Website = req.Website
	o.Description = req.Description
	o.Keywords = req.Keywords
	o.Competitors = req.Competitors
}

// ProjectRequest creates or replaces a project.
type ProjectRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Name           string `json:"name" validate:"required,min=2,max=200"`
	Description    string `json:"description,omitempty" validate:"max=2000"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=active paused archived"`
}

func (req ProjectRequest) apply(p *models.Project) {
	p.OrganizationID = req.OrganizationID
	p.Name = req.Name
	p.Description = req.Description
	p.Status = req.Status
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
}

// ContentItemRequest creates or replaces a content item.
type ContentItemRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	ProjectID      string `json:"project_id,omitempty"`
	Type           string `json:"type" validate:"required,oneof=press_release blog_post social_post media_pitch statement other"`
	Title          string `json:"title" validate:"required,max=300"`
	Body           string `json:"body" validate:"max=100000"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=draft review approved published"`
}

func (req ContentItemRequest) apply(c *models.ContentItem) {
	c.OrganizationID = req.OrganizationID
	c.ProjectID = req.ProjectID
	c.Type = req.Type
	c.Title = req.Title
	c.Body = req.Body
	c.Status = req.Status
	if c.Status == "" {
		c.Status = models.ContentDraft
	}
}

// MediaContactRequest creates or replaces a media contact.
type MediaContactRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Name           string `json:"name" validate:"required,max=200"`
	Outlet         string `json:"outlet,omitempty" validate:"max=200"`
	Beat           string `json:"beat,omitempty" validate:"max=200"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Notes          string `json:"notes,omitempty" validate:"max=5000"`
}

func (req MediaContactRequest) apply(c *models.MediaContact) {
	c.OrganizationID = req.OrganizationID
	c.Name = req.Name
	c.Outlet = req.Outlet
	c.Beat = req.Beat
	c.Email = req.Email
	c.Notes = req.Notes
}

// OpportunityRequest creates or replaces an opportunity by hand.
type OpportunityRequest struct {
	OrganizationID string    `json:"organization_id" validate:"required"`
	Type           string    `json:"type" validate:"required,oneof=news_hook trending_topic competitor_move crisis"`
	Title          string    `json:"title" validate:"required,max=500"`
	Description    string    `json:"description,omitempty" validate:"max=5000"`
	Score          float64   `json:"score" validate:"gte=0,lte=100"`
	Urgency        string    `json:"urgency" validate:"required,oneof=high medium low"`
	SourceURL      string    `json:"source_url,omitempty" validate:"omitempty,url"`
	Status         string    `json:"status,omitempty" validate:"omitempty,oneof=open pursuing dismissed expired"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (req OpportunityRequest) apply(o *models.Opportunity) {
	o.OrganizationID = req.OrganizationID
	o.Type = req.Type
	o.Title = req.Title
	o.Description = req.Description
	o.Score = req.Score
	o.Urgency = req.Urgency
	o.SourceURL = req.SourceURL
	o.Status = req.Status
	if o.Status == "" {
		o.Status = models.OpportunityOpen
	}
	o.ExpiresAt = req.ExpiresAt
}

// OpportunityStatusRequest is the body of PATCH /opportunities/{id}/status.
type OpportunityStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open pursuing dismissed expired"`
}

// ScrapeRequest is the body of POST /api/v1/scrape.
type ScrapeRequest struct {
	URL string `json:"url" validate:"required,url,max=2000"`
}
