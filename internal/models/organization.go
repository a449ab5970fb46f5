// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package models

import "time"

// Organization is a client brand tracked by SignalDesk. Keywords and
// Competitors drive both the default intelligence query and opportunity scoring.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry,omitempty"`
	Website     string    `json:"website,omitempty"`
	Description string    `json:"description,omitempty"`
	Keywords    []string  `json:"keywords"`
	Competitors []string  `json:"competitors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project groups content and campaigns for one organization.
type Project struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status"` // active, paused, archived
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Project statuses.
const (
	ProjectActive   = "active"
	ProjectPaused   = "paused"
	ProjectArchived = "archived"
)

// ContentItem is a press release, pitch or post drafted for an organization.
type ContentItem struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ProjectID      string    `json:"project_id,omitempty"`
	Type           string    `json:"type"` // press_release, blog_post, social_post, media_pitch, statement, other
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Status         string    `json:"status"` // draft, review, approved, published
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Content statuses.
const (
	ContentDraft     = "draft"
	ContentReview    = "review"
	ContentApproved  = "approved"
	ContentPublished = "published"
)

// MediaContact is a journalist or outlet on an organization's media list.
type MediaContact struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Outlet         string    `json:"outlet,omitempty"`
	Beat           string    `json:"beat,omitempty"`
	Email          string    `json:"email,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is a local account that can log in when AUTH_MODE=jwt.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // admin, editor, viewer
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Roles, from most to least privileged.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ListOptions pages and filters list queries. An empty OrganizationID lists
// across all organizations.
type ListOptions struct {
	OrganizationID string
	Status         string
	Limit          int
	Offset         int
}
