// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package database persists organizations, workspace content, intelligence
// runs, opportunities and users.
//
// Two implementations satisfy Store: SQLStore over DuckDB or Postgres, and
// MemoryStore for single-process development. Open picks one from config.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/models"
)

var (
	// ErrNotFound is returned by Get, Update and Delete when no row matches.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("record already exists")
)

// DefaultListLimit applies when ListOptions.Limit is zero.
const DefaultListLimit = 50

// Store is the persistence boundary used by handlers and services.
type Store interface {
	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	ListOrganizations(ctx context.Context, opts models.ListOptions) ([]models.Organization, error)
	UpdateOrganization(ctx context.Context, o *models.Organization) error
	DeleteOrganization(ctx context.Context, id string) error

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, opts models.ListOptions) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	CreateContentItem(ctx context.Context, c *models.ContentItem) error
	GetContentItem(ctx context.Context, id string) (*models.ContentItem, error)
	ListContentItems(ctx context.Context, opts models.ListOptions) ([]models.ContentItem, error)
	UpdateContentItem(ctx context.Context, c *models.ContentItem) error
	DeleteContentItem(ctx context.Context, id string) error

	CreateMediaContact(ctx context.Context, m *models.MediaContact) error
	GetMediaContact(ctx context.Context, id string) (*models.MediaContact, error)
	ListMediaContacts(ctx context.Context, opts models.ListOptions) ([]models.MediaContact, error)
	UpdateMediaContact(ctx context.Context, m *models.MediaContact) error
	DeleteMediaContact(ctx context.Context, id string) error

	CreateOpportunity(ctx context.Context, o *models.Opportunity) error
	GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, opts models.ListOptions) ([]models.Opportunity, error)
	UpdateOpportunity(ctx context.Context, o *models.Opportunity) error
	DeleteOpportunity(ctx context.Context, id string) error
	// UpsertOpportunities refreshes an open opportunity with the same
	// organization and source URL instead of inserting a duplicate. The
	// returned slice carries the stored IDs.
	UpsertOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.Opportunity, error)

	CreateRun(ctx context.Context, r *models.IntelligenceRun) error
	UpdateRun(ctx context.Context, r *models.IntelligenceRun) error
	GetRun(ctx context.Context, id string) (*models.IntelligenceRun, error)
	ListRuns(ctx context.Context, opts models.ListOptions) ([]models.IntelligenceRun, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open builds the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "duckdb":
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		return openSQL(ctx, "duckdb", cfg.Path, cfg)
	case "postgres":
		return openSQL(ctx, "postgres", cfg.DSN, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, driver, dsn string, cfg *config.DatabaseConfig) (*SQLStore, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to reach %s database: %w", driver, err)
	}

	store := newSQLStore(conn, driver)
	if err := store.Migrate(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}
	return store, nil
}

// closeQuietly closes in error paths where the Close error is not actionable.
func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// stamp assigns an ID and timestamps to a new record.
func stamp(id *string, created, updated *time.Time) {
	now := time.Now().UTC()
	if *id == "" {
		*id = uuid.New().String()
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func touch(updated *time.Time) {
	*updated = time.Now().UTC()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// AllOrganizations pages through every organization.
func AllOrganizations(ctx context.Context, s Store) ([]models.Organization, error) {
	const pageSize = 500
	var all []models.Organization
	for offset := 0; ; offset += pageSize {
		page, err := s.ListOrganizations(ctx, models.ListOptions{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
