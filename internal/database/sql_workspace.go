// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Projects

const projectColumns = `id, organization_id, name, description, status, created_at, updated_at`

func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (s *SQLStore) CreateProject(ctx context.Context, p *models.Project) (err error) {
	start := time.Now()
	defer func() { observe("insert", "projects", start, err) }()

	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrganizationID, p.Name, p.Description, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *SQLStore) GetProject(ctx context.Context, id string) (p *models.Project, err error) {
	start := time.Now()
	defer func() { observe("select", "projects", start, err) }()

	p, err = scanProject(s.conn.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *SQLStore) ListProjects(ctx context.Context, opts models.ListOptions) (out []models.Project, err error) {
	start := time.Now()
	defer func() { observe("select", "projects", start, err) }()

	suffix, args := listWhere(opts.OrganizationID, opts.Status, newestFirst, opts.Limit, opts.Offset)
	rows, err := s.conn.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out = []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateProject(ctx context.Context, p *models.Project) error {
	touch(&p.UpdatedAt)
	return s.execOne(ctx, "update", "projects",
		`UPDATE projects SET name = $1, description = $2, status = $3, updated_at = $4 WHERE id = $5`,
		p.Name, p.Description, p.Status, p.UpdatedAt, p.ID)
}

func (s *SQLStore) DeleteProject(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "projects", id)
}

// Content items

const contentColumns = `id, organization_id, project_id, type, title, body, status, created_at, updated_at`

func scanContent(row scanner) (*models.ContentItem, error) {
	var c models.ContentItem
	err := row.Scan(&c.ID, &c.OrganizationID, &c.ProjectID, &c.Type, &c.Title, &c.Body, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (s *SQLStore) CreateContentItem(ctx context.Context, c *models.ContentItem) (err error) {
	start := time.Now()
	defer func() { observe("insert", "content_items", start, err) }()

	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if c.Status == "" {
		c.Status = models.ContentDraft
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO content_items (`+contentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.OrganizationID, c.ProjectID, c.Type, c.Title, c.Body, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

func (s *SQLStore) GetContentItem(ctx context.Context, id string) (c *models.ContentItem, err error) {
	start := time.Now()
	defer func() { observe("select", "content_items", start, err) }()

	c, err = scanContent(s.conn.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return c, nil
}

func (s *SQLStore) ListContentItems(ctx context.Context, opts models.ListOptions) (out []models.ContentItem, err error) {
	start := time.Now()
	defer func() { observe("select", "content_items", start, err) }()

	suffix, args := listWhere(opts.OrganizationID, opts.Status, newestFirst, opts.Limit, opts.Offset)
	rows, err := s.conn.QueryContext(ctx, `SELECT `+contentColumns+` FROM content_items `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	out = []models.ContentItem{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateContentItem(ctx context.Context, c *models.ContentItem) error {
	touch(&c.UpdatedAt)
	return s.execOne(ctx, "update", "content_items",
		`UPDATE content_items SET project_id = $1, type = $2, title = $3, body = $4, status = $5, updated_at = $6
			WHERE id = $7`,
		c.ProjectID, c.Type, c.Title, c.Body, c.Status, c.UpdatedAt, c.ID)
}

func (s *SQLStore) DeleteContentItem(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "content_items", id)
}

// Media contacts

const contactColumns = `id, organization_id, name, outlet, beat, email, notes, created_at, updated_at`

func scanContact(row scanner) (*models.MediaContact, error) {
	var m models.MediaContact
	err := row.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.Outlet, &m.Beat, &m.Email, &m.Notes,
		&m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (s *SQLStore) CreateMediaContact(ctx context.Context, m *models.MediaContact) (err error) {
	start := time.Now()
	defer func() { observe("insert", "media_contacts", start, err) }()

	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO media_contacts (`+contactColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.OrganizationID, m.Name, m.Outlet, m.Beat, m.Email, m.Notes, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert media contact: %w", err)
	}
	return nil
}

func (s *SQLStore) GetMediaContact(ctx context.Context, id string) (m *models.MediaContact, err error) {
	start := time.Now()
	defer func() { observe("select", "media_contacts", start, err) }()

	m, err = scanContact(s.conn.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM media_contacts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media contact: %w", err)
	}
	return m, nil
}

func (s *SQLStore) ListMediaContacts(ctx context.Context, opts models.ListOptions) (out []models.MediaContact, err error) {
	start := time.Now()
	defer func() { observe("select", "media_contacts", start, err) }()

	// Contacts carry no status; only the organization filter applies.
	suffix, args := listWhere(opts.OrganizationID, "", newestFirst, opts.Limit, opts.Offset)
	rows, err := s.conn.QueryContext(ctx, `SELECT `+contactColumns+` FROM media_contacts `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list media contacts: %w", err)
	}
	defer rows.Close()

	out = []models.MediaContact{}
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media contact: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateMediaContact(ctx context.Context, m *models.MediaContact) error {
	touch(&m.UpdatedAt)
	return s.execOne(ctx, "update", "media_contacts",
		`UPDATE media_contacts SET name = $1, outlet = $2, beat = $3, email = $4, notes = $5, updated_at = $6
			WHERE id = $7`,
		m.Name, m.Outlet, m.Beat, m.Email, m.Notes, m.UpdatedAt, m.ID)
}

func (s *SQLStore) DeleteMediaContact(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "media_contacts", id)
}
