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

const organizationColumns = `id, name, industry, website, description, keywords, competitors, created_at, updated_at`

func scanOrganization(row scanner) (*models.Organization, error) {
	var o models.Organization
	var keywords, competitors string
	if err := row.Scan(&o.ID, &o.Name, &o.Industry, &o.Website, &o.Description,
		&keywords, &competitors, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(keywords, &o.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if err := decodeJSON(competitors, &o.Competitors); err != nil {
		return nil, fmt.Errorf("decode competitors: %w", err)
	}
	return &o, nil
}

func (s *SQLStore) CreateOrganization(ctx context.Context, o *models.Organization) (err error) {
	start := time.Now()
	defer func() { observe("insert", "organizations", start, err) }()

	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	o.Keywords = stringsOrEmpty(o.Keywords)
	o.Competitors = stringsOrEmpty(o.Competitors)
	keywords, _ := encodeJSON(o.Keywords)
	competitors, _ := encodeJSON(o.Competitors)

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO organizations (`+organizationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.Name, o.Industry, o.Website, o.Description, keywords, competitors, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *SQLStore) GetOrganization(ctx context.Context, id string) (o *models.Organization, err error) {
	start := time.Now()
	defer func() { observe("select", "organizations", start, err) }()

	row := s.conn.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	o, err = scanOrganization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

func (s *SQLStore) ListOrganizations(ctx context.Context, opts models.ListOptions) (out []models.Organization, err error) {
	start := time.Now()
	defer func() { observe("select", "organizations", start, err) }()

	// Organizations are the tenancy root and have no organization_id or status.
	suffix, args := listWhere("", "", newestFirst, opts.Limit, opts.Offset)
	rows, err := s.conn.QueryContext(ctx, `SELECT `+organizationColumns+` FROM organizations `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	out = []models.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	touch(&o.UpdatedAt)
	o.Keywords = stringsOrEmpty(o.Keywords)
	o.Competitors = stringsOrEmpty(o.Competitors)
	keywords, _ := encodeJSON(o.Keywords)
	competitors, _ := encodeJSON(o.Competitors)
	return s.execOne(ctx, "update", "organizations",
		`UPDATE organizations SET name = $1, industry = $2, website = $3, description = $4,
			keywords = $5, competitors = $6, updated_at = $7 WHERE id = $8`,
		o.Name, o.Industry, o.Website, o.Description, keywords, competitors, o.UpdatedAt, o.ID)
}

func (s *SQLStore) DeleteOrganization(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "organizations", id)
}
