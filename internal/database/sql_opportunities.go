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

const opportunityColumns = `id, organization_id, run_id, type, title, description, score, urgency, source,
	source_url, matched_rules, status, expires_at, created_at, updated_at`

func scanOpportunity(row scanner) (*models.Opportunity, error) {
	var o models.Opportunity
	var rules string
	if err := row.Scan(&o.ID, &o.OrganizationID, &o.RunID, &o.Type, &o.Title, &o.Description, &o.Score,
		&o.Urgency, &o.Source, &o.SourceURL, &rules, &o.Status, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(rules, &o.MatchedRules); err != nil {
		return nil, fmt.Errorf("decode matched_rules: %w", err)
	}
	return &o, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertOpportunity(ctx context.Context, db execer, o *models.Opportunity) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if o.Status == "" {
		o.Status = models.OpportunityOpen
	}
	rules, _ := encodeJSON(stringsOrEmpty(o.MatchedRules))
	_, err := db.ExecContext(ctx,
		`INSERT INTO opportunities (`+opportunityColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.OrganizationID, o.RunID, o.Type, o.Title, o.Description, o.Score, o.Urgency, o.Source,
		o.SourceURL, rules, o.Status, o.ExpiresAt, o.CreatedAt, o.UpdatedAt)
	return err
}

func (s *SQLStore) CreateOpportunity(ctx context.Context, o *models.Opportunity) (err error) {
	start := time.Now()
	defer func() { observe("insert", "opportunities", start, err) }()

	if err = insertOpportunity(ctx, s.conn, o); err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

func (s *SQLStore) GetOpportunity(ctx context.Context, id string) (o *models.Opportunity, err error) {
	start := time.Now()
	defer func() { observe("select", "opportunities", start, err) }()

	o, err = scanOpportunity(s.conn.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

// ListOpportunities orders by score, highest first, rather than by age.
func (s *SQLStore) ListOpportunities(ctx context.Context, opts models.ListOptions) (out []models.Opportunity, err error) {
	start := time.Now()
	defer func() { observe("select", "opportunities", start, err) }()

	suffix, args := listWhere(opts.OrganizationID, opts.Status, "score DESC, created_at DESC", opts.Limit, opts.Offset)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	out = []models.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateOpportunity(ctx context.Context, o *models.Opportunity) error {
	touch(&o.UpdatedAt)
	rules, _ := encodeJSON(stringsOrEmpty(o.MatchedRules))
	return s.execOne(ctx, "update", "opportunities",
		`UPDATE opportunities SET type = $1, title = $2, description = $3, score = $4, urgency = $5,
			matched_rules = $6, status = $7, expires_at = $8, updated_at = $9 WHERE id = $10`,
		o.Type, o.Title, o.Description, o.Score, o.Urgency, rules, o.Status, o.ExpiresAt, o.UpdatedAt, o.ID)
}

func (s *SQLStore) DeleteOpportunity(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "opportunities", id)
}

func (s *SQLStore) UpsertOpportunities(ctx context.Context, opps []models.Opportunity) (out []models.Opportunity, err error) {
	start := time.Now()
	defer func() { observe("upsert", "opportunities", start, err) }()

	if len(opps) == 0 {
		return []models.Opportunity{}, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	out = make([]models.Opportunity, 0, len(opps))
	for i := range opps {
		o := opps[i]
		var existingID string
		var created time.Time
		lookupErr := sql.ErrNoRows
		if o.SourceURL != "" {
			lookupErr = tx.QueryRowContext(ctx,
				`SELECT id, created_at FROM opportunities
					WHERE organization_id = $1 AND source_url = $2 AND status = $3`,
				o.OrganizationID, o.SourceURL, models.OpportunityOpen).Scan(&existingID, &created)
		}

		switch {
		case errors.Is(lookupErr, sql.ErrNoRows):
			if err = insertOpportunity(ctx, tx, &o); err != nil {
				return nil, fmt.Errorf("insert opportunity: %w", err)
			}
		case lookupErr != nil:
			err = lookupErr
			return nil, fmt.Errorf("lookup opportunity: %w", err)
		default:
			o.ID, o.CreatedAt, o.Status = existingID, created, models.OpportunityOpen
			touch(&o.UpdatedAt)
			rules, _ := encodeJSON(stringsOrEmpty(o.MatchedRules))
			if _, err = tx.ExecContext(ctx,
				`UPDATE opportunities SET run_id = $1, type = $2, title = $3, description = $4, score = $5,
					urgency = $6, matched_rules = $7, expires_at = $8, updated_at = $9 WHERE id = $10`,
				o.RunID, o.Type, o.Title, o.Description, o.Score, o.Urgency, rules, o.ExpiresAt, o.UpdatedAt, o.ID); err != nil {
				return nil, fmt.Errorf("refresh opportunity: %w", err)
			}
		}
		out = append(out, o)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return out, nil
}
