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

const runColumns = `id, organization_id, kind, status, query, sources, findings, synthesis, errors,
	opportunity_count, started_at, completed_at`

func scanRun(row scanner) (*models.IntelligenceRun, error) {
	var r models.IntelligenceRun
	var sources, findings, synthesis, runErrors string
	var completed sql.NullTime
	if err := row.Scan(&r.ID, &r.OrganizationID, &r.Kind, &r.Status, &r.Query, &sources, &findings,
		&synthesis, &runErrors, &r.OpportunityCount, &r.StartedAt, &completed); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"sources", sources, &r.Sources},
		{"findings", findings, &r.Findings},
		{"synthesis", synthesis, &r.Synthesis},
		{"errors", runErrors, &r.Errors},
	} {
		if err := decodeJSON(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	return &r, nil
}

type runPayload struct {
	sources, findings, synthesis, errors string
	completed                            sql.NullTime
}

func encodeRun(r *models.IntelligenceRun) (runPayload, error) {
	var p runPayload
	var err error
	if r.Findings == nil {
		r.Findings = []models.Finding{}
	}
	r.Sources = stringsOrEmpty(r.Sources)
	if p.sources, err = encodeJSON(r.Sources); err != nil {
		return p, err
	}
	if p.findings, err = encodeJSON(r.Findings); err != nil {
		return p, err
	}
	if p.synthesis, err = encodeJSON(r.Synthesis); err != nil {
		return p, err
	}
	if p.errors, err = encodeJSON(r.Errors); err != nil {
		return p, err
	}
	if r.CompletedAt != nil {
		p.completed = sql.NullTime{Time: *r.CompletedAt, Valid: true}
	}
	return p, nil
}

func (s *SQLStore) CreateRun(ctx context.Context, r *models.IntelligenceRun) (err error) {
	start := time.Now()
	defer func() { observe("insert", "intelligence_runs", start, err) }()

	var ignored time.Time
	stamp(&r.ID, &r.StartedAt, &ignored)
	if r.Status == "" {
		r.Status = models.RunPending
	}
	p, err := encodeRun(r)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO intelligence_runs (`+runColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.OrganizationID, r.Kind, r.Status, r.Query, p.sources, p.findings, p.synthesis, p.errors,
		r.OpportunityCount, r.StartedAt, p.completed)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateRun(ctx context.Context, r *models.IntelligenceRun) error {
	p, err := encodeRun(r)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return s.execOne(ctx, "update", "intelligence_runs",
		`UPDATE intelligence_runs SET status = $1, query = $2, sources = $3, findings = $4, synthesis = $5,
			errors = $6, opportunity_count = $7, completed_at = $8 WHERE id = $9`,
		r.Status, r.Query, p.sources, p.findings, p.synthesis, p.errors, r.OpportunityCount, p.completed, r.ID)
}

func (s *SQLStore) GetRun(ctx context.Context, id string) (r *models.IntelligenceRun, err error) {
	start := time.Now()
	defer func() { observe("select", "intelligence_runs", start, err) }()

	r, err = scanRun(s.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM intelligence_runs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

func (s *SQLStore) ListRuns(ctx context.Context, opts models.ListOptions) (out []models.IntelligenceRun, err error) {
	start := time.Now()
	defer func() { observe("select", "intelligence_runs", start, err) }()

	suffix, args := listWhere(opts.OrganizationID, opts.Status, "started_at DESC", opts.Limit, opts.Offset)
	rows, err := s.conn.QueryContext(ctx, `SELECT `+runColumns+` FROM intelligence_runs `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out = []models.IntelligenceRun{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
