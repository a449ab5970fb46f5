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

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/goccy/go-json"
	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/signaldesk/signaldesk/internal/database/query"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	conn   *sql.DB
	driver string
}

// NewSQLStore wraps an open connection and runs the schema DDL.
func NewSQLStore(ctx context.Context, conn *sql.DB, driver string) (*SQLStore, error) {
	s := newSQLStore(conn, driver)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newSQLStore(conn *sql.DB, driver string) *SQLStore {
	return &SQLStore{conn: conn, driver: driver}
}

// Migrate creates missing tables and indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	logging.Debug().Str("driver", s.driver).Int("statements", len(schemaStatements)).Msg("Schema ready")
	return nil
}

// Conn exposes the underlying pool for health checks and tests.
func (s *SQLStore) Conn() *sql.DB {
	return s.conn
}

// Driver is "duckdb" or "postgres".
func (s *SQLStore) Driver() string {
	return s.driver
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

// observe records query latency. ErrNotFound is an expected outcome, not a failure.
func observe(op, table string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordDBQuery(op, table, time.Since(start), err)
}

// execOne runs a statement that must touch exactly one row.
func (s *SQLStore) execOne(ctx context.Context, op, table, stmt string, args ...any) (err error) {
	start := time.Now()
	defer func() { observe(op, table, start, err) }()
	res, err := s.conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", op, table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) deleteByID(ctx context.Context, table, id string) error {
	return s.execOne(ctx, "delete", table, "DELETE FROM "+table+" WHERE id = $1", id)
}

// listWhere builds the filter, ordering and pagination suffix shared by list
// queries. order is a trusted constant, never user input.
func listWhere(orgID, status, order string, limit, offset int) (string, []any) {
	wb := query.NewWhereBuilder().Eq("organization_id", orgID).Eq("status", status)
	where, args := wb.Build()
	n := len(args)
	clause := fmt.Sprintf("ORDER BY %s LIMIT $%d OFFSET $%d", order, n+1, n+2)
	if where != "" {
		clause = where + " " + clause
	}
	return clause, append(args, normalizeLimit(limit), offset)
}

const newestFirst = "created_at DESC"

type scanner interface {
	Scan(dest ...any) error
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
