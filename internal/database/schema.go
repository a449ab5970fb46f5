// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package database

// schemaStatements run in order on every startup. They use the subset of
// SQL that DuckDB and Postgres share. List and nested fields are JSON text.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		industry TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		keywords TEXT NOT NULL DEFAULT '[]',
		competitors TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		project_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS media_contacts (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		outlet TEXT NOT NULL DEFAULT '',
		beat TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS opportunities (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		run_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		score DOUBLE PRECISION NOT NULL,
		urgency TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		matched_rules TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS intelligence_runs (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		query TEXT NOT NULL,
		sources TEXT NOT NULL DEFAULT '[]',
		findings TEXT NOT NULL DEFAULT '[]',
		synthesis TEXT NOT NULL DEFAULT 'null',
		errors TEXT NOT NULL DEFAULT '[]',
		opportunity_count INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_org ON projects (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_content_org ON content_items (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_org ON media_contacts (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_org ON opportunities (organization_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_org ON intelligence_runs (organization_id)`,
}
