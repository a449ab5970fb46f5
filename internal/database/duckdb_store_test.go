// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/models"
)

func openDuckDB(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "signaldesk.duckdb")
	store, err := Open(context.Background(), &config.DatabaseConfig{Driver: "duckdb", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedDuckOrg(t *testing.T, store Store) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: "Acme", Keywords: []string{"rockets", "launch"}, Competitors: []string{"Globex"}}
	require.NoError(t, store.CreateOrganization(context.Background(), org))
	return org
}

func TestDuckDBOrganizationsAndProjects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openDuckDB(t)
	require.IsType(t, &SQLStore{}, store)
	require.NoError(t, store.Ping(ctx))

	org := seedDuckOrg(t, store)
	require.NotEmpty(t, org.ID)

	got, err := store.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, []string{"rockets", "launch"}, got.Keywords)
	assert.Equal(t, []string{"Globex"}, got.Competitors)

	got.Industry = "aerospace"
	require.NoError(t, store.UpdateOrganization(ctx, got))
	again, err := store.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "aerospace", again.Industry)

	p := &models.Project{OrganizationID: org.ID, Name: "Spring launch", Status: models.ProjectActive}
	require.NoError(t, store.CreateProject(ctx, p))
	projects, err := store.ListProjects(ctx, models.ListOptions{OrganizationID: org.ID})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p.ID, projects[0].ID)

	require.NoError(t, store.DeleteProject(ctx, p.ID))
	_, err = store.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuckDBNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openDuckDB(t)

	_, err := store.GetOrganization(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.UpdateOrganization(ctx, &models.Organization{ID: "missing", Name: "Nobody"}), ErrNotFound)
	assert.ErrorIs(t, store.DeleteOrganization(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, store.UpdateOpportunity(ctx, &models.Opportunity{ID: "missing", Status: models.OpportunityOpen}), ErrNotFound)
	assert.ErrorIs(t, store.DeleteMediaContact(ctx, "missing"), ErrNotFound)
	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuckDBUpsertOpportunitiesRefreshesByURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openDuckDB(t)
	org := seedDuckOrg(t, store)

	first, err := store.UpsertOpportunities(ctx, []models.Opportunity{{
		OrganizationID: org.ID, Type: models.OpportunityNewsHook, Title: "Launch coverage",
		Score: 62, Urgency: models.UrgencyMedium, SourceURL: "https://news.test/launch",
		MatchedRules: []string{"keyword"}, ExpiresAt: time.Now().Add(72 * time.Hour).UTC(),
	}})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := store.UpsertOpportunities(ctx, []models.Opportunity{
		{
			OrganizationID: org.ID, Type: models.OpportunityNewsHook, Title: "Launch coverage grows",
			Score: 81, Urgency: models.UrgencyHigh, SourceURL: "https://news.test/launch",
			ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
		},
		{
			OrganizationID: org.ID, Type: models.OpportunityNewsHook, Title: "Other story",
			Score: 40, Urgency: models.UrgencyLow, SourceURL: "https://news.test/other",
			ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
		},
	})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID, "open opportunity with the same URL is refreshed")
	assert.NotEqual(t, first[0].ID, second[1].ID)

	stored, err := store.GetOpportunity(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch coverage grows", stored.Title)
	assert.InDelta(t, 81, stored.Score, 0.001)
	assert.Equal(t, models.UrgencyHigh, stored.Urgency)
	assert.Equal(t, models.OpportunityOpen, stored.Status)

	all, err := store.ListOpportunities(ctx, models.ListOptions{OrganizationID: org.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDuckDBRunJSONColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openDuckDB(t)
	org := seedDuckOrg(t, store)

	run := &models.IntelligenceRun{
		OrganizationID: org.ID,
		Kind:           models.RunKindStandard,
		Status:         models.RunRunning,
		Query:          "Acme OR rockets",
		Sources:        []string{"newsapi", "reddit"},
		Findings:       []models.Finding{},
		StartedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.CreateRun(ctx, run))

	published := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	done := time.Now().UTC()
	run.Status, run.CompletedAt = models.RunCompleted, &done
	run.Findings = []models.Finding{{Source: "newsapi", Title: "Acme reaches orbit", URL: "https://news.test/orbit", PublishedAt: &published, Score: 0.9}}
	run.Errors = []models.RunError{{Stage: "gather", Source: "reddit", Message: "reddit: 503"}}
	run.Synthesis = &models.Synthesis{Summary: "Positive launch coverage.", KeyThemes: []string{"launch"}, Sentiment: "positive", Fallback: true}
	run.OpportunityCount = 1
	require.NoError(t, store.UpdateRun(ctx, run))

	loaded, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, loaded.Status)
	require.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, []string{"newsapi", "reddit"}, loaded.Sources)
	require.Len(t, loaded.Findings, 1)
	assert.Equal(t, "https://news.test/orbit", loaded.Findings[0].URL)
	require.NotNil(t, loaded.Findings[0].PublishedAt)
	assert.True(t, loaded.Findings[0].PublishedAt.Equal(published))
	assert.Equal(t, run.Errors, loaded.Errors)
	require.NotNil(t, loaded.Synthesis)
	assert.Equal(t, "Positive launch coverage.", loaded.Synthesis.Summary)
	assert.True(t, loaded.Synthesis.Fallback)
	assert.Equal(t, 1, loaded.OpportunityCount)

	runs, err := store.ListRuns(ctx, models.ListOptions{OrganizationID: org.ID})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestDuckDBUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openDuckDB(t)

	u := &models.User{Username: "alice", PasswordHash: "$2a$10$hash", Role: models.RoleEditor}
	require.NoError(t, store.CreateUser(ctx, u))

	got, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, got.Role)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	err = store.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x", Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}
