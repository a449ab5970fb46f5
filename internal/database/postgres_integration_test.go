// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/testinfra"
)

func TestPostgresStoreIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, pg)

	store, err := Open(ctx, &config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN, MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	// Migrations are idempotent.
	if err := store.(*SQLStore).Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	org := &models.Organization{Name: "Acme", Keywords: []string{"acme", "robots"}, Competitors: []string{"Globex"}}
	if err := store.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	got, err := store.GetOrganization(ctx, org.ID)
	if err != nil || len(got.Keywords) != 2 {
		t.Fatalf("GetOrganization = %+v, %v", got, err)
	}

	opps, err := store.UpsertOpportunities(ctx, []models.Opportunity{{
		OrganizationID: org.ID, Type: models.OpportunityNewsHook, Title: "Launch coverage",
		Score: 72, Urgency: models.UrgencyMedium, SourceURL: "https://news.test/a",
		ExpiresAt: time.Now().Add(72 * time.Hour).UTC(),
	}})
	if err != nil {
		t.Fatalf("UpsertOpportunities: %v", err)
	}
	again, err := store.UpsertOpportunities(ctx, []models.Opportunity{{
		OrganizationID: org.ID, Type: models.OpportunityNewsHook, Title: "Launch coverage",
		Score: 81, Urgency: models.UrgencyHigh, SourceURL: "https://news.test/a",
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
	}})
	if err != nil {
		t.Fatalf("second UpsertOpportunities: %v", err)
	}
	if again[0].ID != opps[0].ID {
		t.Error("upsert should refresh the open opportunity")
	}

	run := &models.IntelligenceRun{OrganizationID: org.ID, Kind: models.RunKindRealtime, Status: models.RunRunning, Query: "acme"}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	done := time.Now().UTC()
	run.Status, run.CompletedAt = models.RunCompleted, &done
	run.Synthesis = &models.Synthesis{Summary: "ok", Sentiment: "neutral"}
	if err := store.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}
	loaded, err := store.GetRun(ctx, run.ID)
	if err != nil || loaded.Synthesis == nil || loaded.CompletedAt == nil {
		t.Fatalf("GetRun = %+v, %v", loaded, err)
	}

	if err := store.DeleteProject(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProject missing = %v", err)
	}
}
