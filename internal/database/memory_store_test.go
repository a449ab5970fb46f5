// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

func TestMemoryStoreOrganizationLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore()

	org := &models.Organization{Name: "Acme", Keywords: []string{"acme"}}
	if err := s.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.ID == "" || org.CreatedAt.IsZero() {
		t.Fatalf("record not stamped: %+v", org)
	}

	got, err := s.GetOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	got.Keywords[0] = "mutated"
	again, _ := s.GetOrganization(ctx, org.ID)
	if again.Keywords[0] != "acme" {
		t.Error("Get must return a copy")
	}

	got.Name = "Acme Corp"
	if err := s.UpdateOrganization(ctx, got); err != nil {
		t.Fatalf("UpdateOrganization: %v", err)
	}
	again, _ = s.GetOrganization(ctx, org.ID)
	if again.Name != "Acme Corp" || !again.CreatedAt.Equal(org.CreatedAt) {
		t.Errorf("update lost data: %+v", again)
	}

	if err := s.DeleteOrganization(ctx, org.ID); err != nil {
		t.Fatalf("DeleteOrganization: %v", err)
	}
	if _, err := s.GetOrganization(ctx, org.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteOrganization(ctx, org.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListOrderingAndPaging(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"oldest", "middle", "newest"} {
		p := &models.Project{OrganizationID: "org-1", Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	_ = s.CreateProject(ctx, &models.Project{OrganizationID: "org-2", Name: "other", CreatedAt: base})

	tests := []struct {
		name string
		opts models.ListOptions
		want []string
	}{
		{"org filter newest first", models.ListOptions{OrganizationID: "org-1"}, []string{"newest", "middle", "oldest"}},
		{"limit", models.ListOptions{OrganizationID: "org-1", Limit: 1}, []string{"newest"}},
		{"offset", models.ListOptions{OrganizationID: "org-1", Offset: 2}, []string{"oldest"}},
		{"offset past end", models.ListOptions{OrganizationID: "org-1", Offset: 9}, []string{}},
		{"status filter", models.ListOptions{OrganizationID: "org-1", Status: models.ProjectArchived}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListProjects(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d projects, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryStoreUpsertOpportunitiesDedupesOpenByURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.UpsertOpportunities(ctx, []models.Opportunity{
		{OrganizationID: "org-1", SourceURL: "https://news.test/a", Score: 50},
		{OrganizationID: "org-1", Score: 45},
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := s.UpsertOpportunities(ctx, []models.Opportunity{
		{OrganizationID: "org-1", SourceURL: "https://news.test/a", Score: 90},
		{OrganizationID: "org-2", SourceURL: "https://news.test/a", Score: 60},
	})
	if err != nil {
		t.Fatal(err)
	}
	if second[0].ID != first[0].ID {
		t.Error("same org and URL should refresh the open opportunity")
	}
	if second[1].ID == first[0].ID {
		t.Error("different organizations must not share opportunities")
	}

	list, _ := s.ListOpportunities(ctx, models.ListOptions{OrganizationID: "org-1"})
	if len(list) != 2 {
		t.Fatalf("org-1 has %d opportunities, want 2", len(list))
	}
	if list[0].Score != 90 {
		t.Errorf("list should be sorted by score, got first %.0f", list[0].Score)
	}

	// A dismissed opportunity is not refreshed; a new one is opened instead.
	dismissed := list[0]
	dismissed.Status = models.OpportunityDismissed
	if err := s.UpdateOpportunity(ctx, &dismissed); err != nil {
		t.Fatal(err)
	}
	third, _ := s.UpsertOpportunities(ctx, []models.Opportunity{
		{OrganizationID: "org-1", SourceURL: "https://news.test/a", Score: 70},
	})
	if third[0].ID == dismissed.ID {
		t.Error("dismissed opportunity should not be reopened")
	}
}

func TestMemoryStoreRunsAndUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore()

	run := &models.IntelligenceRun{OrganizationID: "org-1", Kind: models.RunKindStandard, Query: "acme"}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if run.Status != models.RunPending {
		t.Errorf("default status = %q", run.Status)
	}

	done := time.Now().UTC()
	run.Status = models.RunCompleted
	run.CompletedAt = &done
	run.Synthesis = &models.Synthesis{Summary: "quiet week", KeyThemes: []string{"launch"}}
	if err := s.UpdateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetRun(ctx, run.ID)
	got.Synthesis.KeyThemes[0] = "mutated"
	again, _ := s.GetRun(ctx, run.ID)
	if again.Synthesis.KeyThemes[0] != "launch" {
		t.Error("run synthesis leaked by reference")
	}
	if err := s.UpdateRun(ctx, &models.IntelligenceRun{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRun missing = %v", err)
	}

	u := &models.User{Username: "alice", PasswordHash: "hash", Role: models.RoleEditor}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, &models.User{Username: "alice"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate user = %v, want ErrConflict", err)
	}
	if _, err := s.GetUserByUsername(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user = %v, want ErrNotFound", err)
	}
}

func TestAllOrganizationsPagesThroughEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 503; i++ {
		if err := s.CreateOrganization(ctx, &models.Organization{Name: "org"}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := AllOrganizations(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 503 {
		t.Errorf("AllOrganizations() = %d, want 503", len(all))
	}
	seen := make(map[string]bool, len(all))
	for _, o := range all {
		if seen[o.ID] {
			t.Fatalf("organization %s returned twice", o.ID)
		}
		seen[o.ID] = true
	}
}
