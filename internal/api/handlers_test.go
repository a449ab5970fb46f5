// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/models"
)

type brokenPing struct {
	*database.MemoryStore
}

func (brokenPing) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("live = %d %+v", w.Code, env)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if w.Code != http.StatusOK || dataMap(t, env)["database"] != "memory" {
		t.Fatalf("ready = %d %+v", w.Code, env)
	}

	down := newTestServer(t, func(_ *config.Config, d *Deps) {
		d.Store = brokenPing{database.NewMemoryStore()}
	})
	w, env = down.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if w.Code != http.StatusServiceUnavailable || errorCode(env) != response.CodeServiceUnavailable {
		t.Errorf("ready with broken store = %d %+v", w.Code, env.Error)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"valid admin", LoginRequest{Username: "admin", Password: "correct-horse-battery"}, http.StatusOK, ""},
		{"wrong password", LoginRequest{Username: "admin", Password: "nope"}, http.StatusUnauthorized, response.CodeUnauthorized},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest, response.CodeValidationError},
		{"malformed", "{", http.StatusBadRequest, response.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			if w.Code != tt.wantCode || errorCode(env) != tt.wantErr {
				t.Fatalf("code = %d err = %+v, want %d %s", w.Code, env.Error, tt.wantCode, tt.wantErr)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if dataMap(t, env)["token"] == "" {
				t.Error("no token in session")
			}
			if !strings.Contains(w.Header().Get("Set-Cookie"), auth.TokenCookie+"=") {
				t.Error("token cookie not set")
			}
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPost, "/api/v1/organizations", s.token(t, models.RoleEditor),
		map[string]any{"name": "A", "website": "not a url"})
	if w.Code != http.StatusBadRequest || errorCode(env) != response.CodeValidationError {
		t.Fatalf("code = %d err = %+v", w.Code, env.Error)
	}
	details, ok := env.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("details = %#v", env.Error.Details)
	}
	if fields, _ := details["fields"].([]any); len(fields) != 2 {
		t.Errorf("fields = %v, want name and website", details["fields"])
	}
}

func TestMeAndAuthentication(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized || errorCode(env) != response.CodeUnauthorized {
		t.Errorf("me without token = %d", w.Code)
	}
	w, _ = s.do(t, http.MethodGet, "/api/v1/organizations", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("list with bad token = %d", w.Code)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/auth/me", s.token(t, models.RoleViewer), nil)
	if w.Code != http.StatusOK || dataMap(t, env)["role"] != models.RoleViewer {
		t.Errorf("me = %d %+v", w.Code, env.Data)
	}
}

func TestDevBypass(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config, _ *Deps) { c.Security.AuthMode = auth.ModeNone })

	w, env := s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if w.Code != http.StatusOK || dataMap(t, env)["username"] != "dev" {
		t.Fatalf("me = %d %+v", w.Code, env.Data)
	}
	w, _ = s.do(t, http.MethodPost, "/api/v1/admin/cache/warm", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("dev admin warm = %d", w.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	org := s.seedOrg(t, "Acme")

	tests := []struct {
		role   string
		method string
		path   string
		body   any
		want   int
	}{
		{models.RoleViewer, http.MethodGet, "/api/v1/organizations", nil, http.StatusOK},
		{models.RoleViewer, http.MethodPost, "/api/v1/organizations", OrganizationRequest{Name: "Nope"}, http.StatusForbidden},
		{models.RoleViewer, http.MethodPost, "/api/v1/llm/anthropic/complete", map[string]string{"prompt": "hi"}, http.StatusForbidden},
		{models.RoleEditor, http.MethodPost, "/api/v1/organizations", OrganizationRequest{Name: "Globex"}, http.StatusCreated},
		{models.RoleEditor, http.MethodDelete, "/api/v1/organizations/" + org.ID, nil, http.StatusForbidden},
		{models.RoleEditor, http.MethodDelete, "/api/v1/admin/cache", nil, http.StatusForbidden},
		{models.RoleEditor, http.MethodPost, "/api/v1/admin/users", CreateUserRequest{Username: "eve", Password: "long-enough", Role: "admin"}, http.StatusForbidden},
		{models.RoleAdmin, http.MethodDelete, "/api/v1/organizations/" + org.ID, nil, http.StatusNoContent},
	}
	for _, tt := range tests {
		w, env := s.do(t, tt.method, tt.path, s.token(t, tt.role), tt.body)
		if w.Code != tt.want {
			t.Errorf("%s %s %s = %d (%+v), want %d", tt.role, tt.method, tt.path, w.Code, env.Error, tt.want)
		}
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	t.Parallel()
	policy := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(policy, []byte("p, editor, *, *\np, admin, *, *\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, func(c *config.Config, _ *Deps) { c.Security.CasbinPolicyPath = policy })

	w, env := s.do(t, http.MethodDelete, "/api/v1/admin/cache", s.token(t, models.RoleEditor), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("editor clear cache = %d (%+v), want 403", w.Code, env.Error)
	}
	w, _ = s.do(t, http.MethodDelete, "/api/v1/organizations/missing", s.token(t, models.RoleEditor), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("editor delete outside /admin = %d, want 404 under the permissive policy", w.Code)
	}
	w, _ = s.do(t, http.MethodDelete, "/api/v1/admin/cache", s.token(t, models.RoleAdmin), nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin clear cache = %d", w.Code)
	}
}

func TestOrganizationLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)

	w, env := s.do(t, http.MethodPost, "/api/v1/organizations", editor, OrganizationRequest{
		Name: "Acme", Industry: "Aerospace", Keywords: []string{"rockets"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %+v", w.Code, env.Error)
	}
	id, _ := dataMap(t, env)["id"].(string)
	if id == "" {
		t.Fatal("no id")
	}

	w, env = s.do(t, http.MethodPut, "/api/v1/organizations/"+id, editor, OrganizationRequest{Name: "Acme Corp"})
	if w.Code != http.StatusOK || dataMap(t, env)["name"] != "Acme Corp" {
		t.Fatalf("update = %d %+v", w.Code, env)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/organizations/"+id, editor, nil)
	if w.Code != http.StatusOK || dataMap(t, env)["name"] != "Acme Corp" {
		t.Errorf("get = %d %+v", w.Code, env.Data)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/organizations/missing", editor, nil)
	if w.Code != http.StatusNotFound || errorCode(env) != response.CodeNotFound {
		t.Errorf("get missing = %d %+v", w.Code, env.Error)
	}
	w, _ = s.do(t, http.MethodPut, "/api/v1/organizations/missing", editor, OrganizationRequest{Name: "Ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d", w.Code)
	}
}

func TestListPagination(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	for i := range 3 {
		s.seedOrg(t, fmt.Sprintf("Org %d", i))
	}
	viewer := s.token(t, models.RoleViewer)

	w, env := s.do(t, http.MethodGet, "/api/v1/organizations?limit=2", viewer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	if items, _ := env.Data.([]any); len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	if p := env.Meta.Pagination; p == nil || !p.HasMore || p.Limit != 2 || p.Count != 2 {
		t.Errorf("pagination = %+v", env.Meta.Pagination)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/organizations?limit=2&offset=2", viewer, nil)
	if p := env.Meta.Pagination; p == nil || p.HasMore || p.Count != 1 || p.Offset != 2 {
		t.Errorf("second page = %+v", env.Meta.Pagination)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/organizations?limit=9999", viewer, nil)
	if env.Meta.Pagination.Limit != maxPageSize {
		t.Errorf("limit = %d, want clamp to %d", env.Meta.Pagination.Limit, maxPageSize)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/organizations?limit=ten", viewer, nil)
	if w.Code != http.StatusBadRequest || errorCode(env) != response.CodeBadRequest {
		t.Errorf("bad limit = %d", w.Code)
	}
	w, _ = s.do(t, http.MethodGet, "/api/v1/projects?offset=-1", viewer, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative offset = %d", w.Code)
	}
}

func TestChildEntitiesRequireOrganization(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)
	org := s.seedOrg(t, "Acme")

	w, env := s.do(t, http.MethodPost, "/api/v1/projects", editor, ProjectRequest{OrganizationID: "ghost", Name: "Launch"})
	if w.Code != http.StatusBadRequest || errorCode(env) != response.CodeValidationError {
		t.Errorf("project for unknown org = %d %+v", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/projects", editor, ProjectRequest{OrganizationID: org.ID, Name: "Launch"})
	if w.Code != http.StatusCreated || dataMap(t, env)["status"] != models.ProjectActive {
		t.Fatalf("project = %d %+v", w.Code, env)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/content", editor, ContentItemRequest{
		OrganizationID: org.ID, Type: "press_release", Title: "Acme launches", Body: "Today...",
	})
	if w.Code != http.StatusCreated || dataMap(t, env)["status"] != models.ContentDraft {
		t.Errorf("content = %d %+v", w.Code, env)
	}
	w, _ = s.do(t, http.MethodPost, "/api/v1/content", editor, ContentItemRequest{
		OrganizationID: org.ID, Type: "tweetstorm", Title: "x",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("content with bad type = %d", w.Code)
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/media-contacts", editor, MediaContactRequest{
		OrganizationID: org.ID, Name: "Lois Lane", Outlet: "Daily Planet", Email: "lois@planet.example",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("contact = %d", w.Code)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/media-contacts?organization_id="+org.ID, editor, nil)
	if items, _ := env.Data.([]any); w.Code != http.StatusOK || len(items) != 1 {
		t.Errorf("contacts = %d %v", w.Code, env.Data)
	}
}

func TestOpportunityStatus(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)
	org := s.seedOrg(t, "Acme")

	w, env := s.do(t, http.MethodPost, "/api/v1/opportunities", editor, OpportunityRequest{
		OrganizationID: org.ID, Type: models.OpportunityNewsHook, Title: "Comment on launch costs",
		Score: 72, Urgency: models.UrgencyMedium,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %+v", w.Code, env.Error)
	}
	id := dataMap(t, env)["id"].(string)

	w, env = s.do(t, http.MethodPatch, "/api/v1/opportunities/"+id+"/status", editor, OpportunityStatusRequest{Status: models.OpportunityPursuing})
	if w.Code != http.StatusOK || dataMap(t, env)["status"] != models.OpportunityPursuing {
		t.Fatalf("patch = %d %+v", w.Code, env)
	}

	w, _ = s.do(t, http.MethodPatch, "/api/v1/opportunities/"+id+"/status", editor, OpportunityStatusRequest{Status: "won"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d", w.Code)
	}
	w, _ = s.do(t, http.MethodPatch, "/api/v1/opportunities/missing/status", editor, OpportunityStatusRequest{Status: models.OpportunityDismissed})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing = %d", w.Code)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/opportunities?status=pursuing", editor, nil)
	if items, _ := env.Data.([]any); len(items) != 1 {
		t.Errorf("pursuing = %v", env.Data)
	}
}

func TestLLMProxy(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)

	w, env := s.do(t, http.MethodPost, "/api/v1/llm/default/complete", editor, map[string]string{"prompt": "hello"})
	if w.Code != http.StatusOK || dataMap(t, env)["text"] != "echo: hello" {
		t.Fatalf("complete = %d %+v", w.Code, env)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/llm/gemini/complete", editor, map[string]string{"prompt": "hello"})
	if w.Code != http.StatusBadRequest || errorCode(env) != response.CodeBadRequest {
		t.Errorf("unconfigured provider = %d %+v", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/llm/anthropic/complete", editor, map[string]string{})
	if w.Code != http.StatusBadRequest || errorCode(env) != response.CodeValidationError {
		t.Errorf("empty request = %d %+v", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/llm/providers", s.token(t, models.RoleViewer), nil)
	if w.Code != http.StatusOK || dataMap(t, env)["default"] != "anthropic" {
		t.Errorf("providers = %d %+v", w.Code, env.Data)
	}

	down := newTestServer(t, func(_ *config.Config, d *Deps) { d.LLM = fakeLLM{err: errors.New("anthropic: status 529")} })
	w, env = down.do(t, http.MethodPost, "/api/v1/llm/anthropic/complete", down.token(t, models.RoleEditor), map[string]string{"prompt": "hi"})
	if w.Code != http.StatusBadGateway || errorCode(env) != response.CodeExternalServiceFail {
		t.Errorf("upstream failure = %d %+v", w.Code, env.Error)
	}
}

func TestSearchProxy(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)

	w, env := s.do(t, http.MethodPost, "/api/v1/search/newsapi", editor, map[string]any{"text": "acme", "limit": 5})
	if items, _ := env.Data.([]any); w.Code != http.StatusOK || len(items) != 1 {
		t.Fatalf("search = %d %+v", w.Code, env)
	}

	tests := []struct {
		path string
		body any
		want int
	}{
		{"/api/v1/search/reddit", map[string]any{"text": "acme"}, http.StatusBadGateway},
		{"/api/v1/search/bing", map[string]any{"text": "acme"}, http.StatusBadRequest},
		{"/api/v1/search/newsapi", map[string]any{"text": ""}, http.StatusBadRequest},
		{"/api/v1/search/newsapi", map[string]any{"text": "acme", "limit": 1000}, http.StatusBadRequest},
		{"/api/v1/scrape", ScrapeRequest{URL: "https://acme.example/about"}, http.StatusOK},
		{"/api/v1/scrape", ScrapeRequest{URL: "not-a-url"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w, env := s.do(t, http.MethodPost, tt.path, editor, tt.body)
		if w.Code != tt.want {
			t.Errorf("POST %s %v = %d (%+v), want %d", tt.path, tt.body, w.Code, env.Error, tt.want)
		}
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/search/sources", editor, nil)
	if sources, _ := dataMap(t, env)["sources"].([]any); w.Code != http.StatusOK || len(sources) != 2 {
		t.Errorf("sources = %d %+v", w.Code, env.Data)
	}
}

func TestIntelligenceEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)
	org := s.seedOrg(t, "Acme")

	w, env := s.do(t, http.MethodPost, "/api/v1/intelligence/runs", editor, map[string]any{
		"organization_id": org.ID, "sources": []string{"newsapi"},
	})
	if w.Code != http.StatusCreated || dataMap(t, env)["status"] != models.RunCompleted {
		t.Fatalf("run = %d %+v", w.Code, env)
	}
	runID := dataMap(t, env)["id"].(string)

	w, env = s.do(t, http.MethodPost, "/api/v1/intelligence/runs", editor, map[string]any{
		"organization_id": org.ID, "sources": []string{"myspace"},
	})
	if w.Code != http.StatusBadRequest || errorCode(env) != response.CodeValidationError {
		t.Errorf("unknown source = %d %+v", w.Code, env.Error)
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/intelligence/runs", editor, map[string]any{"organization_id": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown org = %d", w.Code)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/intelligence/realtime/"+org.ID, editor, nil)
	if w.Code != http.StatusCreated || dataMap(t, env)["kind"] != models.RunKindRealtime {
		t.Errorf("realtime = %d %+v", w.Code, env.Data)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/intelligence/runs/"+runID, editor, nil)
	if w.Code != http.StatusOK || dataMap(t, env)["id"] != runID {
		t.Errorf("get run = %d", w.Code)
	}
	_, env = s.do(t, http.MethodGet, "/api/v1/intelligence/runs?organization_id="+org.ID, editor, nil)
	if items, _ := env.Data.([]any); len(items) != 2 {
		t.Errorf("runs = %d, want 2", len(items))
	}
}

func TestCampaignEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	editor := s.token(t, models.RoleEditor)

	w, env := s.do(t, http.MethodPost, "/api/v1/campaigns/research", editor, map[string]any{"organization_id": "o1", "topic": "launch costs"})
	if w.Code != http.StatusOK || dataMap(t, env)["summary"] != "brief" {
		t.Errorf("research = %d %+v", w.Code, env)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/campaigns/blueprint", editor, map[string]any{
		"organization_id": "o1", "objective": "Own the reusable launch story", "duration_weeks": 9,
	})
	if phases, _ := dataMap(t, env)["phases"].([]any); w.Code != http.StatusOK || len(phases) != 3 {
		t.Errorf("blueprint = %d %+v", w.Code, env)
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/campaigns/blueprint", editor, map[string]any{
		"organization_id": "o1", "objective": "Own the story", "duration_weeks": 2,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("too short = %d", w.Code)
	}
}

func TestBrandSnapshotAndCacheAdmin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	viewer, admin := s.token(t, models.RoleViewer), s.token(t, models.RoleAdmin)
	org := s.seedOrg(t, "Acme")

	w, _ := s.do(t, http.MethodGet, "/api/v1/brands/"+org.ID+"/snapshot", viewer, nil)
	if w.Code != http.StatusOK || w.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first snapshot = %d %s", w.Code, w.Header().Get("X-Cache"))
	}
	w, _ = s.do(t, http.MethodGet, "/api/v1/brands/"+org.ID+"/snapshot", viewer, nil)
	if w.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second snapshot = %s", w.Header().Get("X-Cache"))
	}
	w, _ = s.do(t, http.MethodGet, "/api/v1/brands/ghost/snapshot", viewer, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown org snapshot = %d", w.Code)
	}

	// Updating the organization drops its snapshot.
	s.do(t, http.MethodPut, "/api/v1/organizations/"+org.ID, admin, OrganizationRequest{Name: "Acme Corp"})
	w, env := s.do(t, http.MethodGet, "/api/v1/brands/"+org.ID+"/snapshot", viewer, nil)
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("snapshot after update = %s", w.Header().Get("X-Cache"))
	}
	if o, _ := dataMap(t, env)["organization"].(map[string]any); o["name"] != "Acme Corp" {
		t.Errorf("snapshot org = %v", o)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/admin/cache/warm", admin, nil)
	if w.Code != http.StatusOK || dataMap(t, env)["warmed"] != float64(1) {
		t.Errorf("warm = %d %+v", w.Code, env.Data)
	}
	w, env = s.do(t, http.MethodDelete, "/api/v1/admin/cache", admin, nil)
	if w.Code != http.StatusOK || dataMap(t, env)["cleared"] != float64(1) || s.warmer.Len() != 0 {
		t.Errorf("clear = %d %+v", w.Code, env.Data)
	}
}

func TestCreateUserThenLogin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.token(t, models.RoleAdmin)

	w, env := s.do(t, http.MethodPost, "/api/v1/admin/users", admin, CreateUserRequest{Username: "lois", Password: "daily-planet-1", Role: models.RoleEditor})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user = %d %+v", w.Code, env.Error)
	}
	if _, leaked := dataMap(t, env)["password_hash"]; leaked {
		t.Error("password hash in response")
	}
	w, _ = s.do(t, http.MethodPost, "/api/v1/admin/users", admin, CreateUserRequest{Username: "lois", Password: "daily-planet-2", Role: models.RoleViewer})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate user = %d", w.Code)
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "lois", Password: "daily-planet-1"})
	if w.Code != http.StatusOK || dataMap(t, env)["role"] != models.RoleEditor {
		t.Errorf("login = %d %+v", w.Code, env)
	}
}

func TestUnavailableServices(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(_ *config.Config, d *Deps) {
		d.LLM, d.Search, d.Intelligence, d.Campaigns, d.Brands = nil, nil, nil, nil, nil
	})
	admin := s.token(t, models.RoleAdmin)

	for _, path := range []string{"/api/v1/llm/providers", "/api/v1/search/sources", "/api/v1/brands/x/snapshot"} {
		if w, _ := s.do(t, http.MethodGet, path, admin, nil); w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config, _ *Deps) { c.Security.RateLimitDisabled = false })

	var last int
	for range RateLimitLogin.Requests + 1 {
		w, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "admin", Password: "wrong"})
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("attempt %d = %d, want 429", RateLimitLogin.Requests+1, last)
	}
}

func TestRoutingFallbacks(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/nowhere", "", nil)
	if w.Code != http.StatusNotFound || errorCode(env) != response.CodeNotFound {
		t.Errorf("unknown route = %d %+v", w.Code, env.Error)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/organizations", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("preflight allow origin = %q", got)
	}

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# HELP") {
		t.Errorf("metrics = %d", rec.Code)
	}
}
