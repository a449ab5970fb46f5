// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/authz"
	"github.com/signaldesk/signaldesk/internal/brandcache"
	"github.com/signaldesk/signaldesk/internal/campaign"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/intelligence"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/search"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

type fakeLLM struct {
	err error
}

func (f fakeLLM) Complete(_ context.Context, name string, req llm.Request) (*llm.Response, error) {
	if name == "" {
		name = llm.ProviderAnthropic
	}
	if name != llm.ProviderAnthropic {
		return nil, fmt.Errorf("%w: %q", llm.ErrProviderNotConfigured, name)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Provider: name, Model: "test-model", Text: "echo: " + req.Prompt}, nil
}

func (fakeLLM) Names() []string { return []string{llm.ProviderAnthropic} }
func (fakeLLM) Default() string { return llm.ProviderAnthropic }

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, name string, q search.Query) ([]search.Result, error) {
	switch name {
	case search.SourceNewsAPI:
		return []search.Result{{Source: name, Title: "Hit for " + q.Text, URL: "https://news.example/1"}}, nil
	case search.SourceReddit:
		return nil, errors.New("reddit: status 500")
	}
	return nil, fmt.Errorf("%w: %q", search.ErrSourceNotConfigured, name)
}

func (fakeSearch) Scrape(_ context.Context, url string) (*search.Page, error) {
	return &search.Page{URL: url, Title: "Page", Markdown: "# Page"}, nil
}

func (fakeSearch) Names() []string { return []string{search.SourceNewsAPI, search.SourceReddit} }

type fakeRunner struct {
	store database.Store
}

func (f fakeRunner) Run(ctx context.Context, req intelligence.RunRequest) (*models.IntelligenceRun, error) {
	if _, err := f.store.GetOrganization(ctx, req.OrganizationID); err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	run := &models.IntelligenceRun{
		OrganizationID: req.OrganizationID,
		Kind:           models.RunKindStandard,
		Status:         models.RunCompleted,
		Query:          req.Query,
		StartedAt:      time.Now().UTC(),
	}
	if req.Kind != "" {
		run.Kind = req.Kind
	}
	if err := f.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (f fakeRunner) RunRealtime(ctx context.Context, orgID string) (*models.IntelligenceRun, error) {
	return f.Run(ctx, intelligence.RunRequest{OrganizationID: orgID, Kind: models.RunKindRealtime})
}

type fakePlanner struct{}

func (fakePlanner) Research(_ context.Context, req campaign.ResearchRequest) (*models.ResearchBrief, error) {
	return &models.ResearchBrief{OrganizationID: req.OrganizationID, Topic: req.Topic, Summary: "brief"}, nil
}

func (fakePlanner) Blueprint(_ context.Context, req campaign.BlueprintRequest) (*models.Blueprint, error) {
	org := &models.Organization{ID: req.OrganizationID, Name: "Acme"}
	bp := campaign.FallbackBlueprint(org, req.Objective, req.DurationWeeks)
	bp.OrganizationID = req.OrganizationID
	return &bp, nil
}

type testServer struct {
	handler http.Handler
	store   *database.MemoryStore
	jwt     *auth.JWTManager
	warmer  *brandcache.Warmer
}

func newTestServer(t *testing.T, mutate ...func(*config.Config, *Deps)) *testServer {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Security: config.SecurityConfig{
			AuthMode:          auth.ModeJWT,
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			AdminUsername:     "admin",
			AdminPassword:     "correct-horse-battery",
			RateLimitDisabled: true,
			CORSOrigins:       []string{"https://app.example"},
		},
	}
	store := database.NewMemoryStore()
	warmer := brandcache.NewWarmer(store, config.CacheWarmerConfig{TTL: time.Hour})
	t.Cleanup(warmer.Close)

	deps := Deps{
		Store:        store,
		LLM:          fakeLLM{},
		Search:       fakeSearch{},
		Intelligence: fakeRunner{store: store},
		Campaigns:    fakePlanner{},
		Brands:       warmer,
		Config:       cfg,
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}
	authenticator, err := auth.NewAuthenticator(jwtManager, store, cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	if err != nil {
		t.Fatal(err)
	}
	deps.Authenticator = authenticator

	enforcer, err := authz.NewEnforcer(authz.ConfigFromSecurity(&cfg.Security))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(enforcer.Close)

	router := NewRouter(NewHandler(deps), auth.NewMiddleware(jwtManager, &cfg.Security),
		authz.NewMiddleware(enforcer), NewChiMiddlewareFromConfig(&cfg.Security), nil)
	return &testServer{handler: router.Setup(), store: store, jwt: jwtManager, warmer: warmer}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	tok, _, err := s.jwt.GenerateToken(role+"-user", role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env response.Envelope
	if w.Code != http.StatusNoContent && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

// dataMap returns the envelope data as a JSON object.
func dataMap(t *testing.T, env response.Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v, want object", env.Data)
	}
	return m
}

func errorCode(env response.Envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func (s *testServer) seedOrg(t *testing.T, name string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, Keywords: []string{"rockets"}}
	if err := s.store.CreateOrganization(context.Background(), org); err != nil {
		t.Fatal(err)
	}
	return org
}
