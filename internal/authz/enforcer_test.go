// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/models"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(&EnforcerConfig{CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcerEmbeddedPolicy(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{models.RoleViewer, "organizations", ActionRead, true},
		{models.RoleViewer, "organizations", ActionWrite, false},
		{models.RoleViewer, "llm", ActionWrite, false},
		{models.RoleEditor, "content", ActionWrite, true},
		{models.RoleEditor, "media-contacts", ActionWrite, true},
		{models.RoleEditor, "intelligence", ActionWrite, true},
		{models.RoleEditor, "search", ActionWrite, true},
		{models.RoleEditor, "opportunities", ActionRead, true},
		{models.RoleEditor, "content", ActionDelete, false},
		{models.RoleEditor, "cache", ActionWrite, false},
		{models.RoleEditor, "users", ActionWrite, false},
		{models.RoleAdmin, "content", ActionDelete, true},
		{models.RoleAdmin, "cache", ActionDelete, true},
		{"stranger", "organizations", ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			t.Parallel()
			got, err := e.Enforce(tt.role, tt.resource, tt.action)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
			// Second call is served from the decision cache.
			again, _ := e.Enforce(tt.role, tt.resource, tt.action)
			if again != got {
				t.Error("cached decision differs")
			}
		})
	}
}

func TestEnforcerEmptyRole(t *testing.T) {
	t.Parallel()
	if _, err := newTestEnforcer(t).Enforce("", "content", ActionRead); err == nil {
		t.Error("expected error for empty role")
	}
}

func TestEnforcerPolicyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(path, []byte("p, viewer, brands, read\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := e.Enforce(models.RoleViewer, "brands", ActionRead); !ok {
		t.Error("file policy not loaded")
	}
	if ok, _ := e.Enforce(models.RoleViewer, "content", ActionRead); ok {
		t.Error("embedded policy should not apply when a file is given")
	}

	if _, err := NewEnforcer(&EnforcerConfig{PolicyPath: filepath.Join(dir, "missing.csv")}); err == nil {
		t.Error("missing policy file should fail")
	}
}

func TestLoadEmbeddedPolicyRejectsMalformed(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)
	if err := loadEmbeddedPolicy(e.enforcer, "p, viewer, content\n"); err == nil {
		t.Error("expected error for short policy line")
	}
	if err := loadEmbeddedPolicy(e.enforcer, "x, a, b\n"); err == nil {
		t.Error("expected error for unknown policy type")
	}
}

func TestMiddlewareAuthorize(t *testing.T) {
	t.Parallel()
	m := NewMiddleware(newTestEnforcer(t))

	tests := []struct {
		name       string
		claims     *auth.Claims
		method     string
		resource   string
		wantStatus int
	}{
		{"viewer reads", &auth.Claims{Role: models.RoleViewer}, http.MethodGet, "projects", http.StatusOK},
		{"viewer cannot post", &auth.Claims{Role: models.RoleViewer}, http.MethodPost, "projects", http.StatusForbidden},
		{"editor posts", &auth.Claims{Role: models.RoleEditor}, http.MethodPost, "projects", http.StatusOK},
		{"editor cannot delete", &auth.Claims{Role: models.RoleEditor}, http.MethodDelete, "projects", http.StatusForbidden},
		{"admin deletes", &auth.Claims{Role: models.RoleAdmin}, http.MethodDelete, "projects", http.StatusOK},
		{"no claims", nil, http.MethodGet, "projects", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/v1/"+tt.resource, nil)
			if tt.claims != nil {
				req = req.WithContext(auth.ContextWithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()
			m.Authorize(tt.resource, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMethodToAction(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		http.MethodGet:     ActionRead,
		http.MethodHead:    ActionRead,
		http.MethodPost:    ActionWrite,
		http.MethodPut:     ActionWrite,
		http.MethodPatch:   ActionWrite,
		http.MethodDelete:  ActionDelete,
		http.MethodOptions: ActionRead,
	}
	for method, want := range cases {
		if got := MethodToAction(method); got != want {
			t.Errorf("MethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}
