// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"", 50, 0, false},
		{"limit=10&offset=20", 10, 20, false},
		{"limit=0", 50, 0, false},
		{"limit=501", 500, 0, false},
		{"limit=abc", 0, 0, true},
		{"offset=-5", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			opts, err := listOptions(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (opts.Limit != tt.wantLimit || opts.Offset != tt.wantOffset) {
				t.Errorf("opts = %+v", opts)
			}
		})
	}

	r := httptest.NewRequest(http.MethodGet, "/x?organization_id=o1&status=open", nil)
	opts, _ := listOptions(r)
	if opts.OrganizationID != "o1" || opts.Status != "open" {
		t.Errorf("filters = %+v", opts)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	got := sanitizeLogValue("admin\nINFO forged entry\t")
	if strings.ContainsAny(got, "\n\t") || !strings.Contains(got, `\x0a`) {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}

func TestDecodeBodyRejectsUnknownFieldsAndHugeBodies(t *testing.T) {
	t.Parallel()
	var req ScrapeRequest

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"url":"https://a.example","extra":1}`))
	if decodeBody(rec, r, &req) || rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field accepted: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	huge := `{"url":"https://a.example/` + strings.Repeat("a", maxBodyBytes) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	if decodeBody(rec, r, &req) || rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("huge body = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if decodeBody(rec, r, &req) || rec.Code != http.StatusBadRequest {
		t.Errorf("empty body = %d", rec.Code)
	}
}
