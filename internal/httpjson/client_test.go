// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package httpjson

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientPost(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("method %s content-type %q", r.Method, r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Api-Key") != "k" {
			t.Errorf("missing custom header")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"q":"acme"`) {
			t.Errorf("body = %s", body)
		}
		_, _ = w.Write([]byte(`{"answer":42}`))
	}))
	defer srv.Close()

	var out struct {
		Answer int `json:"answer"`
	}
	err := New(time.Second).Post(context.Background(), srv.URL, http.Header{"X-Api-Key": {"k"}}, map[string]string{"q": "acme"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if out.Answer != 42 {
		t.Errorf("answer = %d", out.Answer)
	}
}

func TestClientStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(time.Second).Get(context.Background(), srv.URL, nil, &struct{}{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusTooManyRequests || !strings.Contains(se.Body, "slow down") {
		t.Errorf("status error = %+v", se)
	}
}

func TestClientDecodeError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	if err := New(time.Second).Get(context.Background(), srv.URL, nil, &out); err == nil {
		t.Error("expected decode error")
	}
}

func TestClientHonoursContext(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := New(5*time.Second).Get(ctx, srv.URL, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}
