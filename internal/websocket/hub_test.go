// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// testClient is attached to the hub without a connection or pumps.
func testClient(hub *Hub, queue int) *Client {
	c := NewClient(hub, nil)
	c.send = make(chan Message, queue)
	return c
}

func TestHubBroadcastOverWebsocket(t *testing.T) {
	t.Parallel()
	hub, _, _ := startHub(t)
	srv := httptest.NewServer(hub.ServeHTTP(NewUpgrader([]string{"https://app.example"})))
	defer srv.Close()

	conn, _, err := dial(t, srv, "https://app.example")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if !hub.BroadcastRunProgress(RunProgress{RunID: "run-1", OrganizationID: "org-1", Stage: "gather", Status: "running"}) {
		t.Fatal("broadcast dropped")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string      `json:"type"`
		Data RunProgress `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MessageTypeRunProgress || msg.Data.RunID != "run-1" || msg.Data.Stage != "gather" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Data.Timestamp == "" {
		t.Error("timestamp not filled")
	}
}

func TestHubRawEventAndPing(t *testing.T) {
	t.Parallel()
	hub, _, _ := startHub(t)
	srv := httptest.NewServer(hub.ServeHTTP(NewUpgrader([]string{"*"})))
	defer srv.Close()

	conn, _, err := dial(t, srv, "https://anywhere.example")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil || pong.Type != MessageTypePong {
		t.Fatalf("pong = %+v, %v", pong, err)
	}

	if hub.BroadcastRaw("opportunity.detected", []byte("{not json")) {
		t.Error("invalid JSON payload should be dropped")
	}
	if !hub.BroadcastRaw("opportunity.detected", []byte(`{"score":80}`)) {
		t.Fatal("broadcast dropped")
	}
	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "opportunity.detected" || ev.Data["score"] != float64(80) {
		t.Errorf("event = %+v", ev)
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"listed origin", []string{"https://a.example"}, "https://a.example", true},
		{"unlisted origin", []string{"https://a.example"}, "https://evil.example", false},
		{"wildcard", []string{"*"}, "https://b.example", true},
		{"missing origin", []string{"*"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := OriginChecker(tt.allowed)(r); got != tt.want {
				t.Errorf("OriginChecker() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpgradeRejectsForeignOrigin(t *testing.T) {
	t.Parallel()
	hub, _, _ := startHub(t)
	srv := httptest.NewServer(hub.ServeHTTP(NewUpgrader([]string{"https://app.example"})))
	defer srv.Close()

	_, resp, err := dial(t, srv, "https://evil.example")
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("clients = %d", hub.ClientCount())
	}
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	t.Parallel()
	hub, _, _ := startHub(t)
	slow := testClient(hub, 1)
	fast := testClient(hub, 8)
	for _, c := range []*Client{slow, fast} {
		if err := hub.Register(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Broadcast("a", nil)
	hub.Broadcast("b", nil)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if len(fast.send) != 2 {
		t.Errorf("fast client queued %d messages, want 2", len(fast.send))
	}
	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Error("slow client queue should be closed")
	}
}

func TestHubBroadcastDropsWhenQueueFull(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	for i := 0; i < broadcastQueue; i++ {
		if !hub.Broadcast("fill", i) {
			t.Fatalf("broadcast %d dropped early", i)
		}
	}
	if hub.Broadcast("overflow", nil) {
		t.Error("broadcast should drop when the queue is full")
	}
}

func TestHubShutdown(t *testing.T) {
	t.Parallel()
	hub, cancel, done := startHub(t)
	c := testClient(hub, 4)
	if err := hub.Register(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-c.send; ok {
		t.Error("client queue should be closed on shutdown")
	}
	if err := hub.Register(context.Background(), testClient(hub, 1)); !errors.Is(err, ErrHubStopped) {
		t.Errorf("Register after stop = %v, want ErrHubStopped", err)
	}
	hub.Unregister(c)
}
