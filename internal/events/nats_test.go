// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type fakeJetStream struct {
	streamErr error
	created   int
	updated   int
	failWrite error
}

func (f *fakeJetStream) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, f.streamErr
}

func (f *fakeJetStream) CreateStream(context.Context, jetstream.StreamConfig) (jetstream.Stream, error) {
	f.created++
	return nil, f.failWrite
}

func (f *fakeJetStream) UpdateStream(context.Context, jetstream.StreamConfig) (jetstream.Stream, error) {
	f.updated++
	return nil, f.failWrite
}

func TestEnsureStream(t *testing.T) {
	t.Parallel()
	cfg := StreamConfig("SIGNALDESK", time.Hour)

	tests := []struct {
		name        string
		js          *fakeJetStream
		wantCreated int
		wantUpdated int
		wantErr     bool
	}{
		{"creates missing stream", &fakeJetStream{streamErr: jetstream.ErrStreamNotFound}, 1, 0, false},
		{"updates existing stream", &fakeJetStream{}, 0, 1, false},
		{"lookup failure", &fakeJetStream{streamErr: errors.New("timeout")}, 0, 0, true},
		{"create failure", &fakeJetStream{streamErr: jetstream.ErrStreamNotFound, failWrite: errors.New("denied")}, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := EnsureStream(context.Background(), tt.js, cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.js.created != tt.wantCreated || tt.js.updated != tt.wantUpdated {
				t.Errorf("created=%d updated=%d", tt.js.created, tt.js.updated)
			}
		})
	}
}

func TestStreamConfigCapturesAllSubjects(t *testing.T) {
	t.Parallel()
	cfg := StreamConfig("SIGNALDESK", 24*time.Hour)
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != "signaldesk.>" {
		t.Errorf("subjects = %v", cfg.Subjects)
	}
	if cfg.MaxAge != 24*time.Hour {
		t.Errorf("max age = %v", cfg.MaxAge)
	}
}

func TestEmbeddedServerProvisionsStream(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a NATS server")
	}
	srv, err := StartEmbeddedServer("127.0.0.1", -1, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()
	defer func() {
		cancel()
		<-served
	}()

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}

	cfg := StreamConfig("SIGNALDESK_TEST", time.Hour)
	for i := 0; i < 2; i++ {
		if _, err := EnsureStream(ctx, js, cfg); err != nil {
			t.Fatalf("EnsureStream #%d: %v", i+1, err)
		}
	}

	if _, err := js.Publish(ctx, Topic(TypeRunStarted), []byte(`{}`)); err != nil {
		t.Fatalf("publish into stream: %v", err)
	}
	stream, err := js.Stream(ctx, "SIGNALDESK_TEST")
	if err != nil {
		t.Fatal(err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("stream holds %d messages, want 1", info.State.Msgs)
	}
}
