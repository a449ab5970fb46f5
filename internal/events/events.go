// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package events carries domain events between the intelligence pipeline and
// its consumers over watermill, backed either by an in-process gochannel or
// by NATS JetStream.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types.
const (
	TypeRunStarted          = "run.started"
	TypeRunCompleted        = "run.completed"
	TypeRunFailed           = "run.failed"
	TypeOpportunityDetected = "opportunity.detected"
	TypeCacheWarmed         = "cache.warmed"
)

// Types lists every event type the bus carries.
var Types = []string{
	TypeRunStarted,
	TypeRunCompleted,
	TypeRunFailed,
	TypeOpportunityDetected,
	TypeCacheWarmed,
}

// SubjectPrefix prefixes every topic. NATS streams capture SubjectPrefix + ">".
const SubjectPrefix = "signaldesk."

// Metadata keys set on every watermill message.
const (
	MetadataType           = "event_type"
	MetadataOrganizationID = "organization_id"
)

// Event is the envelope published for every domain event.
type Event struct {
	EventID        string          `json:"event_id"`
	Type           string          `json:"type"`
	OrganizationID string          `json:"organization_id"`
	RunID          string          `json:"run_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// New builds an event with a fresh ID, stamping it with the current time and
// encoding payload.
func New(eventType, orgID, runID string, payload any) (*Event, error) {
	ev := &Event{
		EventID:        uuid.NewString(),
		Type:           eventType,
		OrganizationID: orgID,
		RunID:          runID,
		Timestamp:      time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
		}
		ev.Payload = raw
	}
	return ev, nil
}

// Topic returns the subject the event is published on.
func (e *Event) Topic() string {
	return Topic(e.Type)
}

// Topic returns the subject for an event type.
func Topic(eventType string) string {
	return SubjectPrefix + eventType
}

// Validate checks the envelope fields every consumer relies on.
func (e *Event) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("event_id is required")
	case e.Type == "":
		return fmt.Errorf("type is required")
	case e.Timestamp.IsZero():
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Marshal encodes the envelope.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes and validates an envelope.
func Unmarshal(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

// DecodePayload decodes the payload into out.
func (e *Event) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.EventID)
	}
	return json.Unmarshal(e.Payload, out)
}
