// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package archive copies completed intelligence run reports to object storage.
package archive

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/signaldesk/signaldesk/internal/config"
)

// Sink stores an object under key. Keys use forward slashes and never start
// with one.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// New returns the configured sink, or nil when archiving is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig) (Sink, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "s3":
		return NewS3Sink(ctx, cfg)
	case "gcs":
		return NewGCSSink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// RunKey returns the object key of a run report.
func RunKey(orgID, runID string) string {
	return "runs/" + orgID + "/" + runID + ".json"
}

// objectKey joins prefix and key into a clean relative object name.
func objectKey(prefix, key string) string {
	return strings.TrimPrefix(path.Join(prefix, key), "/")
}

// MemorySink keeps objects in memory.
type MemorySink struct {
	mu      sync.RWMutex
	objects map[string][]byte
	prefix  string
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink(prefix string) *MemorySink {
	return &MemorySink{objects: make(map[string][]byte), prefix: prefix}
}

// Put stores a copy of data.
func (m *MemorySink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[objectKey(m.prefix, key)] = cp
	m.mu.Unlock()
	return nil
}

// Get returns the object stored under the full key.
func (m *MemorySink) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

// Keys lists stored keys in order.
func (m *MemorySink) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close is a no-op.
func (m *MemorySink) Close() error { return nil }
