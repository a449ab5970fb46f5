// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package intelligence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signaldesk/signaldesk/internal/batch"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
)

// RealtimeRunner is the part of Orchestrator the scheduler drives.
type RealtimeRunner interface {
	RunRealtime(ctx context.Context, orgID string) (*models.IntelligenceRun, error)
}

// SweepStats summarizes one scheduler pass.
type SweepStats struct {
	Organizations int           `json:"organizations"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	Opportunities int           `json:"opportunities"`
	Duration      time.Duration `json:"duration"`
}

// Scheduler runs a realtime pass for every organization on an interval. It
// implements suture.Service.
type Scheduler struct {
	store    database.Store
	runner   RealtimeRunner
	interval time.Duration
	batch    batch.Options
}

// NewScheduler creates a Scheduler. A zero interval defaults to one hour.
func NewScheduler(store database.Store, runner RealtimeRunner, interval time.Duration, opts batch.Options) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{store: store, runner: runner, interval: interval, batch: opts}
}

// Serve runs until ctx is cancelled. The first pass starts after one interval.
func (s *Scheduler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Msg("Intelligence scheduler started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("Scheduled intelligence sweep failed")
			}
		}
	}
}

// RunOnce runs RunRealtime for every organization in batches. A failing
// organization is counted and logged; only failing to list organizations
// returns an error.
func (s *Scheduler) RunOnce(ctx context.Context) (SweepStats, error) {
	started := time.Now()
	orgs, err := database.AllOrganizations(ctx, s.store)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list organizations: %w", err)
	}

	outcomes := batch.Run(ctx, orgs, s.batch, func(ctx context.Context, org models.Organization) (*models.IntelligenceRun, error) {
		return s.runner.RunRealtime(ctx, org.ID)
	})

	stats := SweepStats{Organizations: len(orgs)}
	for _, o := range outcomes {
		if o.Err != nil {
			stats.Failed++
			logging.Warn().Err(o.Err).Str("organization_id", orgs[o.Index].ID).Msg("Realtime run failed")
			continue
		}
		stats.Completed++
		stats.Opportunities += o.Value.OpportunityCount
	}
	stats.Duration = time.Since(started)

	logging.Info().
		Int("organizations", stats.Organizations).
		Int("completed", stats.Completed).
		Int("failed", stats.Failed).
		Int("opportunities", stats.Opportunities).
		Dur("duration", stats.Duration).
		Msg("Intelligence sweep finished")
	return stats, nil
}

func (s *Scheduler) String() string { return "intelligence-scheduler" }
