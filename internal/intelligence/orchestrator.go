// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package intelligence runs the gather, synthesize, detect, persist and
// publish chain for an organization, on demand or on a schedule.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signaldesk/signaldesk/internal/archive"
	"github.com/signaldesk/signaldesk/internal/batch"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/events"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/opportunity"
	"github.com/signaldesk/signaldesk/internal/websocket"
)

// Stages, used in run errors, progress messages and metrics.
const (
	StageGather     = "gather"
	StageSynthesize = "synthesize"
	StageDetect     = "detect"
	StagePersist    = "persist"
	StageArchive    = "archive"
)

// persistTimeout bounds the writes that close a run.
const persistTimeout = 30 * time.Second

// ErrNoSources is returned when a run has no search source to query.
var ErrNoSources = errors.New("no search sources configured")

// Emitter publishes domain events. Failures are the emitter's to log.
type Emitter interface {
	Emit(ctx context.Context, eventType, orgID, runID string, payload any)
}

// ProgressReporter streams stage transitions to connected clients.
type ProgressReporter interface {
	BroadcastRunProgress(p websocket.RunProgress) bool
}

// RunRequest starts a run. Query and Sources default from the organization
// and config when empty.
type RunRequest struct {
	OrganizationID string    `json:"organization_id" validate:"required"`
	Query          string    `json:"query,omitempty" validate:"max=500"`
	Sources        []string  `json:"sources,omitempty" validate:"omitempty,max=6,dive,source"`
	Kind           string    `json:"kind,omitempty" validate:"omitempty,oneof=standard realtime"`
	Detect         bool      `json:"detect,omitempty"`
	Since          time.Time `json:"since,omitempty"`
}

// Orchestrator runs intelligence passes.
type Orchestrator struct {
	store    database.Store
	searcher Searcher
	llm      llm.Completer
	detector *opportunity.Detector
	cfg      config.IntelligenceConfig

	events   Emitter
	progress ProgressReporter
	archive  archive.Sink
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEvents publishes run and opportunity events through e.
func WithEvents(e Emitter) Option {
	return func(o *Orchestrator) { o.events = e }
}

// WithProgress streams stage transitions through p.
func WithProgress(p ProgressReporter) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithArchive copies each completed run report to s.
func WithArchive(s archive.Sink) Option {
	return func(o *Orchestrator) { o.archive = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator.
func New(store database.Store, searcher Searcher, completer llm.Completer, detector *opportunity.Detector, cfg config.IntelligenceConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		searcher: searcher,
		llm:      completer,
		detector: detector,
		cfg:      cfg,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/signaldesk/signaldesk/internal/intelligence"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunRealtime runs a realtime pass over the configured window with detection on.
func (o *Orchestrator) RunRealtime(ctx context.Context, orgID string) (*models.IntelligenceRun, error) {
	return o.Run(ctx, RunRequest{
		OrganizationID: orgID,
		Kind:           models.RunKindRealtime,
		Detect:         true,
		Since:          o.now().Add(-o.cfg.RealtimeWindow),
	})
}

// Run executes one pass and returns the stored run. Source and model
// failures are recorded on the run; only storage failures return an error.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*models.IntelligenceRun, error) {
	if req.Kind == "" {
		req.Kind = models.RunKindStandard
	}
	ctx, span := o.tracer.Start(ctx, "intelligence.run", trace.WithAttributes(
		attribute.String("organization_id", req.OrganizationID),
		attribute.String("kind", req.Kind),
	))
	defer span.End()

	org, err := o.store.GetOrganization(ctx, req.OrganizationID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load organization %s: %w", req.OrganizationID, err)
	}

	query := req.Query
	if query == "" {
		query = BuildQuery(org, true)
	}
	sources := o.selectSources(req.Sources)
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	run := &models.IntelligenceRun{
		OrganizationID: org.ID,
		Kind:           req.Kind,
		Status:         models.RunRunning,
		Query:          query,
		Sources:        sources,
		Findings:       []models.Finding{},
		StartedAt:      o.now().UTC(),
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		metrics.IntelligenceRuns.WithLabelValues(req.Kind, models.RunFailed).Inc()
		span.SetStatus(codes.Error, "create run")
		return nil, fmt.Errorf("create run: %w", err)
	}
	span.SetAttributes(attribute.String("run_id", run.ID))

	log := logging.Ctx(ctx).With().Str("run_id", run.ID).Str("organization_id", org.ID).Str("kind", run.Kind).Logger()
	log.Info().Strs("sources", sources).Msg("Intelligence run started")
	o.emit(ctx, events.TypeRunStarted, run, map[string]any{"query": query, "sources": sources, "kind": run.Kind})
	o.report(run, StageGather, models.RunRunning, "")

	// Gather
	started := time.Now()
	findings, gatherErrs := Gather(ctx, o.searcher, GatherRequest{Query: query, Sources: sources, Since: req.Since}, GatherOptions{
		Batch:            batch.Options{Size: o.cfg.BatchSize, Delay: o.cfg.BatchDelay},
		SourceTimeout:    o.cfg.SourceTimeout,
		ResultsPerSource: o.cfg.ResultsPerSource,
		MaxFindings:      o.cfg.MaxFindings,
	})
	metrics.ObserveStage(StageGather, started)
	run.Findings = findings
	run.Errors = append(run.Errors, gatherErrs...)
	for _, e := range gatherErrs {
		log.Warn().Str("source", e.Source).Str("error", e.Message).Msg("Search source failed")
	}

	// Synthesize
	o.report(run, StageSynthesize, models.RunRunning, fmt.Sprintf("%d findings", len(findings)))
	started = time.Now()
	synthesis := o.synthesize(ctx, org, run)
	metrics.ObserveStage(StageSynthesize, started)
	run.Synthesis = &synthesis

	// The run row must reach a terminal state even when the caller has gone.
	pctx, cancel := persistContext(ctx)
	defer cancel()

	// Detect
	var opps []models.Opportunity
	if o.detector != nil && (req.Kind == models.RunKindRealtime || req.Detect) && len(findings) > 0 {
		o.report(run, StageDetect, models.RunRunning, "")
		started = time.Now()
		detected := o.detector.Detect(ctx, org, findings)
		for i := range detected {
			detected[i].RunID = run.ID
		}
		if len(detected) > 0 {
			opps, err = o.store.UpsertOpportunities(pctx, detected)
			if err != nil {
				metrics.ObserveStage(StageDetect, started)
				return nil, o.fail(pctx, run, fmt.Errorf("store opportunities: %w", err))
			}
		}
		metrics.ObserveStage(StageDetect, started)
		run.OpportunityCount = len(opps)
	}

	// Persist
	completed := o.now().UTC()
	run.Status = models.RunCompleted
	run.CompletedAt = &completed
	if err := o.store.UpdateRun(pctx, run); err != nil {
		return nil, o.fail(pctx, run, fmt.Errorf("update run: %w", err))
	}
	metrics.IntelligenceRuns.WithLabelValues(run.Kind, run.Status).Inc()

	// Publish
	o.emit(pctx, events.TypeRunCompleted, run, map[string]any{
		"findings":          len(run.Findings),
		"errors":            len(run.Errors),
		"opportunity_count": run.OpportunityCount,
		"fallback":          synthesis.Fallback,
	})
	for i := range opps {
		o.emit(pctx, events.TypeOpportunityDetected, run, opps[i])
	}
	o.report(run, "complete", models.RunCompleted, "")
	o.archiveRun(pctx, run)

	log.Info().
		Int("findings", len(run.Findings)).
		Int("errors", len(run.Errors)).
		Int("opportunities", run.OpportunityCount).
		Bool("fallback_synthesis", synthesis.Fallback).
		Dur("duration", completed.Sub(run.StartedAt)).
		Msg("Intelligence run completed")
	return run, nil
}

func (o *Orchestrator) selectSources(requested []string) []string {
	available := o.searcher.Names()
	if len(requested) > 0 {
		return requested
	}
	if len(o.cfg.DefaultSources) == 0 {
		return available
	}
	registered := make(map[string]bool, len(available))
	for _, n := range available {
		registered[n] = true
	}
	var out []string
	for _, n := range o.cfg.DefaultSources {
		if registered[n] {
			out = append(out, n)
		}
	}
	return out
}

func (o *Orchestrator) synthesize(ctx context.Context, org *models.Organization, run *models.IntelligenceRun) models.Synthesis {
	fallback := fallbackSynthesis(org, run.Query, run.Findings)
	if len(run.Findings) == 0 || o.llm == nil {
		return fallback
	}

	if o.cfg.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.SynthesisTimeout)
		defer cancel()
	}

	var out models.Synthesis
	fellBack, cause := llm.CompleteJSON(ctx, o.llm, o.cfg.SynthesisProvider, llm.Request{
		System: synthesisSystem,
		Prompt: synthesisPrompt(org, run.Query, run.Findings),
	}, synthesisSchema, &out, fallback)
	if fellBack {
		run.Errors = append(run.Errors, models.RunError{Stage: StageSynthesize, Message: cause.Error()})
		return out
	}
	out.Provider = o.cfg.SynthesisProvider
	if out.Provider == "" {
		out.Provider = "default"
	}
	return out
}

// persistContext detaches ctx from cancellation for terminal writes and
// bounds them by persistTimeout.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// fail marks the run failed on a best-effort basis and returns cause.
func (o *Orchestrator) fail(ctx context.Context, run *models.IntelligenceRun, cause error) error {
	now := o.now().UTC()
	run.Status = models.RunFailed
	run.CompletedAt = &now
	run.Errors = append(run.Errors, models.RunError{Stage: StagePersist, Message: cause.Error()})
	if err := o.store.UpdateRun(ctx, run); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("run_id", run.ID).Msg("Failed to record run failure")
	}
	metrics.IntelligenceRuns.WithLabelValues(run.Kind, models.RunFailed).Inc()
	o.emit(ctx, events.TypeRunFailed, run, map[string]string{"error": cause.Error()})
	o.report(run, StagePersist, models.RunFailed, cause.Error())
	trace.SpanFromContext(ctx).SetStatus(codes.Error, cause.Error())
	return cause
}

func (o *Orchestrator) emit(ctx context.Context, eventType string, run *models.IntelligenceRun, payload any) {
	if o.events != nil {
		o.events.Emit(ctx, eventType, run.OrganizationID, run.ID, payload)
	}
}

func (o *Orchestrator) report(run *models.IntelligenceRun, stage, status, detail string) {
	if o.progress == nil {
		return
	}
	o.progress.BroadcastRunProgress(websocket.RunProgress{
		RunID:          run.ID,
		OrganizationID: run.OrganizationID,
		Stage:          stage,
		Status:         status,
		Detail:         detail,
		Timestamp:      o.now().UTC().Format(time.RFC3339),
	})
}

func (o *Orchestrator) archiveRun(ctx context.Context, run *models.IntelligenceRun) {
	if o.archive == nil {
		return
	}
	started := time.Now()
	defer metrics.ObserveStage(StageArchive, started)

	data, err := json.Marshal(run)
	if err == nil {
		err = o.archive.Put(ctx, archive.RunKey(run.OrganizationID, run.ID), data)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("run_id", run.ID).Msg("Failed to archive run report")
	}
}
