// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signaldesk_db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_db_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"operation", "table"},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signaldesk_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signaldesk_api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	// Outbound providers

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_llm_requests_total",
			Help: "LLM completion requests by provider and outcome",
		},
		[]string{"provider", "outcome"}, // success, error, cached, rejected
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signaldesk_llm_request_duration_seconds",
			Help:    "LLM completion latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_llm_tokens_total",
			Help: "Tokens reported by LLM providers",
		},
		[]string{"provider", "direction"}, // input, output
	)

	LLMJSONFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_llm_json_fallbacks_total",
			Help: "Structured completions that fell back to a default document",
		},
		[]string{"purpose", "reason"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_search_requests_total",
			Help: "Search and scrape requests by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	SearchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signaldesk_search_request_duration_seconds",
			Help:    "Search and scrape latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SearchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_search_results_total",
			Help: "Results returned by search sources",
		},
		[]string{"source"},
	)

	// Intelligence pipeline

	IntelligenceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_intelligence_runs_total",
			Help: "Intelligence runs by kind and final status",
		},
		[]string{"kind", "status"},
	)

	IntelligenceStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signaldesk_intelligence_stage_duration_seconds",
			Help:    "Duration of each intelligence pipeline stage",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	OpportunitiesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_opportunities_detected_total",
			Help: "Opportunities produced by the detector",
		},
		[]string{"type", "urgency"},
	)

	// Caches

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_cache_hits_total",
			Help: "Cache hits by cache",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_cache_misses_total",
			Help: "Cache misses by cache",
		},
		[]string{"cache_type"},
	)

	BrandCacheWarmDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signaldesk_brand_cache_warm_duration_seconds",
			Help:    "Duration of a full brand cache warm pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	BrandCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signaldesk_brand_cache_entries",
			Help: "Brand snapshots currently cached",
		},
	)

	// Realtime

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signaldesk_websocket_connections",
			Help: "Open websocket connections",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_events_published_total",
			Help: "Domain events published by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_events_consumed_total",
			Help: "Domain events handled by the event router",
		},
		[]string{"handler"},
	)

	// Circuit breakers

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signaldesk_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Authorization

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_authz_decisions_total",
			Help: "Authorization decisions by resource, action and result",
		},
		[]string{"resource", "action", "decision"}, // allow, deny, error
	)
)

// RecordDBQuery observes a store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest observes a completed HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordLLMRequest observes one provider call. Token counts of zero are skipped.
func RecordLLMRequest(provider, outcome string, duration time.Duration, inputTokens, outputTokens int) {
	LLMRequests.WithLabelValues(provider, outcome).Inc()
	if outcome == "cached" || outcome == "rejected" {
		return
	}
	LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if inputTokens > 0 {
		LLMTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordSearchRequest observes one source call.
func RecordSearchRequest(source string, duration time.Duration, results int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	SearchRequests.WithLabelValues(source, outcome).Inc()
	SearchRequestDuration.WithLabelValues(source).Observe(duration.Seconds())
	if results > 0 {
		SearchResults.WithLabelValues(source).Add(float64(results))
	}
}

// ObserveStage records how long an intelligence pipeline stage took.
func ObserveStage(stage string, started time.Time) {
	IntelligenceStageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}
