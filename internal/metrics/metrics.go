// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Steam Web API call latency, retries, and rate budget waits
// - Tier cycle outcomes and durations
// - Domain collector failures
// - Session tracking state
// - Circuit breaker state

var (
	// Steam API Client Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_api_requests_total",
			Help: "Total number of Steam Web API call attempts by final outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "success", "transient", "rate_limited", "fatal", "canceled"
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steam_api_request_duration_seconds",
			Help:    "Steam Web API request duration in seconds, excluding rate budget waits",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_api_retries_total",
			Help: "Total number of retried Steam Web API attempts",
		},
		[]string{"endpoint", "reason"}, // reason: "transient", "rate_limited"
	)

	RateBudgetWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steam_api_rate_budget_wait_seconds",
			Help:    "Time spent waiting on the shared minimum-interval rate budget",
			Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Scheduler / Cycle Metrics
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_cycle_duration_seconds",
			Help:    "Duration of one tier cycle (collection plus aggregation) in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"tier"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cycles_total",
			Help: "Total number of completed tier cycles by status",
		},
		[]string{"tier", "status"}, // status: "online", "offline", "error"
	)

	TiersRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_tiers_running",
			Help: "Number of tier loops currently running",
		},
	)

	// Collector Metrics
	DomainFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_domain_failures_total",
			Help: "Total number of degraded domain collections",
		},
		[]string{"domain"},
	)

	SnapshotsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_snapshots_published_total",
			Help: "Total number of composite snapshots published",
		},
	)

	// Session Tracker Metrics
	SessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_active",
			Help: "Whether a trackable activity is currently in progress (1) or not (0)",
		},
	)

	SessionDurationMinutes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_duration_minutes",
			Help:    "Length of completed play sessions in minutes",
			Buckets: []float64{5, 15, 30, 60, 120, 240, 480},
		},
	)

	SessionsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_completed_total",
			Help: "Total number of sessions closed by an active-to-inactive transition",
		},
	)

	SessionAverageMinutes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_average_duration_minutes",
			Help: "Rolling mean duration over all completed sessions in minutes",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures recorded by the circuit breaker",
		},
		[]string{"name"},
	)
)
