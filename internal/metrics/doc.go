// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the monitoring engine using package-level promauto
collectors, exposing metrics for Steam API call behavior, tier cycle outcomes,
session tracking, and circuit breaker health.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format when
telemetry is enabled:

	curl http://localhost:9188/metrics

# Available Metrics

Steam API Client:
  - steam_api_requests_total: Call attempts by final outcome (counter)
    Labels: endpoint, outcome (success|transient|rate_limited|fatal|canceled)
  - steam_api_request_duration_seconds: Request latency excluding budget waits (histogram)
  - steam_api_retries_total: Retried attempts (counter)
    Labels: endpoint, reason (transient|rate_limited)
  - steam_api_rate_budget_wait_seconds: Time spent queued on the shared rate budget (histogram)

Engine:
  - engine_cycle_duration_seconds: Per-tier cycle duration (histogram)
  - engine_cycles_total: Cycle count by tier and status (counter)
  - engine_tiers_running: Running tier loops (gauge)
  - engine_domain_failures_total: Degraded domain collections (counter)
  - engine_snapshots_published_total: Published composite snapshots (counter)

Sessions:
  - session_active, session_current_duration_minutes,
    sessions_completed_total, session_average_duration_minutes

Circuit Breaker:
  - circuit_breaker_state, circuit_breaker_transitions_total,
    circuit_breaker_requests_total, circuit_breaker_consecutive_failures
*/
package metrics
