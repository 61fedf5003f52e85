// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIRequestCounters(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GetPlayerSummaries", "success"))

	APIRequestsTotal.WithLabelValues("GetPlayerSummaries", "success").Inc()

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GetPlayerSummaries", "success"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestCircuitBreakerStateGauge(t *testing.T) {
	CircuitBreakerState.WithLabelValues("steam-api").Set(2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("steam-api")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}

	CircuitBreakerState.WithLabelValues("steam-api").Set(0)
}

func TestSessionMetrics(t *testing.T) {
	SessionActive.Set(1)
	SessionAverageMinutes.Set(42.5)

	if got := testutil.ToFloat64(SessionActive); got != 1 {
		t.Errorf("session_active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SessionAverageMinutes); got != 42.5 {
		t.Errorf("session_average_duration_minutes = %v, want 42.5", got)
	}

	// Histogram only needs to accept observations without panicking here.
	SessionDurationMinutes.Observe(33)

	SessionActive.Set(0)
	SessionAverageMinutes.Set(0)
}

func TestDomainFailureCounter(t *testing.T) {
	before := testutil.ToFloat64(DomainFailuresTotal.WithLabelValues("social"))

	DomainFailuresTotal.WithLabelValues("social").Inc()
	DomainFailuresTotal.WithLabelValues("social").Inc()

	after := testutil.ToFloat64(DomainFailuresTotal.WithLabelValues("social"))
	if after != before+2 {
		t.Errorf("counter = %v, want %v", after, before+2)
	}
}
