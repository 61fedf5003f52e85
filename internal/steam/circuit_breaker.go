// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package steam

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/metrics"
)

// CircuitBreakerClient wraps an API implementation with the circuit breaker
// pattern, preventing the tier schedulers from hammering the Steam API while
// it is unavailable or consistently failing.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. The timing determines when to
// recover from failures, not data integrity. For unit tests, prefer testing
// the wrapped client directly.
type CircuitBreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps the given API with a circuit breaker.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client API) *CircuitBreakerClient {
	cbName := "steam-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps one API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()

			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Ping verifies connectivity with circuit breaker protection.
func (cbc *CircuitBreakerClient) Ping(ctx context.Context, steamID string) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.Ping(ctx, steamID)
	})
	return err
}

// GetPlayerSummary retrieves one persona summary with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	return castResult[*PlayerSummary](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetPlayerSummary(ctx, steamID)
	}))
}

// GetPlayerSummaries retrieves batched persona summaries with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetPlayerSummaries(ctx context.Context, steamIDs []string) ([]PlayerSummary, error) {
	return castResult[[]PlayerSummary](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetPlayerSummaries(ctx, steamIDs)
	}))
}

// GetFriendList retrieves the friend roster with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetFriendList(ctx context.Context, steamID string) ([]Friend, error) {
	return castResult[[]Friend](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetFriendList(ctx, steamID)
	}))
}

// GetOwnedGames retrieves the owned library with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetOwnedGames(ctx context.Context, steamID string) (*OwnedGames, error) {
	return castResult[*OwnedGames](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetOwnedGames(ctx, steamID)
	}))
}

// GetRecentlyPlayedGames retrieves recent playtime with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) ([]OwnedGame, error) {
	return castResult[[]OwnedGame](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetRecentlyPlayedGames(ctx, steamID, count)
	}))
}

// GetPlayerAchievements retrieves per-game achievements with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetPlayerAchievements(ctx context.Context, steamID string, appID uint32) (*GameAchievements, error) {
	return castResult[*GameAchievements](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetPlayerAchievements(ctx, steamID, appID)
	}))
}
