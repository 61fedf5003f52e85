// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package steam

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FailureKind classifies a failed Steam Web API call into one of three
// buckets that determine retry behavior.
type FailureKind int

const (
	// FailureTransient covers network errors, timeouts, and 5xx responses.
	// Retried with exponential backoff.
	FailureTransient FailureKind = iota

	// FailureRateLimited covers HTTP 429 responses. Retried with exponential
	// backoff, honoring the Retry-After header when present.
	FailureRateLimited

	// FailureFatal covers HTTP 401/403 (bad or revoked API key). Never
	// retried; the engine must stop scheduling calls on this credential.
	FailureFatal
)

// String returns the failure kind name for logging and metrics labels.
func (k FailureKind) String() string {
	switch k {
	case FailureTransient:
		return "transient"
	case FailureRateLimited:
		return "rate_limited"
	case FailureFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// APIError is the classified outcome of a failed Steam Web API call.
// Kind drives retry behavior in the client and propagation policy in the
// scheduler (fatal halts scheduling, everything else is absorbed locally).
type APIError struct {
	Kind       FailureKind
	StatusCode int           // HTTP status, 0 for transport-level failures
	RetryAfter time.Duration // server-provided retry hint, 0 when absent
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("steam api: %s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("steam api: %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a failure kind.
// 429 is rate limiting, 401/403 indicate a bad credential, and everything
// else that reaches this function (5xx, unexpected 4xx) is treated as
// transient and absorbed by the bounded retry budget.
func classifyStatus(status int) FailureKind {
	switch status {
	case http.StatusTooManyRequests:
		return FailureRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return FailureFatal
	default:
		return FailureTransient
	}
}

// IsFatal reports whether err is a fatal-classified API error.
func IsFatal(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == FailureFatal
}

// IsRateLimited reports whether err is a rate-limited-classified API error.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == FailureRateLimited
}

// IsTransient reports whether err is a transient-classified API error.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == FailureTransient
}

// parseRetryAfter parses a Retry-After header value given in seconds.
// Returns 0 when the header is absent or malformed.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if d, err := time.ParseDuration(header + "s"); err == nil && d > 0 {
		return d
	}
	return 0
}
