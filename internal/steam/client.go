// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

/*
client.go - Rate-Limited Steam Web API Client

This file provides the core Client struct and HTTP communication layer for
interacting with the Steam Web API.

Client Features:
  - Shared minimum-interval rate budget across every tier and domain
  - API key authentication
  - Bounded retry with exponential backoff (3 total attempts)
  - Three-bucket error classification: transient, rate-limited, fatal
  - JSON response parsing with typed response structs
  - Context support for cancellation and timeouts

The rate budget is the single shared mutable resource of the engine: every
outbound call from every tier and domain collector funnels through one
rate.Limiter, so the effective request rate is bounded by one global
interval rather than per-tier budgets. The remote quota is per-credential,
not per-feature.

Related Files:
  - outcome.go: Error classification taxonomy
  - api.go: Typed endpoint methods and response structs
  - circuit_breaker.go: Circuit breaker wrapper
*/

//nolint:staticcheck // File documentation, not package doc
package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/metrics"
)

const (
	// DefaultBaseURL is the Steam Web API endpoint.
	DefaultBaseURL = "https://api.steampowered.com"

	// maxAttempts bounds the retry budget per call: the initial attempt plus
	// two retries. This balances availability against quota exhaustion.
	maxAttempts = 3

	// maxErrorBodySize limits the response body read for error reporting.
	maxErrorBodySize = 64 * 1024 // 64KB
)

// Config holds Steam API client configuration.
type Config struct {
	// BaseURL is the Steam Web API root. Default: https://api.steampowered.com
	BaseURL string

	// APIKey is the Steam Web API key used for every request.
	APIKey string

	// MinInterval is the minimum spacing between any two outbound calls
	// across the whole process. Default: 1100ms
	MinInterval time.Duration

	// Timeout is the per-request HTTP timeout. Default: 30s
	Timeout time.Duration

	// RetryBaseDelay is the base for exponential backoff between retries.
	// Default: 1s
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the computed backoff delay. Default: 16s
	RetryMaxDelay time.Duration
}

// DefaultConfig returns production defaults for the client.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		MinInterval:    1100 * time.Millisecond,
		Timeout:        30 * time.Second,
		RetryBaseDelay: 1 * time.Second,
		RetryMaxDelay:  16 * time.Second,
	}
}

// Client handles communication with the Steam Web API.
//
// Every call from every tier and domain collector funnels through the shared
// rate budget, so concurrent callers queue deterministically on the limiter
// rather than racing. The limiter reservation is the operation's only
// suspension point besides backoff waits, and both unwind promptly on
// context cancellation.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// budget enforces the process-wide minimum spacing between calls.
	budget *rate.Limiter

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// NewClient creates a new Steam Web API client with the provided configuration.
// Zero values in cfg fall back to DefaultConfig values.
func NewClient(cfg Config) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaults.MinInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = defaults.RetryMaxDelay
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		budget:         rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxDelay:  cfg.RetryMaxDelay,
	}
}

// get performs a rate-limited GET against one Steam Web API endpoint and
// decodes the JSON response into result.
//
// Each attempt first reserves a slot on the shared rate budget (blocking
// until the minimum interval since the previous call has elapsed), then
// issues the request. Failures are classified into exactly three buckets:
// rate-limited and transient failures are retried with exponential backoff
// up to maxAttempts total attempts; fatal failures (bad credential) return
// immediately after a single attempt. When the retry budget is exhausted the
// last failure is surfaced as a transient outcome, never as silent success.
//
// endpoint is an interface/method/version path like
// "ISteamUser/GetPlayerSummaries/v2". The method name is used for logging
// and metrics labels.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	params.Set("format", "json")

	reqURL := fmt.Sprintf("%s/%s/?%s", c.baseURL, endpoint, params.Encode())
	method := endpointMethod(endpoint)

	var lastErr *APIError

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.APIRetriesTotal.WithLabelValues(method, lastErr.Kind.String()).Inc()
			if err := c.backoff(ctx, attempt, lastErr); err != nil {
				metrics.APIRequestsTotal.WithLabelValues(method, "canceled").Inc()
				return err
			}
		}

		// Reserve a slot on the shared rate budget. This is the single
		// serialization point for every tier and domain.
		waitStart := time.Now()
		if err := c.budget.Wait(ctx); err != nil {
			metrics.APIRequestsTotal.WithLabelValues(method, "canceled").Inc()
			return fmt.Errorf("rate budget wait: %w", err)
		}
		metrics.RateBudgetWaitSeconds.Observe(time.Since(waitStart).Seconds())

		apiErr := c.attempt(ctx, method, reqURL, result)
		if apiErr == nil {
			metrics.APIRequestsTotal.WithLabelValues(method, "success").Inc()
			return nil
		}

		if apiErr.Kind == FailureFatal {
			metrics.APIRequestsTotal.WithLabelValues(method, "fatal").Inc()
			logging.Error().Int("status", apiErr.StatusCode).Str("endpoint", method).Msg("Fatal API failure, not retrying")
			return apiErr
		}

		// A 200 with an undecodable body is a domain-level defect, not a
		// remote outage. Retrying would burn quota for the same bytes.
		if apiErr.StatusCode == http.StatusOK {
			metrics.APIRequestsTotal.WithLabelValues(method, "transient").Inc()
			return apiErr
		}

		logging.Warn().Err(apiErr.Err).Str("endpoint", method).Str("kind", apiErr.Kind.String()).Int("attempt", attempt+1).Int("max_attempts", maxAttempts).Msg("API attempt failed")
		lastErr = apiErr
	}

	metrics.APIRequestsTotal.WithLabelValues(method, "transient").Inc()

	// Exhausted retries surface as a transient failure regardless of the
	// kind of the last attempt.
	return &APIError{
		Kind:       FailureTransient,
		StatusCode: lastErr.StatusCode,
		Err:        fmt.Errorf("retry budget exhausted after %d attempts: %w", maxAttempts, lastErr.Err),
	}
}

// attempt issues one HTTP request and classifies the result.
// Returns nil on success with result populated.
func (c *Client) attempt(ctx context.Context, method, reqURL string, result interface{}) *APIError {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return &APIError{Kind: FailureTransient, Err: fmt.Errorf("create request: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		// Distinguish caller cancellation from genuine transport failure so
		// shutdown does not burn the retry budget.
		if ctx.Err() != nil {
			return &APIError{Kind: FailureTransient, Err: ctx.Err()}
		}
		return &APIError{Kind: FailureTransient, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return &APIError{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s request failed with status %d: %s", method, resp.StatusCode, string(body)),
		}
	}

	if result == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil
	}

	// Malformed or empty bodies are not retried: the caller converts them
	// into a degraded domain snapshot instead of burning quota.
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &APIError{
			Kind:       FailureTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode %s response: %w", method, err),
		}
	}

	return nil
}

// backoff waits out the exponential backoff delay before a retry.
// The delay doubles each attempt (base, 2*base, ...) capped at retryMaxDelay;
// a server-provided Retry-After hint overrides the computed delay. The wait
// is cancellable.
func (c *Client) backoff(ctx context.Context, attempt int, last *APIError) error {
	delay := c.retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > c.retryMaxDelay {
		delay = c.retryMaxDelay
	}
	if last.RetryAfter > 0 {
		delay = last.RetryAfter
	}

	logging.Debug().Dur("delay", delay).Int("attempt", attempt).Msg("Backing off before retry")

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// endpointMethod extracts the API method name from an endpoint path for use
// as a logging and metrics label, e.g. "ISteamUser/GetPlayerSummaries/v2"
// yields "GetPlayerSummaries".
func endpointMethod(endpoint string) string {
	first := -1
	for i := 0; i < len(endpoint); i++ {
		if endpoint[i] == '/' {
			if first == -1 {
				first = i
				continue
			}
			return endpoint[first+1 : i]
		}
	}
	if first != -1 {
		return endpoint[first+1:]
	}
	return endpoint
}

// readBodyForError reads the response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
