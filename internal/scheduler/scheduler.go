// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

/*
scheduler.go - Tiered Collection Scheduler

This file implements the tiered polling scheduler. Each tier (fast, medium,
slow) runs its collectors on its own cadence, with a startup phase offset so
the tiers' first cycles do not land on the shared request budget at the same
instant.

Overlap handling: a tier's next cycle is armed only after the previous one
completes. A cycle that overruns its interval therefore causes later cycles
to be skipped, never queued.
*/

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/danw824/steamscope/internal/collect"
	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/metrics"
	"github.com/danw824/steamscope/internal/steam"
)

// Tier name constants.
const (
	TierFast   = "fast"
	TierMedium = "medium"
	TierSlow   = "slow"
)

// Tier couples a polling cadence with the collectors it drives.
type Tier struct {
	Name       string
	Interval   time.Duration
	Offset     time.Duration
	Collectors []collect.Collector
}

// Scheduler drives the tiers against a single aggregator.
type Scheduler struct {
	api     steam.API
	steamID string
	agg     *collect.Aggregator
	tiers   []Tier

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	cycles map[string]uint64
}

// NewScheduler creates a scheduler. Tiers with no collectors or a
// non-positive interval are rejected at Start.
func NewScheduler(api steam.API, steamID string, agg *collect.Aggregator, tiers []Tier) *Scheduler {
	return &Scheduler{
		api:     api,
		steamID: steamID,
		agg:     agg,
		tiers:   tiers,
		cycles:  make(map[string]uint64),
	}
}

// Start validates the tiers, verifies API credentials, and launches one
// polling loop per tier. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	for _, tier := range s.tiers {
		if tier.Interval <= 0 {
			s.mu.Unlock()
			return fmt.Errorf("tier %s: interval must be positive, got %v", tier.Name, tier.Interval)
		}
		if len(tier.Collectors) == 0 {
			s.mu.Unlock()
			return fmt.Errorf("tier %s: no collectors configured", tier.Name)
		}
	}

	// Credential check before any tier spins up. A fatal classification
	// means the key or account id is wrong and polling would only burn
	// quota on guaranteed failures.
	if err := s.api.Ping(ctx, s.steamID); err != nil {
		if steam.IsFatal(err) {
			s.mu.Unlock()
			return fmt.Errorf("credential check failed: %w", err)
		}
		logging.Warn().Err(err).Msg("Connectivity check failed, starting anyway")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.stopChan = make(chan struct{})
	s.cancel = cancel
	s.mu.Unlock()

	for _, tier := range s.tiers {
		logging.Info().
			Str("tier", tier.Name).
			Dur("interval", tier.Interval).
			Dur("offset", tier.Offset).
			Int("collectors", len(tier.Collectors)).
			Msg("Starting tier")

		s.wg.Add(1)
		go s.runTier(runCtx, tier)
	}
	metrics.TiersRunning.Set(float64(len(s.tiers)))

	return nil
}

// Stop halts all tiers and waits for in-flight cycles to unwind. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	metrics.TiersRunning.Set(0)
	logging.Info().Msg("Scheduler stopped")
}

// Serve runs the scheduler under a supervision tree: it starts the tiers,
// blocks until the context is cancelled, then stops them. Start failures
// (bad tier config, fatal credentials) cannot heal under a restart, so they
// take the whole tree down rather than cycling through backoff forever.
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return errors.Join(err, suture.ErrTerminateSupervisorTree)
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// IsRunning reports whether the tiers are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Stats is a point-in-time view of scheduler activity.
type Stats struct {
	Running      bool
	Tiers        int
	CyclesByTier map[string]uint64
}

// Stats returns cycle counts per tier.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles := make(map[string]uint64, len(s.cycles))
	for tier, n := range s.cycles {
		cycles[tier] = n
	}
	return Stats{
		Running:      s.running,
		Tiers:        len(s.tiers),
		CyclesByTier: cycles,
	}
}

// runTier is one tier's polling loop. The timer is single-shot and re-armed
// only after a cycle finishes, which gives skip-not-queue overlap semantics.
func (s *Scheduler) runTier(ctx context.Context, tier Tier) {
	defer s.wg.Done()

	timer := time.NewTimer(tier.Offset)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-timer.C:
		}

		s.runCycle(ctx, tier)
		timer.Reset(tier.Interval)
	}
}

// runCycle executes one aggregation pass for the tier.
func (s *Scheduler) runCycle(ctx context.Context, tier Tier) {
	if _, err := s.agg.Run(ctx, tier.Name, tier.Collectors); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warn().Str("tier", tier.Name).Err(err).Msg("Cycle failed")
	}

	s.mu.Lock()
	s.cycles[tier.Name]++
	s.mu.Unlock()
}
