// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package collect

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/metrics"
	"github.com/danw824/steamscope/internal/session"
	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
)

// Aggregator fans a cycle's collectors out concurrently, merges their results
// over the previous composite, derives overall status and session state, and
// publishes the result. Collection runs unlocked so cycles from different
// tiers overlap; only the merge-and-publish step is serialized, keeping the
// composite a single evolving view rather than a per-tier one.
type Aggregator struct {
	mu      sync.Mutex
	store   *snapshot.Store
	tracker *session.Tracker
	prev    *snapshot.Composite
}

// NewAggregator creates an aggregator publishing to the given store.
func NewAggregator(store *snapshot.Store, tracker *session.Tracker) *Aggregator {
	return &Aggregator{store: store, tracker: tracker}
}

// Run executes one collection cycle for the named tier. Domains not covered
// by this cycle's collectors carry forward unchanged. The returned error is
// non-nil only when every collector failed.
func (a *Aggregator) Run(ctx context.Context, tier string, collectors []Collector) (*snapshot.Composite, error) {
	start := time.Now()

	// Collect into a scratch composite without holding the lock, so a slow
	// tier's cycle never stalls the fast tier. Contention over the upstream
	// API is the rate-limited client's job, not the aggregator's.
	fresh := &snapshot.Composite{}
	failures := a.dispatch(ctx, collectors, fresh)
	if ctx.Err() != nil {
		// Shutdown mid-cycle: do not publish a half-collected view.
		return nil, ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.prev.Clone()
	if next == nil {
		next = &snapshot.Composite{}
	}
	next.CycleID = uuid.NewString()
	next.Tier = tier
	next.CapturedAt = start.UTC()
	next.Details = ""

	var failedDomains []string
	for _, c := range collectors {
		domain := c.Domain()
		err, failed := failures[domain]
		if !failed {
			mergeDomain(next, fresh, domain)
			continue
		}
		failedDomains = append(failedDomains, string(domain))
		markDegraded(next, domain)
		metrics.DomainFailuresTotal.WithLabelValues(string(domain)).Inc()

		evt := logging.Warn()
		if steam.IsFatal(err) {
			evt = logging.Error()
		}
		evt.Str("tier", tier).Str("domain", string(domain)).Err(err).Msg("Domain collection failed")
	}

	playerFresh := next.Player != nil && !next.Player.Err && hasDomain(collectors, DomainPlayer) && failures[DomainPlayer] == nil
	if playerFresh {
		a.tracker.Observe(next.Player)
	}
	next.Session = a.tracker.Snapshot()

	allFailed := len(collectors) > 0 && len(failures) == len(collectors)
	switch {
	case allFailed:
		next.Status = snapshot.StatusError
		next.Details = "all domains failed: " + strings.Join(failedDomains, ", ")
	case next.Player.Online():
		next.Status = snapshot.StatusOnline
	default:
		next.Status = snapshot.StatusOffline
	}
	if !allFailed && len(failedDomains) > 0 {
		next.Details = "degraded: " + strings.Join(failedDomains, ", ")
	}

	a.prev = next
	a.store.Publish(next)

	status := "ok"
	if allFailed {
		status = "error"
	} else if len(failures) > 0 {
		status = "degraded"
	}
	metrics.CycleDuration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
	metrics.CyclesTotal.WithLabelValues(tier, status).Inc()

	logging.Debug().
		Str("tier", tier).
		Str("cycle_id", next.CycleID).
		Str("status", string(next.Status)).
		Int("failed_domains", len(failures)).
		Dur("duration", time.Since(start)).
		Msg("Collection cycle complete")

	if allFailed {
		return next, fmt.Errorf("cycle %s: all domains failed: %s", next.CycleID, strings.Join(failedDomains, ", "))
	}
	return next, nil
}

// Latest returns the most recent composite, or nil before the first cycle.
func (a *Aggregator) Latest() *snapshot.Composite {
	return a.store.Latest()
}

// dispatch runs the collectors concurrently and returns per-domain failures.
// Each collector writes only its own field of dst, so no lock is needed
// around the composite itself.
func (a *Aggregator) dispatch(ctx context.Context, collectors []Collector, dst *snapshot.Composite) map[Domain]error {
	results := make([]error, len(collectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range collectors {
		g.Go(func() error {
			results[i] = a.collectOne(gctx, c, dst)
			// Only cancellation propagates into the group: a failing
			// domain must not abort its siblings.
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	//nolint:errcheck // per-collector errors are gathered in results
	g.Wait()

	failures := make(map[Domain]error)
	for i, c := range collectors {
		if results[i] != nil {
			failures[c.Domain()] = results[i]
		}
	}
	return failures
}

// collectOne invokes a single collector with panic isolation.
func (a *Aggregator) collectOne(ctx context.Context, c Collector, dst *snapshot.Composite) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collector %s panicked: %v", c.Domain(), r)
		}
	}()
	return c.Collect(ctx, dst)
}

// mergeDomain overlays a freshly collected domain onto the evolving
// composite. A collector that produced nothing leaves the carried-forward
// value in place.
func mergeDomain(dst, src *snapshot.Composite, domain Domain) {
	switch domain {
	case DomainPlayer:
		if src.Player != nil {
			dst.Player = src.Player
		}
	case DomainSocial:
		if src.Social != nil {
			dst.Social = src.Social
		}
	case DomainLibrary:
		if src.Library != nil {
			dst.Library = src.Library
		}
	case DomainAchievements:
		if src.Achievements != nil {
			dst.Achievements = src.Achievements
		}
	}
}

// markDegraded flags the carried-forward snapshot for a failed domain, so
// consumers can tell stale data from fresh.
func markDegraded(dst *snapshot.Composite, domain Domain) {
	switch domain {
	case DomainPlayer:
		if dst.Player == nil {
			dst.Player = &snapshot.Player{}
		}
		dst.Player.Err = true
	case DomainSocial:
		if dst.Social == nil {
			dst.Social = &snapshot.Social{}
		}
		dst.Social.Err = true
	case DomainLibrary:
		if dst.Library == nil {
			dst.Library = &snapshot.Library{}
		}
		dst.Library.Err = true
	case DomainAchievements:
		if dst.Achievements == nil {
			dst.Achievements = &snapshot.Achievements{}
		}
		dst.Achievements.Err = true
	}
}

func hasDomain(collectors []Collector, domain Domain) bool {
	for _, c := range collectors {
		if c.Domain() == domain {
			return true
		}
	}
	return false
}
