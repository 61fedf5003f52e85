// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/danw824/steamscope/internal/collect"
	"github.com/danw824/steamscope/internal/session"
	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
)

// pingAPI is a steam.API stub for scheduler tests; only Ping matters here.
type pingAPI struct {
	pingErr error
	pings   int32
}

func (f *pingAPI) Ping(_ context.Context, _ string) error {
	atomic.AddInt32(&f.pings, 1)
	return f.pingErr
}

func (f *pingAPI) GetPlayerSummary(_ context.Context, _ string) (*steam.PlayerSummary, error) {
	return &steam.PlayerSummary{SteamID: "x"}, nil
}
func (f *pingAPI) GetPlayerSummaries(_ context.Context, _ []string) ([]steam.PlayerSummary, error) {
	return nil, nil
}
func (f *pingAPI) GetFriendList(_ context.Context, _ string) ([]steam.Friend, error) {
	return nil, nil
}
func (f *pingAPI) GetOwnedGames(_ context.Context, _ string) (*steam.OwnedGames, error) {
	return &steam.OwnedGames{}, nil
}
func (f *pingAPI) GetRecentlyPlayedGames(_ context.Context, _ string, _ int) ([]steam.OwnedGame, error) {
	return nil, nil
}
func (f *pingAPI) GetPlayerAchievements(_ context.Context, _ string, _ uint32) (*steam.GameAchievements, error) {
	return &steam.GameAchievements{}, nil
}

// countingCollector counts cycles and can stall to force overlap.
type countingCollector struct {
	count int32
	stall time.Duration
}

func (c *countingCollector) Domain() collect.Domain { return collect.DomainPlayer }

func (c *countingCollector) Collect(ctx context.Context, dst *snapshot.Composite) error {
	atomic.AddInt32(&c.count, 1)
	if c.stall > 0 {
		select {
		case <-time.After(c.stall):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	dst.Player = &snapshot.Player{SteamID: "x", CapturedAt: time.Now()}
	return nil
}

func newTestScheduler(api steam.API, tiers []Tier) *Scheduler {
	agg := collect.NewAggregator(snapshot.NewStore(), session.NewTracker())
	return NewScheduler(api, "76561198000000001", agg, tiers)
}

func TestSchedulerStartIdempotent(t *testing.T) {
	t.Parallel()

	api := &pingAPI{}
	sched := newTestScheduler(api, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{&countingCollector{}}},
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sched.Stop()

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("second Start should be a no-op: %v", err)
	}
	if got := atomic.LoadInt32(&api.pings); got != 1 {
		t.Errorf("pings = %d, want 1 (no-op Start must not re-check)", got)
	}
	if !sched.IsRunning() {
		t.Error("expected running")
	}
}

func TestSchedulerFatalCredentialCheckAborts(t *testing.T) {
	t.Parallel()

	api := &pingAPI{pingErr: &steam.APIError{Kind: steam.FailureFatal, StatusCode: 401}}
	sched := newTestScheduler(api, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{&countingCollector{}}},
	})

	if err := sched.Start(context.Background()); err == nil {
		t.Fatal("expected startup abort on fatal credential failure")
	}
	if sched.IsRunning() {
		t.Error("scheduler must not be running after failed Start")
	}
}

func TestSchedulerTransientPingStartsAnyway(t *testing.T) {
	t.Parallel()

	api := &pingAPI{pingErr: &steam.APIError{Kind: steam.FailureTransient, StatusCode: 502}}
	sched := newTestScheduler(api, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{&countingCollector{}}},
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("transient connectivity failure must not abort startup: %v", err)
	}
	sched.Stop()
}

func TestSchedulerRejectsBadTiers(t *testing.T) {
	t.Parallel()

	api := &pingAPI{}

	sched := newTestScheduler(api, []Tier{{Name: TierFast, Interval: 0, Collectors: []collect.Collector{&countingCollector{}}}})
	if err := sched.Start(context.Background()); err == nil {
		t.Error("expected error for non-positive interval")
	}

	sched = newTestScheduler(api, []Tier{{Name: TierFast, Interval: time.Second}})
	if err := sched.Start(context.Background()); err == nil {
		t.Error("expected error for tier without collectors")
	}
}

func TestSchedulerRunsCycles(t *testing.T) {
	t.Parallel()

	c := &countingCollector{}
	sched := newTestScheduler(&pingAPI{}, []Tier{
		{Name: TierFast, Interval: 20 * time.Millisecond, Collectors: []collect.Collector{c}},
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	sched.Stop()

	if got := atomic.LoadInt32(&c.count); got < 3 {
		t.Errorf("cycles = %d, want >= 3", got)
	}
	if stats := sched.Stats(); stats.CyclesByTier[TierFast] < 3 {
		t.Errorf("Stats cycles = %d, want >= 3", stats.CyclesByTier[TierFast])
	}
}

func TestSchedulerOverlapSkipsNotQueues(t *testing.T) {
	t.Parallel()

	// Each cycle takes ~5 intervals. Over the test window only the
	// non-overlapping cycles may run; queued catch-up bursts would show
	// up as a much higher count.
	c := &countingCollector{stall: 100 * time.Millisecond}
	sched := newTestScheduler(&pingAPI{}, []Tier{
		{Name: TierFast, Interval: 20 * time.Millisecond, Collectors: []collect.Collector{c}},
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	sched.Stop()

	if got := atomic.LoadInt32(&c.count); got > 4 {
		t.Errorf("cycles = %d, overrunning cycles should be skipped not queued", got)
	}
}

func TestSchedulerOffsetDelaysFirstCycle(t *testing.T) {
	t.Parallel()

	immediate := &countingCollector{}
	offset := &countingCollector{}
	sched := newTestScheduler(&pingAPI{}, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{immediate}},
		{Name: TierMedium, Interval: time.Hour, Offset: 200 * time.Millisecond, Collectors: []collect.Collector{offset}},
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&immediate.count) != 1 {
		t.Error("zero-offset tier should have cycled already")
	}
	if atomic.LoadInt32(&offset.count) != 0 {
		t.Error("offset tier cycled before its phase offset elapsed")
	}
}

func TestSchedulerStopIdempotentAndServe(t *testing.T) {
	t.Parallel()

	sched := newTestScheduler(&pingAPI{}, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{&countingCollector{}}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Serve(ctx) }()

	deadline := time.After(time.Second)
	for !sched.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("scheduler never started under Serve")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	sched.Stop() // idempotent after Serve already stopped it
	if sched.IsRunning() {
		t.Error("expected stopped")
	}
}

func TestSchedulerServeFatalTerminatesTree(t *testing.T) {
	t.Parallel()

	api := &pingAPI{pingErr: &steam.APIError{Kind: steam.FailureFatal, StatusCode: 401}}
	sched := newTestScheduler(api, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{&countingCollector{}}},
	})

	err := sched.Serve(context.Background())
	if err == nil {
		t.Fatal("expected Serve to fail on fatal credentials")
	}
	if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
		t.Errorf("Serve error %v should terminate the supervisor tree", err)
	}
	if !steam.IsFatal(err) {
		t.Errorf("Serve error %v should keep the fatal classification", err)
	}
}

func TestSchedulerFatalNotRetriedUnderSupervision(t *testing.T) {
	t.Parallel()

	api := &pingAPI{pingErr: &steam.APIError{Kind: steam.FailureFatal, StatusCode: 401}}
	sched := newTestScheduler(api, []Tier{
		{Name: TierFast, Interval: time.Hour, Collectors: []collect.Collector{&countingCollector{}}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := suture.New("test-tree", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   5 * time.Millisecond,
	})
	sup.Add(sched)
	errCh := sup.ServeBackground(ctx)

	// A dead credential must take the whole tree down after a single
	// check, not cycle through restart backoff.
	select {
	case err := <-errCh:
		if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
			t.Errorf("tree exited with %v, want termination", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor kept restarting a fatally failed scheduler")
	}
	if got := atomic.LoadInt32(&api.pings); got != 1 {
		t.Errorf("credential check ran %d times, want exactly 1", got)
	}
}
