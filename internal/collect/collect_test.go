// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package collect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
)

// fakeAPI is a canned-response steam.API for collector tests.
type fakeAPI struct {
	summary      *steam.PlayerSummary
	summaryErr   error
	profiles     map[string]*steam.PlayerSummary
	summaryCalls int32
	friends      []steam.Friend
	friendsErr   error
	owned        *steam.OwnedGames
	ownedErr     error
	recent       []steam.OwnedGame
	recentErr    error
	achievements map[uint32]*steam.GameAchievements
	achErrs      map[uint32]error
}

func (f *fakeAPI) Ping(_ context.Context, _ string) error { return f.summaryErr }

func (f *fakeAPI) GetPlayerSummary(_ context.Context, steamID string) (*steam.PlayerSummary, error) {
	atomic.AddInt32(&f.summaryCalls, 1)
	if p, ok := f.profiles[steamID]; ok {
		return p, nil
	}
	return f.summary, f.summaryErr
}

func (f *fakeAPI) GetPlayerSummaries(_ context.Context, _ []string) ([]steam.PlayerSummary, error) {
	return nil, nil
}

func (f *fakeAPI) GetFriendList(_ context.Context, _ string) ([]steam.Friend, error) {
	return f.friends, f.friendsErr
}

func (f *fakeAPI) GetOwnedGames(_ context.Context, _ string) (*steam.OwnedGames, error) {
	return f.owned, f.ownedErr
}

func (f *fakeAPI) GetRecentlyPlayedGames(_ context.Context, _ string, _ int) ([]steam.OwnedGame, error) {
	return f.recent, f.recentErr
}

func (f *fakeAPI) GetPlayerAchievements(_ context.Context, _ string, appID uint32) (*steam.GameAchievements, error) {
	if err, ok := f.achErrs[appID]; ok {
		return nil, err
	}
	return f.achievements[appID], nil
}

func TestPlayerCollector(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{summary: &steam.PlayerSummary{
		SteamID:       "76561198000000001",
		PersonaName:   "gordon",
		PersonaState:  steam.PersonaOnline,
		GameID:        "220",
		GameExtraInfo: "Half-Life 2",
		LastLogoff:    1756600000,
	}}

	var dst snapshot.Composite
	c := NewPlayerCollector(api, "76561198000000001")
	if c.Domain() != DomainPlayer {
		t.Errorf("Domain() = %q", c.Domain())
	}
	if err := c.Collect(context.Background(), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := dst.Player
	if p == nil {
		t.Fatal("expected player snapshot")
	}
	if p.PersonaName != "gordon" || p.GameID != "220" || p.GameName != "Half-Life 2" {
		t.Errorf("unexpected player: %+v", p)
	}
	if !p.Online() {
		t.Error("expected online")
	}
	if p.LastLogoff.IsZero() || p.CapturedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestPlayerCollectorError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{summaryErr: errors.New("boom")}
	var dst snapshot.Composite
	if err := NewPlayerCollector(api, "x").Collect(context.Background(), &dst); err == nil {
		t.Fatal("expected error")
	}
	if dst.Player != nil {
		t.Error("failed collect must not write a snapshot")
	}
}

func TestSocialCollectorCountsAndTruncates(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		friends: []steam.Friend{
			{SteamID: "a", FriendSince: 3},
			{SteamID: "b", FriendSince: 2},
			{SteamID: "c", FriendSince: 1},
		},
		profiles: map[string]*steam.PlayerSummary{
			"a": {SteamID: "a", PersonaState: steam.PersonaOnline, GameID: "220"},
			"b": {SteamID: "b", PersonaState: steam.PersonaOffline},
		},
	}

	var dst snapshot.Composite
	c := NewSocialCollector(api, "x", 2)
	if err := c.Collect(context.Background(), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := dst.Social
	if s.FriendCount != 3 {
		t.Errorf("FriendCount = %d, want 3 (count before truncation)", s.FriendCount)
	}
	if !s.Truncated || len(s.Friends) != 2 {
		t.Errorf("expected truncation to 2 friends, got %d (truncated=%v)", len(s.Friends), s.Truncated)
	}
	if s.OnlineCount != 1 || s.InGameCount != 1 {
		t.Errorf("OnlineCount=%d InGameCount=%d, want 1/1", s.OnlineCount, s.InGameCount)
	}
}

func TestSocialCollectorEnrichmentFailureDegrades(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		friends:    []steam.Friend{{SteamID: "a"}, {SteamID: "b"}},
		summaryErr: errors.New("boom"),
	}

	var dst snapshot.Composite
	if err := NewSocialCollector(api, "x", 0).Collect(context.Background(), &dst); err != nil {
		t.Fatalf("enrichment failure must not fail the domain: %v", err)
	}
	if dst.Social == nil || len(dst.Social.Friends) != 2 {
		t.Fatalf("expected bare friend list, got %+v", dst.Social)
	}
	if dst.Social.Friends[0].PersonaName != "" {
		t.Error("bare list should not carry presence")
	}
}

func TestSocialCollectorEnrichesPerFriend(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		friends: []steam.Friend{{SteamID: "a"}, {SteamID: "b"}, {SteamID: "c"}},
		profiles: map[string]*steam.PlayerSummary{
			"a": {SteamID: "a", PersonaState: steam.PersonaOnline},
			"b": {SteamID: "b"},
			"c": {SteamID: "c"},
		},
	}

	var dst snapshot.Composite
	if err := NewSocialCollector(api, "x", 0).Collect(context.Background(), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&api.summaryCalls); got != 3 {
		t.Errorf("summary calls = %d, want one per friend", got)
	}
	if len(dst.Social.Friends) != 3 {
		t.Errorf("Friends = %d, want 3", len(dst.Social.Friends))
	}
}

// cancellingAPI cancels its context on the first per-friend summary call.
type cancellingAPI struct {
	*fakeAPI
	cancel context.CancelFunc
}

func (c *cancellingAPI) GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error) {
	c.cancel()
	return c.fakeAPI.GetPlayerSummary(ctx, steamID)
}

func TestSocialCollectorEnrichmentHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api := &cancellingAPI{
		fakeAPI: &fakeAPI{
			friends: []steam.Friend{{SteamID: "a"}, {SteamID: "b"}, {SteamID: "c"}},
			profiles: map[string]*steam.PlayerSummary{
				"a": {SteamID: "a"}, "b": {SteamID: "b"}, "c": {SteamID: "c"},
			},
		},
		cancel: cancel,
	}

	var dst snapshot.Composite
	err := NewSocialCollector(api, "x", 0).Collect(ctx, &dst)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// Cancellation is checked between per-friend calls, so the remaining
	// roster is never fetched.
	if got := atomic.LoadInt32(&api.summaryCalls); got != 1 {
		t.Errorf("summary calls after cancellation = %d, want 1", got)
	}
}

func TestLibraryCollector(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		owned: &steam.OwnedGames{
			GameCount: 2,
			Games: []steam.OwnedGame{
				{AppID: 220, Name: "Half-Life 2", PlaytimeForever: 600},
				{AppID: 440, Name: "Team Fortress 2", PlaytimeForever: 1200},
			},
		},
		recent: []steam.OwnedGame{
			{AppID: 440, Name: "Team Fortress 2", PlaytimeForever: 1200, Playtime2Weeks: 90},
		},
	}

	var dst snapshot.Composite
	if err := NewLibraryCollector(api, "x").Collect(context.Background(), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l := dst.Library
	if l.GameCount != 2 || l.TotalPlaytimeM != 1800 {
		t.Errorf("GameCount=%d TotalPlaytimeM=%d, want 2/1800", l.GameCount, l.TotalPlaytimeM)
	}
	if len(l.Recent) != 1 || l.Recent[0].Playtime2WkM != 90 {
		t.Errorf("unexpected recent: %+v", l.Recent)
	}
}

func TestLibraryCollectorRecentFailureKeepsTotals(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		owned:     &steam.OwnedGames{GameCount: 1, Games: []steam.OwnedGame{{AppID: 220, PlaytimeForever: 10}}},
		recentErr: errors.New("boom"),
	}

	var dst snapshot.Composite
	if err := NewLibraryCollector(api, "x").Collect(context.Background(), &dst); err != nil {
		t.Fatalf("recent failure must not fail the domain: %v", err)
	}
	if dst.Library == nil || dst.Library.GameCount != 1 {
		t.Errorf("expected totals to survive, got %+v", dst.Library)
	}
}

func TestAchievementsCollectorSkipsSchemalessTitles(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		achievements: map[uint32]*steam.GameAchievements{
			220: {AppID: 220, GameName: "Half-Life 2", Achievements: []steam.Achievement{
				{APIName: "a", Achieved: 1}, {APIName: "b"},
			}},
		},
		achErrs: map[uint32]error{
			730: &steam.APIError{Kind: steam.FailureTransient, Err: errors.New("no schema")},
		},
	}

	var dst snapshot.Composite
	c := NewAchievementsCollector(api, "x", []uint32{220, 730})
	if err := c.Collect(context.Background(), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := dst.Achievements
	if len(a.Games) != 1 {
		t.Fatalf("Games = %d, want 1", len(a.Games))
	}
	if a.Games[0].Unlocked != 1 || a.Games[0].Total != 2 {
		t.Errorf("unexpected progress: %+v", a.Games[0])
	}
}

func TestAchievementsCollectorAllTitlesFailed(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{achErrs: map[uint32]error{
		220: errors.New("boom"),
		440: errors.New("boom"),
	}}

	var dst snapshot.Composite
	c := NewAchievementsCollector(api, "x", []uint32{220, 440})
	if err := c.Collect(context.Background(), &dst); err == nil {
		t.Fatal("expected error when every title fails")
	}
}

func TestAchievementsCollectorFatalPropagates(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{achErrs: map[uint32]error{
		220: &steam.APIError{Kind: steam.FailureFatal, StatusCode: 403},
	}}

	var dst snapshot.Composite
	c := NewAchievementsCollector(api, "x", []uint32{220, 440})
	err := c.Collect(context.Background(), &dst)
	if err == nil || !steam.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}
