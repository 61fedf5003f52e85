// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package snapshot

import (
	"testing"
	"time"
)

func TestStoreLatest(t *testing.T) {
	t.Parallel()

	store := NewStore()

	if store.Latest() != nil {
		t.Error("expected nil before first publish")
	}

	first := &Composite{CycleID: "c1", Status: StatusOffline}
	second := &Composite{CycleID: "c2", Status: StatusOnline}
	store.Publish(first)
	store.Publish(second)

	if got := store.Latest(); got == nil || got.CycleID != "c2" {
		t.Errorf("Latest() = %+v, want cycle c2", got)
	}
}

func TestStoreSubscribeReceivesLatestOnJoin(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Publish(&Composite{CycleID: "c1"})

	ch, cancel := store.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		if got.CycleID != "c1" {
			t.Errorf("got cycle %q, want c1", got.CycleID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the latest snapshot on subscribe")
	}
}

func TestStoreSlowSubscriberSeesNewest(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ch, cancel := store.Subscribe()
	defer cancel()

	// Publish several without draining: only the newest must remain pending.
	for _, id := range []string{"c1", "c2", "c3"} {
		store.Publish(&Composite{CycleID: id})
	}

	select {
	case got := <-ch:
		if got.CycleID != "c3" {
			t.Errorf("got cycle %q, want c3", got.CycleID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a pending snapshot")
	}
}

func TestStoreUnsubscribe(t *testing.T) {
	t.Parallel()

	store := NewStore()
	_, cancel := store.Subscribe()

	if got := store.Subscribers(); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	cancel()
	cancel() // idempotent

	if got := store.Subscribers(); got != 0 {
		t.Errorf("Subscribers() = %d, want 0 after cancel", got)
	}

	// Publishing after unsubscribe must not panic.
	store.Publish(&Composite{CycleID: "c9"})
}

func TestCompositeClone(t *testing.T) {
	t.Parallel()

	orig := &Composite{
		CycleID: "c1",
		Status:  StatusOnline,
		Player:  &Player{SteamID: "76561198000000001", GameID: "220"},
		Social: &Social{
			FriendCount: 2,
			Friends:     []FriendStatus{{SteamID: "a"}, {SteamID: "b"}},
		},
		Library:      &Library{GameCount: 10, Recent: []GamePlaytime{{AppID: 220}}},
		Achievements: &Achievements{Games: []GameProgress{{AppID: 220, Unlocked: 5, Total: 33}}},
	}

	clone := orig.Clone()

	clone.Player.GameID = "440"
	clone.Social.Friends[0].SteamID = "mutated"
	clone.Library.Recent[0].AppID = 999
	clone.Achievements.Games[0].Unlocked = 0

	if orig.Player.GameID != "220" {
		t.Error("clone shares Player with original")
	}
	if orig.Social.Friends[0].SteamID != "a" {
		t.Error("clone shares Friends slice with original")
	}
	if orig.Library.Recent[0].AppID != 220 {
		t.Error("clone shares Recent slice with original")
	}
	if orig.Achievements.Games[0].Unlocked != 5 {
		t.Error("clone shares Games slice with original")
	}

	var nilComposite *Composite
	if nilComposite.Clone() != nil {
		t.Error("nil Clone() should return nil")
	}
}
