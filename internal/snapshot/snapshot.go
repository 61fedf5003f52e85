// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

// Package snapshot defines the point-in-time views of a monitored Steam
// account that the collection pipeline produces. Each domain (player presence,
// social graph, library, achievements) has its own snapshot type, and a
// Composite stitches the freshest view of every domain together with session
// state for downstream consumers.
//
// Snapshots carry an Err flag instead of omitting failed domains: a degraded
// domain keeps its previous data visible while signalling staleness.
package snapshot

import (
	"time"

	"github.com/danw824/steamscope/internal/steam"
)

// Status summarizes the overall health of a composite snapshot.
type Status string

const (
	// StatusOnline means the monitored player is online and at least one
	// domain refreshed successfully this cycle.
	StatusOnline Status = "online"

	// StatusOffline means the player is offline or presence is unknown but
	// collection itself is healthy.
	StatusOffline Status = "offline"

	// StatusError means every domain in the cycle failed. Individual domain
	// failures never produce this status on their own.
	StatusError Status = "error"
)

// Player is the presence view of the monitored account.
type Player struct {
	SteamID      string    `json:"steam_id"`
	PersonaName  string    `json:"persona_name"`
	PersonaState int       `json:"persona_state"`
	GameID       string    `json:"game_id,omitempty"`
	GameName     string    `json:"game_name,omitempty"`
	LastLogoff   time.Time `json:"last_logoff,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
	Err          bool      `json:"err,omitempty"`
}

// Online reports whether the persona state indicates any online presence.
func (p *Player) Online() bool {
	return p != nil && p.PersonaState != steam.PersonaOffline
}

// FriendStatus is the enriched presence of a single friend.
type FriendStatus struct {
	SteamID      string `json:"steam_id"`
	PersonaName  string `json:"persona_name"`
	PersonaState int    `json:"persona_state"`
	GameID       string `json:"game_id,omitempty"`
	GameName     string `json:"game_name,omitempty"`
}

// Social is the friends-online view.
type Social struct {
	FriendCount  int            `json:"friend_count"`
	OnlineCount  int            `json:"online_count"`
	InGameCount  int            `json:"in_game_count"`
	Friends      []FriendStatus `json:"friends,omitempty"`
	Truncated    bool           `json:"truncated,omitempty"`
	CapturedAt   time.Time      `json:"captured_at"`
	Err          bool           `json:"err,omitempty"`
}

// GamePlaytime is one owned or recently played title.
type GamePlaytime struct {
	AppID          uint32 `json:"app_id"`
	Name           string `json:"name"`
	PlaytimeTotalM int    `json:"playtime_total_minutes"`
	Playtime2WkM   int    `json:"playtime_2weeks_minutes,omitempty"`
}

// Library is the owned-games view.
type Library struct {
	GameCount      int            `json:"game_count"`
	TotalPlaytimeM int            `json:"total_playtime_minutes"`
	Recent         []GamePlaytime `json:"recent,omitempty"`
	CapturedAt     time.Time      `json:"captured_at"`
	Err            bool           `json:"err,omitempty"`
}

// GameProgress is achievement completion for one tracked title.
type GameProgress struct {
	AppID    uint32 `json:"app_id"`
	GameName string `json:"game_name"`
	Unlocked int    `json:"unlocked"`
	Total    int    `json:"total"`
}

// Achievements is the achievement-progress view across tracked titles.
type Achievements struct {
	Games      []GameProgress `json:"games,omitempty"`
	CapturedAt time.Time      `json:"captured_at"`
	Err        bool           `json:"err,omitempty"`
}

// SessionInfo is the play-session view derived from consecutive presence
// observations rather than from any single API response.
type SessionInfo struct {
	Active          bool      `json:"active"`
	GameID          string    `json:"game_id,omitempty"`
	GameName        string    `json:"game_name,omitempty"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	DurationMinutes float64   `json:"duration_minutes"`
	AverageMinutes  float64   `json:"average_minutes"`
	Completed       int       `json:"completed"`
}

// Composite is the merged latest-known view across all domains. Domains the
// current cycle did not refresh carry forward their previous snapshot.
type Composite struct {
	CycleID      string        `json:"cycle_id"`
	Tier         string        `json:"tier"`
	Status       Status        `json:"status"`
	Details      string        `json:"details,omitempty"`
	CapturedAt   time.Time     `json:"captured_at"`
	Player       *Player       `json:"player,omitempty"`
	Social       *Social       `json:"social,omitempty"`
	Library      *Library      `json:"library,omitempty"`
	Achievements *Achievements `json:"achievements,omitempty"`
	Session      SessionInfo   `json:"session"`
}

// Clone returns a shallow-plus-domain-pointer copy safe to hand to
// subscribers while the aggregator keeps mutating its working view.
func (c *Composite) Clone() *Composite {
	if c == nil {
		return nil
	}
	out := *c
	if c.Player != nil {
		p := *c.Player
		out.Player = &p
	}
	if c.Social != nil {
		s := *c.Social
		s.Friends = append([]FriendStatus(nil), c.Social.Friends...)
		out.Social = &s
	}
	if c.Library != nil {
		l := *c.Library
		l.Recent = append([]GamePlaytime(nil), c.Library.Recent...)
		out.Library = &l
	}
	if c.Achievements != nil {
		a := *c.Achievements
		a.Games = append([]GameProgress(nil), c.Achievements.Games...)
		out.Achievements = &a
	}
	return &out
}
