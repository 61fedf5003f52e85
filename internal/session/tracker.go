// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

// Package session derives play sessions from consecutive presence
// observations. A session opens when the monitored player is first seen in a
// game, continues while the same game id keeps appearing, and closes when the
// game id disappears or changes. The tracker keeps a rolling average of
// completed session lengths across the process lifetime.
//
// Degraded observations (a presence fetch that failed) are ignored entirely:
// a missed poll must never be mistaken for the player going offline.
package session

import (
	"sync"
	"time"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/metrics"
	"github.com/danw824/steamscope/internal/snapshot"
)

// Tracker is a single-player session state machine. Safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	// now is swappable for tests.
	now func() time.Time

	active     bool
	gameID     string
	gameName   string
	startedAt  time.Time
	completed  int
	avgMinutes float64
}

// NewTracker creates a tracker with no session history.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Observe feeds one presence observation into the state machine. Observations
// flagged as errored are discarded without touching session state.
func (t *Tracker) Observe(player *snapshot.Player) {
	if player == nil || player.Err {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	inGame := player.GameID != ""

	switch {
	case !t.active && inGame:
		t.open(player)

	case t.active && inGame && player.GameID != t.gameID:
		// Switched games without an offline gap: one session ends, the
		// next begins at the same instant.
		t.close()
		t.open(player)

	case t.active && !inGame:
		t.close()

	case t.active && inGame:
		// Same game, session continues. Pick up a late-arriving name.
		if t.gameName == "" && player.GameName != "" {
			t.gameName = player.GameName
		}
	}
}

// open starts a session. Caller holds t.mu.
func (t *Tracker) open(player *snapshot.Player) {
	t.active = true
	t.gameID = player.GameID
	t.gameName = player.GameName
	t.startedAt = t.now()

	metrics.SessionActive.Set(1)

	logging.Info().
		Str("game_id", t.gameID).
		Str("game_name", t.gameName).
		Msg("Play session started")
}

// close ends the active session and folds its length into the rolling
// average. Caller holds t.mu.
func (t *Tracker) close() {
	duration := t.now().Sub(t.startedAt)
	minutes := duration.Minutes()

	t.completed++
	t.avgMinutes += (minutes - t.avgMinutes) / float64(t.completed)

	metrics.SessionActive.Set(0)
	metrics.SessionDurationMinutes.Observe(minutes)
	metrics.SessionsCompletedTotal.Inc()
	metrics.SessionAverageMinutes.Set(t.avgMinutes)

	logging.Info().
		Str("game_id", t.gameID).
		Str("game_name", t.gameName).
		Float64("duration_minutes", minutes).
		Float64("average_minutes", t.avgMinutes).
		Int("completed", t.completed).
		Msg("Play session ended")

	t.active = false
	t.gameID = ""
	t.gameName = ""
	t.startedAt = time.Time{}
}

// Snapshot returns the current session view. DurationMinutes reflects the
// in-progress session and is zero when no session is active.
func (t *Tracker) Snapshot() snapshot.SessionInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	info := snapshot.SessionInfo{
		Active:         t.active,
		AverageMinutes: t.avgMinutes,
		Completed:      t.completed,
	}
	if t.active {
		info.GameID = t.gameID
		info.GameName = t.gameName
		info.StartedAt = t.startedAt
		info.DurationMinutes = t.now().Sub(t.startedAt).Minutes()
	}
	return info
}
