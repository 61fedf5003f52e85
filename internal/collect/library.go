// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
)

// recentGamesCount bounds the recently-played list per cycle.
const recentGamesCount = 10

// LibraryCollector fetches owned-game totals and recent playtime.
type LibraryCollector struct {
	api     steam.API
	steamID string
}

// NewLibraryCollector creates a library collector for one account.
func NewLibraryCollector(api steam.API, steamID string) *LibraryCollector {
	return &LibraryCollector{api: api, steamID: steamID}
}

func (c *LibraryCollector) Domain() Domain { return DomainLibrary }

func (c *LibraryCollector) Collect(ctx context.Context, dst *snapshot.Composite) error {
	owned, err := c.api.GetOwnedGames(ctx, c.steamID)
	if err != nil {
		return fmt.Errorf("owned games: %w", err)
	}

	library := &snapshot.Library{
		GameCount:  owned.GameCount,
		CapturedAt: time.Now().UTC(),
	}
	for _, g := range owned.Games {
		library.TotalPlaytimeM += int(g.PlaytimeForever)
	}

	// Recent playtime is a nice-to-have on top of the totals.
	recent, err := c.api.GetRecentlyPlayedGames(ctx, c.steamID, recentGamesCount)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("Recently played fetch failed, keeping totals only")
	}
	for _, g := range recent {
		library.Recent = append(library.Recent, snapshot.GamePlaytime{
			AppID:          g.AppID,
			Name:           g.Name,
			PlaytimeTotalM: int(g.PlaytimeForever),
			Playtime2WkM:   int(g.Playtime2Weeks),
		})
	}

	dst.Library = library
	return nil
}
