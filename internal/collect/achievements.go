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

// AchievementsCollector fetches achievement progress for a configured set of
// titles. Titles are fetched sequentially so a large tracked set still flows
// through the shared request budget in order.
type AchievementsCollector struct {
	api     steam.API
	steamID string
	appIDs  []uint32
}

// NewAchievementsCollector creates an achievements collector over the given
// tracked app ids.
func NewAchievementsCollector(api steam.API, steamID string, appIDs []uint32) *AchievementsCollector {
	return &AchievementsCollector{api: api, steamID: steamID, appIDs: appIDs}
}

func (c *AchievementsCollector) Domain() Domain { return DomainAchievements }

func (c *AchievementsCollector) Collect(ctx context.Context, dst *snapshot.Composite) error {
	snap := &snapshot.Achievements{
		CapturedAt: time.Now().UTC(),
	}

	var failed int
	for _, appID := range c.appIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, err := c.api.GetPlayerAchievements(ctx, c.steamID, appID)
		if err != nil {
			if steam.IsFatal(err) {
				return fmt.Errorf("achievements app %d: %w", appID, err)
			}
			// Titles without achievement schemas respond with an error
			// payload. Skip them rather than failing the domain.
			failed++
			logging.Debug().Uint32("app_id", appID).Err(err).Msg("Achievement fetch skipped")
			continue
		}

		snap.Games = append(snap.Games, snapshot.GameProgress{
			AppID:    stats.AppID,
			GameName: stats.GameName,
			Unlocked: stats.Unlocked(),
			Total:    len(stats.Achievements),
		})
	}

	if len(c.appIDs) > 0 && failed == len(c.appIDs) {
		return fmt.Errorf("achievements: all %d tracked titles failed", failed)
	}

	dst.Achievements = snap
	return nil
}
