// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
)

// PlayerCollector fetches the monitored account's presence summary.
type PlayerCollector struct {
	api     steam.API
	steamID string
}

// NewPlayerCollector creates a presence collector for one account.
func NewPlayerCollector(api steam.API, steamID string) *PlayerCollector {
	return &PlayerCollector{api: api, steamID: steamID}
}

func (c *PlayerCollector) Domain() Domain { return DomainPlayer }

func (c *PlayerCollector) Collect(ctx context.Context, dst *snapshot.Composite) error {
	summary, err := c.api.GetPlayerSummary(ctx, c.steamID)
	if err != nil {
		return fmt.Errorf("player summary: %w", err)
	}

	player := &snapshot.Player{
		SteamID:      summary.SteamID,
		PersonaName:  summary.PersonaName,
		PersonaState: summary.PersonaState,
		GameID:       summary.GameID,
		GameName:     summary.GameExtraInfo,
		CapturedAt:   time.Now().UTC(),
	}
	if summary.LastLogoff > 0 {
		player.LastLogoff = time.Unix(summary.LastLogoff, 0).UTC()
	}

	dst.Player = player
	return nil
}
