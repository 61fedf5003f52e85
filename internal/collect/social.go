// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package collect

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
)

// SocialCollector fetches the friend list and enriches it with presence for
// up to friendLimit friends. Enrichment failures degrade to an unenriched
// list rather than failing the domain.
type SocialCollector struct {
	api         steam.API
	steamID     string
	friendLimit int
}

// NewSocialCollector creates a social collector. friendLimit bounds how many
// friends are enriched with presence per cycle; zero or negative disables the
// bound.
func NewSocialCollector(api steam.API, steamID string, friendLimit int) *SocialCollector {
	return &SocialCollector{api: api, steamID: steamID, friendLimit: friendLimit}
}

func (c *SocialCollector) Domain() Domain { return DomainSocial }

func (c *SocialCollector) Collect(ctx context.Context, dst *snapshot.Composite) error {
	friends, err := c.api.GetFriendList(ctx, c.steamID)
	if err != nil {
		return fmt.Errorf("friend list: %w", err)
	}

	social := &snapshot.Social{
		FriendCount: len(friends),
		CapturedAt:  time.Now().UTC(),
	}

	// Most recently added friends first, so truncation keeps the ones the
	// player actually interacts with.
	sort.Slice(friends, func(i, j int) bool {
		return friends[i].FriendSince > friends[j].FriendSince
	})
	if c.friendLimit > 0 && len(friends) > c.friendLimit {
		friends = friends[:c.friendLimit]
		social.Truncated = true
	}

	statuses, err := c.enrich(ctx, friends)
	if err != nil {
		return err
	}
	social.Friends = statuses

	for _, f := range social.Friends {
		if f.PersonaState != steam.PersonaOffline {
			social.OnlineCount++
		}
		if f.GameID != "" {
			social.InGameCount++
		}
	}

	dst.Social = social
	return nil
}

// enrich resolves presence one friend at a time, with the rate-limited
// client pacing each call. Cancellation is checked between calls so shutdown
// never waits out a long roster. A friend whose profile cannot be fetched
// keeps a bare entry rather than failing the whole list.
func (c *SocialCollector) enrich(ctx context.Context, friends []steam.Friend) ([]snapshot.FriendStatus, error) {
	statuses := make([]snapshot.FriendStatus, 0, len(friends))
	failed := 0

	for _, f := range friends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := c.api.GetPlayerSummary(ctx, f.SteamID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			statuses = append(statuses, snapshot.FriendStatus{SteamID: f.SteamID})
			continue
		}
		statuses = append(statuses, snapshot.FriendStatus{
			SteamID:      s.SteamID,
			PersonaName:  s.PersonaName,
			PersonaState: s.PersonaState,
			GameID:       s.GameID,
			GameName:     s.GameExtraInfo,
		})
	}

	if failed > 0 {
		logging.Warn().
			Int("failed", failed).
			Int("total", len(friends)).
			Msg("Some friend profiles could not be enriched")
	}
	return statuses, nil
}
