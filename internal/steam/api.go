// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

/*
api.go - Typed Steam Web API Endpoint Methods

This file defines the API interface consumed by the domain collectors, the
response structs for each endpoint, and the Client methods implementing them.

Endpoints:
  - GET /ISteamUser/GetPlayerSummaries/v2 - Persona and in-game state
  - GET /ISteamUser/GetFriendList/v1 - Friend roster
  - GET /IPlayerService/GetOwnedGames/v1 - Owned library
  - GET /IPlayerService/GetRecentlyPlayedGames/v1 - Recent playtime
  - GET /ISteamUserStats/GetPlayerAchievements/v1 - Per-game achievements

All requests carry the API key; responses are JSON.
*/

//nolint:staticcheck // File documentation, not package doc
package steam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Persona state values reported by GetPlayerSummaries.
const (
	PersonaOffline = 0
	PersonaOnline  = 1
	PersonaBusy    = 2
	PersonaAway    = 3
	PersonaSnooze  = 4
)

// API defines the Steam Web API operations used by the domain collectors.
//
// It is implemented by Client for production use and by mock implementations
// for testing. All methods accept a context for cancellation and timeout
// support and are safe for concurrent use; every call is serialized on the
// shared rate budget.
type API interface {
	Ping(ctx context.Context, steamID string) error
	GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error)
	GetPlayerSummaries(ctx context.Context, steamIDs []string) ([]PlayerSummary, error)
	GetFriendList(ctx context.Context, steamID string) ([]Friend, error)
	GetOwnedGames(ctx context.Context, steamID string) (*OwnedGames, error)
	GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) ([]OwnedGame, error)
	GetPlayerAchievements(ctx context.Context, steamID string, appID uint32) (*GameAchievements, error)
}

// PlayerSummary represents one player entry from GetPlayerSummaries.
type PlayerSummary struct {
	SteamID       string `json:"steamid"`
	PersonaName   string `json:"personaname"`
	PersonaState  int    `json:"personastate"`  // 0=offline, 1=online, 2=busy, 3=away, 4=snooze
	GameID        string `json:"gameid"`        // Set only while in-game
	GameExtraInfo string `json:"gameextrainfo"` // Display name of the running game
	LastLogoff    int64  `json:"lastlogoff"`    // Unix timestamp
}

// InGame reports whether the player is currently running a game.
func (p *PlayerSummary) InGame() bool {
	return p.GameID != ""
}

// playerSummariesResponse is the wrapper returned by GetPlayerSummaries.
type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

// Friend represents one entry from GetFriendList.
type Friend struct {
	SteamID     string `json:"steamid"`
	FriendSince int64  `json:"friend_since"` // Unix timestamp
}

// friendListResponse is the wrapper returned by GetFriendList.
type friendListResponse struct {
	FriendsList struct {
		Friends []Friend `json:"friends"`
	} `json:"friendslist"`
}

// OwnedGame represents one game entry from GetOwnedGames or
// GetRecentlyPlayedGames. Playtime values are minutes.
type OwnedGame struct {
	AppID           uint32 `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"`
	Playtime2Weeks  int64  `json:"playtime_2weeks"`
	LastPlayed      int64  `json:"rtime_last_played"` // Unix timestamp
}

// OwnedGames is the decoded result of GetOwnedGames.
type OwnedGames struct {
	GameCount int
	Games     []OwnedGame
}

// ownedGamesResponse is the wrapper returned by GetOwnedGames and
// GetRecentlyPlayedGames (the latter uses total_count instead of game_count).
type ownedGamesResponse struct {
	Response struct {
		GameCount  int         `json:"game_count"`
		TotalCount int         `json:"total_count"`
		Games      []OwnedGame `json:"games"`
	} `json:"response"`
}

// Achievement represents one achievement entry from GetPlayerAchievements.
type Achievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"` // 1 = unlocked
	UnlockTime int64  `json:"unlocktime"`
}

// GameAchievements is the decoded result of GetPlayerAchievements for one app.
type GameAchievements struct {
	AppID        uint32
	GameName     string
	Achievements []Achievement
}

// Unlocked returns the count of unlocked achievements.
func (g *GameAchievements) Unlocked() int {
	n := 0
	for _, a := range g.Achievements {
		if a.Achieved == 1 {
			n++
		}
	}
	return n
}

// playerAchievementsResponse is the wrapper returned by GetPlayerAchievements.
type playerAchievementsResponse struct {
	PlayerStats struct {
		GameName     string        `json:"gameName"`
		Achievements []Achievement `json:"achievements"`
		Success      bool          `json:"success"`
		Error        string        `json:"error"`
	} `json:"playerstats"`
}

// Ping verifies connectivity and credential validity with a single
// GetPlayerSummaries call for the monitored account. A 401/403 surfaces as a
// fatal-classified error, which the scheduler treats as an unrecoverable
// startup failure.
func (c *Client) Ping(ctx context.Context, steamID string) error {
	if _, err := c.GetPlayerSummaries(ctx, []string{steamID}); err != nil {
		return fmt.Errorf("steam ping: %w", err)
	}
	return nil
}

// GetPlayerSummaries fetches persona state for up to 100 SteamIDs in one call.
func (c *Client) GetPlayerSummaries(ctx context.Context, steamIDs []string) ([]PlayerSummary, error) {
	params := url.Values{}
	params.Set("steamids", strings.Join(steamIDs, ","))

	var resp playerSummariesResponse
	if err := c.get(ctx, "ISteamUser/GetPlayerSummaries/v2", params, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Players, nil
}

// GetPlayerSummary fetches the persona state of a single player.
// Returns an error when the API omits the player (private or unknown profile).
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	players, err := c.GetPlayerSummaries(ctx, []string{steamID})
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("no player data for steamid %s", steamID)
	}
	return &players[0], nil
}

// GetFriendList fetches the friend roster of the given account.
// Only works for public friend lists; a private list yields an error response.
func (c *Client) GetFriendList(ctx context.Context, steamID string) ([]Friend, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("relationship", "friend")

	var resp friendListResponse
	if err := c.get(ctx, "ISteamUser/GetFriendList/v1", params, &resp); err != nil {
		return nil, err
	}
	return resp.FriendsList.Friends, nil
}

// GetOwnedGames fetches the full owned library with app names and playtime.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) (*OwnedGames, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	var resp ownedGamesResponse
	if err := c.get(ctx, "IPlayerService/GetOwnedGames/v1", params, &resp); err != nil {
		return nil, err
	}
	return &OwnedGames{
		GameCount: resp.Response.GameCount,
		Games:     resp.Response.Games,
	}, nil
}

// GetRecentlyPlayedGames fetches games played in the last two weeks.
// count bounds the result size; 0 returns all.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) ([]OwnedGame, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	var resp ownedGamesResponse
	if err := c.get(ctx, "IPlayerService/GetRecentlyPlayedGames/v1", params, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Games, nil
}

// GetPlayerAchievements fetches achievement state for one app.
// The Steam API reports per-call success inside the payload; a false success
// flag (private stats, app without achievements) is returned as an error for
// the collector to degrade on.
func (c *Client) GetPlayerAchievements(ctx context.Context, steamID string, appID uint32) (*GameAchievements, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("appid", strconv.FormatUint(uint64(appID), 10))

	var resp playerAchievementsResponse
	if err := c.get(ctx, "ISteamUserStats/GetPlayerAchievements/v1", params, &resp); err != nil {
		return nil, err
	}
	if !resp.PlayerStats.Success {
		msg := resp.PlayerStats.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("achievements for app %d: %s", appID, msg)
	}
	return &GameAchievements{
		AppID:        appID,
		GameName:     resp.PlayerStats.GameName,
		Achievements: resp.PlayerStats.Achievements,
	}, nil
}
