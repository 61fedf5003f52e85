// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

// Package main is the entry point for the Steamscope daemon.
//
// Steamscope monitors a single Steam account through the public Steam Web
// API: presence and in-game status, friends online, library playtime, and
// achievement progress. Because the API is rate limited, collection is split
// into three tiers that each poll on their own cadence:
//
//   - fast: player presence (drives play-session tracking)
//   - medium: friends online
//   - slow: owned games and achievement progress
//
// All requests flow through one shared client that enforces a minimum gap
// between calls, retries transient failures with exponential backoff, and
// trips a circuit breaker when the API is persistently unhealthy.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (STEAM_API_KEY, STEAM_ID, TIER_FAST_INTERVAL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Minimal setup:
//
//	export STEAM_API_KEY=your-web-api-key
//	export STEAM_ID=76561198000000001
//	./steamscope
//
// # Signal Handling
//
// The daemon shuts down gracefully on SIGINT and SIGTERM: tiers stop arming
// new cycles, in-flight cycles unwind, and the metrics endpoint drains with
// a 10s timeout. SIGHUP re-reads configuration; only the log level applies
// without a restart.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/danw824/steamscope/internal/collect"
	"github.com/danw824/steamscope/internal/config"
	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/scheduler"
	"github.com/danw824/steamscope/internal/session"
	"github.com/danw824/steamscope/internal/snapshot"
	"github.com/danw824/steamscope/internal/steam"
	"github.com/danw824/steamscope/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("steam_id", cfg.Steam.SteamID).
		Dur("fast_interval", cfg.Tiers.Fast.Interval).
		Dur("medium_interval", cfg.Tiers.Medium.Interval).
		Dur("slow_interval", cfg.Tiers.Slow.Interval).
		Msg("Starting Steamscope")

	// Shared rate-limited client, wrapped in a circuit breaker so a
	// persistently failing API stops burning the request budget.
	client := steam.NewClient(steam.Config{
		BaseURL:        cfg.Steam.BaseURL,
		APIKey:         cfg.Steam.APIKey,
		MinInterval:    cfg.Client.MinInterval,
		Timeout:        cfg.Client.Timeout,
		RetryBaseDelay: cfg.Client.RetryBaseDelay,
		RetryMaxDelay:  cfg.Client.RetryMaxDelay,
	})
	api := steam.NewCircuitBreakerClient(client)

	store := snapshot.NewStore()
	tracker := session.NewTracker()
	agg := collect.NewAggregator(store, tracker)
	sched := scheduler.NewScheduler(api, cfg.Steam.SteamID, agg, buildTiers(cfg, api))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(sched)
	tree.AddTelemetryService(newConsoleSink(store))

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		tree.AddTelemetryService(supervisor.NewHTTPService("metrics-server", metricsServer, 10*time.Second))
		logging.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics endpoint enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				reloadConfig()
				continue
			}
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
			return
		}
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			if errors.Is(err, suture.ErrTerminateSupervisorTree) {
				// Startup failed permanently (bad credentials or tier
				// config); a restart loop cannot fix it.
				logging.Fatal().Err(err).Msg("Startup failed, supervisor tree terminated")
			}
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Steamscope stopped")
}

// reloadConfig re-reads configuration on SIGHUP. Only the log level applies
// live; credentials and tier cadences take effect on the next restart.
func reloadConfig() {
	cfg, err := config.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("Config reload failed, keeping current settings")
		return
	}
	logging.SetLevelString(cfg.Logging.Level)
	logging.Info().Str("level", cfg.Logging.Level).Msg("Configuration reloaded")
}

// buildTiers maps enabled domains onto the three polling tiers.
func buildTiers(cfg *config.Config, api steam.API) []scheduler.Tier {
	var tiers []scheduler.Tier

	if cfg.Domains.Player.Enabled {
		tiers = append(tiers, scheduler.Tier{
			Name:     scheduler.TierFast,
			Interval: cfg.Tiers.Fast.Interval,
			Offset:   cfg.Tiers.Fast.Offset,
			Collectors: []collect.Collector{
				collect.NewPlayerCollector(api, cfg.Steam.SteamID),
			},
		})
	}

	if cfg.Domains.Social.Enabled {
		tiers = append(tiers, scheduler.Tier{
			Name:     scheduler.TierMedium,
			Interval: cfg.Tiers.Medium.Interval,
			Offset:   cfg.Tiers.Medium.Offset,
			Collectors: []collect.Collector{
				collect.NewSocialCollector(api, cfg.Steam.SteamID, cfg.Domains.Social.FriendLimit),
			},
		})
	}

	var slow []collect.Collector
	if cfg.Domains.Library.Enabled {
		slow = append(slow, collect.NewLibraryCollector(api, cfg.Steam.SteamID))
	}
	if cfg.Domains.Achievements.Enabled {
		slow = append(slow, collect.NewAchievementsCollector(api, cfg.Steam.SteamID, cfg.Domains.Achievements.AppIDs))
	}
	if len(slow) > 0 {
		tiers = append(tiers, scheduler.Tier{
			Name:       scheduler.TierSlow,
			Interval:   cfg.Tiers.Slow.Interval,
			Offset:     cfg.Tiers.Slow.Offset,
			Collectors: slow,
		})
	}

	return tiers
}
