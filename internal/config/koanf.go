// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/steamscope/config.yaml",
	"/etc/steamscope/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied before the config file
// and environment variables.
func defaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			BaseURL: "https://api.steampowered.com",
		},
		Tiers: TiersConfig{
			// The Steam key allows 100k calls/day; these cadences leave
			// generous headroom even with every domain enabled.
			Fast:   TierConfig{Interval: 30 * time.Second},
			Medium: TierConfig{Interval: 5 * time.Minute, Offset: 7 * time.Second},
			Slow:   TierConfig{Interval: time.Hour, Offset: 13 * time.Second},
		},
		Domains: DomainsConfig{
			Player:  PlayerDomainConfig{Enabled: true},
			Social:  SocialDomainConfig{Enabled: true, FriendLimit: 100},
			Library: LibraryDomainConfig{Enabled: true},
			Achievements: AchievementsDomainConfig{
				Enabled: false, // Opt-in: needs a tracked app id list
			},
		},
		Client: ClientConfig{
			MinInterval:    1100 * time.Millisecond,
			Timeout:        30 * time.Second,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  16 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "0.0.0.0:9188",
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches CONFIG_PATH and then the default paths. Returns the
// first file that exists, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied through the environment.
var sliceConfigPaths = []string{
	"domains.achievements.app_ids",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are dropped so random environment noise never pollutes
// the configuration.
//
// Examples:
//   - STEAM_API_KEY -> steam.api_key
//   - TIER_FAST_INTERVAL -> tiers.fast.interval
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Steam credentials
		"steam_api_key":  "steam.api_key",
		"steam_id":       "steam.steam_id",
		"steam_base_url": "steam.base_url",

		// Tier cadences
		"tier_fast_interval":   "tiers.fast.interval",
		"tier_fast_offset":     "tiers.fast.offset",
		"tier_medium_interval": "tiers.medium.interval",
		"tier_medium_offset":   "tiers.medium.offset",
		"tier_slow_interval":   "tiers.slow.interval",
		"tier_slow_offset":     "tiers.slow.offset",

		// Domain toggles
		"domain_player_enabled":       "domains.player.enabled",
		"domain_social_enabled":       "domains.social.enabled",
		"domain_social_friend_limit":  "domains.social.friend_limit",
		"domain_library_enabled":      "domains.library.enabled",
		"domain_achievements_enabled": "domains.achievements.enabled",
		"domain_achievements_apps":    "domains.achievements.app_ids",

		// Client tuning
		"client_min_interval":     "client.min_interval",
		"client_timeout":          "client.timeout",
		"client_retry_base_delay": "client.retry_base_delay",
		"client_retry_max_delay":  "client.retry_max_delay",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Metrics
		"metrics_enabled": "metrics.enabled",
		"metrics_addr":    "metrics.addr",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
