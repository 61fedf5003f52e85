// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

// Package config loads and validates Steamscope configuration from defaults,
// an optional YAML file, and environment variables, in that order of
// precedence (env wins).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	Steam   SteamConfig   `koanf:"steam"`
	Tiers   TiersConfig   `koanf:"tiers"`
	Domains DomainsConfig `koanf:"domains"`
	Client  ClientConfig  `koanf:"client"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// SteamConfig identifies the API credentials and the monitored account.
type SteamConfig struct {
	APIKey  string `koanf:"api_key" validate:"required"`
	SteamID string `koanf:"steam_id" validate:"required,numeric,len=17"`
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
}

// TierConfig is the cadence of one polling tier.
type TierConfig struct {
	Interval time.Duration `koanf:"interval"`
	Offset   time.Duration `koanf:"offset"`
}

// TiersConfig holds the three tier cadences.
type TiersConfig struct {
	Fast   TierConfig `koanf:"fast"`
	Medium TierConfig `koanf:"medium"`
	Slow   TierConfig `koanf:"slow"`
}

// DomainsConfig toggles the individual collectors.
type DomainsConfig struct {
	Player       PlayerDomainConfig       `koanf:"player"`
	Social       SocialDomainConfig       `koanf:"social"`
	Library      LibraryDomainConfig      `koanf:"library"`
	Achievements AchievementsDomainConfig `koanf:"achievements"`
}

// PlayerDomainConfig configures presence collection.
type PlayerDomainConfig struct {
	Enabled bool `koanf:"enabled"`
}

// SocialDomainConfig configures friend-presence collection.
type SocialDomainConfig struct {
	Enabled     bool `koanf:"enabled"`
	FriendLimit int  `koanf:"friend_limit" validate:"min=0"`
}

// LibraryDomainConfig configures owned-games collection.
type LibraryDomainConfig struct {
	Enabled bool `koanf:"enabled"`
}

// AchievementsDomainConfig configures achievement-progress collection for a
// fixed set of tracked titles.
type AchievementsDomainConfig struct {
	Enabled bool     `koanf:"enabled"`
	AppIDs  []uint32 `koanf:"app_ids"`
}

// ClientConfig tunes the shared API client.
type ClientConfig struct {
	MinInterval    time.Duration `koanf:"min_interval"`
	Timeout        time.Duration `koanf:"timeout"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateTiers(); err != nil {
		return err
	}
	if err := c.validateDomains(); err != nil {
		return err
	}
	return c.validateClient()
}

// validateTiers enforces positive cadences in slow >= medium >= fast order.
func (c *Config) validateTiers() error {
	for name, tier := range map[string]TierConfig{
		"fast":   c.Tiers.Fast,
		"medium": c.Tiers.Medium,
		"slow":   c.Tiers.Slow,
	} {
		if tier.Interval <= 0 {
			return fmt.Errorf("tiers.%s.interval must be positive, got %v", name, tier.Interval)
		}
		if tier.Offset < 0 {
			return fmt.Errorf("tiers.%s.offset must not be negative, got %v", name, tier.Offset)
		}
	}

	if c.Tiers.Fast.Interval > c.Tiers.Medium.Interval {
		return fmt.Errorf("tiers.fast.interval (%v) must not exceed tiers.medium.interval (%v)",
			c.Tiers.Fast.Interval, c.Tiers.Medium.Interval)
	}
	if c.Tiers.Medium.Interval > c.Tiers.Slow.Interval {
		return fmt.Errorf("tiers.medium.interval (%v) must not exceed tiers.slow.interval (%v)",
			c.Tiers.Medium.Interval, c.Tiers.Slow.Interval)
	}
	return nil
}

// validateDomains requires at least one enabled collector.
func (c *Config) validateDomains() error {
	if !c.Domains.Player.Enabled && !c.Domains.Social.Enabled &&
		!c.Domains.Library.Enabled && !c.Domains.Achievements.Enabled {
		return fmt.Errorf("at least one domain must be enabled")
	}
	if c.Domains.Achievements.Enabled && len(c.Domains.Achievements.AppIDs) == 0 {
		return fmt.Errorf("domains.achievements.app_ids is required when achievements are enabled")
	}
	return nil
}

// validateClient keeps retry pacing sane.
func (c *Config) validateClient() error {
	if c.Client.MinInterval <= 0 {
		return fmt.Errorf("client.min_interval must be positive, got %v", c.Client.MinInterval)
	}
	if c.Client.RetryBaseDelay <= 0 {
		return fmt.Errorf("client.retry_base_delay must be positive, got %v", c.Client.RetryBaseDelay)
	}
	if c.Client.RetryMaxDelay < c.Client.RetryBaseDelay {
		return fmt.Errorf("client.retry_max_delay (%v) must not be below client.retry_base_delay (%v)",
			c.Client.RetryMaxDelay, c.Client.RetryBaseDelay)
	}
	return nil
}
