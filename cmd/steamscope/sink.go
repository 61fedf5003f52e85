// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package main

import (
	"context"

	"github.com/danw824/steamscope/internal/logging"
	"github.com/danw824/steamscope/internal/snapshot"
)

// consoleSink subscribes to the snapshot store and logs a status line per
// published composite. It runs as a telemetry service so a wedged consumer
// can be restarted without touching the engine.
type consoleSink struct {
	store *snapshot.Store
}

func newConsoleSink(store *snapshot.Store) *consoleSink {
	return &consoleSink{store: store}
}

// Serve implements suture.Service.
func (s *consoleSink) Serve(ctx context.Context) error {
	ch, cancel := s.store.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case comp, ok := <-ch:
			if !ok {
				return nil
			}
			s.report(comp)
		}
	}
}

func (s *consoleSink) report(comp *snapshot.Composite) {
	evt := logging.Info().
		Str("tier", comp.Tier).
		Str("status", string(comp.Status))

	if comp.Player != nil {
		evt = evt.Str("persona", comp.Player.PersonaName)
		if comp.Player.GameName != "" {
			evt = evt.Str("game", comp.Player.GameName)
		}
	}
	if comp.Social != nil {
		evt = evt.Int("friends_online", comp.Social.OnlineCount)
	}
	if comp.Session.Active {
		evt = evt.Float64("session_minutes", comp.Session.DurationMinutes)
	}
	if comp.Details != "" {
		evt = evt.Str("details", comp.Details)
	}

	evt.Msg("Snapshot")
}

// String implements fmt.Stringer for supervisor logs.
func (s *consoleSink) String() string { return "console-sink" }
