// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

// Package collect implements the per-domain data collectors and the
// aggregator that fans them out, merges their results into a composite
// snapshot, and isolates domain failures from each other.
package collect

import (
	"context"

	"github.com/danw824/steamscope/internal/snapshot"
)

// Domain identifies one collection concern.
type Domain string

const (
	DomainPlayer       Domain = "player"
	DomainSocial       Domain = "social"
	DomainLibrary      Domain = "library"
	DomainAchievements Domain = "achievements"
)

// Collector fetches one domain's view and writes it into the composite.
// Implementations write only their own field of dst; the aggregator
// guarantees no two collectors share a domain within a cycle.
//
// A returned error marks the domain degraded for this cycle. It never aborts
// sibling collectors.
type Collector interface {
	Domain() Domain
	Collect(ctx context.Context, dst *snapshot.Composite) error
}
