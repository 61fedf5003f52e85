// Steamscope - Tiered Steam Presence Monitoring
// Copyright 2026 Dan W. (danw824)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danw824/steamscope

package snapshot

import (
	"sync"

	"github.com/danw824/steamscope/internal/metrics"
)

// Store is a latest-value publication point for composite snapshots.
// Publishers never block: each subscriber channel holds one pending snapshot
// and a slow consumer simply sees the oldest update replaced by the newest.
type Store struct {
	mu     sync.RWMutex
	latest *Composite
	subs   map[chan *Composite]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		subs: make(map[chan *Composite]struct{}),
	}
}

// Publish records the snapshot as the latest and fans it out to subscribers.
func (s *Store) Publish(c *Composite) {
	if c == nil {
		return
	}

	s.mu.Lock()
	s.latest = c
	for ch := range s.subs {
		// Drop the stale pending value so the newest always wins.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
		}
	}
	s.mu.Unlock()

	metrics.SnapshotsPublishedTotal.Inc()
}

// Latest returns the most recently published snapshot, or nil before the
// first cycle completes.
func (s *Store) Latest() *Composite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Subscribe registers a consumer. The returned channel carries at most one
// pending snapshot. Call the cancel function to unsubscribe.
func (s *Store) Subscribe() (<-chan *Composite, func()) {
	ch := make(chan *Composite, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if s.latest != nil {
		ch <- s.latest
	}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the current subscriber count.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
