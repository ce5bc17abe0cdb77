// Package models validates requested model names against the provider's
// published list, keeping a short-lived in-memory copy of that list.
package models

import (
	"slices"
	"sync/atomic"
	"time"
)

// Snapshot is one complete model listing and the time it was fetched.
type Snapshot struct {
	Models    []string
	UpdatedAt time.Time
}

// Contains reports whether name is in the snapshot.
func (s *Snapshot) Contains(name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Models, name)
}

// Cache holds the latest snapshot. Writers replace the whole snapshot, so
// readers always see either the previous list or the new one.
type Cache struct {
	ttl  time.Duration
	snap atomic.Pointer[Snapshot]
}

// NewCache creates an empty cache.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Load returns the current snapshot, or nil if nothing was ever stored.
func (c *Cache) Load() *Snapshot {
	return c.snap.Load()
}

// Store replaces the snapshot. The slice is copied.
func (c *Cache) Store(models []string, at time.Time) {
	c.snap.Store(&Snapshot{Models: slices.Clone(models), UpdatedAt: at})
}

// Fresh returns the snapshot if it is younger than the TTL and non-empty.
func (c *Cache) Fresh(now time.Time) (*Snapshot, bool) {
	s := c.snap.Load()
	if s == nil || len(s.Models) == 0 {
		return nil, false
	}
	if now.Sub(s.UpdatedAt) >= c.ttl {
		return nil, false
	}
	return s, true
}

// Stale returns the snapshot regardless of age, provided it is non-empty.
func (c *Cache) Stale() (*Snapshot, bool) {
	s := c.snap.Load()
	if s == nil || len(s.Models) == 0 {
		return nil, false
	}
	return s, true
}
