// Package viewcache keeps the detail and list views the presentation layer
// already fetched. Committed transitions flag affected entries stale; the
// cache never mutates cached records itself, consumers refetch flagged
// views on next render.
package viewcache

import (
	"sync"
	"time"

	claims "github.com/goliatone/go-claims"
	"github.com/goliatone/go-claims/transition"
)

type detailEntry struct {
	claim    *claims.Claim
	storedAt time.Time
	stale    bool
}

type listEntry struct {
	items    []claims.Projection
	storedAt time.Time
	stale    bool
}

// Cache is a mutex-guarded view store keyed by claim id (details) and by a
// caller-chosen key such as a filter expression (lists).
type Cache struct {
	mu      sync.RWMutex
	details map[string]*detailEntry
	lists   map[string]*listEntry
	logger  claims.Logger
}

var _ transition.Invalidator = (*Cache)(nil)

// Option customizes the cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(logger claims.Logger) Option {
	return func(c *Cache) {
		c.logger = claims.NormalizeLogger(logger)
	}
}

// New builds an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		details: make(map[string]*detailEntry),
		lists:   make(map[string]*listEntry),
		logger:  claims.NormalizeLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// PutDetail stores a fetched record, replacing any previous entry.
func (c *Cache) PutDetail(claim *claims.Claim) {
	if claim == nil || claim.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[claim.ID] = &detailEntry{
		claim:    claim.Clone(),
		storedAt: time.Now().UTC(),
	}
}

// Detail returns a copy of the cached record and whether it is still
// fresh. Flagged entries return ok=false so the caller refetches.
func (c *Cache) Detail(claimID string) (*claims.Claim, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.details[claimID]
	if !ok || entry.stale {
		return nil, false
	}
	return entry.claim.Clone(), true
}

// PutList stores a fetched list view under the caller's key.
func (c *Cache) PutList(key string, items []claims.Projection) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = &listEntry{
		items:    append([]claims.Projection(nil), items...),
		storedAt: time.Now().UTC(),
	}
}

// List returns a copy of the cached list view and whether it is fresh.
func (c *Cache) List(key string) ([]claims.Projection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.lists[key]
	if !ok || entry.stale {
		return nil, false
	}
	return append([]claims.Projection(nil), entry.items...), true
}

// InvalidateDetail flags one record view stale.
func (c *Cache) InvalidateDetail(claimID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.details[claimID]; ok {
		entry.stale = true
	}
}

// InvalidateLists flags every list view stale. A committed transition
// moves the claim between status-scoped lists, and which cached list it
// enters cannot be known client-side, so all of them must refetch.
func (c *Cache) InvalidateLists(claimID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lists) == 0 {
		return
	}
	for _, entry := range c.lists {
		entry.stale = true
	}
	c.logger.Debug("flagged %d list view(s) stale after claim %s moved", len(c.lists), claimID)
}

// SweepStale drops flagged entries and entries older than maxAge, and
// returns how many were removed. The janitor runs this periodically.
func (c *Cache) SweepStale(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.details {
		if entry.stale || entry.storedAt.Before(cutoff) {
			delete(c.details, id)
			removed++
		}
	}
	for key, entry := range c.lists {
		if entry.stale || entry.storedAt.Before(cutoff) {
			delete(c.lists, key)
			removed++
		}
	}
	return removed
}

// Len reports how many entries the cache currently holds, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.details) + len(c.lists)
}
