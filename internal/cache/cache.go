// Package cache holds the most recent backend listing per directory
// address. The lifecycle controller renders from it, the parser
// resolves hidden identifiers through it, and navigation consults it
// to detect name collisions with uncommitted entries.
package cache

import (
	"strconv"
	"sync"

	"vdir/internal/entry"
	"vdir/internal/url"
)

// Cache is safe to call from multiple goroutines.
type Cache struct {
	mu     sync.RWMutex
	nextID int
	byID   map[string]entry.Entry
	byURL  map[string]map[string]entry.Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		nextID: 1,
		byID:   make(map[string]entry.Entry),
		byURL:  make(map[string]map[string]entry.Entry),
	}
}

// Store replaces the cached listing for a directory address. Entries
// without an identifier are assigned one; identifiers are unique for
// the cache lifetime and never reused. The stored entries (with ids)
// are returned in input order.
func (c *Cache) Store(u url.URL, entries []entry.Entry) []entry.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop identifiers of the listing being replaced.
	if old, ok := c.byURL[u.String()]; ok {
		for _, e := range old {
			delete(c.byID, e.ID)
		}
	}

	byName := make(map[string]entry.Entry, len(entries))
	out := make([]entry.Entry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = strconv.Itoa(c.nextID)
			c.nextID++
		}
		c.byID[e.ID] = e
		byName[e.Name] = e
		out[i] = e
	}
	c.byURL[u.String()] = byName
	return out
}

// ListURL returns the cached listing for a directory address as a
// name-to-entry map, or nil when nothing is cached.
func (c *Cache) ListURL(u url.URL) map[string]entry.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.byURL[u.String()]
	if !ok {
		return nil
	}
	out := make(map[string]entry.Entry, len(cached))
	for name, e := range cached {
		out[name] = e
	}
	return out
}

// ByID resolves a hidden identifier to its backend entry.
func (c *Cache) ByID(id string) (entry.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	return e, ok
}

// Drop forgets the listing for a directory address.
func (c *Cache) Drop(u url.URL) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byURL[u.String()]; ok {
		for _, e := range old {
			delete(c.byID, e.ID)
		}
		delete(c.byURL, u.String())
	}
}
