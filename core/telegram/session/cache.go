// Package session provides a short-lived per-user cache for transient UI
// state, such as the message id of an open paginated view. It is
// intentionally domain-agnostic so it can be reused across bots.
package session

import (
	"sync"
	"time"
)

const defaultTTL = 30 * time.Minute

type entry struct {
	values  map[string]interface{}
	touched time.Time
}

// Cache stores keyed values per user with TTL-based eviction. Stale entries
// are collected lazily on access so abandoned views do not accumulate for
// the lifetime of the process.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]*entry
}

// NewCache constructs a Cache; ttl <= 0 selects the default of 30 minutes.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[int64]*entry),
	}
}

// Set stores a value for the given user, creating the entry if necessary.
func (c *Cache) Set(userID int64, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictStale()
	e, ok := c.entries[userID]
	if !ok {
		e = &entry{values: make(map[string]interface{})}
		c.entries[userID] = e
	}
	e.values[key] = value
	e.touched = time.Now()
}

// Get retrieves a value by key for the given user.
func (c *Cache) Get(userID int64, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictStale()
	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	v, ok := e.values[key]
	return v, ok
}

// GetInt retrieves a value by key and asserts it as int.
func (c *Cache) GetInt(userID int64, key string) (int, bool) {
	v, ok := c.Get(userID, key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// Delete removes a single key for the given user.
func (c *Cache) Delete(userID int64, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[userID]; ok {
		delete(e.values, key)
		if len(e.values) == 0 {
			delete(c.entries, userID)
		}
	}
}

// Clear removes all cached state for the given user.
func (c *Cache) Clear(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// evictStale drops entries whose last touch is older than the TTL.
// Caller must hold the mutex.
func (c *Cache) evictStale() {
	cutoff := time.Now().Add(-c.ttl)
	for id, e := range c.entries {
		if e.touched.Before(cutoff) {
			delete(c.entries, id)
		}
	}
}
