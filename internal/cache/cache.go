package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is the freshness window applied to registry responses
const DefaultTTL = 5 * time.Minute

// Clock returns the current time. Tests replace it to control expiry.
type Clock func() time.Time

// Entry is a single cached registry payload
type Entry struct {
	Key      string
	Payload  json.RawMessage
	StoredAt time.Time
}

// Age returns how long ago the entry was stored, relative to now
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Cache provides a simple in-memory cache with expiration.
// Stale entries are never removed, a later Store for the same key replaces them.
type Cache struct {
	entries map[string]Entry
	ttl     time.Duration
	now     Clock
	mu      sync.RWMutex
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the clock used for storing and expiring entries
func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewCache creates a new cache with the specified TTL
func NewCache(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Now returns the cache's notion of the current time
func (c *Cache) Now() time.Time {
	return c.now()
}

// Get retrieves a fresh entry from the cache.
// An entry whose age has reached the TTL is reported as missing.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return Entry{}, false
	}

	if entry.Age(c.now()) >= c.ttl {
		return Entry{}, false
	}

	return entry, true
}

// Set stores a payload under key, replacing any previous entry
func (c *Cache) Set(key string, payload json.RawMessage) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{
		Key:      key,
		Payload:  payload,
		StoredAt: c.now(),
	}
	c.entries[key] = entry
	return entry
}

// Len returns the number of stored entries, fresh or stale
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
