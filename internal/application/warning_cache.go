package application

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/directus-governance/internal/scheduler"
)

// warningCache stores recently computed conflict warnings per meeting so repeated
// lookups skip the detector while meetings remain unchanged.
type warningCache struct {
	now     func() time.Time
	ttl     time.Duration
	entries *lru.Cache[string, warningCacheEntry]
}

type warningCacheEntry struct {
	warnings  []scheduler.Conflict
	expiresAt time.Time
}

func newWarningCache(ttl time.Duration, maxEntries int, now func() time.Time) *warningCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, warningCacheEntry](maxEntries)
	return &warningCache{now: now, ttl: ttl, entries: entries}
}

func (c *warningCache) Get(key string) ([]scheduler.Conflict, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return cloneWarnings(entry.warnings), true
}

func (c *warningCache) Store(key string, warnings []scheduler.Conflict) {
	if c == nil {
		return
	}
	c.entries.Add(key, warningCacheEntry{warnings: cloneWarnings(warnings), expiresAt: c.now().Add(c.ttl)})
}

func (c *warningCache) Invalidate() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *warningCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cloneWarnings(warnings []scheduler.Conflict) []scheduler.Conflict {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]scheduler.Conflict, len(warnings))
	copy(out, warnings)
	return out
}
