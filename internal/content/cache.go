package content

import (
	"strings"
	"sync"
	"time"

	"fincoach/internal/persona"
)

// generatedEntry is one cached generative result.
type generatedEntry struct {
	items     []Item
	createdAt time.Time
}

// GeneratedCache holds recent generative results per (user, persona) so the
// model is not re-queried on every pipeline run. Injected so tests can use a
// zero-TTL instance.
type GeneratedCache struct {
	mu   sync.RWMutex
	data map[string]generatedEntry
	ttl  time.Duration
}

func NewGeneratedCache(ttl time.Duration) *GeneratedCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &GeneratedCache{data: make(map[string]generatedEntry), ttl: ttl}
}

func cacheKey(userID string, p persona.Persona) string {
	return strings.TrimSpace(userID) + "|" + string(p)
}

// Get returns the cached items for (user, persona) if present and fresh.
func (c *GeneratedCache) Get(userID string, p persona.Persona, now time.Time) ([]Item, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.data[cacheKey(userID, p)]
	c.mu.RUnlock()
	if !ok || now.Sub(entry.createdAt) > c.ttl {
		return nil, false
	}
	return append([]Item(nil), entry.items...), true
}

// Set stores items for (user, persona).
func (c *GeneratedCache) Set(userID string, p persona.Persona, items []Item, now time.Time) {
	if c == nil || len(items) == 0 {
		return
	}
	c.mu.Lock()
	c.data[cacheKey(userID, p)] = generatedEntry{
		items:     append([]Item(nil), items...),
		createdAt: now,
	}
	c.mu.Unlock()
}

// Delete drops the cached entry for a user across all personas.
func (c *GeneratedCache) Delete(userID string) {
	if c == nil {
		return
	}
	prefix := strings.TrimSpace(userID) + "|"
	c.mu.Lock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()
}
