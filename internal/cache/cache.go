// Package cache holds the working set of news items with TTL expiry.
package cache

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/DeafMist/assembly-news-radar/internal/models"
)

// Cache keeps news items keyed by content id. Entries are removed by Sweep
// once their cached-at age exceeds the ttl, or when capacity is exceeded.
type Cache struct {
	mu       sync.Mutex
	items    map[string]models.NewsItem
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the provided capacity and ttl. A nil clock
// uses time.Now. A non-positive capacity means unbounded.
func NewCache(capacity int, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		items:    make(map[string]models.NewsItem),
		capacity: capacity,
		ttl:      ttl,
		now:      now,
	}
}

// TTL returns the retention duration.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Upsert stores item, replacing any entry with the same id. An existing
// entry keeps its cached-at. It reports whether the id was new.
func (c *Cache) Upsert(item models.NewsItem) bool {
	return c.put(item, false)
}

// Refresh stores item like Upsert but touches cached-at to the current
// time. cached-at never moves backwards.
func (c *Cache) Refresh(item models.NewsItem) bool {
	return c.put(item, true)
}

func (c *Cache) put(item models.NewsItem, touch bool) bool {
	now := c.now()
	item = item.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, exists := c.items[item.ID]
	switch {
	case !exists:
		if item.CachedAt.IsZero() || touch {
			item.CachedAt = now
		}
	case touch && now.After(prev.CachedAt):
		item.CachedAt = now
	default:
		item.CachedAt = prev.CachedAt
	}
	c.items[item.ID] = item

	if !exists {
		c.compact()
	}
	return !exists
}

// compact evicts the oldest entries while over capacity.
func (c *Cache) compact() {
	if c.capacity <= 0 {
		return
	}
	for len(c.items) > c.capacity {
		var oldestKey string
		var oldest time.Time
		first := true
		for key, it := range c.items {
			if first || it.CachedAt.Before(oldest) {
				oldestKey, oldest, first = key, it.CachedAt, false
			}
		}
		delete(c.items, oldestKey)
	}
}

// Get returns a copy of the entry for id.
func (c *Cache) Get(id string) (models.NewsItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[id]
	if !ok {
		return models.NewsItem{}, false
	}
	return it.Clone(), true
}

// Contains reports whether id is cached.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[id]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// All returns a snapshot of every entry, newest publication first.
func (c *Cache) All() []models.NewsItem {
	c.mu.Lock()
	out := make([]models.NewsItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.Clone())
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Published.Equal(out[j].Published) {
			return out[i].Published.After(out[j].Published)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Sweep removes entries whose cached-at age exceeds the ttl and returns
// how many were removed.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, it := range c.items {
		if now.Sub(it.CachedAt) > c.ttl {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration, log *slog.Logger) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(c.now()); removed > 0 {
				log.Info("cache sweep completed", slog.Int("evicted", removed), slog.Int("remaining", c.Len()))
			} else {
				log.Debug("cache sweep completed, nothing expired")
			}
		}
	}
}
