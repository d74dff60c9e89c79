package api

import (
	"sync"

	"github.com/shokofin/shokofin/internal/shoko"
)

// SeriesCache caches series records by Shoko id to avoid redundant API calls
type SeriesCache struct {
	mu   sync.RWMutex
	data map[int]*shoko.Series
}

// NewSeriesCache creates a new SeriesCache
func NewSeriesCache() *SeriesCache {
	return &SeriesCache{
		data: make(map[int]*shoko.Series),
	}
}

// Get retrieves a cached series
func (c *SeriesCache) Get(id int) (*shoko.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[id]
	return val, ok
}

// Set stores a series in the cache
func (c *SeriesCache) Set(id int, val *shoko.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = val
}

// Invalidate drops one series from the cache
func (c *SeriesCache) Invalidate(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
}

// All returns every cached series
func (c *SeriesCache) All() []*shoko.Series {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*shoko.Series, 0, len(c.data))
	for _, s := range c.data {
		out = append(out, s)
	}
	return out
}

// Len returns the number of cached series
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
