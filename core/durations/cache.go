// Package durations resolves track lengths that the catalog does not carry.
package durations

import (
	"sync"

	"soundfolio/core/utils"
)

// Cache maps catalog index to a resolved duration in seconds. Each key is
// written by at most one probe, so a late write for the same index simply
// replaces an equal value.
type Cache struct {
	mu      sync.RWMutex
	seconds map[int]float64
}

func NewCache() *Cache {
	return &Cache{seconds: make(map[int]float64)}
}

// Set stores seconds for index. Invalid durations are ignored.
func (c *Cache) Set(index int, seconds float64) bool {
	if !utils.IsValidDuration(seconds) {
		return false
	}
	c.mu.Lock()
	c.seconds[index] = seconds
	c.mu.Unlock()
	return true
}

// Seconds returns the cached duration for index.
func (c *Cache) Seconds(index int) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.seconds[index]
	return s, ok
}

// Label returns the formatted duration for index, or the placeholder.
func (c *Cache) Label(index int) string {
	if s, ok := c.Seconds(index); ok {
		return utils.FormatTime(s)
	}
	return utils.DurationPlaceholder
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seconds)
}

// Reset drops every entry. Used when the catalog is reloaded and indices
// change meaning.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.seconds = make(map[int]float64)
	c.mu.Unlock()
}
