package detect

import (
	"sync"
)

// SelectorCache caches detection results per directory
type SelectorCache struct {
	mu    sync.RWMutex
	cache map[string]DetectionResult
}

// NewSelectorCache creates a new selector cache
func NewSelectorCache() *SelectorCache {
	return &SelectorCache{
		cache: make(map[string]DetectionResult),
	}
}

// Get retrieves the cached result for a directory
func (c *SelectorCache) Get(dir string) (DetectionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.cache[dir]
	return result, ok
}

// Set stores the result for a directory
func (c *SelectorCache) Set(dir string, result DetectionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[dir] = result
}

// Size returns the number of cached entries
func (c *SelectorCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
