package cache

import (
	"sync"
	"time"
)

// ContentEntry is a cached raw file.
type ContentEntry struct {
	Content   string
	FetchedAt time.Time
}

// ContentCache is a process-wide map of path to raw file content.
// It has no expiry of its own; owners clear it when the corpus may have changed.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string]ContentEntry
}

// NewContentCache creates an empty content cache.
func NewContentCache() *ContentCache {
	return &ContentCache{
		entries: make(map[string]ContentEntry),
	}
}

// Get returns the cached content for path.
func (c *ContentCache) Get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[path]
	return e.Content, ok
}

// Put stores content for path.
func (c *ContentCache) Put(path, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = ContentEntry{Content: content, FetchedAt: time.Now()}
}

// Len returns the number of cached files.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry and returns how many were removed.
func (c *ContentCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]ContentEntry)
	return n
}
