package provider

import "sync"

// ResolutionCache memoizes project path → backend identifier for one
// adapter instance. It is never shared between instances.
type ResolutionCache struct {
	mu  sync.Mutex
	ids map[string]string
}

// NewResolutionCache creates an empty cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{ids: make(map[string]string)}
}

// Get returns the cached identifier for path.
func (c *ResolutionCache) Get(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[path]
	return id, ok
}

// Put records the identifier for path.
func (c *ResolutionCache) Put(path, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[path] = id
}

// Evict drops the identifier for path so the next call re-resolves.
func (c *ResolutionCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, path)
}
