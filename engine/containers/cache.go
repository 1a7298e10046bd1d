package containers

import (
	"sort"
	"sync"
)

// Cache interns values by key: the first successful load for a key wins and
// every later lookup returns that same value until Clear.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]V
	order   []string
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]V),
	}
}

// GetOrLoad returns the cached value for key, calling load only on a miss.
// A failed load caches nothing.
func (c *Cache[V]) GetOrLoad(key string, load func(key string) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = v
	c.order = append(c.order, key)
	return v, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the cached keys sorted.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear hands every value to release, newest first, and empties the cache.
func (c *Cache[V]) Clear(release func(key string, v V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.order) - 1; i >= 0; i-- {
		key := c.order[i]
		if release != nil {
			release(key, c.entries[key])
		}
	}
	c.entries = make(map[string]V)
	c.order = nil
}
