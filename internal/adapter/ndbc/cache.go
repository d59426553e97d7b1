package ndbc

import (
	"container/list"
	"sync"
)

// cachedFeed is the last 200 response for one feed URL, kept so that
// scheduled runs can revalidate with a conditional GET.
type cachedFeed struct {
	etag         string
	lastModified string
	body         string
}

// lruCache is a small thread-safe LRU keyed by URL. The front of order is
// the most recently used entry.
type lruCache[V any] struct {
	capacity int

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type cacheItem[V any] struct {
	key   string
	value V
}

// newLRUCache returns a cache holding at most capacity entries. A capacity of
// zero or less disables caching.
func newLRUCache[V any](capacity int) *lruCache[V] {
	return &lruCache[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem[V]).value, true
}

func (c *lruCache[V]) put(key string, value V) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheItem[V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheItem[V]{key: key, value: value})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem[V]).key)
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
