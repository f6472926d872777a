package xmlrpc

import (
	"errors"
	"sync"
)

var errNotFound = errors.New("cache entry not found")

type cacheEntry[V any] struct {
	val V
	err error
}

// cache is a concurrency-safe memo of per-type results, including
// failures. Entries are never evicted.
type cache[K comparable, V any] struct {
	m sync.Map
}

// Get returns the cached value for k, or the cached error for
// k. Returns errNotFound if k has no entry.
func (c *cache[K, V]) Get(k K) (V, error) {
	ent, ok := c.m.Load(k)
	if !ok {
		var zero V
		return zero, errNotFound
	}
	e := ent.(*cacheEntry[V])
	return e.val, e.err
}

// Set records val as the result for k. If another goroutine raced
// to fill the same entry, the first result wins.
func (c *cache[K, V]) Set(k K, val V) {
	c.m.LoadOrStore(k, &cacheEntry[V]{val: val})
}

// SetErr records err as the result for k.
func (c *cache[K, V]) SetErr(k K, err error) {
	c.m.LoadOrStore(k, &cacheEntry[V]{err: err})
}
