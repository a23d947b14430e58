// Package cache holds the in-memory query result cache: a fixed-capacity
// map with LRU eviction and per-entry TTL. The capacity bound is both a
// memory bound and a staleness-reduction mechanism.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/metrics"
)

type entry struct {
	fingerprint string
	result      fused.Result
	storedAt    time.Time
}

// Cache is a bounded LRU cache with TTL, safe for concurrent use. Expired
// entries are treated as misses and removed lazily on lookup; no background
// sweep runs. A single mutex guards the map and the access-order list:
// operations are O(1) and the per-fingerprint fill coordination lives in
// the orchestrator, so finer striping buys nothing here.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	clock    func() time.Time
}

// New creates a cache holding at most capacity entries, each valid for ttl.
func New(capacity int, ttl time.Duration) *Cache {
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		clock:    time.Now,
	}
}

// Get returns the cached result for a fingerprint. An entry past its TTL is
// removed and reported as a miss.
func (c *Cache) Get(fingerprint string) (fused.Result, bool) {
	return c.lookup(fingerprint, true)
}

// Peek is Get without the hit/miss counters. Used for the in-flight double
// check on the fill path, so one cold request counts exactly one miss.
func (c *Cache) Peek(fingerprint string) (fused.Result, bool) {
	return c.lookup(fingerprint, false)
}

func (c *Cache) lookup(fingerprint string, counted bool) (fused.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if !ok {
		if counted {
			metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
		}
		return fused.Result{}, false
	}

	e := elem.Value.(*entry)
	if c.clock().Sub(e.storedAt) > c.ttl {
		c.remove(elem)
		if counted {
			metrics.QueryCacheTotal.WithLabelValues("expired").Inc()
		}
		return fused.Result{}, false
	}

	c.order.MoveToFront(elem)
	if counted {
		metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
	}
	return e.result, true
}

// Put stores a result, replacing any existing entry for the fingerprint and
// resetting its TTL. When the capacity bound is reached, the least recently
// used entry is evicted.
func (c *Cache) Put(fingerprint string, r fused.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		e := elem.Value.(*entry)
		e.result = r
		e.storedAt = c.clock()
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
			metrics.QueryCacheEvictionsTotal.Inc()
		}
	}

	elem := c.order.PushFront(&entry{
		fingerprint: fingerprint,
		result:      r,
		storedAt:    c.clock(),
	})
	c.entries[fingerprint] = elem
}

// Len returns the current entry count, including not-yet-collected expired
// entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove must be called with the mutex held.
func (c *Cache) remove(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.entries, e.fingerprint)
	c.order.Remove(elem)
}
