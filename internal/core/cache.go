package core

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig bounds one of the in-process memoization caches.
type CacheConfig struct {
	Enabled       bool
	MaxEntries    int
	TTL           time.Duration
	SweepInterval time.Duration
}

type lruEntry struct {
	key     string
	value   interface{}
	expires time.Time
}

// lruTable is a mutex-guarded, bounded, time-expiring table with strict
// least-recently-used eviction. It backs both the prepared-options cache
// and the response-header cache.
type lruTable struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	now     func() time.Time
}

func newLRUTable(max int, ttl time.Duration) *lruTable {
	return &lruTable{
		max:     max,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// get returns the unexpired value for key, refreshing its recency.
func (t *lruTable) get(key string) (interface{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elem, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*lruEntry)
	if t.ttl > 0 && t.now().After(entry.expires) {
		t.order.Remove(elem)
		delete(t.entries, key)
		return nil, false
	}
	t.order.MoveToFront(elem)
	return entry.value, true
}

// put inserts or refreshes key, then evicts least-recently-used entries
// until the table is back under its bound. It returns the number of
// entries evicted.
func (t *lruTable) put(key string, value interface{}) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	expires := t.now().Add(t.ttl)
	if elem, ok := t.entries[key]; ok {
		entry := elem.Value.(*lruEntry)
		entry.value = value
		entry.expires = expires
		t.order.MoveToFront(elem)
		return 0
	}

	t.entries[key] = t.order.PushFront(&lruEntry{key: key, value: value, expires: expires})

	evicted := 0
	for t.max > 0 && t.order.Len() > t.max {
		oldest := t.order.Back()
		if oldest == nil {
			break
		}
		t.order.Remove(oldest)
		delete(t.entries, oldest.Value.(*lruEntry).key)
		evicted++
	}
	return evicted
}

// sweep removes expired entries regardless of access pattern and returns
// how many were removed.
func (t *lruTable) sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ttl <= 0 {
		return 0
	}
	now := t.now()
	removed := 0
	for elem := t.order.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*lruEntry)
		if now.After(entry.expires) {
			t.order.Remove(elem)
			delete(t.entries, entry.key)
			removed++
		}
		elem = prev
	}
	return removed
}

func (t *lruTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

func (t *lruTable) setClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
