// Package cache provides the in-memory LRU cache behind cached package sources.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache is a concurrency-safe LRU cache with per-entry TTL.
type MemoryCache[V any] struct {
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	lruList *list.List
	hits    int64
	misses  int64
}

type lruEntry[V any] struct {
	key    string
	value  V
	expiry time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries values.
// A non-positive maxEntries means unbounded.
func NewMemoryCache[V any](maxEntries int) *MemoryCache[V] {
	return &MemoryCache[V]{
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*list.Element),
		lruList:    list.New(),
	}
}

// Get returns the value for key if present and not expired.
func (mc *MemoryCache[V]) Get(key string) (V, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var zero V
	elem, ok := mc.entries[key]
	if !ok {
		mc.misses++
		return zero, false
	}

	ent := elem.Value.(*lruEntry[V])
	if !ent.expiry.IsZero() && mc.now().After(ent.expiry) {
		mc.removeElement(elem)
		mc.misses++
		return zero, false
	}

	mc.lruList.MoveToFront(elem)
	mc.hits++
	return ent.value, true
}

// Set stores value under key. A non-positive ttl never expires.
func (mc *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var expiry time.Time
	if ttl > 0 {
		expiry = mc.now().Add(ttl)
	}

	if elem, ok := mc.entries[key]; ok {
		ent := elem.Value.(*lruEntry[V])
		ent.value = value
		ent.expiry = expiry
		mc.lruList.MoveToFront(elem)
		return
	}

	mc.entries[key] = mc.lruList.PushFront(&lruEntry[V]{key: key, value: value, expiry: expiry})

	for mc.maxEntries > 0 && mc.lruList.Len() > mc.maxEntries {
		mc.removeElement(mc.lruList.Back())
	}
}

// Stats returns a snapshot of cache statistics.
func (mc *MemoryCache[V]) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return Stats{Entries: len(mc.entries), Hits: mc.hits, Misses: mc.misses}
}

// must hold lock
func (mc *MemoryCache[V]) removeElement(elem *list.Element) {
	ent := elem.Value.(*lruEntry[V])
	delete(mc.entries, ent.key)
	mc.lruList.Remove(elem)
}

// Stats holds cache statistics.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}
