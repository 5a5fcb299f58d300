package cache

import "sync"

// Cache is a generic thread-safe cache with a soft entry limit. It is
// the lighter of the package's two implementations, used where a keyed
// collection grows slowly and contention is low: compiled shader words
// keyed by source text, decoded environment maps keyed by path. When
// the cache exceeds softLimit, least recently touched entries are
// evicted in batches.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*cacheEntry[V]
	softLimit int
	tick      int64 // Monotonic access counter
}

// cacheEntry holds a cached value with the tick it was last touched.
type cacheEntry[V any] struct {
	value V
	atime int64
}

// New creates a cache with the given soft limit on entry count.
// A softLimit of 0 means unlimited.
func New[K comparable, V any](softLimit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*cacheEntry[V]),
		softLimit: softLimit,
		tick:      0,
	}
}

// Get retrieves a value and marks it recently used.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.tick++
	entry.atime = c.tick

	return entry.value, true
}

// Set stores a value, evicting the stalest entries if the insertion
// pushed the cache over its soft limit.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	c.entries[key] = &cacheEntry[V]{
		value: value,
		atime: c.tick,
	}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

// GetOrCreate returns the cached value for key, or calls create and
// caches its result. create runs under the cache lock, so two
// concurrent callers for the same key never both build the value; a
// slow create (a shader compile, a file decode) blocks other keys too,
// which is why high-traffic consumers use ShardedCache instead.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.tick++
		entry.atime = c.tick
		return entry.value
	}

	value := create()

	c.tick++
	c.entries[key] = &cacheEntry[V]{
		value: value,
		atime: c.tick,
	}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}

	return value
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		return true
	}
	return false
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*cacheEntry[V])
	c.tick = 0
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the soft limit of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.softLimit
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:      len(c.entries),
		Capacity: c.softLimit,
	}
}

// evictOldest removes entries down to 75% of softLimit, so evictions
// happen in batches rather than on every insert near the limit.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest() {
	targetSize := c.softLimit * 3 / 4
	if targetSize < 1 {
		targetSize = 1
	}

	toEvict := len(c.entries) - targetSize
	if toEvict <= 0 {
		return
	}

	type entry struct {
		key   K
		atime int64
	}
	entries := make([]entry, 0, len(c.entries))
	for key, e := range c.entries {
		entries = append(entries, entry{key: key, atime: e.atime})
	}

	// Partial selection sort: only the toEvict stalest entries need
	// ordering, and eviction batches are small.
	for i := 0; i < toEvict && i < len(entries); i++ {
		minIdx := i
		for j := i + 1; j < len(entries); j++ {
			if entries[j].atime < entries[minIdx].atime {
				minIdx = j
			}
		}
		if minIdx != i {
			entries[i], entries[minIdx] = entries[minIdx], entries[i]
		}
		delete(c.entries, entries[i].key)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the cache capacity (soft limit, or per-shard for ShardedCache).
	Capacity int
	// TotalCapacity is the total capacity across all shards (ShardedCache only).
	TotalCapacity int
	// Hits is the number of cache hits (ShardedCache only).
	Hits uint64
	// Misses is the number of cache misses (ShardedCache only).
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0 (ShardedCache only).
	HitRate float64
	// Evictions is the number of evicted entries (ShardedCache only).
	Evictions uint64
}
