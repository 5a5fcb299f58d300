// Package cache provides generic, high-performance caching primitives used
// to keep loaded glTF assets and their derived GPU state (texture atlas
// slots, skin/animation tables) off the disk-load path on repeat access.
//
// This package offers two cache implementations optimized for different use cases:
//
// # Cache[K, V]
//
// A simple thread-safe LRU cache suitable for single-threaded or low-contention
// scenarios. Uses a soft limit with 25% eviction when capacity is exceeded.
// internal/gpu's PipelineCompiler keys this by shader source to cache
// compiled SPIR-V words.
//
//	cache := cache.New[string, *Asset](100)
//	cache.Set("models/crate.glb", asset)
//	value, ok := cache.Get("models/crate.glb")
//
// # ShardedCache[K, V]
//
// A high-performance sharded cache designed for high-concurrency scenarios.
// Uses 16 shards to reduce lock contention, with proper LRU eviction per shard.
// Suited to asset loaders pulling from multiple streaming goroutines at once.
//
//	cache := cache.NewSharded[string, *Asset](256, cache.StringHasher)
//	cache.Set("models/crate.glb", asset)
//	value, ok := cache.Get("models/crate.glb")
//
// # Performance
//
// Benchmarked on Intel i7-1255U:
//   - Cache hit: ~75ns (zero allocations)
//   - Cache miss: ~35ns
//   - Parallel (12 cores): ~170ns/op
//
// # Thread Safety
//
// Both Cache and ShardedCache are safe for concurrent use.
// Neither should be copied after creation (they contain mutexes).
package cache
