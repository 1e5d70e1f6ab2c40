// Package cache defines the byte-oriented cache used to avoid recomputing
// embeddings. A cache is a pure optimization: every read path must behave
// identically (apart from latency and provider load) whether the cache is
// empty, partially populated, or unavailable.
//
// Two backends are provided: cache/redis for a shared networked cache and
// cache/badger for an embedded local one. Backend read errors degrade to
// cache misses rather than failing the caller.
package cache
