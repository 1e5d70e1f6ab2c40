// Package redis provides a Redis-backed implementation of cache.Cache,
// suitable for sharing one embedding cache across processes.
package redis
