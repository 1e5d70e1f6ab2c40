package cache

import "errors"

var (
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache is closed")

	// ErrCorruptEntry is returned when a cached value cannot be decoded.
	ErrCorruptEntry = errors.New("corrupt cache entry")
)
