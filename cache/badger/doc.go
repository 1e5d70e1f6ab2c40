// Package badger provides an embedded BadgerDB-backed implementation of
// cache.Cache. It needs no external services, which makes it the default
// for single-process deployments and tests.
package badger
