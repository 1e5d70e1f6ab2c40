// Package search implements the hybrid retrieval engine: vector similarity
// over embedded chunks fused with bounded-depth graph traversal from entity
// seeds. The engine performs no mutation; concurrent identical queries are
// safe and return data-equivalent results.
package search
