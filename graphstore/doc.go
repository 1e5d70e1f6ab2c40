// Package graphstore defines the knowledge-graph abstraction: named,
// labeled nodes connected by typed relationships, written idempotently and
// read through bounded-depth traversal from seed entities.
//
// Two implementations are provided: graphstore/neo4j for production and
// graphstore/memory, an adjacency-map store for tests.
package graphstore
