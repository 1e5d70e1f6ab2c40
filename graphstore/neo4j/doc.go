// Package neo4j provides the Neo4j-backed implementation of
// graphstore.Store. Names are natural keys enforced by per-label uniqueness
// constraints; traversal follows variable-length paths out from seed nodes.
package neo4j
