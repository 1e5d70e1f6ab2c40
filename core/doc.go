// Package core defines the shared domain model for the retrieval pipeline:
// chunks of canonical text with structural provenance, vector search hits,
// graph traversal records, and deterministic content-addressed identifiers.
package core
