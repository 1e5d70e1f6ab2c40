// Package milvus provides the Milvus-backed implementation of
// vectorstore.Store. Chunks live in one collection with an HNSW index over
// cosine similarity; the portable filter algebra is rendered into Milvus
// boolean expressions.
package milvus
