// Package vectorstore defines the vector index abstraction used for
// similarity search over passage chunks. Adapters translate the portable
// filter algebra into their backend's native predicate language; a predicate
// an adapter cannot express is a configuration error, never a silent no-op.
//
// Two implementations are provided: vectorstore/milvus for production and
// vectorstore/memory, a brute-force index for tests and small corpora.
package vectorstore
