// Package embedding provides the batched, cached embedding pipeline sitting
// between callers and the raw ai.Embedder. Requests are answered from cache
// where possible; misses are grouped into batches and dispatched on a bounded
// worker pool with retry and rate limiting. A failed batch fails only its own
// texts, never the whole request.
package embedding
