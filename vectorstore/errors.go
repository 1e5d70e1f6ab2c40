package vectorstore

import "errors"

var (
	// ErrUnsupportedFilter is returned when an adapter cannot translate a
	// filter predicate. This is a configuration error: silently dropping a
	// predicate would return wrong results.
	ErrUnsupportedFilter = errors.New("unsupported filter predicate")

	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMissingEmbedding is returned when a row without an embedding is
	// inserted.
	ErrMissingEmbedding = errors.New("row has no embedding")
)
