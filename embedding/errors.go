package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when a Client is constructed without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidMaxAttempts is returned for a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmptyVector is returned when the provider answers a text with an
	// empty embedding.
	ErrEmptyVector = errors.New("provider returned empty vector")

	// ErrBatchShape is returned when the provider returns a different number
	// of vectors than texts sent.
	ErrBatchShape = errors.New("provider returned mismatched batch size")
)
