package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityExtractor pulls named entities out of short text, typically passage
// excerpts used to seed graph traversal.
// Implementations must be thread-safe for concurrent use.
type EntityExtractor interface {
	// ExtractEntities returns the proper names and key subjects mentioned in
	// the text, most significant first. A response the extractor cannot
	// decode yields an empty slice, not an error.
	ExtractEntities(ctx context.Context, text string) ([]string, error)
}

// GraphExtractor derives a knowledge-graph fragment from passage text.
// Implementations must be thread-safe for concurrent use.
type GraphExtractor interface {
	// ExtractGraph analyzes a passage and returns the entities it mentions
	// and the relationships between them. A response the extractor cannot
	// decode yields an empty fragment, not an error; decode failures are
	// logged and counted by the implementation.
	ExtractGraph(ctx context.Context, text string) (*GraphFragment, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages the embedder and extractors,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// EntityExtractor returns the entity extraction service.
	EntityExtractor() EntityExtractor

	// GraphExtractor returns the graph extraction service.
	GraphExtractor() GraphExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
