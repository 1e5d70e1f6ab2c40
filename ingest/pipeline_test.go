package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/ai/mock"
	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/corpus"
	"github.com/poiesic/scriptura/embedding"
	gmemory "github.com/poiesic/scriptura/graphstore/memory"
	"github.com/poiesic/scriptura/segment"
	"github.com/poiesic/scriptura/vectorstore"
	vmemory "github.com/poiesic/scriptura/vectorstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 384

type fakeLoader struct {
	containers []corpus.Container
	err        error
	calls      int
}

func (l *fakeLoader) Load(ctx context.Context) ([]corpus.Container, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.containers, nil
}

// recordingVectorStore wraps the in-memory store so tests can inspect
// inserted rows and inject failures.
type recordingVectorStore struct {
	inner vectorstore.Store

	mu      sync.Mutex
	rows    []vectorstore.Row
	flushes int

	ensureErr error
	insertErr error
}

func newRecordingVectorStore() *recordingVectorStore {
	return &recordingVectorStore{inner: vmemory.New()}
}

func (s *recordingVectorStore) EnsureCollection(ctx context.Context, schema vectorstore.Schema) error {
	if s.ensureErr != nil {
		return s.ensureErr
	}
	return s.inner.EnsureCollection(ctx, schema)
}

func (s *recordingVectorStore) Insert(ctx context.Context, rows []vectorstore.Row) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	s.mu.Unlock()
	return s.inner.Insert(ctx, rows)
}

func (s *recordingVectorStore) Search(ctx context.Context, vector []float32, topK int, filter vectorstore.Filter) ([]core.SearchHit, error) {
	return s.inner.Search(ctx, vector, topK, filter)
}

func (s *recordingVectorStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
	return s.inner.Flush(ctx)
}

func (s *recordingVectorStore) Drop(ctx context.Context, schema vectorstore.Schema) error {
	return s.inner.Drop(ctx, schema)
}

func (s *recordingVectorStore) Close() error {
	return s.inner.Close()
}

func (s *recordingVectorStore) insertedRows() []vectorstore.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]vectorstore.Row(nil), s.rows...)
}

func genesisContainer() corpus.Container {
	texts := []string{
		"In the beginning God created the heaven and the earth.",
		"And the earth was without form, and void.",
		"And darkness was upon the face of the deep.",
		"And the Spirit of God moved upon the waters.",
		"And God said, Let there be light.",
		"And there was light.",
	}
	c := corpus.Container{Translation: "KJV", Book: "Genesis", Chapter: 1}
	for i, text := range texts {
		c.Verses = append(c.Verses, corpus.Verse{
			Translation: "KJV", Book: "Genesis", Chapter: 1, Verse: i + 1, Text: text,
		})
	}
	return c
}

func exodusContainer() corpus.Container {
	return corpus.Container{
		Translation: "KJV", Book: "Exodus", Chapter: 1,
		Verses: []corpus.Verse{
			{Translation: "KJV", Book: "Exodus", Chapter: 1, Verse: 1,
				Text: "Now these are the names of the children of Israel."},
		},
	}
}

func newBatchEmbedder(t *testing.T, embedder *mock.MockEmbedder, opts ...embedding.Option) *embedding.Client {
	t.Helper()
	opts = append([]embedding.Option{embedding.WithRetry(1, time.Millisecond)}, opts...)
	client, err := embedding.New(embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(client.Release)
	return client
}

// testDeps bundles the fakes one pipeline test needs.
type testDeps struct {
	loader    *fakeLoader
	vectors   *recordingVectorStore
	graph     *gmemory.Store
	extractor *mock.MockExtractor
}

func newTestPipeline(t *testing.T, deps testDeps, embedder BatchEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	if embedder == nil {
		embedder = newBatchEmbedder(t, mock.NewMockEmbedder())
	}
	if deps.extractor == nil {
		deps.extractor = mock.NewMockExtractor()
	}
	opts = append([]Option{
		WithSchema(vectorstore.Schema{Collection: "chunks", Dim: testDim}),
		WithSegmentConfig(segment.Config{MaxWords: 12, MinWords: 4, OverlapUnits: 0}),
		WithBatchSize(2),
	}, opts...)

	p, err := NewPipeline(deps.loader, embedder, deps.extractor, deps.vectors, deps.graph, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func defaultDeps() testDeps {
	return testDeps{
		loader:  &fakeLoader{containers: []corpus.Container{genesisContainer()}},
		vectors: newRecordingVectorStore(),
		graph:   gmemory.New(),
	}
}

func TestNewPipeline(t *testing.T) {
	deps := defaultDeps()
	embedder := newBatchEmbedder(t, mock.NewMockEmbedder())
	extractor := mock.NewMockExtractor()

	t.Run("requires loader", func(t *testing.T) {
		_, err := NewPipeline(nil, embedder, extractor, deps.vectors, deps.graph)
		assert.ErrorIs(t, err, ErrLoaderRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewPipeline(deps.loader, nil, extractor, deps.vectors, deps.graph)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("requires extractor", func(t *testing.T) {
		_, err := NewPipeline(deps.loader, embedder, nil, deps.vectors, deps.graph)
		assert.ErrorIs(t, err, ErrExtractorRequired)
	})

	t.Run("requires stores", func(t *testing.T) {
		_, err := NewPipeline(deps.loader, embedder, extractor, nil, deps.graph)
		assert.ErrorIs(t, err, ErrVectorStoreRequired)
		_, err = NewPipeline(deps.loader, embedder, extractor, deps.vectors, nil)
		assert.ErrorIs(t, err, ErrGraphStoreRequired)
	})

	t.Run("rejects invalid batch size", func(t *testing.T) {
		_, err := NewPipeline(deps.loader, embedder, extractor, deps.vectors, deps.graph, WithBatchSize(0))
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("full run ingests every chunk", func(t *testing.T) {
		deps := defaultDeps()
		p := newTestPipeline(t, deps, nil)

		metrics, err := p.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, uint64(1), metrics.Containers)
		assert.Equal(t, uint64(6), metrics.Verses)
		assert.Greater(t, metrics.Chunks, uint64(1))
		assert.Equal(t, metrics.Chunks, metrics.Embedded)
		assert.Equal(t, metrics.Chunks, metrics.VectorInserted)
		assert.Zero(t, metrics.SkippedChunks)
		assert.Zero(t, metrics.GraphErrors)
		assert.Zero(t, metrics.ErrorRate())

		rows := deps.vectors.insertedRows()
		require.Len(t, rows, int(metrics.Chunks))
		for _, row := range rows {
			assert.True(t, row.Chunk.HasEmbedding())
			assert.Equal(t, "OT", row.Testament)
			assert.Equal(t, "law", row.Genre)
			assert.Equal(t, "OT", row.Chunk.Metadata["testament"])
		}

		deps.vectors.mu.Lock()
		flushes := deps.vectors.flushes
		deps.vectors.mu.Unlock()
		assert.Equal(t, 1, flushes, "flush once after all containers")
	})

	t.Run("graph holds structure and mentions", func(t *testing.T) {
		deps := defaultDeps()
		p := newTestPipeline(t, deps, nil)

		_, err := p.Run(ctx)
		require.NoError(t, err)

		assert.Greater(t, deps.graph.NodeCount(), 2, "book, chapter, and passage nodes")
		assert.Greater(t, deps.graph.EdgeCount(), 1)

		// "God" is a capitalized word in the fixture, so the extractor
		// links passages to it via MENTIONS.
		records, err := deps.graph.Traverse(ctx, []string{"God"}, 1)
		require.NoError(t, err)
		assert.NotEmpty(t, records)
	})

	t.Run("ordinals are gap-free across batch sizes", func(t *testing.T) {
		var chunkCounts []uint64
		for _, batchSize := range []int{1, 2, 3} {
			deps := defaultDeps()
			p := newTestPipeline(t, deps, nil, WithBatchSize(batchSize))

			metrics, err := p.Run(ctx)
			require.NoError(t, err)
			chunkCounts = append(chunkCounts, metrics.Chunks)

			seen := make(map[int]bool)
			for _, row := range deps.vectors.insertedRows() {
				assert.False(t, seen[row.Chunk.Ordinal], "duplicate ordinal %d", row.Chunk.Ordinal)
				seen[row.Chunk.Ordinal] = true
			}
			for ordinal := 0; ordinal < int(metrics.Chunks); ordinal++ {
				assert.True(t, seen[ordinal], "missing ordinal %d at batch size %d", ordinal, batchSize)
			}
		}
		assert.Equal(t, chunkCounts[0], chunkCounts[1])
		assert.Equal(t, chunkCounts[0], chunkCounts[2])
	})

	t.Run("one failed embedding skips one chunk only", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			for _, text := range texts {
				if strings.Contains(text, "Spirit") {
					return nil, errors.New("provider rejected batch")
				}
			}
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				vectors[i] = mock.DeterministicVector(text, testDim)
			}
			return vectors, nil
		}
		client := newBatchEmbedder(t, embedder, embedding.WithBatchSize(1))

		deps := defaultDeps()
		p := newTestPipeline(t, deps, client)

		metrics, err := p.Run(ctx)
		require.NoError(t, err, "a skipped chunk must not fail the run")
		assert.Equal(t, uint64(1), metrics.SkippedChunks)
		assert.Equal(t, metrics.Chunks-1, metrics.VectorInserted)
		assert.Len(t, deps.vectors.insertedRows(), int(metrics.Chunks-1))
	})

	t.Run("graph extraction failure is independent of embedding", func(t *testing.T) {
		deps := defaultDeps()
		deps.extractor = mock.NewMockExtractor()
		deps.extractor.ExtractGraphFunc = func(ctx context.Context, text string) (*ai.GraphFragment, error) {
			if strings.Contains(text, "Spirit") {
				return nil, errors.New("model offline")
			}
			return &ai.GraphFragment{}, nil
		}
		p := newTestPipeline(t, deps, nil)

		metrics, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), metrics.GraphErrors)
		assert.Zero(t, metrics.SkippedChunks)
		assert.Equal(t, metrics.Chunks, metrics.VectorInserted, "embedding side is unaffected")
	})

	t.Run("insert failure counts chunks as skipped", func(t *testing.T) {
		deps := defaultDeps()
		deps.vectors.insertErr = errors.New("collection unavailable")
		p := newTestPipeline(t, deps, nil)

		metrics, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, metrics.Chunks, metrics.SkippedChunks)
		assert.Zero(t, metrics.VectorInserted)
	})

	t.Run("setup failure is fatal before any data", func(t *testing.T) {
		deps := defaultDeps()
		deps.vectors.ensureErr = errors.New("no connection")
		p := newTestPipeline(t, deps, nil)

		_, err := p.Run(ctx)
		assert.ErrorIs(t, err, ErrSetupFailed)
		assert.Zero(t, deps.loader.calls, "corpus must not be loaded after failed setup")
	})

	t.Run("book filter restricts containers", func(t *testing.T) {
		deps := defaultDeps()
		deps.loader.containers = []corpus.Container{genesisContainer(), exodusContainer()}
		p := newTestPipeline(t, deps, nil, WithBooks("Exodus"))

		metrics, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), metrics.Containers)
		for _, row := range deps.vectors.insertedRows() {
			assert.Equal(t, "Exodus", row.Chunk.Book)
		}
	})

	t.Run("unknown book in filter aborts", func(t *testing.T) {
		deps := defaultDeps()
		p := newTestPipeline(t, deps, nil, WithBooks("Exodos"))

		_, err := p.Run(ctx)
		assert.ErrorIs(t, err, corpus.ErrUnknownBook)
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		deps := defaultDeps()
		p := newTestPipeline(t, deps, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		metrics, err := p.Run(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, metrics.Chunks)
	})
}

func TestMetrics(t *testing.T) {
	t.Run("error rate", func(t *testing.T) {
		m := Metrics{Chunks: 10, SkippedChunks: 1, GraphErrors: 1}
		assert.InDelta(t, 0.2, m.ErrorRate(), 1e-9)
		assert.Zero(t, Metrics{}.ErrorRate())
	})

	t.Run("summary names every counter", func(t *testing.T) {
		m := Metrics{Containers: 2, Verses: 12, Chunks: 5, Embedded: 4, SkippedChunks: 1}
		s := m.Summary()
		assert.Contains(t, s, "containers=2")
		assert.Contains(t, s, "chunks=5")
		assert.Contains(t, s, "skipped=1")
		assert.Contains(t, s, "error_rate=20.0%")
	})
}
