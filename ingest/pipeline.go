// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/corpus"
	"github.com/poiesic/scriptura/embedding"
	"github.com/poiesic/scriptura/graphstore"
	"github.com/poiesic/scriptura/segment"
	"github.com/poiesic/scriptura/vectorstore"
)

// DefaultBatchSize is how many chunks are embedded and extracted together.
const DefaultBatchSize = 10

// BatchEmbedder embeds a batch of texts, returning positional results.
// Satisfied by embedding.Client.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) []embedding.Result
}

// Pipeline orchestrates corpus ingestion into the vector and graph stores.
// It manages concurrent processing of chapter containers.
type Pipeline struct {
	loader    corpus.Loader
	segmenter *segment.Segmenter
	embedder  BatchEmbedder
	extractor ai.GraphExtractor
	vectors   vectorstore.Store
	graph     graphstore.Store
	pool      *ants.Pool
	schema    vectorstore.Schema
	batchSize int
	books     []string
	logger    *slog.Logger

	containers       atomic.Uint64
	containersFailed atomic.Uint64
	verses           atomic.Uint64
	chunks           atomic.Uint64
	embedded         atomic.Uint64
	skipped          atomic.Uint64
	graphErrors      atomic.Uint64
	inserted         atomic.Uint64
	nodesWritten     atomic.Uint64
	edgesWritten     atomic.Uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many chunks are processed per batch.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithMaxConcurrentContainers bounds how many containers are processed at
// once. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithMaxConcurrentContainers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.pool.Release()
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithSchema sets the vector collection name and embedding dimension.
func WithSchema(schema vectorstore.Schema) Option {
	return func(p *Pipeline) error {
		p.schema = schema
		return nil
	}
}

// WithSegmentConfig overrides the segmentation constraints.
func WithSegmentConfig(cfg segment.Config) Option {
	return func(p *Pipeline) error {
		segmenter, err := segment.New(cfg)
		if err != nil {
			return err
		}
		p.segmenter = segmenter
		return nil
	}
}

// WithBooks restricts the run to the named books. Default is the whole
// translation.
func WithBooks(books ...string) Option {
	return func(p *Pipeline) error {
		p.books = books
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	loader corpus.Loader,
	embedder BatchEmbedder,
	extractor ai.GraphExtractor,
	vectors vectorstore.Store,
	graph graphstore.Store,
	opts ...Option,
) (*Pipeline, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	segmenter, err := segment.New(segment.DefaultConfig())
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		loader:    loader,
		segmenter: segmenter,
		embedder:  embedder,
		extractor: extractor,
		vectors:   vectors,
		graph:     graph,
		pool:      pool,
		schema:    vectorstore.Schema{Collection: "chunks", Dim: 768},
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "ingest"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.pool.Release()
			return nil, err
		}
	}

	return p, nil
}

// Run executes one full ingestion: setup, per-container processing, flush.
// Per-chunk failures are counted, not fatal; setup failures abort before any
// data is touched. Cancellation propagates to in-flight containers.
func (p *Pipeline) Run(ctx context.Context) (Metrics, error) {
	if err := p.setupStores(ctx); err != nil {
		return p.Metrics(), fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}

	containers, err := p.loader.Load(ctx)
	if err != nil {
		return p.Metrics(), err
	}
	containers, err = corpus.FilterBooks(containers, p.books)
	if err != nil {
		return p.Metrics(), err
	}

	var wg sync.WaitGroup
	for i := range containers {
		container := &containers[i]
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			p.processContainer(ctx, container)
		})
		if submitErr != nil {
			wg.Done()
			p.containersFailed.Add(1)
			p.logger.Error("failed to schedule container", "container", container.Key(), "err", submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return p.Metrics(), err
	}

	if err := p.vectors.Flush(ctx); err != nil {
		p.logger.Error("vector flush failed", "err", err)
		return p.Metrics(), err
	}

	metrics := p.Metrics()
	p.logger.Info("ingestion complete", "summary", metrics.Summary())
	return metrics, nil
}

// setupStores idempotently prepares the collection and graph constraints.
func (p *Pipeline) setupStores(ctx context.Context) error {
	if err := p.vectors.EnsureCollection(ctx, p.schema); err != nil {
		return err
	}
	return p.graph.EnsureConstraints(ctx)
}

func (p *Pipeline) processContainer(ctx context.Context, container *corpus.Container) {
	p.containers.Add(1)
	p.verses.Add(uint64(len(container.Verses)))

	spans := p.segmenter.SegmentVerses(container.Units())
	if len(spans) == 0 {
		return
	}

	testament, _ := corpus.TestamentOf(container.Book)
	genre, _ := corpus.GenreOf(container.Book)

	// Ordinals are assigned here, before any concurrent work, so they are
	// gap-free regardless of batch completion order.
	chunks := make([]*core.Chunk, len(spans))
	for i, span := range spans {
		chunk := core.NewChunk(span.Text, container.Translation, container.Book,
			container.Chapter, span.StartVerse, span.EndVerse)
		chunk.Ordinal = i
		chunk.Metadata["testament"] = string(testament)
		chunk.Metadata["genre"] = string(genre)
		chunks[i] = chunk
	}
	p.chunks.Add(uint64(len(chunks)))

	p.writeStructure(ctx, container, testament, genre)

	for start := 0; start < len(chunks); start += p.batchSize {
		if ctx.Err() != nil {
			return
		}
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		p.processBatch(ctx, container, chunks[start:end], testament, genre)
	}
}

// processBatch embeds and graph-extracts one chunk batch concurrently, then
// merges the results positionally. The two failure modes are independent: a
// chunk can reach the vector store while its graph extraction failed, and
// vice versa.
func (p *Pipeline) processBatch(ctx context.Context, container *corpus.Container,
	batch []*core.Chunk, testament corpus.Testament, genre corpus.Genre) {

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var (
		wg        sync.WaitGroup
		results   []embedding.Result
		fragments = make([]*ai.GraphFragment, len(batch))
		fragErrs  = make([]error, len(batch))
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results = p.embedder.EmbedTexts(ctx, texts)
	}()
	go func() {
		defer wg.Done()
		for i, text := range texts {
			fragments[i], fragErrs[i] = p.extractor.ExtractGraph(ctx, text)
		}
	}()
	wg.Wait()

	rows := make([]vectorstore.Row, 0, len(batch))
	for i, res := range results {
		if !res.Ok() {
			p.skipped.Add(1)
			p.logger.Warn("chunk embedding failed, skipping", "ref", batch[i].Ref(), "err", res.Err)
			continue
		}
		batch[i].Embedding = res.Vector
		p.embedded.Add(1)
		rows = append(rows, vectorstore.Row{
			Chunk:     batch[i],
			Testament: string(testament),
			Genre:     string(genre),
		})
	}
	if len(rows) > 0 {
		if err := p.vectors.Insert(ctx, rows); err != nil {
			p.skipped.Add(uint64(len(rows)))
			p.logger.Error("vector insert failed for batch", "container", container.Key(), "rows", len(rows), "err", err)
		} else {
			p.inserted.Add(uint64(len(rows)))
		}
	}

	for i, chunk := range batch {
		if fragErrs[i] != nil {
			p.graphErrors.Add(1)
			p.logger.Warn("graph extraction failed", "ref", chunk.Ref(), "err", fragErrs[i])
			continue
		}
		if fragments[i].Empty() {
			continue
		}
		p.writeFragment(ctx, container, chunk, fragments[i])
	}
}

// writeStructure upserts the Book and Chapter nodes for a container.
func (p *Pipeline) writeStructure(ctx context.Context, container *corpus.Container,
	testament corpus.Testament, genre corpus.Genre) {

	chapterName := fmt.Sprintf("%s %d", container.Book, container.Chapter)

	if err := p.graph.UpsertNode(ctx, "Book", container.Book, map[string]any{
		"testament": string(testament),
		"genre":     string(genre),
	}); err != nil {
		p.graphErrors.Add(1)
		p.logger.Warn("failed to upsert book node", "book", container.Book, "err", err)
		return
	}
	p.nodesWritten.Add(1)

	if err := p.graph.UpsertNode(ctx, "Chapter", chapterName, map[string]any{
		"book":    container.Book,
		"chapter": container.Chapter,
	}); err != nil {
		p.graphErrors.Add(1)
		p.logger.Warn("failed to upsert chapter node", "chapter", chapterName, "err", err)
		return
	}
	p.nodesWritten.Add(1)

	if err := p.graph.UpsertEdge(ctx, container.Book, chapterName, "HAS_CHAPTER", nil); err != nil {
		p.graphErrors.Add(1)
		p.logger.Warn("failed to link chapter", "chapter", chapterName, "err", err)
		return
	}
	p.edgesWritten.Add(1)
}

// writeFragment upserts one chunk's graph contribution: a passage node under
// its chapter, the extracted entity nodes and edges, and MENTIONS edges from
// the passage to each entity. Any write failure counts one graph error for
// the chunk.
func (p *Pipeline) writeFragment(ctx context.Context, container *corpus.Container,
	chunk *core.Chunk, fragment *ai.GraphFragment) {

	ref := chunk.Ref()
	chapterName := fmt.Sprintf("%s %d", container.Book, container.Chapter)

	fail := func(what string, err error) {
		p.graphErrors.Add(1)
		p.logger.Warn("graph write failed", "ref", ref, "stage", what, "err", err)
	}

	if err := p.graph.UpsertNode(ctx, "Verse", ref, map[string]any{
		"translation": container.Translation,
		"ordinal":     chunk.Ordinal,
	}); err != nil {
		fail("passage node", err)
		return
	}
	p.nodesWritten.Add(1)

	if err := p.graph.UpsertEdge(ctx, chapterName, ref, "CONTAINS", nil); err != nil {
		fail("chapter edge", err)
		return
	}
	p.edgesWritten.Add(1)

	for _, node := range fragment.Nodes {
		if err := p.graph.UpsertNode(ctx, node.Label, node.Name, nil); err != nil {
			fail("entity node", err)
			return
		}
		p.nodesWritten.Add(1)
	}
	for _, edge := range fragment.Edges {
		if err := p.graph.UpsertEdge(ctx, edge.Source, edge.Target, edge.Label, nil); err != nil {
			fail("entity edge", err)
			return
		}
		p.edgesWritten.Add(1)
	}
	for _, node := range fragment.Nodes {
		if err := p.graph.UpsertEdge(ctx, ref, node.Name, "MENTIONS", nil); err != nil {
			fail("mention edge", err)
			return
		}
		p.edgesWritten.Add(1)
	}
}

// Metrics returns a snapshot of the run counters.
func (p *Pipeline) Metrics() Metrics {
	return Metrics{
		Containers:       p.containers.Load(),
		ContainersFailed: p.containersFailed.Load(),
		Verses:           p.verses.Load(),
		Chunks:           p.chunks.Load(),
		Embedded:         p.embedded.Load(),
		SkippedChunks:    p.skipped.Load(),
		GraphErrors:      p.graphErrors.Load(),
		VectorInserted:   p.inserted.Load(),
		NodesWritten:     p.nodesWritten.Load(),
		EdgesWritten:     p.edgesWritten.Load(),
	}
}

// Release releases the worker pool. Store connections belong to the caller
// and stay open. The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pool.Release()
}
