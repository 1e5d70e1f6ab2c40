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


// Package scriptura wires the retrieval system together: an AI provider for
// embeddings and extraction, an embedding cache, and the vector and graph
// stores. Open builds a System; the System hands out ingestion pipelines and
// searchers that share its connections.
package scriptura

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/ai/openai"
	"github.com/poiesic/scriptura/cache"
	badgercache "github.com/poiesic/scriptura/cache/badger"
	rediscache "github.com/poiesic/scriptura/cache/redis"
	"github.com/poiesic/scriptura/corpus"
	"github.com/poiesic/scriptura/embedding"
	"github.com/poiesic/scriptura/graphstore"
	graphmemory "github.com/poiesic/scriptura/graphstore/memory"
	"github.com/poiesic/scriptura/graphstore/neo4j"
	"github.com/poiesic/scriptura/ingest"
	"github.com/poiesic/scriptura/search"
	"github.com/poiesic/scriptura/vectorstore"
	vectormemory "github.com/poiesic/scriptura/vectorstore/memory"
	"github.com/poiesic/scriptura/vectorstore/milvus"
)

// Config holds everything needed to open a System.
type Config struct {
	// AI configures the embedding and extraction endpoints.
	// Nil means ai.DefaultConfig().
	AI *ai.Config

	// Milvus and Neo4j are the backing stores. Ignored when InMemory is set.
	Milvus milvus.Config
	Neo4j  neo4j.Config

	// RedisAddr enables the Redis embedding cache. When empty, CachePath
	// selects an on-disk cache instead; when both are empty no cache is
	// used and every text goes to the provider.
	RedisAddr     string
	RedisPassword string
	CachePath     string

	// Collection and Dim describe the vector collection.
	Collection string
	Dim        int

	// BatchSize and MaxConcurrentBatches tune the embedding client.
	BatchSize            int
	MaxConcurrentBatches int

	// RetryAttempts and RetryDelay govern embedding retries; the delay
	// doubles on each attempt.
	RetryAttempts int
	RetryDelay    time.Duration

	// InMemory swaps both stores for in-process implementations.
	// Useful for smoke runs without external services.
	InMemory bool
}

// DefaultConfig returns a Config for local services and the default
// embedding model dimension.
func DefaultConfig() Config {
	return Config{
		AI:                   ai.DefaultConfig(),
		Collection:           "chunks",
		Dim:                  768,
		BatchSize:            10,
		MaxConcurrentBatches: 3,
		RetryAttempts:        3,
		RetryDelay:           500 * time.Millisecond,
	}
}

// System is the assembled retrieval stack. Construct with Open; Close
// releases every connection it holds.
type System struct {
	provider ai.Provider
	cache    cache.Cache
	embedder *embedding.Client
	vectors  vectorstore.Store
	graph    graphstore.Store
	schema   vectorstore.Schema
	logger   *slog.Logger
}

// Open connects to all configured services.
func Open(ctx context.Context, cfg Config) (*System, error) {
	if cfg.AI == nil {
		cfg.AI = ai.DefaultConfig()
	}
	if err := cfg.AI.Validate(); err != nil {
		return nil, err
	}
	if cfg.Collection == "" {
		cfg.Collection = "chunks"
	}
	if cfg.Dim <= 0 {
		cfg.Dim = 768
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxConcurrentBatches <= 0 {
		cfg.MaxConcurrentBatches = 3
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	s := &System{
		schema: vectorstore.Schema{Collection: cfg.Collection, Dim: cfg.Dim},
		logger: slog.Default().With("component", "system"),
	}

	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	provider, err := openai.NewProvider(cfg.AI)
	if err != nil {
		return nil, err
	}
	s.provider = provider

	// An explicitly configured cache must work; a missing one is fine.
	switch {
	case cfg.RedisAddr != "":
		s.cache, err = rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	case cfg.CachePath != "":
		s.cache, err = badgercache.Open(cfg.CachePath, false)
	}
	if err != nil {
		return nil, err
	}

	embedOpts := []embedding.Option{
		embedding.WithModelIdentity("openai", cfg.AI.EmbeddingModel),
		embedding.WithBatchSize(cfg.BatchSize),
		embedding.WithMaxConcurrentBatches(cfg.MaxConcurrentBatches),
		embedding.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
	}
	if s.cache != nil {
		embedOpts = append(embedOpts, embedding.WithCache(s.cache))
	}
	s.embedder, err = embedding.New(provider.Embedder(), embedOpts...)
	if err != nil {
		return nil, err
	}

	if cfg.InMemory {
		s.vectors = vectormemory.New()
		s.graph = graphmemory.New()
	} else {
		s.vectors, err = milvus.New(ctx, cfg.Milvus)
		if err != nil {
			return nil, err
		}
		s.graph, err = neo4j.New(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
	}

	ok = true
	return s, nil
}

// Schema returns the vector collection schema the system was opened with.
func (s *System) Schema() vectorstore.Schema {
	return s.schema
}

// Embedder returns the shared embedding client.
func (s *System) Embedder() *embedding.Client {
	return s.embedder
}

// DropCollection removes the vector collection so the next pipeline run
// starts from an empty index. Graph data is left in place: upserts are
// keyed by name, so re-ingestion converges without a wipe.
func (s *System) DropCollection(ctx context.Context) error {
	return s.vectors.Drop(ctx, s.schema)
}

// NewPipeline builds an ingestion pipeline over the system's connections.
// The pipeline's stores stay open until the System is closed.
func (s *System) NewPipeline(loader corpus.Loader, opts ...ingest.Option) (*ingest.Pipeline, error) {
	opts = append([]ingest.Option{ingest.WithSchema(s.schema)}, opts...)
	return ingest.NewPipeline(loader, s.embedder, s.provider.GraphExtractor(), s.vectors, s.graph, opts...)
}

// NewSearcher builds a searcher over the system's connections.
func (s *System) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.embedder, s.vectors, s.graph, s.provider.EntityExtractor(), opts...)
}

// Close releases every connection the system holds. Safe when Open failed
// partway: only the components that were built are closed.
func (s *System) Close() error {
	var errs []error
	if s.embedder != nil {
		s.embedder.Release()
	}
	if s.vectors != nil {
		errs = append(errs, s.vectors.Close())
	}
	if s.graph != nil {
		errs = append(errs, s.graph.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.provider != nil {
		errs = append(errs, s.provider.Close())
	}
	return errors.Join(errs...)
}
