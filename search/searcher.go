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


package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/graphstore"
	"github.com/poiesic/scriptura/vectorstore"
)

const (
	// DefaultTopK is used when a request does not set TopK.
	DefaultTopK = 10

	// DefaultTraverseDepth bounds graph traversal from entity seeds.
	DefaultTraverseDepth = 2

	// maxSeedHits is how many top vector hits feed entity extraction.
	maxSeedHits = 3

	// maxSeeds caps the number of traversal seeds per query.
	maxSeeds = 10
)

// QueryEmbedder turns a query into a vector. Satisfied by both
// embedding.Client and ai.Embedder.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Weights are the fusion scoring knobs. The defaults deliberately favor
// graph evidence when present: structured relationships are higher-precision
// than embedding similarity alone. These are tunable policy, not a law.
type Weights struct {
	// Vector and Graph weight the two evidence components in the final
	// fusion score (and scale each component internally).
	Vector float32
	Graph  float32

	// Similarity and Keyword weight the parts of the vector component, and
	// double as the per-hit combined-score weights at re-ranking time.
	Similarity float32
	Keyword    float32

	// Relevance and Diversity weight the parts of the graph component.
	Relevance float32
	Diversity float32
}

// DefaultWeights returns the standard fusion weighting.
func DefaultWeights() Weights {
	return Weights{
		Vector:     0.3,
		Graph:      0.7,
		Similarity: 0.7,
		Keyword:    0.3,
		Relevance:  0.8,
		Diversity:  0.2,
	}
}

// SeedSource records where traversal seeds came from.
type SeedSource string

const (
	// SeedsFromEntities means seeds were extracted from top vector hits.
	SeedsFromEntities SeedSource = "entities"

	// SeedsFromQuery means extraction yielded nothing and significant
	// query terms were used instead.
	SeedsFromQuery SeedSource = "query-terms"

	// SeedsNone means no seeds were available and traversal was skipped.
	SeedsNone SeedSource = "none"
)

// Request is one search invocation.
type Request struct {
	Query string

	// TopK is the maximum number of vector hits returned.
	// Zero means DefaultTopK.
	TopK int

	// Filter optionally restricts vector search to matching chunks.
	Filter vectorstore.Filter
}

// Stats carries provenance for a response, so callers can display how the
// fusion score was arrived at rather than just an opaque rank.
type Stats struct {
	VectorHits        int
	GraphRecords      int
	AvgSimilarity     float32
	AvgGraphRelevance float32
	Seeds             []string
	SeedSource        SeedSource
}

// Response is the combined result of one search.
type Response struct {
	Hits    []core.SearchHit
	Records []core.GraphRecord
	Fusion  float32
	Stats   Stats
}

// Searcher runs hybrid vector+graph retrieval over an ingested corpus.
// It performs no mutation and is safe for concurrent use.
type Searcher struct {
	embedder  QueryEmbedder
	vectors   vectorstore.Store
	graph     graphstore.Store
	extractor ai.EntityExtractor
	weights   Weights
	depth     int
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithWeights overrides the fusion weights.
func WithWeights(weights Weights) Option {
	return func(s *Searcher) error {
		s.weights = weights
		return nil
	}
}

// WithTraverseDepth sets the maximum graph traversal depth.
// Default is DefaultTraverseDepth.
func WithTraverseDepth(depth int) Option {
	return func(s *Searcher) error {
		if depth < 1 {
			return ErrInvalidDepth
		}
		s.depth = depth
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	embedder QueryEmbedder,
	vectors vectorstore.Store,
	graph graphstore.Store,
	extractor ai.EntityExtractor,
	opts ...Option,
) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	s := &Searcher{
		embedder:  embedder,
		vectors:   vectors,
		graph:     graph,
		extractor: extractor,
		weights:   DefaultWeights(),
		depth:     DefaultTraverseDepth,
		logger:    slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs the full hybrid pipeline for one query.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs the full hybrid pipeline with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor Monitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	monitor.Start(req.Query)
	response := &Response{Stats: Stats{SeedSource: SeedsNone}}

	// 1. Embed the query. Failure degrades to an empty result rather than
	// an error: a dead embedding endpoint must not crash callers.
	vector, err := s.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", req.Query, "err", err)
		monitor.Finish(response)
		return response, nil
	}

	// 2. Vector search, over-fetching for re-ranking. An unreachable index
	// degrades to no vector evidence; any other failure is a caller error.
	hits, err := s.vectors.Search(ctx, vector, 2*topK, req.Filter)
	if err != nil {
		if !errors.Is(err, vectorstore.ErrUnavailable) {
			s.logger.Error("error querying vector index", "err", err)
			return nil, err
		}
		s.logger.Warn("vector index unavailable, continuing without vector evidence", "err", err)
		hits = nil
	}

	terms := queryTerms(req.Query)
	for i := range hits {
		hits[i].Keyword = keywordOverlap(hits[i].Content, terms)
		hits[i].Combined = s.weights.Similarity*hits[i].Score + s.weights.Keyword*hits[i].Keyword
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Combined != hits[j].Combined {
			return hits[i].Combined > hits[j].Combined
		}
		return hits[i].ChunkId < hits[j].ChunkId
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	response.Hits = hits
	monitor.AfterVectorSearch(hits)

	// 3. Pick traversal seeds: entities from the top hits, falling back to
	// significant query terms.
	seeds, source := s.selectSeeds(ctx, req.Query, hits)
	response.Stats.Seeds = seeds
	response.Stats.SeedSource = source
	monitor.AfterSeedSelection(source, seeds)

	// 4. Traverse the graph from the seeds. Traversal failure degrades to
	// no graph evidence: graph context enriches search but must not break it.
	if len(seeds) > 0 {
		records, err := s.graph.Traverse(ctx, seeds, s.depth)
		if err != nil {
			s.logger.Warn("graph traversal failed, continuing without graph evidence", "err", err)
		} else {
			response.Records = records
		}
	}
	monitor.AfterTraversal(response.Records)

	// 5. Fuse the two evidence sets.
	s.score(response)
	monitor.Finish(response)

	return response, nil
}

// selectSeeds extracts entities from up to maxSeedHits top hits, deduplicated
// in extraction order. When no entities surface, the query's significant
// terms stand in. Extraction errors skip the hit rather than fail the search.
func (s *Searcher) selectSeeds(ctx context.Context, query string, hits []core.SearchHit) ([]string, SeedSource) {
	seen := make(map[string]bool)
	var seeds []string

	for i, hit := range hits {
		if i >= maxSeedHits || len(seeds) >= maxSeeds {
			break
		}
		entities, err := s.extractor.ExtractEntities(ctx, hit.Content)
		if err != nil {
			s.logger.Warn("entity extraction failed for hit", "chunk", hit.ChunkId.Hex(), "err", err)
			continue
		}
		for _, entity := range entities {
			if entity == "" || seen[entity] {
				continue
			}
			seen[entity] = true
			seeds = append(seeds, entity)
			if len(seeds) >= maxSeeds {
				break
			}
		}
	}
	if len(seeds) > 0 {
		return seeds, SeedsFromEntities
	}

	terms := significantTerms(query)
	if len(terms) > maxSeeds {
		terms = terms[:maxSeeds]
	}
	if len(terms) > 0 {
		return terms, SeedsFromQuery
	}
	return nil, SeedsNone
}

// score computes the fusion score and supporting statistics. Each component
// is zero when its result set is empty, so a query with no evidence at all
// fuses to exactly zero.
func (s *Searcher) score(response *Response) {
	w := s.weights

	var vectorComponent float32
	if len(response.Hits) > 0 {
		var sumSim, sumKeyword float32
		for _, hit := range response.Hits {
			sumSim += hit.Score
			sumKeyword += hit.Keyword
		}
		n := float32(len(response.Hits))
		response.Stats.AvgSimilarity = sumSim / n
		vectorComponent = (w.Similarity*response.Stats.AvgSimilarity + w.Keyword*(sumKeyword/n)) * w.Vector
	}

	var graphComponent float32
	if len(response.Records) > 0 {
		var sumRelevance float32
		relTypes := make(map[string]bool)
		for _, record := range response.Records {
			sumRelevance += record.Relevance
			for _, rel := range record.Relationships {
				relTypes[rel] = true
			}
		}
		response.Stats.AvgGraphRelevance = sumRelevance / float32(len(response.Records))

		diversity := float32(len(relTypes)) / 10
		if diversity > 1 {
			diversity = 1
		}
		graphComponent = (w.Relevance*response.Stats.AvgGraphRelevance + w.Diversity*diversity) * w.Graph
	}

	fusion := w.Vector*vectorComponent + w.Graph*graphComponent
	if fusion < 0 {
		fusion = 0
	}
	if fusion > 1 {
		fusion = 1
	}
	response.Fusion = fusion
	response.Stats.VectorHits = len(response.Hits)
	response.Stats.GraphRecords = len(response.Records)
}
