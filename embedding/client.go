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


package embedding

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/cache"
)

// Result is the outcome of embedding one input text. Results are positional:
// result.Index refers back to the input slice, and the output of EmbedTexts
// is always ordered by Index regardless of how batches completed.
type Result struct {
	Index    int
	Vector   []float32
	CacheHit bool
	Err      error
}

// Ok reports whether the text was embedded successfully.
func (r Result) Ok() bool {
	return r.Err == nil
}

// Stats holds cumulative pipeline counters.
type Stats struct {
	Requests      uint64
	CacheHits     uint64
	CacheMisses   uint64
	RemoteBatches uint64
	Errors        uint64
}

// Client is the batched, cached embedding pipeline.
// Construct with New; safe for concurrent use.
type Client struct {
	embedder ai.Embedder
	cache    cache.Cache
	pool     *ants.Pool

	provider       string
	model          string
	batchSize      int
	retryAttempts  int
	retryDelay     time.Duration
	rateLimitDelay time.Duration
	cacheTTL       time.Duration
	logger         *slog.Logger

	requests      atomic.Uint64
	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	remoteBatches atomic.Uint64
	errorCount    atomic.Uint64
}

// Option configures a Client.
type Option func(*Client) error

// WithCache enables embedding caching on the given backend.
// Without a cache every text goes to the provider.
func WithCache(c cache.Cache) Option {
	return func(cl *Client) error {
		cl.cache = c
		return nil
	}
}

// WithModelIdentity sets the provider and model names that participate in
// cache keys. Changing either invalidates prior cache entries.
func WithModelIdentity(provider, model string) Option {
	return func(cl *Client) error {
		cl.provider = provider
		cl.model = model
		return nil
	}
}

// WithBatchSize sets how many texts go to the provider per request.
// Default is 10.
func WithBatchSize(size int) Option {
	return func(cl *Client) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		cl.batchSize = size
		return nil
	}
}

// WithMaxConcurrentBatches bounds how many batches are in flight at once.
// Default is 3.
func WithMaxConcurrentBatches(n int) Option {
	return func(cl *Client) error {
		if n < 1 {
			n = 1
		}
		cl.pool.Release()
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		cl.pool = pool
		return nil
	}
}

// WithRetry sets the per-batch retry policy. The delay doubles on each
// attempt. Defaults are 3 attempts starting at one second.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(cl *Client) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		cl.retryAttempts = attempts
		cl.retryDelay = baseDelay
		return nil
	}
}

// WithRateLimitDelay sets a fixed pause between successive batch dispatches.
// Default is zero.
func WithRateLimitDelay(d time.Duration) Option {
	return func(cl *Client) error {
		cl.rateLimitDelay = d
		return nil
	}
}

// WithCacheTTL sets how long cached vectors live. Default is 24 hours.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cl *Client) error {
		cl.cacheTTL = ttl
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		cl.logger = logger
		return nil
	}
}

// New creates an embedding pipeline over the given embedder.
func New(embedder ai.Embedder, opts ...Option) (*Client, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(3)
	if err != nil {
		return nil, err
	}

	cl := &Client{
		embedder:      embedder,
		pool:          pool,
		provider:      "openai",
		model:         "default",
		batchSize:     10,
		retryAttempts: 3,
		retryDelay:    time.Second,
		cacheTTL:      24 * time.Hour,
		logger:        slog.Default().With("component", "embedding-client"),
	}

	for _, opt := range opts {
		if optErr := opt(cl); optErr != nil {
			cl.pool.Release()
			return nil, optErr
		}
	}

	return cl, nil
}

// EmbedText embeds a single text through the full pipeline.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	results := c.EmbedTexts(ctx, []string{text})
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Vector, nil
}

// EmbedTexts embeds texts, answering from cache where possible and batching
// the rest to the provider. The returned slice always has len(texts) entries
// in input order; per-batch failures surface as Err on the affected entries
// while the rest of the request completes normally.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) []Result {
	c.requests.Add(uint64(len(texts)))

	results := make([]Result, len(texts))
	for i := range results {
		results[i].Index = i
	}
	if len(texts) == 0 {
		return results
	}

	misses := c.fillFromCache(ctx, texts, results)
	if len(misses) == 0 {
		return results
	}

	c.dispatchBatches(ctx, texts, results, misses)
	return results
}

// Stats returns a snapshot of the cumulative pipeline counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:      c.requests.Load(),
		CacheHits:     c.cacheHits.Load(),
		CacheMisses:   c.cacheMisses.Load(),
		RemoteBatches: c.remoteBatches.Load(),
		Errors:        c.errorCount.Load(),
	}
}

// Release releases the worker pool.
// The client should not be used after calling Release.
func (c *Client) Release() {
	c.pool.Release()
}

// fillFromCache populates results for cached texts and returns the indexes
// still needing a provider round trip. Undecodable entries count as misses.
func (c *Client) fillFromCache(ctx context.Context, texts []string, results []Result) []int {
	if c.cache == nil {
		misses := make([]int, len(texts))
		for i := range texts {
			misses[i] = i
		}
		c.cacheMisses.Add(uint64(len(texts)))
		return misses
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = cache.EmbeddingKey(c.provider, c.model, text)
	}

	cached, err := c.cache.MGet(ctx, keys)
	if err != nil {
		c.logger.Warn("cache lookup failed, treating all as misses", "err", err)
		cached = make([][]byte, len(keys))
	}

	var misses []int
	for i, raw := range cached {
		if raw == nil {
			misses = append(misses, i)
			continue
		}
		vector, err := cache.UnmarshalVector(raw)
		if err != nil {
			c.logger.Warn("discarding undecodable cache entry", "key", keys[i], "err", err)
			misses = append(misses, i)
			continue
		}
		results[i].Vector = vector
		results[i].CacheHit = true
	}

	c.cacheHits.Add(uint64(len(texts) - len(misses)))
	c.cacheMisses.Add(uint64(len(misses)))
	return misses
}

// dispatchBatches groups miss indexes into batches and runs them on the
// worker pool, pausing rateLimitDelay between successive dispatches.
func (c *Client) dispatchBatches(ctx context.Context, texts []string, results []Result, misses []int) {
	var wg sync.WaitGroup

	for start := 0; start < len(misses); start += c.batchSize {
		end := start + c.batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batch := misses[start:end]

		if start > 0 && c.rateLimitDelay > 0 {
			timer := time.NewTimer(c.rateLimitDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				c.failBatch(results, batch, ctx.Err())
				continue
			case <-timer.C:
			}
		}

		wg.Add(1)
		submitted := batch
		if err := c.pool.Submit(func() {
			defer wg.Done()
			c.processBatch(ctx, texts, results, submitted)
		}); err != nil {
			wg.Done()
			c.failBatch(results, submitted, err)
		}
	}

	wg.Wait()
}

// processBatch embeds one batch with retry, assigns the vectors, and caches
// the successes. Exhausted retries fail only this batch's entries.
func (c *Client) processBatch(ctx context.Context, texts []string, results []Result, batch []int) {
	c.remoteBatches.Add(1)

	batchTexts := make([]string, len(batch))
	for i, idx := range batch {
		batchTexts[i] = texts[idx]
	}

	vectors, err := c.embedWithRetry(ctx, batchTexts)
	if err != nil {
		c.logger.Error("batch failed after retries", "size", len(batch), "err", err)
		c.failBatch(results, batch, err)
		return
	}

	for i, idx := range batch {
		if len(vectors[i]) == 0 {
			results[idx].Err = ErrEmptyVector
			c.errorCount.Add(1)
			continue
		}
		results[idx].Vector = vectors[i]
		c.store(ctx, texts[idx], vectors[i])
	}
}

// store writes one vector to the cache; failures are logged, not returned,
// since caching is an optimization.
func (c *Client) store(ctx context.Context, text string, vector []float32) {
	if c.cache == nil {
		return
	}
	key := cache.EmbeddingKey(c.provider, c.model, text)
	if err := c.cache.Set(ctx, key, cache.MarshalVector(vector), c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache embedding", "key", key, "err", err)
	}
}

func (c *Client) failBatch(results []Result, batch []int, err error) {
	for _, idx := range batch {
		results[idx].Err = err
	}
	c.errorCount.Add(uint64(len(batch)))
}
