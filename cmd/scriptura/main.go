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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/scriptura"
	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/corpus"
	"github.com/poiesic/scriptura/graphstore/neo4j"
	"github.com/poiesic/scriptura/ingest"
	"github.com/poiesic/scriptura/search"
	"github.com/poiesic/scriptura/segment"
	"github.com/poiesic/scriptura/vectorstore"
	"github.com/poiesic/scriptura/vectorstore/milvus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "scriptura",
		Usage:  "Hybrid vector and graph retrieval over scripture corpora",
		Flags:  []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest a translation into the vector and graph stores",
				Action: ingestCommand,
				Flags: append(connectionFlags(),
					&cli.StringFlag{
						Name:     "corpus",
						Aliases:  []string{"c"},
						Usage:    "Path to the translation JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "translation",
						Usage: "Override the translation name declared in the file",
					},
					&cli.StringSliceFlag{
						Name:  "books",
						Usage: "Restrict ingestion to the named books",
					},
					&cli.BoolFlag{
						Name:  "drop-existing",
						Usage: "Drop the vector collection before ingesting",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per embedding/extraction batch",
						Value: ingest.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-concurrent-containers",
						Usage: "Chapters processed concurrently (0 = CPU-based default)",
					},
					&cli.IntFlag{
						Name:  "max-words",
						Usage: "Maximum words per chunk",
						Value: 300,
					},
					&cli.IntFlag{
						Name:  "min-words",
						Usage: "Minimum words for a standalone trailing chunk",
						Value: 200,
					},
					&cli.Float64Flag{
						Name:  "error-rate-threshold",
						Usage: "Fail the run when the chunk error rate exceeds this fraction",
						Value: 0.1,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search against an ingested corpus",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(connectionFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of passages to return",
						Value:   search.DefaultTopK,
					},
					&cli.StringFlag{
						Name:  "translation",
						Usage: "Restrict results to one translation",
					},
					&cli.StringFlag{
						Name:  "book",
						Usage: "Restrict results to one book",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// connectionFlags are shared by every command that opens the system.
func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "extractor-host",
			Usage: "Extraction service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "extractor-model",
			Usage: "Extraction model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "milvus-address",
			Usage: "Milvus proxy address",
			Value: "localhost:19530",
		},
		&cli.StringFlag{
			Name:  "neo4j-uri",
			Usage: "Neo4j bolt URI",
			Value: "neo4j://localhost:7687",
		},
		&cli.StringFlag{
			Name:  "neo4j-user",
			Usage: "Neo4j username",
			Value: "neo4j",
		},
		&cli.StringFlag{
			Name:  "neo4j-password",
			Usage: "Neo4j password",
		},
		&cli.StringFlag{
			Name:  "redis-addr",
			Usage: "Redis address for the embedding cache (empty disables)",
		},
		&cli.StringFlag{
			Name:  "cache-path",
			Usage: "On-disk embedding cache directory (used when redis-addr is empty)",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Vector collection name",
			Value: "chunks",
		},
		&cli.IntFlag{
			Name:  "dim",
			Usage: "Embedding dimension",
			Value: 768,
		},
		&cli.IntFlag{
			Name:  "retry-attempts",
			Usage: "Embedding retry attempts per batch",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay between embedding retries (doubles each attempt)",
			Value: 500 * time.Millisecond,
		},
		&cli.BoolFlag{
			Name:  "memory-stores",
			Usage: "Use in-process stores instead of Milvus and Neo4j",
		},
	}
}

func systemConfig(c *cli.Context) scriptura.Config {
	extractorHost := c.String("extractor-host")
	if extractorHost == "" {
		extractorHost = c.String("embedding-host")
	}

	cfg := scriptura.DefaultConfig()
	cfg.AI = ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithExtractorHost(extractorHost),
		ai.WithExtractorModel(c.String("extractor-model")),
	)
	cfg.Milvus = milvus.Config{Address: c.String("milvus-address")}
	cfg.Neo4j = neo4j.Config{
		URI:      c.String("neo4j-uri"),
		Username: c.String("neo4j-user"),
		Password: c.String("neo4j-password"),
	}
	cfg.RedisAddr = c.String("redis-addr")
	cfg.CachePath = c.String("cache-path")
	cfg.Collection = c.String("collection")
	cfg.Dim = c.Int("dim")
	cfg.RetryAttempts = c.Int("retry-attempts")
	cfg.RetryDelay = c.Duration("retry-delay")
	cfg.InMemory = c.Bool("memory-stores")
	return cfg
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	system, err := scriptura.Open(ctx, systemConfig(c))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open system: %v", err), 1)
	}
	defer system.Close()

	if c.Bool("drop-existing") {
		if err := system.DropCollection(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("failed to drop collection: %v", err), 1)
		}
	}

	var loaderOpts []corpus.JSONOption
	if name := c.String("translation"); name != "" {
		loaderOpts = append(loaderOpts, corpus.WithTranslation(name))
	}
	loader := corpus.NewJSONLoader(c.String("corpus"), loaderOpts...)

	opts := []ingest.Option{
		ingest.WithBatchSize(c.Int("batch-size")),
		ingest.WithSegmentConfig(segmentConfig(c)),
	}
	if n := c.Int("max-concurrent-containers"); n > 0 {
		opts = append(opts, ingest.WithMaxConcurrentContainers(n))
	}
	if books := c.StringSlice("books"); len(books) > 0 {
		opts = append(opts, ingest.WithBooks(books...))
	}

	pipeline, err := system.NewPipeline(loader, opts...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to build pipeline: %v", err), 1)
	}
	defer pipeline.Release()

	metrics, err := pipeline.Run(ctx)
	fmt.Fprintln(os.Stderr, metrics.Summary())
	if err != nil {
		return cli.Exit(fmt.Sprintf("ingestion failed: %v", err), 1)
	}

	threshold := c.Float64("error-rate-threshold")
	if rate := metrics.ErrorRate(); rate > threshold {
		return cli.Exit(fmt.Sprintf("error rate %.1f%% exceeds threshold %.1f%%",
			rate*100, threshold*100), 1)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return cli.Exit("a query is required", 1)
	}

	system, err := scriptura.Open(ctx, systemConfig(c))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open system: %v", err), 1)
	}
	defer system.Close()

	searcher, err := system.NewSearcher()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to build searcher: %v", err), 1)
	}

	resp, err := searcher.Search(ctx, search.Request{
		Query:  query,
		TopK:   c.Int("top-k"),
		Filter: buildFilter(c.String("translation"), c.String("book")),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("search failed: %v", err), 1)
	}

	printResponse(os.Stdout, resp)
	return nil
}

// buildFilter combines the optional translation and book restrictions.
func buildFilter(translation, book string) vectorstore.Filter {
	var filters []vectorstore.Filter
	if translation != "" {
		filters = append(filters, vectorstore.Eq("translation", translation))
	}
	if book != "" {
		filters = append(filters, vectorstore.Eq("book", book))
	}
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return vectorstore.And(filters...)
	}
}

func printResponse(w *os.File, resp *search.Response) {
	if len(resp.Hits) == 0 {
		fmt.Fprintln(w, "no results")
	}
	for i, hit := range resp.Hits {
		fmt.Fprintf(w, "%2d. %-24s sim=%.3f kw=%.2f combined=%.3f\n",
			i+1, hit.Ref(), hit.Score, hit.Keyword, hit.Combined)
		fmt.Fprintf(w, "    %s\n", hit.Content)
	}
	if len(resp.Records) > 0 {
		fmt.Fprintln(w, "\ngraph context:")
		for _, record := range resp.Records {
			fmt.Fprintf(w, "    %s -[%s]-> %s (hops=%d relevance=%.2f)\n",
				record.Source, strings.Join(record.Relationships, ","),
				record.Target, record.Hops, record.Relevance)
		}
	}
	fmt.Fprintf(w, "\nfusion=%.4f hits=%d records=%d avg_sim=%.3f avg_rel=%.3f seeds(%s)=%s\n",
		resp.Fusion, resp.Stats.VectorHits, resp.Stats.GraphRecords,
		resp.Stats.AvgSimilarity, resp.Stats.AvgGraphRelevance,
		resp.Stats.SeedSource, strings.Join(resp.Stats.Seeds, ", "))
}

func segmentConfig(c *cli.Context) segment.Config {
	return segment.Config{
		MaxWords:     c.Int("max-words"),
		MinWords:     c.Int("min-words"),
		OverlapUnits: 1,
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
