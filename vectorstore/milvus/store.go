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


package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/vectorstore"
)

const (
	vectorField   = "embedding"
	maxContentLen = 8192
	maxLabelLen   = 128
	maxJSONLen    = 4096
)

// searchOutputFields are the scalar fields returned with every hit.
var searchOutputFields = []string{
	"content", "translation", "book", "chapter", "start_verse", "end_verse",
}

// Store implements vectorstore.Store backed by a Milvus collection with an
// HNSW index over cosine similarity.
type Store struct {
	client client.Client
	schema vectorstore.Schema
	logger *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// Config holds connection settings for Milvus.
type Config struct {
	// Address is the host:port of the Milvus proxy.
	Address string

	// Username and Password are optional; empty means no auth.
	Username string
	Password string
}

// New connects to Milvus.
func New(ctx context.Context, cfg Config) (*Store, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vectorstore.ErrUnavailable, err)
	}

	return &Store{
		client: c,
		logger: slog.Default().With("component", "milvus-store"),
	}, nil
}

// EnsureCollection creates the chunk collection, its HNSW index, and loads
// it for search. Idempotent against an existing collection.
func (s *Store) EnsureCollection(ctx context.Context, schema vectorstore.Schema) error {
	s.schema = schema

	exists, err := s.client.HasCollection(ctx, schema.Collection)
	if err != nil {
		return fmt.Errorf("%w: %w", vectorstore.ErrUnavailable, err)
	}

	if !exists {
		collSchema := entity.NewSchema().
			WithName(schema.Collection).
			WithDescription("embedded passage chunks").
			WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxContentLen)).
			WithField(entity.NewField().WithName("translation").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxLabelLen)).
			WithField(entity.NewField().WithName("book").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxLabelLen)).
			WithField(entity.NewField().WithName("chapter").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("start_verse").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("end_verse").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("ordinal").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("word_count").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("char_count").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("testament").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxLabelLen)).
			WithField(entity.NewField().WithName("genre").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxLabelLen)).
			WithField(entity.NewField().WithName("themes").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxJSONLen)).
			WithField(entity.NewField().WithName("metadata").WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxJSONLen)).
			WithField(entity.NewField().WithName(vectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(schema.Dim)))

		if err := s.client.CreateCollection(ctx, collSchema, 1); err != nil {
			return err
		}

		index, err := entity.NewIndexHNSW(entity.COSINE, 16, 200)
		if err != nil {
			return err
		}
		if err := s.client.CreateIndex(ctx, schema.Collection, vectorField, index, false); err != nil {
			return err
		}

		s.logger.Info("created collection", "collection", schema.Collection, "dim", schema.Dim)
	}

	return s.client.LoadCollection(ctx, schema.Collection, false)
}

// Insert upserts rows by chunk ID.
func (s *Store) Insert(ctx context.Context, rows []vectorstore.Row) error {
	if len(rows) == 0 {
		return nil
	}

	n := len(rows)
	ids := make([]int64, n)
	contents := make([]string, n)
	translations := make([]string, n)
	books := make([]string, n)
	chapters := make([]int64, n)
	startVerses := make([]int64, n)
	endVerses := make([]int64, n)
	ordinals := make([]int64, n)
	wordCounts := make([]int64, n)
	charCounts := make([]int64, n)
	testaments := make([]string, n)
	genres := make([]string, n)
	themes := make([]string, n)
	metadatas := make([]string, n)
	vectors := make([][]float32, n)

	for i, row := range rows {
		chunk := row.Chunk
		if !chunk.HasEmbedding() {
			return vectorstore.ErrMissingEmbedding
		}
		if s.schema.Dim > 0 && len(chunk.Embedding) != s.schema.Dim {
			return fmt.Errorf("%w: got %d, want %d",
				vectorstore.ErrDimensionMismatch, len(chunk.Embedding), s.schema.Dim)
		}

		themesJSON, err := json.Marshal(row.Themes)
		if err != nil {
			return err
		}
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return err
		}

		ids[i] = int64(chunk.Id)
		contents[i] = chunk.Content
		translations[i] = chunk.Translation
		books[i] = chunk.Book
		chapters[i] = int64(chunk.Chapter)
		startVerses[i] = int64(chunk.StartVerse)
		endVerses[i] = int64(chunk.EndVerse)
		ordinals[i] = int64(chunk.Ordinal)
		wordCounts[i] = int64(chunk.WordCount)
		charCounts[i] = int64(chunk.CharCount)
		testaments[i] = row.Testament
		genres[i] = row.Genre
		themes[i] = string(themesJSON)
		metadatas[i] = string(metadataJSON)
		vectors[i] = chunk.Embedding
	}

	_, err := s.client.Upsert(ctx, s.schema.Collection, "",
		entity.NewColumnInt64("id", ids),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnVarChar("translation", translations),
		entity.NewColumnVarChar("book", books),
		entity.NewColumnInt64("chapter", chapters),
		entity.NewColumnInt64("start_verse", startVerses),
		entity.NewColumnInt64("end_verse", endVerses),
		entity.NewColumnInt64("ordinal", ordinals),
		entity.NewColumnInt64("word_count", wordCounts),
		entity.NewColumnInt64("char_count", charCounts),
		entity.NewColumnVarChar("testament", testaments),
		entity.NewColumnVarChar("genre", genres),
		entity.NewColumnVarChar("themes", themes),
		entity.NewColumnVarChar("metadata", metadatas),
		entity.NewColumnFloatVector(vectorField, s.schema.Dim, vectors),
	)
	return err
}

// Search runs an HNSW similarity query, translating the filter into a Milvus
// expression. Cosine scores are mapped from [-1, 1] into [0, 1].
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter vectorstore.Filter) ([]core.SearchHit, error) {
	if s.schema.Dim > 0 && len(vector) != s.schema.Dim {
		return nil, fmt.Errorf("%w: got %d, want %d",
			vectorstore.ErrDimensionMismatch, len(vector), s.schema.Dim)
	}

	expr, err := renderExpr(filter)
	if err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, err
	}

	// Reads degrade when the engine is down: an unreachable index yields
	// an empty result set, never an error.
	results, err := s.client.Search(ctx, s.schema.Collection, nil, expr,
		searchOutputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		vectorField, entity.COSINE, topK, sp)
	if err != nil {
		s.logger.Warn("vector search unavailable, returning empty result", "err", err)
		return nil, nil
	}

	var hits []core.SearchHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			id, err := result.IDs.GetAsInt64(i)
			if err != nil {
				return nil, err
			}

			similarity := result.Scores[i]
			hits = append(hits, core.SearchHit{
				ChunkId:     core.ID(id),
				Content:     stringField(result.Fields, "content", i),
				Translation: stringField(result.Fields, "translation", i),
				Book:        stringField(result.Fields, "book", i),
				Chapter:     intField(result.Fields, "chapter", i),
				StartVerse:  intField(result.Fields, "start_verse", i),
				EndVerse:    intField(result.Fields, "end_verse", i),
				Distance:    similarity,
				Score:       clamp01((similarity + 1) / 2),
			})
		}
	}
	return hits, nil
}

// Flush makes prior upserts durable and searchable.
func (s *Store) Flush(ctx context.Context) error {
	return s.client.Flush(ctx, s.schema.Collection, false)
}

// Drop removes the collection. A missing collection is a no-op.
func (s *Store) Drop(ctx context.Context, schema vectorstore.Schema) error {
	exists, err := s.client.HasCollection(ctx, schema.Collection)
	if err != nil {
		return fmt.Errorf("%w: %w", vectorstore.ErrUnavailable, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DropCollection(ctx, schema.Collection); err != nil {
		return err
	}
	s.logger.Info("dropped collection", "collection", schema.Collection)
	return nil
}

// Close releases the Milvus connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func stringField(fields client.ResultSet, name string, idx int) string {
	column := fields.GetColumn(name)
	if column == nil {
		return ""
	}
	value, err := column.GetAsString(idx)
	if err != nil {
		return ""
	}
	return value
}

func intField(fields client.ResultSet, name string, idx int) int {
	column := fields.GetColumn(name)
	if column == nil {
		return 0
	}
	value, err := column.GetAsInt64(idx)
	if err != nil {
		return 0
	}
	return int(value)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
