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


package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/vectorstore"
)

// Store is a brute-force in-memory vector index. It exists for tests and
// small corpora; search cost is linear in the number of rows.
type Store struct {
	mu     sync.RWMutex
	schema vectorstore.Schema
	rows   map[core.ID]vectorstore.Row
	closed bool
}

var _ vectorstore.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{rows: make(map[core.ID]vectorstore.Row)}
}

// EnsureCollection records the schema. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context, schema vectorstore.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
	return nil
}

// Insert upserts rows by chunk ID.
func (s *Store) Insert(ctx context.Context, rows []vectorstore.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		if !row.Chunk.HasEmbedding() {
			return vectorstore.ErrMissingEmbedding
		}
		if s.schema.Dim > 0 && len(row.Chunk.Embedding) != s.schema.Dim {
			return fmt.Errorf("%w: got %d, want %d",
				vectorstore.ErrDimensionMismatch, len(row.Chunk.Embedding), s.schema.Dim)
		}
		s.rows[row.Chunk.Id] = row
	}
	return nil
}

// Search scans every row, applying the filter and ranking by cosine
// similarity. Cosine similarity is mapped from [-1, 1] to a [0, 1] score.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter vectorstore.Filter) ([]core.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.schema.Dim > 0 && len(vector) != s.schema.Dim {
		return nil, fmt.Errorf("%w: got %d, want %d",
			vectorstore.ErrDimensionMismatch, len(vector), s.schema.Dim)
	}

	var hits []core.SearchHit
	for _, row := range s.rows {
		match, err := matches(row, filter)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}

		similarity := cosine(vector, row.Chunk.Embedding)
		chunk := row.Chunk
		hits = append(hits, core.SearchHit{
			ChunkId:     chunk.Id,
			Content:     chunk.Content,
			Translation: chunk.Translation,
			Book:        chunk.Book,
			Chapter:     chunk.Chapter,
			StartVerse:  chunk.StartVerse,
			EndVerse:    chunk.EndVerse,
			Distance:    similarity,
			Score:       clamp01((similarity + 1) / 2),
		})
	}

	slices.SortFunc(hits, func(a, b core.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		// Deterministic order for equal scores.
		if a.ChunkId < b.ChunkId {
			return -1
		}
		if a.ChunkId > b.ChunkId {
			return 1
		}
		return 0
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Flush is a no-op for the in-memory store.
func (s *Store) Flush(ctx context.Context) error {
	return nil
}

// Drop discards every row, keeping the store usable.
func (s *Store) Drop(ctx context.Context, schema vectorstore.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[core.ID]vectorstore.Row)
	return nil
}

// Close drops all rows.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.closed = true
	return nil
}

// Len returns the number of stored rows. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// matches evaluates the portable filter algebra against one row.
func matches(row vectorstore.Row, filter vectorstore.Filter) (bool, error) {
	switch f := filter.(type) {
	case nil:
		return true, nil
	case vectorstore.AndFilter:
		for _, child := range f.Filters {
			ok, err := matches(row, child)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case vectorstore.EqFilter:
		value, err := fieldValue(row, f.Field)
		if err != nil {
			return false, err
		}
		return valueEqual(value, f.Value), nil
	case vectorstore.InFilter:
		value, err := fieldValue(row, f.Field)
		if err != nil {
			return false, err
		}
		for _, candidate := range f.Values {
			if valueEqual(value, candidate) {
				return true, nil
			}
		}
		return false, nil
	case vectorstore.GteFilter:
		n, err := intField(row, f.Field)
		if err != nil {
			return false, err
		}
		return n >= f.Value, nil
	case vectorstore.LteFilter:
		n, err := intField(row, f.Field)
		if err != nil {
			return false, err
		}
		return n <= f.Value, nil
	default:
		return false, fmt.Errorf("%w: %T", vectorstore.ErrUnsupportedFilter, filter)
	}
}

func fieldValue(row vectorstore.Row, field string) (any, error) {
	chunk := row.Chunk
	switch field {
	case "translation":
		return chunk.Translation, nil
	case "book":
		return chunk.Book, nil
	case "chapter":
		return chunk.Chapter, nil
	case "start_verse":
		return chunk.StartVerse, nil
	case "end_verse":
		return chunk.EndVerse, nil
	case "ordinal":
		return chunk.Ordinal, nil
	case "testament":
		return row.Testament, nil
	case "genre":
		return row.Genre, nil
	default:
		return nil, fmt.Errorf("%w: unknown field %q", vectorstore.ErrUnsupportedFilter, field)
	}
}

func intField(row vectorstore.Row, field string) (int, error) {
	value, err := fieldValue(row, field)
	if err != nil {
		return 0, err
	}
	n, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%w: field %q is not numeric", vectorstore.ErrUnsupportedFilter, field)
	}
	return n, nil
}

func valueEqual(a, b any) bool {
	// Normalize integer widths so Eq("chapter", int64(3)) behaves.
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
		return false
	}
	return a == b
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// cosine computes cosine similarity, 0 for degenerate inputs.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
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
