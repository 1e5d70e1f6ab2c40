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


package vectorstore

import (
	"context"

	"github.com/poiesic/scriptura/core"
)

// Schema describes the chunk collection held by a vector store.
type Schema struct {
	// Collection is the collection or index name.
	Collection string

	// Dim is the embedding dimension; every inserted and searched vector
	// must match it.
	Dim int
}

// Row is one chunk plus the corpus-level attributes stored alongside it
// for filtered retrieval.
type Row struct {
	Chunk     *core.Chunk
	Testament string
	Genre     string
	Themes    []string
}

// Store indexes embedded chunks for similarity search.
// Implementations must be thread-safe.
type Store interface {
	// EnsureCollection creates the collection and its index if absent.
	// Idempotent: calling against an existing collection is a no-op.
	EnsureCollection(ctx context.Context, schema Schema) error

	// Insert upserts rows by chunk ID. Every row must carry an embedding
	// matching the collection dimension.
	Insert(ctx context.Context, rows []Row) error

	// Search returns up to topK hits nearest to the query vector, most
	// similar first. A nil filter matches everything. Hits carry the raw
	// backend distance and a similarity score normalized to [0, 1].
	Search(ctx context.Context, vector []float32, topK int, filter Filter) ([]core.SearchHit, error)

	// Flush makes prior inserts durable and visible to search.
	Flush(ctx context.Context) error

	// Drop removes the collection and everything in it. A missing
	// collection is not an error.
	Drop(ctx context.Context, schema Schema) error

	// Close releases backend resources.
	Close() error
}
