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


package graphstore

import (
	"context"

	"github.com/poiesic/scriptura/core"
)

// TraverseLimit caps how many records one traversal returns.
const TraverseLimit = 50

// Store holds the knowledge graph extracted from passages.
// Implementations must be thread-safe. Node names are natural keys: writes
// are MERGE-style upserts, so re-ingesting the same content never duplicates
// nodes or edges.
type Store interface {
	// EnsureConstraints creates per-label name uniqueness constraints.
	// Idempotent.
	EnsureConstraints(ctx context.Context) error

	// UpsertNode creates or updates the node identified by (label, name).
	// Properties are merged into any existing node.
	UpsertNode(ctx context.Context, label, name string, props map[string]any) error

	// UpsertEdge creates or updates a relationship of relType between the
	// named nodes, which must already exist. Properties are merged.
	UpsertEdge(ctx context.Context, source, target, relType string, props map[string]any) error

	// Traverse walks outward from the seed names up to maxDepth hops,
	// returning reached node pairs ranked by relevance (highest first,
	// ties broken by target then source name) and capped at TraverseLimit.
	// Unknown seeds contribute nothing; no known seed means empty result.
	Traverse(ctx context.Context, seeds []string, maxDepth int) ([]core.GraphRecord, error)

	// Close releases backend resources.
	Close() error
}
