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
	"sync"

	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/graphstore"
)

type node struct {
	label string
	props map[string]any
}

type edge struct {
	source  string
	target  string
	relType string
	props   map[string]any
}

type edgeKey struct {
	source  string
	target  string
	relType string
}

// Store is an adjacency-map graph for tests. Traversal is undirected,
// mirroring how production traversal follows relationships both ways.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]node
	edges    map[edgeKey]edge
	adjacent map[string][]edgeKey
}

var _ graphstore.Store = (*Store)(nil)

// New creates an empty in-memory graph.
func New() *Store {
	return &Store{
		nodes:    make(map[string]node),
		edges:    make(map[edgeKey]edge),
		adjacent: make(map[string][]edgeKey),
	}
}

// EnsureConstraints is a no-op: the node map enforces name uniqueness.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	return nil
}

// UpsertNode creates or updates the node identified by name.
func (s *Store) UpsertNode(ctx context.Context, label, name string, props map[string]any) error {
	if label == "" || name == "" {
		return graphstore.ErrInvalidNode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[name]
	if !ok {
		existing = node{label: label, props: make(map[string]any)}
	}
	existing.label = label
	for k, v := range props {
		existing.props[k] = v
	}
	s.nodes[name] = existing
	return nil
}

// UpsertEdge creates or updates a relationship between existing nodes.
func (s *Store) UpsertEdge(ctx context.Context, source, target, relType string, props map[string]any) error {
	if source == "" || target == "" || relType == "" {
		return graphstore.ErrInvalidEdge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[source]; !ok {
		return graphstore.ErrInvalidEdge
	}
	if _, ok := s.nodes[target]; !ok {
		return graphstore.ErrInvalidEdge
	}

	key := edgeKey{source: source, target: target, relType: relType}
	existing, ok := s.edges[key]
	if !ok {
		existing = edge{source: source, target: target, relType: relType, props: make(map[string]any)}
		s.adjacent[source] = append(s.adjacent[source], key)
		s.adjacent[target] = append(s.adjacent[target], key)
	}
	for k, v := range props {
		existing.props[k] = v
	}
	s.edges[key] = existing
	return nil
}

// Traverse runs a breadth-first walk from each known seed, so each reached
// node is found along a shortest path. Unknown seeds contribute nothing.
func (s *Store) Traverse(ctx context.Context, seeds []string, maxDepth int) ([]core.GraphRecord, error) {
	if maxDepth < 1 {
		return nil, graphstore.ErrInvalidDepth
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	maxDegree := 0
	for name := range s.nodes {
		if d := len(s.adjacent[name]); d > maxDegree {
			maxDegree = d
		}
	}

	var records []core.GraphRecord
	seen := make(map[[2]string]bool)

	for _, seed := range seeds {
		seedNode, ok := s.nodes[seed]
		if !ok {
			continue
		}
		seedImportance := graphstore.DegreeImportance(len(s.adjacent[seed]), maxDegree)

		type step struct {
			name string
			hops int
			rels []string
		}
		visited := map[string]bool{seed: true}
		queue := []step{{name: seed, hops: 0}}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if cur.hops >= maxDepth {
				continue
			}

			for _, key := range s.adjacent[cur.name] {
				e := s.edges[key]
				next := e.target
				if next == cur.name {
					next = e.source
				}
				if visited[next] {
					continue
				}
				visited[next] = true

				rels := append(append([]string(nil), cur.rels...), e.relType)
				queue = append(queue, step{name: next, hops: cur.hops + 1, rels: rels})

				pair := [2]string{seed, next}
				if seen[pair] {
					continue
				}
				seen[pair] = true

				targetNode := s.nodes[next]
				records = append(records, core.GraphRecord{
					Source:        seed,
					SourceLabel:   seedNode.label,
					Target:        next,
					TargetLabel:   targetNode.label,
					Relationships: rels,
					Hops:          cur.hops + 1,
					Relevance: graphstore.Relevance(
						seedImportance,
						graphstore.DegreeImportance(len(s.adjacent[next]), maxDegree),
						cur.hops+1),
				})
			}
		}
	}

	graphstore.SortRecords(records)
	if len(records) > graphstore.TraverseLimit {
		records = records[:graphstore.TraverseLimit]
	}
	return records, nil
}

// Close drops the graph.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]node)
	s.edges = make(map[edgeKey]edge)
	s.adjacent = make(map[string][]edgeKey)
	return nil
}

// NodeCount returns the number of stored nodes. Test helper.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of stored edges. Test helper.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}
