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


package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/poiesic/scriptura/ai"
	"github.com/poiesic/scriptura/core"
	"github.com/poiesic/scriptura/graphstore"
)

// identifierPattern gates labels and relationship types before they are
// spliced into Cypher. Parameters cannot be used in those positions.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Store implements graphstore.Store backed by Neo4j.
// Nodes are keyed by name with per-label uniqueness constraints; writes are
// MERGE upserts so re-ingestion never duplicates.
type Store struct {
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

var _ graphstore.Store = (*Store)(nil)

// Config holds connection settings for Neo4j.
type Config struct {
	// URI is the bolt or neo4j scheme endpoint, e.g. "neo4j://localhost:7687".
	URI string

	// Username and Password authenticate against the server.
	Username string
	Password string
}

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: %w", graphstore.ErrUnavailable, err)
	}

	return &Store{
		driver: driver,
		logger: slog.Default().With("component", "neo4j-store"),
	}, nil
}

// EnsureConstraints creates a name uniqueness constraint for every node
// label. Idempotent.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, label := range ai.NodeLabels {
			query := fmt.Sprintf(
				"CREATE CONSTRAINT %s_name_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.name IS UNIQUE",
				strings.ToLower(label), label)
			if _, err := tx.Run(ctx, query, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", graphstore.ErrUnavailable, err)
	}
	return nil
}

// UpsertNode MERGEs the node by name and merges properties into it.
func (s *Store) UpsertNode(ctx context.Context, label, name string, props map[string]any) error {
	if name == "" || !identifierPattern.MatchString(label) {
		return graphstore.ErrInvalidNode
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MERGE (n:%s {name: $name}) SET n += $props", label)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"name":  name,
			"props": nonNilProps(props),
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", graphstore.ErrUnavailable, err)
	}
	return nil
}

// UpsertEdge MERGEs a typed relationship between existing named nodes.
func (s *Store) UpsertEdge(ctx context.Context, source, target, relType string, props map[string]any) error {
	if source == "" || target == "" || !identifierPattern.MatchString(relType) {
		return graphstore.ErrInvalidEdge
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (a {name: $source}), (b {name: $target})
		MERGE (a)-[r:%s]->(b)
		SET r += $props`, relType)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"source": source,
			"target": target,
			"props":  nonNilProps(props),
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", graphstore.ErrUnavailable, err)
	}
	return nil
}

// Traverse walks variable-length paths out from each seed. An unreachable
// server degrades to an empty result: graph context enriches search but must
// never break it.
func (s *Store) Traverse(ctx context.Context, seeds []string, maxDepth int) ([]core.GraphRecord, error) {
	if maxDepth < 1 {
		return nil, graphstore.ErrInvalidDepth
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Depth cannot be parameterized inside a variable-length pattern.
	query := fmt.Sprintf(`
		MATCH path = (start {name: $seed})-[*1..%d]-(connected)
		WHERE connected <> start
		WITH start, connected, length(path) AS hops,
		     [r IN relationships(path) | type(r)] AS rels,
		     COUNT { (start)--() } AS sourceDegree,
		     COUNT { (connected)--() } AS targetDegree
		RETURN start.name AS source, head(labels(start)) AS sourceLabel,
		       connected.name AS target, head(labels(connected)) AS targetLabel,
		       rels, hops, sourceDegree, targetDegree
		ORDER BY hops ASC
		LIMIT %d`, maxDepth, graphstore.TraverseLimit)

	type rawRecord struct {
		record       core.GraphRecord
		sourceDegree int
		targetDegree int
	}
	var raws []rawRecord

	for _, seed := range seeds {
		result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, query, map[string]any{"seed": seed})
			if err != nil {
				return nil, err
			}
			return res.Collect(ctx)
		})
		if err != nil {
			s.logger.Warn("graph traversal failed, returning partial results", "seed", seed, "err", err)
			continue
		}

		seen := make(map[string]bool)
		for _, rec := range result.([]*neo4j.Record) {
			target := stringValue(rec, "target")
			if target == "" || seen[target] {
				// ORDER BY hops keeps the shortest path per target.
				continue
			}
			seen[target] = true

			raws = append(raws, rawRecord{
				record: core.GraphRecord{
					Source:        stringValue(rec, "source"),
					SourceLabel:   stringValue(rec, "sourceLabel"),
					Target:        target,
					TargetLabel:   stringValue(rec, "targetLabel"),
					Relationships: stringSliceValue(rec, "rels"),
					Hops:          intValue(rec, "hops"),
				},
				sourceDegree: intValue(rec, "sourceDegree"),
				targetDegree: intValue(rec, "targetDegree"),
			})
		}
	}

	maxDegree := 1
	for _, raw := range raws {
		if raw.sourceDegree > maxDegree {
			maxDegree = raw.sourceDegree
		}
		if raw.targetDegree > maxDegree {
			maxDegree = raw.targetDegree
		}
	}

	records := make([]core.GraphRecord, len(raws))
	for i, raw := range raws {
		raw.record.Relevance = graphstore.Relevance(
			graphstore.DegreeImportance(raw.sourceDegree, maxDegree),
			graphstore.DegreeImportance(raw.targetDegree, maxDegree),
			raw.record.Hops)
		records[i] = raw.record
	}

	graphstore.SortRecords(records)
	if len(records) > graphstore.TraverseLimit {
		records = records[:graphstore.TraverseLimit]
	}
	return records, nil
}

// Close releases the driver.
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func nonNilProps(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return props
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intValue(rec *neo4j.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return int(n)
}

func stringSliceValue(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
