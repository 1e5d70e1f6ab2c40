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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/poiesic/scriptura/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Extractor implements ai.EntityExtractor and ai.GraphExtractor using
// OpenAI-compatible chat APIs.
type Extractor struct {
	client      llms.Model
	maxEntities int
	logger      *slog.Logger

	// decodeFailures counts responses that stayed malformed after repair
	// and retries. Exposed for operational visibility; a failure surfaces
	// to callers as an empty result, not an error.
	decodeFailures atomic.Uint64
}

// entityResult matches the JSON structure the entity prompt requests.
type entityResult struct {
	Entities []string `json:"entities"`
}

// graphNode and graphEdge match the JSON structure the graph prompt requests.
type graphNode struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type graphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type graphResult struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

// newExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newExtractor(config *ai.Config) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		client:      client,
		maxEntities: config.MaxEntities,
		logger:      slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewEntityExtractor creates an entity extractor using the provided configuration.
//
// Returns ai.EntityExtractor interface to enforce abstraction.
func NewEntityExtractor(config *ai.Config) (ai.EntityExtractor, error) {
	return newExtractor(config)
}

// NewGraphExtractor creates a graph extractor using the provided configuration.
//
// Returns ai.GraphExtractor interface to enforce abstraction.
func NewGraphExtractor(config *ai.Config) (ai.GraphExtractor, error) {
	return newExtractor(config)
}

// DecodeFailures returns how many model responses could not be decoded
// after repair and retries.
func (e *Extractor) DecodeFailures() uint64 {
	return e.decodeFailures.Load()
}

// ExtractEntities pulls named entities from text using an LLM.
// A response that cannot be decoded yields an empty slice, not an error.
func (e *Extractor) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	var result entityResult
	ok, err := e.generate(ctx, buildEntityPrompt(e.maxEntities), text, &result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	entities := make([]string, 0, len(result.Entities))
	for _, ent := range result.Entities {
		if ent = strings.TrimSpace(ent); ent != "" {
			entities = append(entities, ent)
		}
		if len(entities) >= e.maxEntities {
			break
		}
	}

	e.logger.Debug("extracted entities", "count", len(entities))
	return entities, nil
}

// ExtractGraph derives a knowledge-graph fragment from passage text using an LLM.
// Nodes with labels outside ai.NodeLabels and edges referencing unknown nodes
// are dropped. A response that cannot be decoded yields an empty fragment.
func (e *Extractor) ExtractGraph(ctx context.Context, text string) (*ai.GraphFragment, error) {
	var result graphResult
	ok, err := e.generate(ctx, buildGraphPrompt(), text, &result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ai.GraphFragment{}, nil
	}

	fragment := &ai.GraphFragment{}
	known := make(map[string]bool, len(result.Nodes))
	for _, n := range result.Nodes {
		name := strings.TrimSpace(n.Name)
		if name == "" || known[name] {
			continue
		}
		if !ai.ValidNodeLabel(n.Label) {
			e.logger.Debug("dropping node with unknown label", "name", name, "label", n.Label)
			continue
		}
		known[name] = true
		fragment.Nodes = append(fragment.Nodes, ai.GraphNode{Name: name, Label: n.Label})
	}

	for _, edge := range result.Edges {
		source := strings.TrimSpace(edge.Source)
		target := strings.TrimSpace(edge.Target)
		if !known[source] || !known[target] || source == target {
			continue
		}
		label := ai.CanonicalEdgeLabel(edge.Label)
		if label == "" {
			continue
		}
		fragment.Edges = append(fragment.Edges, ai.GraphEdge{
			Source: source,
			Target: target,
			Label:  label,
		})
	}

	e.logger.Debug("extracted graph fragment",
		"nodes", len(fragment.Nodes),
		"edges", len(fragment.Edges))
	return fragment, nil
}

// generate sends the prompt and user text to the model and decodes the JSON
// response into out. Returns false when the response stayed malformed after
// all retries; transport failures are returned as errors.
func (e *Extractor) generate(ctx context.Context, systemPrompt, text string, out any) (bool, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return false, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return false, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairExtractorJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		return true, nil
	}

	e.decodeFailures.Add(1)
	e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
	return false, nil
}
