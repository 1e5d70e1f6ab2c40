package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/scriptura/ai"
)

const entityResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "string"
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const entityPromptTemplate = `Extract the named entities and key subjects from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- List the most significant entities first.
- Include people, places, events, and central topics.
- Return at most %d entities.
- If no entities can be identified, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "And Moses stretched out his hand over the sea; and the LORD caused the sea to go back."
Output:
{
  "entities": ["Moses", "LORD", "Red Sea"]
}

Example (topical question):
Input: "what does the bible say about forgiveness"
Output:
{
  "entities": ["forgiveness"]
}`

const graphResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "label": {"type": "string"}
        },
        "required": ["name", "label"],
        "additionalProperties": false
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {"type": "string"},
          "target": {"type": "string"},
          "label": {"type": "string"}
        },
        "required": ["source", "target", "label"],
        "additionalProperties": false
      }
    }
  },
  "required": ["nodes", "edges"],
  "additionalProperties": false
}`

const graphPromptTemplate = `Extract a knowledge graph from the given passage and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Node labels must match exactly one of the listed values: %s.
- Edge labels are uppercase verb phrases with underscores, e.g. "LED", "SPOKE_TO", "LOCATED_IN".
- Every edge source and target must appear in the nodes list.
- Include only entities and relationships explicitly present in the passage. Do not hallucinate.
- If the passage yields no graph, return empty "nodes" and "edges" arrays.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "And Moses stretched out his hand over the sea; and the LORD caused the sea to go back."
Output:
{
  "nodes": [
    {"name": "Moses", "label": "Person"},
    {"name": "LORD", "label": "Person"},
    {"name": "Red Sea", "label": "Place"}
  ],
  "edges": [
    {"source": "Moses", "target": "Red Sea", "label": "STRETCHED_HAND_OVER"},
    {"source": "LORD", "target": "Red Sea", "label": "PARTED"}
  ]
}`

// buildEntityPrompt creates the system prompt for entity extraction.
func buildEntityPrompt(maxEntities int) string {
	return fmt.Sprintf(entityPromptTemplate, entityResponseSchema, maxEntities)
}

// buildGraphPrompt creates the system prompt for graph extraction with the
// allowed node labels embedded.
func buildGraphPrompt() string {
	return fmt.Sprintf(graphPromptTemplate,
		graphResponseSchema,
		strings.Join(ai.NodeLabels, ", "))
}
