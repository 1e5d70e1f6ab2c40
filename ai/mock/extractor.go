package mock

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/poiesic/scriptura/ai"
)

// MockExtractor is a test double for ai.EntityExtractor and ai.GraphExtractor.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockExtractor struct {
	// ExtractEntitiesFunc is called by ExtractEntities if set.
	// If nil, uses default capitalized-word extraction.
	ExtractEntitiesFunc func(ctx context.Context, text string) ([]string, error)

	// ExtractGraphFunc is called by ExtractGraph if set.
	// If nil, uses default behavior derived from ExtractEntities.
	ExtractGraphFunc func(ctx context.Context, text string) (*ai.GraphFragment, error)

	mu        sync.Mutex
	callCount int
}

// NewMockExtractor creates a mock extractor with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// ExtractEntities extracts simple mock entities from text.
// Default behavior: returns up to five distinct capitalized words.
func (m *MockExtractor) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	m.record()

	if m.ExtractEntitiesFunc != nil {
		return m.ExtractEntitiesFunc(ctx, text)
	}

	return capitalizedWords(text, 5), nil
}

// ExtractGraph derives a simple mock fragment from text.
// Default behavior: each capitalized word becomes a Topic node, with
// consecutive nodes linked by RELATED_TO edges.
func (m *MockExtractor) ExtractGraph(ctx context.Context, text string) (*ai.GraphFragment, error) {
	m.record()

	if m.ExtractGraphFunc != nil {
		return m.ExtractGraphFunc(ctx, text)
	}

	names := capitalizedWords(text, 5)
	fragment := &ai.GraphFragment{}
	for _, name := range names {
		fragment.Nodes = append(fragment.Nodes, ai.GraphNode{Name: name, Label: "Topic"})
	}
	for i := 0; i+1 < len(names); i++ {
		fragment.Edges = append(fragment.Edges, ai.GraphEdge{
			Source: names[i],
			Target: names[i+1],
			Label:  "RELATED_TO",
		})
	}
	return fragment, nil
}

// CallCount returns the number of times any method was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractEntitiesFunc = nil
	m.ExtractGraphFunc = nil
}

func (m *MockExtractor) record() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// capitalizedWords returns up to limit distinct capitalized words from text,
// in order of first appearance.
func capitalizedWords(text string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" || seen[word] {
			continue
		}
		runes := []rune(word)
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		seen[word] = true
		out = append(out, word)
		if len(out) >= limit {
			break
		}
	}
	return out
}
