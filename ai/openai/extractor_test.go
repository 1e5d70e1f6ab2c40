package openai

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel returns canned responses for extractor decoding tests.
type fakeModel struct {
	responses []string
	calls     int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.responses[idx]}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.responses[0], nil
}

func newTestExtractor(responses ...string) (*Extractor, *fakeModel) {
	model := &fakeModel{responses: responses}
	return &Extractor{
		client:      model,
		maxEntities: 10,
		logger:      slog.Default().With("component", "openai-extractor"),
	}, model
}

func TestExtractEntities(t *testing.T) {
	t.Run("plain response", func(t *testing.T) {
		e, _ := newTestExtractor(`{"entities": ["Moses", "Red Sea"]}`)

		entities, err := e.ExtractEntities(context.Background(), "Moses crossed the Red Sea")
		require.NoError(t, err)
		assert.Equal(t, []string{"Moses", "Red Sea"}, entities)
	})

	t.Run("fenced response", func(t *testing.T) {
		e, _ := newTestExtractor("```json\n{\"entities\": [\"Paul\"]}\n```")

		entities, err := e.ExtractEntities(context.Background(), "Paul wrote letters")
		require.NoError(t, err)
		assert.Equal(t, []string{"Paul"}, entities)
	})

	t.Run("blank entries dropped", func(t *testing.T) {
		e, _ := newTestExtractor(`{"entities": ["Moses", "  ", ""]}`)

		entities, err := e.ExtractEntities(context.Background(), "text")
		require.NoError(t, err)
		assert.Equal(t, []string{"Moses"}, entities)
	})

	t.Run("capped at max entities", func(t *testing.T) {
		e, _ := newTestExtractor(`{"entities": ["a", "b", "c", "d"]}`)
		e.maxEntities = 2

		entities, err := e.ExtractEntities(context.Background(), "text")
		require.NoError(t, err)
		assert.Len(t, entities, 2)
	})

	t.Run("malformed after retries yields empty", func(t *testing.T) {
		e, model := newTestExtractor("not json at all")

		entities, err := e.ExtractEntities(context.Background(), "text")
		require.NoError(t, err)
		assert.Empty(t, entities)
		assert.Equal(t, 3, model.calls)
		assert.Equal(t, uint64(1), e.DecodeFailures())
	})

	t.Run("recovers on retry", func(t *testing.T) {
		e, model := newTestExtractor("garbage", `{"entities": ["David"]}`)

		entities, err := e.ExtractEntities(context.Background(), "text")
		require.NoError(t, err)
		assert.Equal(t, []string{"David"}, entities)
		assert.Equal(t, 2, model.calls)
		assert.Zero(t, e.DecodeFailures())
	})
}

func TestExtractGraph(t *testing.T) {
	t.Run("valid fragment", func(t *testing.T) {
		e, _ := newTestExtractor(`{
			"nodes": [
				{"name": "Moses", "label": "Person"},
				{"name": "Red Sea", "label": "Place"}
			],
			"edges": [
				{"source": "Moses", "target": "Red Sea", "label": "crossed"}
			]
		}`)

		fragment, err := e.ExtractGraph(context.Background(), "Moses crossed the Red Sea")
		require.NoError(t, err)
		require.Len(t, fragment.Nodes, 2)
		require.Len(t, fragment.Edges, 1)
		assert.Equal(t, "CROSSED", fragment.Edges[0].Label)
	})

	t.Run("unknown node label dropped", func(t *testing.T) {
		e, _ := newTestExtractor(`{
			"nodes": [
				{"name": "Moses", "label": "Person"},
				{"name": "staff", "label": "Object"}
			],
			"edges": [
				{"source": "Moses", "target": "staff", "label": "HELD"}
			]
		}`)

		fragment, err := e.ExtractGraph(context.Background(), "text")
		require.NoError(t, err)
		require.Len(t, fragment.Nodes, 1)
		assert.Equal(t, "Moses", fragment.Nodes[0].Name)
		// Edge referencing the dropped node goes with it.
		assert.Empty(t, fragment.Edges)
	})

	t.Run("self edges dropped", func(t *testing.T) {
		e, _ := newTestExtractor(`{
			"nodes": [{"name": "Moses", "label": "Person"}],
			"edges": [{"source": "Moses", "target": "Moses", "label": "KNEW"}]
		}`)

		fragment, err := e.ExtractGraph(context.Background(), "text")
		require.NoError(t, err)
		assert.Empty(t, fragment.Edges)
	})

	t.Run("duplicate nodes collapsed", func(t *testing.T) {
		e, _ := newTestExtractor(`{
			"nodes": [
				{"name": "Moses", "label": "Person"},
				{"name": "Moses", "label": "Person"}
			],
			"edges": []
		}`)

		fragment, err := e.ExtractGraph(context.Background(), "text")
		require.NoError(t, err)
		assert.Len(t, fragment.Nodes, 1)
	})

	t.Run("malformed after retries yields empty fragment", func(t *testing.T) {
		e, _ := newTestExtractor("still not json")

		fragment, err := e.ExtractGraph(context.Background(), "text")
		require.NoError(t, err)
		assert.True(t, fragment.Empty())
		assert.Equal(t, uint64(1), e.DecodeFailures())
	})
}

func TestRepairExtractorJSON(t *testing.T) {
	t.Run("missing opening quote on payload keys", func(t *testing.T) {
		in := `{name": "Moses", label": "Person"}`
		assert.Equal(t, `{"name": "Moses", "label": "Person"}`, repairExtractorJSON(in))
	})

	t.Run("nested fragment keys", func(t *testing.T) {
		in := `{nodes": [{name": "Moses", label": "Person"}], edges": []}`
		want := `{"nodes": [{"name": "Moses", "label": "Person"}], "edges": []}`
		assert.Equal(t, want, repairExtractorJSON(in))
	})

	t.Run("trailing comma before close", func(t *testing.T) {
		in := `{"nodes": [{"name": "Moses"},], "edges": [],}`
		want := `{"nodes": [{"name": "Moses"}], "edges": []}`
		assert.Equal(t, want, repairExtractorJSON(in))
	})

	t.Run("unknown bare key left alone", func(t *testing.T) {
		in := `{confidence": 0.9}`
		assert.Equal(t, in, repairExtractorJSON(in))
	})

	t.Run("commas inside values kept", func(t *testing.T) {
		in := `{"name": "Ur, of the Chaldees"}`
		assert.Equal(t, in, repairExtractorJSON(in))
	})

	t.Run("well formed passes through", func(t *testing.T) {
		in := `{"entities": ["Moses", "Red Sea"]}`
		assert.Equal(t, in, repairExtractorJSON(in))
	})
}
