package memory

import (
	"context"
	"testing"

	"github.com/poiesic/scriptura/graphstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildExodusGraph wires a small graph:
//
//	Moses -LED-> Israelites -CROSSED-> Red Sea
//	Moses -SPOKE_TO-> Pharaoh
func buildExodusGraph(t *testing.T) *Store {
	t.Helper()
	s := New()
	ctx := context.Background()

	require.NoError(t, s.EnsureConstraints(ctx))
	require.NoError(t, s.UpsertNode(ctx, "Person", "Moses", nil))
	require.NoError(t, s.UpsertNode(ctx, "Person", "Pharaoh", nil))
	require.NoError(t, s.UpsertNode(ctx, "Topic", "Israelites", nil))
	require.NoError(t, s.UpsertNode(ctx, "Place", "Red Sea", nil))

	require.NoError(t, s.UpsertEdge(ctx, "Moses", "Israelites", "LED", nil))
	require.NoError(t, s.UpsertEdge(ctx, "Moses", "Pharaoh", "SPOKE_TO", nil))
	require.NoError(t, s.UpsertEdge(ctx, "Israelites", "Red Sea", "CROSSED", nil))
	return s
}

func TestUpsertNode(t *testing.T) {
	s := New()
	ctx := context.Background()

	t.Run("requires name and label", func(t *testing.T) {
		assert.ErrorIs(t, s.UpsertNode(ctx, "", "Moses", nil), graphstore.ErrInvalidNode)
		assert.ErrorIs(t, s.UpsertNode(ctx, "Person", "", nil), graphstore.ErrInvalidNode)
	})

	t.Run("idempotent by name", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, "Person", "Moses", map[string]any{"a": 1}))
		require.NoError(t, s.UpsertNode(ctx, "Person", "Moses", map[string]any{"b": 2}))
		assert.Equal(t, 1, s.NodeCount())
	})
}

func TestUpsertEdge(t *testing.T) {
	ctx := context.Background()

	t.Run("requires existing endpoints", func(t *testing.T) {
		s := New()
		require.NoError(t, s.UpsertNode(ctx, "Person", "Moses", nil))
		err := s.UpsertEdge(ctx, "Moses", "Nobody", "KNEW", nil)
		assert.ErrorIs(t, err, graphstore.ErrInvalidEdge)
	})

	t.Run("idempotent by endpoints and type", func(t *testing.T) {
		s := buildExodusGraph(t)
		before := s.EdgeCount()
		require.NoError(t, s.UpsertEdge(ctx, "Moses", "Israelites", "LED", nil))
		assert.Equal(t, before, s.EdgeCount())
	})
}

func TestTraverse(t *testing.T) {
	ctx := context.Background()

	t.Run("depth one reaches direct neighbors only", func(t *testing.T) {
		s := buildExodusGraph(t)

		records, err := s.Traverse(ctx, []string{"Moses"}, 1)
		require.NoError(t, err)
		require.Len(t, records, 2)
		targets := []string{records[0].Target, records[1].Target}
		assert.ElementsMatch(t, []string{"Israelites", "Pharaoh"}, targets)
		for _, r := range records {
			assert.Equal(t, 1, r.Hops)
			assert.Len(t, r.Relationships, 1)
		}
	})

	t.Run("depth two reaches red sea", func(t *testing.T) {
		s := buildExodusGraph(t)

		records, err := s.Traverse(ctx, []string{"Moses"}, 2)
		require.NoError(t, err)
		require.Len(t, records, 3)

		var redSea *[3]any
		for _, r := range records {
			if r.Target == "Red Sea" {
				redSea = &[3]any{r.Hops, r.Relationships, r.TargetLabel}
			}
		}
		require.NotNil(t, redSea)
		assert.Equal(t, 2, redSea[0])
		assert.Equal(t, []string{"LED", "CROSSED"}, redSea[1])
		assert.Equal(t, "Place", redSea[2])
	})

	t.Run("closer targets rank above farther ones", func(t *testing.T) {
		s := buildExodusGraph(t)

		records, err := s.Traverse(ctx, []string{"Moses"}, 2)
		require.NoError(t, err)
		for i := 1; i < len(records); i++ {
			assert.GreaterOrEqual(t, records[i-1].Relevance, records[i].Relevance)
		}
		assert.NotEqual(t, "Red Sea", records[0].Target, "two-hop target must not rank first")
	})

	t.Run("unknown seed yields empty", func(t *testing.T) {
		s := buildExodusGraph(t)

		records, err := s.Traverse(ctx, []string{"Goliath"}, 2)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("mixed seeds skip unknown", func(t *testing.T) {
		s := buildExodusGraph(t)

		records, err := s.Traverse(ctx, []string{"Goliath", "Pharaoh"}, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Pharaoh", records[0].Source)
		assert.Equal(t, "Moses", records[0].Target)
	})

	t.Run("invalid depth", func(t *testing.T) {
		s := buildExodusGraph(t)
		_, err := s.Traverse(ctx, []string{"Moses"}, 0)
		assert.ErrorIs(t, err, graphstore.ErrInvalidDepth)
	})

	t.Run("traversal is undirected", func(t *testing.T) {
		s := buildExodusGraph(t)

		records, err := s.Traverse(ctx, []string{"Red Sea"}, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Israelites", records[0].Target)
	})

	t.Run("result capped at limit", func(t *testing.T) {
		s := New()
		require.NoError(t, s.UpsertNode(ctx, "Topic", "hub", nil))
		for i := 0; i < graphstore.TraverseLimit+10; i++ {
			name := "leaf-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			require.NoError(t, s.UpsertNode(ctx, "Topic", name, nil))
			require.NoError(t, s.UpsertEdge(ctx, "hub", name, "RELATED_TO", nil))
		}

		records, err := s.Traverse(ctx, []string{"hub"}, 1)
		require.NoError(t, err)
		assert.Len(t, records, graphstore.TraverseLimit)
	})
}
