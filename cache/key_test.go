package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := Key("emb", "openai", "model-a", "some text")
		b := Key("emb", "openai", "model-a", "some text")
		assert.Equal(t, a, b)
	})

	t.Run("kind prefix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(Key("emb", "x"), "emb:"))
	})

	t.Run("part boundaries matter", func(t *testing.T) {
		assert.NotEqual(t, Key("emb", "ab", "c"), Key("emb", "a", "bc"))
	})

	t.Run("distinct parts distinct keys", func(t *testing.T) {
		assert.NotEqual(t,
			Key("emb", "openai", "model-a", "text"),
			Key("emb", "openai", "model-b", "text"))
	})
}

func TestEmbeddingKey(t *testing.T) {
	a := EmbeddingKey("openai", "embeddinggemma", "In the beginning")
	b := EmbeddingKey("openai", "embeddinggemma", "In the beginning")
	c := EmbeddingKey("ollama", "embeddinggemma", "In the beginning")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "emb:"))
}
