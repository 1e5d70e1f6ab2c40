package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/scriptura/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	t.Run("miss on absent key", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))

		val, found, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v"), val)
	})

	t.Run("zero ttl means no expiry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))

		_, found, err := c.Get(ctx, "forever")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("expired entry behaves as a miss", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "fleeting", []byte("x"), 10*time.Millisecond))

		// Badger tracks expiry at second granularity, so poll rather
		// than sleep for a fixed interval.
		assert.Eventually(t, func() bool {
			_, found, err := c.Get(ctx, "fleeting")
			return err == nil && !found
		}, 3*time.Second, 25*time.Millisecond)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k2", []byte("old"), time.Hour))
		require.NoError(t, c.Set(ctx, "k2", []byte("new"), time.Hour))

		val, found, err := c.Get(ctx, "k2")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("new"), val)
	})
}

func TestMGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	t.Run("positional results", func(t *testing.T) {
		results, err := c.MGet(ctx, []string{"a", "b", "c"})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, []byte("1"), results[0])
		assert.Nil(t, results[1])
		assert.Equal(t, []byte("3"), results[2])
	})

	t.Run("empty key list", func(t *testing.T) {
		results, err := c.MGet(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestConcurrentGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	// Writers and readers race on a small shared key space.
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			key := fmt.Sprintf("shared-%d", worker%4)
			for i := 0; i < 50; i++ {
				if err := c.Set(ctx, key, []byte{byte(worker), byte(i)}, time.Hour); err != nil {
					t.Error(err)
					return
				}
				if _, _, err := c.Get(ctx, key); err != nil {
					t.Error(err)
					return
				}
			}
		}(worker)
	}
	wg.Wait()

	for k := 0; k < 4; k++ {
		val, found, err := c.Get(ctx, fmt.Sprintf("shared-%d", k))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Len(t, val, 2)
	}
}

func TestVectorThroughCache(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	vector := []float32{0.25, -1.5, 0.75}
	key := cache.EmbeddingKey("openai", "embeddinggemma", "In the beginning")

	require.NoError(t, c.Set(ctx, key, cache.MarshalVector(vector), time.Hour))

	raw, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)

	got, err := cache.UnmarshalVector(raw)
	require.NoError(t, err)
	assert.Equal(t, vector, got)
}
