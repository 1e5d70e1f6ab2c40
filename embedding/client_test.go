package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/scriptura/ai/mock"
	badgercache "github.com/poiesic/scriptura/cache/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) *Client {
	t.Helper()

	c, err := badgercache.Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	base := []Option{
		WithCache(c),
		WithModelIdentity("mock", "test-model"),
		WithRetry(2, time.Millisecond),
	}
	client, err := New(embedder, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(client.Release)
	return client
}

func TestNew(t *testing.T) {
	t.Run("requires embedder", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("rejects bad batch size", func(t *testing.T) {
		_, err := New(mock.NewMockEmbedder(), WithBatchSize(0))
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	})

	t.Run("rejects non-positive retry attempts", func(t *testing.T) {
		_, err := New(mock.NewMockEmbedder(), WithRetry(0, time.Millisecond))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})
}

func TestEmbedTexts(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		client := newTestClient(t, mock.NewMockEmbedder())
		assert.Empty(t, client.EmbedTexts(context.Background(), nil))
	})

	t.Run("results keep input order when batches finish out of order", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			// Stall the batch holding the first inputs so it completes last.
			if texts[0] == "alpha" {
				time.Sleep(50 * time.Millisecond)
			}
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				vectors[i] = mock.DeterministicVector(text, 384)
			}
			return vectors, nil
		}
		client := newTestClient(t, embedder, WithBatchSize(2), WithMaxConcurrentBatches(3))

		texts := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
		results := client.EmbedTexts(context.Background(), texts)

		require.Len(t, results, len(texts))
		for i, r := range results {
			assert.Equal(t, i, r.Index)
			require.NoError(t, r.Err)
			assert.Equal(t, mock.DeterministicVector(texts[i], 384), r.Vector)
		}
	})

	t.Run("second request served from cache", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		client := newTestClient(t, embedder)

		texts := []string{"one", "two", "three"}
		first := client.EmbedTexts(context.Background(), texts)
		for _, r := range first {
			require.NoError(t, r.Err)
			assert.False(t, r.CacheHit)
		}
		callsAfterFirst := embedder.CallCount()

		second := client.EmbedTexts(context.Background(), texts)
		for i, r := range second {
			require.NoError(t, r.Err)
			assert.True(t, r.CacheHit)
			assert.Equal(t, first[i].Vector, r.Vector)
		}
		assert.Equal(t, callsAfterFirst, embedder.CallCount(), "cache hits must not call the provider")
	})

	t.Run("seven texts with batch size five makes two provider calls", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		client := newTestClient(t, embedder, WithBatchSize(5))

		texts := make([]string, 7)
		for i := range texts {
			texts[i] = fmt.Sprintf("text-%d", i)
		}

		results := client.EmbedTexts(context.Background(), texts)
		for _, r := range results {
			require.NoError(t, r.Err)
		}
		assert.Equal(t, 2, embedder.CallCount())
	})

	t.Run("failed batch does not poison other batches", func(t *testing.T) {
		failErr := errors.New("provider down")
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			for _, text := range texts {
				if text == "poison" {
					return nil, failErr
				}
			}
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				vectors[i] = mock.DeterministicVector(text, 384)
			}
			return vectors, nil
		}
		client := newTestClient(t, embedder, WithBatchSize(2))

		results := client.EmbedTexts(context.Background(), []string{"good-1", "good-2", "poison", "good-3"})

		assert.NoError(t, results[0].Err)
		assert.NoError(t, results[1].Err)
		assert.ErrorIs(t, results[2].Err, failErr)
		// "poison" and "good-3" share a batch of two, so both fail.
		assert.ErrorIs(t, results[3].Err, failErr)
	})

	t.Run("mixed cache hits and misses", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		client := newTestClient(t, embedder)

		warm := client.EmbedTexts(context.Background(), []string{"cached"})
		require.NoError(t, warm[0].Err)

		results := client.EmbedTexts(context.Background(), []string{"fresh", "cached"})
		require.NoError(t, results[0].Err)
		require.NoError(t, results[1].Err)
		assert.False(t, results[0].CacheHit)
		assert.True(t, results[1].CacheHit)
	})
}

func TestStats(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := newTestClient(t, embedder)

	texts := []string{"a", "b"}
	client.EmbedTexts(context.Background(), texts)
	client.EmbedTexts(context.Background(), texts)

	stats := client.Stats()
	assert.Equal(t, uint64(4), stats.Requests)
	assert.Equal(t, uint64(2), stats.CacheMisses)
	assert.Equal(t, uint64(2), stats.CacheHits)
	assert.Equal(t, uint64(1), stats.RemoteBatches)
	assert.Zero(t, stats.Errors)
}

func TestEmbedText(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, mock.NewMockEmbedder())

		vector, err := client.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, mock.DeterministicVector("hello", 384), vector)
	})

	t.Run("failure surfaces error", func(t *testing.T) {
		failErr := errors.New("no service")
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, failErr
		}
		client := newTestClient(t, embedder)

		_, err := client.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, failErr)
	})
}

func TestRetry(t *testing.T) {
	t.Run("transient failures recover within the attempt budget", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			if embedder.CallCount() < 3 {
				return nil, errors.New("transient")
			}
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				vectors[i] = mock.DeterministicVector(text, 384)
			}
			return vectors, nil
		}
		client := newTestClient(t, embedder, WithRetry(3, time.Millisecond))

		vector, err := client.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, mock.DeterministicVector("hello", 384), vector)
		assert.Equal(t, 3, embedder.CallCount())
	})

	t.Run("exhausted attempts surface the last error", func(t *testing.T) {
		boom := errors.New("boom")
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, boom
		}
		client := newTestClient(t, embedder, WithRetry(2, time.Millisecond))

		_, err := client.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, embedder.CallCount())
	})

	t.Run("short batch response counts as a failure", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		client := newTestClient(t, embedder, WithRetry(2, time.Millisecond))

		_, err := client.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrBatchShape)
		assert.Equal(t, 2, embedder.CallCount())
	})

	t.Run("cancellation stops retrying", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		client := newTestClient(t, embedder, WithRetry(3, time.Minute))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.EmbedText(ctx, "hello")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, embedder.CallCount())
	})
}
