package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCodec(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := []float32{0.1, -0.5, 3.25, 0}

		out, err := UnmarshalVector(MarshalVector(in))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("empty vector", func(t *testing.T) {
		out, err := UnmarshalVector(MarshalVector(nil))
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("corrupt bytes", func(t *testing.T) {
		_, err := UnmarshalVector([]byte{0xff})
		assert.ErrorIs(t, err, ErrCorruptEntry)
	})
}
