package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCodec(t *testing.T) {
	assert.IsType(t, FixedCodec[uint32]{}, DefaultCodec[uint32]())
	assert.IsType(t, FixedCodec[[3]float32]{}, DefaultCodec[[3]float32]())
	assert.IsType(t, JSONCodec[string]{}, DefaultCodec[string]())
	assert.IsType(t, JSONCodec[int]{}, DefaultCodec[int]())
}

func TestCodecs_Encode(t *testing.T) {
	t.Run("fixed", func(t *testing.T) {
		var c FixedCodec[[2]uint16]
		b, err := c.Append(nil, [2]uint16{1, 2})
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 2, 0}, b)

		var v [2]uint16
		n, err := c.Decode(b, &v)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, [2]uint16{1, 2}, v)

		s, err := c.Format(v)
		require.NoError(t, err)
		assert.Equal(t, "[1,2]", s)
	})

	t.Run("json", func(t *testing.T) {
		var c JSONCodec[string]
		b, err := c.Append(nil, "hello")
		require.NoError(t, err)
		b, err = c.Append(b, "")
		require.NoError(t, err)

		var v string
		n, err := c.Decode(b, &v)
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
		_, err = c.Decode(b[n:], &v)
		require.NoError(t, err)
		assert.Equal(t, "", v)

		_, err = c.Decode([]byte{10, '"'}, &v)
		require.Error(t, err)
	})
}

type point struct{ X, Y float64 }

func TestRegistry(t *testing.T) {
	require.NoError(t, RegisterType[point]("test.point", nil))
	require.NoError(t, RegisterType[point]("test.point", nil), "same pair is a no-op")

	err := RegisterType[point]("test.other", nil)
	require.ErrorIs(t, err, ErrTypeAlreadyRegistered)
	err = RegisterType[float64]("test.point", nil)
	require.ErrorIs(t, err, ErrTypeAlreadyRegistered)

	assert.Equal(t, "test.point", TypeNameOf[point]())
	assert.Equal(t, "uint32", TypeNameOf[uint32]())
	assert.Equal(t, "[]int", TypeNameOf[[]int]())
}

func TestCompressPayload(t *testing.T) {
	data := make([]byte, 8192)
	for i := range data {
		data[i] = byte(i % 7)
	}
	for _, ct := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		packed, err := compressPayload(data, ct)
		require.NoError(t, err)
		if ct != CompressionNone {
			assert.Less(t, len(packed), len(data), ct.String())
		}
		out, err := decompressPayload(packed, ct)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}

	_, err := decompressPayload([]byte{1, 2}, CompressionLZ4)
	require.Error(t, err)
}
