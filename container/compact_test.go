package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompact_FillsHolesFromTheEnd(t *testing.T) {
	c := New()
	col, err := AddAttribute[uint32](c, "orig")
	require.NoError(t, err)

	for range 8 {
		i := c.InsertLine()
		col.Set(i, i)
	}
	c.RefLine(7)
	c.RemoveLine(1)
	c.RemoveLine(3)
	c.RemoveLine(6)

	m := c.Compact()
	require.Len(t, m, 8)
	assert.Equal(t, uint32(5), c.Size())
	assert.Equal(t, uint32(5), c.MaxSize())

	assert.Equal(t, []uint32{0, Null, 2, Null, 4, 3, Null, 1}, m)
	for old, nw := range m {
		if nw == Null {
			continue
		}
		assert.Equal(t, uint32(old), col.Get(nw), "row %d moved to %d", old, nw)
	}
	assert.Equal(t, uint32(2), c.NbRefs(1), "refcount travels with the row")
	assertInvariants(t, c)
}

func TestCompact_Idempotent(t *testing.T) {
	c := New()
	for range 10 {
		c.InsertLine()
	}
	c.RemoveLine(2)
	c.Compact()

	m := c.Compact()
	for i, v := range m {
		assert.Equal(t, uint32(i), v)
	}
	assertInvariants(t, c)
}

func TestCompact_TrimsTrailingBlocks(t *testing.T) {
	c := New()
	col, err := AddAttribute[int64](c, "v")
	require.NoError(t, err)
	mk, err := c.AddMarkerAttribute("m")
	require.NoError(t, err)

	for range 3 * BlockSize {
		c.InsertLine()
	}
	for i := uint32(10); i < 3*BlockSize; i++ {
		c.RemoveLine(i)
	}
	require.Equal(t, 3, c.NbBlocks())

	c.Compact()
	assert.Equal(t, 1, c.NbBlocks())
	assert.Equal(t, 1, col.NbBlocks())
	assert.Len(t, mk.blocks, 1)
	assert.Equal(t, 0, c.NbEmptyBlocks())
	assertInvariants(t, c)

	// Allocation resumes right after the packed rows.
	assert.Equal(t, uint32(10), c.InsertLine())
	assertInvariants(t, c)
}

func TestCompact_Empty(t *testing.T) {
	c := New()
	i := c.InsertLine()
	c.RemoveLine(i)

	m := c.Compact()
	assert.Equal(t, []uint32{Null}, m)
	assert.Equal(t, 0, c.NbBlocks())
	assert.Equal(t, uint32(0), c.InsertLine())
	assertInvariants(t, c)
}

func TestCompact_MovesMarkers(t *testing.T) {
	c := New()
	mk, err := c.AddMarkerAttribute("m")
	require.NoError(t, err)
	for range 4 {
		c.InsertLine()
	}
	mk.Mark(3)
	c.RemoveLine(0)

	m := c.Compact()
	assert.Equal(t, uint32(0), m[3])
	assert.True(t, mk.IsMarked(0))
	assert.Equal(t, uint(1), mk.Count())
}
