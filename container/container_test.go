package container

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertInvariants checks the bookkeeping that every operation must preserve.
func assertInvariants(t *testing.T, c *Container) {
	t.Helper()

	var live uint32
	for i := uint32(0); i < c.maxSize; i++ {
		if c.NbRefs(i) != 0 {
			live++
		}
	}
	require.Equal(t, live, c.Size(), "size must equal number of slots with nonzero refs")

	var used uint32
	for bi, b := range c.blocks {
		used += b.used
		require.Equal(t, b.top-b.used, uint32(len(b.free)), "block %d free list length", bi)
		for _, off := range b.free {
			require.Zero(t, b.refs[off], "block %d free offset %d has refs", bi, off)
		}
	}
	require.Equal(t, c.Size(), used)

	for _, bi := range c.freeBlocks {
		require.False(t, c.blocks[bi].full(), "block %d is on the free-block list but full", bi)
	}
	for bi, b := range c.blocks {
		if !b.full() {
			require.Contains(t, c.freeBlocks, uint32(bi), "block %d has room but is not on the free-block list", bi)
		}
	}

	require.LessOrEqual(t, c.MaxSize(), c.Capacity())
	for _, a := range c.attrs {
		if col, ok := a.(interface{ NbBlocks() int }); ok {
			require.Equal(t, len(c.blocks), col.NbBlocks(), "column %q length", a.Name())
		}
	}
}

func TestContainer_InsertRemove(t *testing.T) {
	c := New()

	a := c.InsertLine()
	b := c.InsertLine()
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)
	assert.Equal(t, uint32(2), c.Size())
	assert.Equal(t, uint32(2), c.MaxSize())
	assert.Equal(t, uint32(1), c.NbRefs(a))
	assertInvariants(t, c)

	c.RemoveLine(a)
	assert.False(t, c.Used(a))
	assert.Equal(t, uint32(1), c.Size())
	assert.Equal(t, uint32(2), c.MaxSize())
	assertInvariants(t, c)

	// Freed slots are recycled before the block grows.
	assert.Equal(t, a, c.InsertLine())
	assertInvariants(t, c)
}

func TestContainer_RemoveFreeSlotIsNoop(t *testing.T) {
	c := New()
	i := c.InsertLine()
	c.RemoveLine(i)
	c.RemoveLine(i)

	assert.Equal(t, uint32(0), c.Size())
	assertInvariants(t, c)
}

func TestContainer_BlockGrowth(t *testing.T) {
	c := New()
	col, err := AddAttribute[float64](c, "weight")
	require.NoError(t, err)

	for i := 0; i < BlockSize+10; i++ {
		idx := c.InsertLine()
		col.Set(idx, float64(idx))
	}
	assert.Equal(t, 2, c.NbBlocks())
	assert.Equal(t, 2, col.NbBlocks())
	assert.Equal(t, float64(BlockSize+5), col.Get(BlockSize+5))
	assertInvariants(t, c)

	// Emptying a block records it as empty.
	for i := uint32(0); i < BlockSize; i++ {
		c.RemoveLine(i)
	}
	assert.Equal(t, 1, c.NbEmptyBlocks())
	assertInvariants(t, c)
}

func TestContainer_RefCounting(t *testing.T) {
	c := New()
	i := c.InsertLine()
	c.RefLine(i)
	c.RefLine(i)
	assert.Equal(t, uint32(3), c.NbRefs(i))

	assert.False(t, c.UnrefLine(i))
	assert.False(t, c.UnrefLine(i))
	assert.True(t, c.UnrefLine(i))
	assert.False(t, c.Used(i))
	assert.Equal(t, uint32(0), c.Size())

	j := c.InsertLine()
	c.SetNbRefs(j, 5)
	assert.Equal(t, uint32(5), c.NbRefs(j))
	c.SetNbRefs(j, 0)
	assert.False(t, c.Used(j))
	assertInvariants(t, c)
}

func TestContainer_RandomChurn(t *testing.T) {
	c := New()
	col, err := AddAttribute[uint32](c, "value")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	live := map[uint32]bool{}

	for step := 0; step < 20000; step++ {
		if len(live) == 0 || rng.IntN(3) != 0 {
			i := c.InsertLine()
			require.False(t, live[i], "slot %d handed out twice", i)
			require.Less(t, i, c.MaxSize())
			live[i] = true
			col.Set(i, i*7)
			continue
		}
		for i := range live {
			c.RemoveLine(i)
			delete(live, i)
			break
		}
	}

	require.Equal(t, uint32(len(live)), c.Size())
	for i := range live {
		require.Equal(t, i*7, col.Get(i))
	}
	assertInvariants(t, c)
}

func TestContainer_Iteration(t *testing.T) {
	c := New()
	for range 10 {
		c.InsertLine()
	}
	c.RemoveLine(0)
	c.RemoveLine(4)
	c.RemoveLine(9)

	var got []uint32
	for i := c.Begin(); i != c.End(); i = c.Next(i) {
		got = append(got, i)
	}
	assert.Equal(t, []uint32{1, 2, 3, 5, 6, 7, 8}, got)

	var seq []uint32
	for i := range c.Lines() {
		seq = append(seq, i)
	}
	assert.Equal(t, got, seq)
}

func TestContainer_Attributes(t *testing.T) {
	c := New()

	pos, err := AddAttribute[[3]float32](c, "position")
	require.NoError(t, err)
	assert.Equal(t, "Vec3f", pos.TypeName())

	_, err = AddAttribute[int](c, "position")
	require.ErrorIs(t, err, ErrAttributeExists)

	assert.Same(t, pos, GetAttribute[[3]float32](c, "position"))
	assert.Nil(t, GetAttribute[float64](c, "position"), "type mismatch yields nil")
	assert.Nil(t, GetAttribute[float64](c, "missing"))

	_, err = AddAttribute[string](c, "label")
	require.NoError(t, err)
	assert.Equal(t, []string{"position", "label"}, c.AttributeNames())

	assert.True(t, c.RemoveAttribute("position"))
	assert.False(t, c.RemoveAttribute("position"))
	assert.Equal(t, Unknown, c.AttributeIndex("position"))

	// The freed index is reused.
	w, err := AddAttribute[float32](c, "w")
	require.NoError(t, err)
	assert.Equal(t, 0, w.Index())
	assert.Equal(t, 2, c.NbAttributes())
}

func TestContainer_ReservedNames(t *testing.T) {
	c := New()
	for _, name := range []string{"id", "refs"} {
		_, err := AddAttribute[uint32](c, name)
		require.ErrorIs(t, err, ErrReservedName, name)
		assert.Equal(t, Unknown, c.AttributeIndex(name))
	}

	// Names only have to differ from the line fields.
	_, err := AddAttribute[uint32](c, "ids")
	require.NoError(t, err)
	c.InsertLine()

	var buf bytes.Buffer
	require.NoError(t, c.SaveXML(&buf))
	dst := New()
	require.NoError(t, dst.LoadXML(&buf))
	require.NotNil(t, GetAttribute[uint32](dst, "ids"))
}

func TestContainer_LineOps(t *testing.T) {
	c := New()
	col, err := AddAttribute[int32](c, "v")
	require.NoError(t, err)
	m, err := c.AddMarkerAttribute("mark")
	require.NoError(t, err)

	a := c.InsertLine()
	b := c.InsertLine()
	col.Set(a, 42)
	m.Mark(a)

	c.CopyLine(b, a)
	assert.Equal(t, int32(42), col.Get(b))
	assert.False(t, m.IsMarked(b), "markers are not copied")

	c.InitMarkersOfLine(a)
	assert.False(t, m.IsMarked(a))
	assert.Equal(t, int32(42), col.Get(a))

	c.InitLine(a)
	assert.Equal(t, int32(0), col.Get(a))
}

func TestContainer_Clear(t *testing.T) {
	c := New()
	col, err := AddAttribute[int32](c, "v")
	require.NoError(t, err)
	for range 5 {
		col.Set(c.InsertLine(), 3)
	}

	c.Clear(false)
	assert.Equal(t, uint32(0), c.Size())
	assert.Equal(t, uint32(0), c.MaxSize())
	assert.Equal(t, 0, c.NbBlocks())
	assert.Same(t, col, GetAttribute[int32](c, "v"))

	i := c.InsertLine()
	assert.Equal(t, int32(0), col.Get(i), "kept columns restart zeroed")

	c.Clear(true)
	assert.Nil(t, c.Attribute("v"))
	assertInvariants(t, c)
}

func TestContainer_Swap(t *testing.T) {
	a := New(WithID(1))
	b := New(WithID(2))
	a.InsertLine()

	a.Swap(b)
	assert.Equal(t, uint32(2), a.ID())
	assert.Equal(t, uint32(0), a.Size())
	assert.Equal(t, uint32(1), b.Size())
}

type fakeMemory struct {
	limit, used int64
}

func (f *fakeMemory) AcquireMemory(n int64) error {
	if f.used+n > f.limit {
		return assert.AnError
	}
	f.used += n
	return nil
}

func (f *fakeMemory) ReleaseMemory(n int64) { f.used -= n }

func TestContainer_MemoryBudget(t *testing.T) {
	mem := &fakeMemory{limit: 2 * 8 * BlockSize}
	c := New(WithMemoryAcquirer(mem))

	for range 2 * BlockSize {
		_, err := c.TryInsertLine()
		require.NoError(t, err)
	}
	_, err := c.TryInsertLine()
	require.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Panics(t, func() { c.InsertLine() })

	c.Clear(false)
	assert.Zero(t, mem.used)
}
