package container

import "github.com/bits-and-blooms/bitset"

// MarkerTypeName is the type name reported by marker columns.
const MarkerTypeName = "Mark"

// MarkerColumn is a boolean column backed by one bitset per block. Marker
// columns are scratch state: they are never persisted and CopyLine leaves
// the destination unmarked.
type MarkerColumn struct {
	name   string
	index  int
	blocks []*bitset.BitSet
}

func newMarkerColumn(name string) *MarkerColumn {
	return &MarkerColumn{name: name, index: Unknown}
}

func (m *MarkerColumn) Name() string     { return m.name }
func (m *MarkerColumn) TypeName() string { return MarkerTypeName }
func (m *MarkerColumn) Index() int       { return m.index }

// Mark sets the mark of slot i.
func (m *MarkerColumn) Mark(i uint32) {
	m.blocks[i/BlockSize].Set(uint(i % BlockSize))
}

// Unmark clears the mark of slot i.
func (m *MarkerColumn) Unmark(i uint32) {
	m.blocks[i/BlockSize].Clear(uint(i % BlockSize))
}

// IsMarked reports whether slot i is marked.
func (m *MarkerColumn) IsMarked(i uint32) bool {
	return m.blocks[i/BlockSize].Test(uint(i % BlockSize))
}

// UnmarkAll clears every mark.
func (m *MarkerColumn) UnmarkAll() {
	for _, b := range m.blocks {
		b.ClearAll()
	}
}

// Count returns the number of marked slots.
func (m *MarkerColumn) Count() uint {
	var n uint
	for _, b := range m.blocks {
		n += b.Count()
	}
	return n
}

func (m *MarkerColumn) setIndex(i int)  { m.index = i }
func (m *MarkerColumn) elemSize() int64 { return 0 }

func (m *MarkerColumn) addBlock() {
	m.blocks = append(m.blocks, bitset.New(BlockSize))
}

func (m *MarkerColumn) setNbBlocks(n int) {
	if n < len(m.blocks) {
		clear(m.blocks[n:])
		m.blocks = m.blocks[:n]
		return
	}
	for len(m.blocks) < n {
		m.addBlock()
	}
}

func (m *MarkerColumn) clear() {
	clear(m.blocks)
	m.blocks = m.blocks[:0]
}

func (m *MarkerColumn) initLine(i uint32) { m.Unmark(i) }

func (m *MarkerColumn) copyLine(dst, _ uint32) { m.Unmark(dst) }

func (m *MarkerColumn) overwrite(src, dst uint32) {
	m.blocks[dst/BlockSize].SetTo(uint(dst%BlockSize), m.IsMarked(src))
	m.Unmark(src)
}

// AddMarkerAttribute adds a marker column named name.
func (c *Container) AddMarkerAttribute(name string) (*MarkerColumn, error) {
	if c.AttributeIndex(name) != Unknown {
		return nil, ErrAttributeExists
	}
	m := newMarkerColumn(name)
	c.attach(m)
	c.nbMarkers++
	return m, nil
}

// MarkerAttribute returns the marker column named name, or nil.
func (c *Container) MarkerAttribute(name string) *MarkerColumn {
	i := c.AttributeIndex(name)
	if i == Unknown {
		return nil
	}
	m, _ := c.attrs[i].(*MarkerColumn)
	return m
}
