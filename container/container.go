package container

import (
	"fmt"
	"iter"
	"log/slog"
	"math"
	"slices"
)

const (
	// BlockSize is the number of slots per block.
	BlockSize = 4096

	// Null marks the absence of a slot.
	Null uint32 = math.MaxUint32

	// Unknown is returned for attribute lookups that find nothing.
	Unknown = -1
)

// MemoryAcquirer accounts for the memory of newly allocated blocks.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithID sets the identifier written into persisted headers.
func WithID(id uint32) Option {
	return func(c *Container) { c.id = id }
}

// WithMemoryAcquirer charges every new block against m.
func WithMemoryAcquirer(m MemoryAcquirer) Option {
	return func(c *Container) { c.mem = m }
}

// WithCompression sets the compression applied to column payloads by SaveBin.
func WithCompression(ct Compression) Option {
	return func(c *Container) { c.compression = ct }
}

// Container is a block-based, reference-counted allocator of rows with
// attached columns.
type Container struct {
	id          uint32
	blocks      []*block
	freeBlocks  []uint32 // blocks with at least one free slot, next candidate last
	emptyBlocks []uint32 // blocks emptied by removals since the last compaction
	size        uint32
	maxSize     uint32

	attrs       []Attribute
	freeIndices []int
	nbMarkers   int

	logger      *slog.Logger
	mem         MemoryAcquirer
	compression Compression
}

// New creates an empty Container.
func New(optFns ...Option) *Container {
	c := &Container{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// ID returns the container identifier.
func (c *Container) ID() uint32 { return c.id }

// Size returns the number of live slots.
func (c *Container) Size() uint32 { return c.size }

// MaxSize returns the highest slot index ever allocated plus one.
func (c *Container) MaxSize() uint32 { return c.maxSize }

// NbBlocks returns the number of allocated blocks.
func (c *Container) NbBlocks() int { return len(c.blocks) }

// NbEmptyBlocks returns the number of blocks left empty by removals.
func (c *Container) NbEmptyBlocks() int { return len(c.emptyBlocks) }

// Capacity returns the number of slots backed by allocated blocks.
func (c *Container) Capacity() uint32 { return uint32(len(c.blocks)) * BlockSize }

// Fragmentation returns the ratio of live slots to the slot range in use.
// A compact container reports 1.
func (c *Container) Fragmentation() float64 {
	if c.maxSize == 0 {
		return 1
	}
	return float64(c.size) / float64(c.maxSize)
}

// Logger returns the diagnostics logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// InsertLine allocates a slot with reference count 1. It panics if the
// memory budget is exhausted.
func (c *Container) InsertLine() uint32 {
	i, err := c.TryInsertLine()
	if err != nil {
		panic(err)
	}
	return i
}

// TryInsertLine allocates a slot with reference count 1. It fails only when
// a new block is needed and the memory budget refuses it.
func (c *Container) TryInsertLine() (uint32, error) {
	if len(c.freeBlocks) == 0 {
		if err := c.addBlock(); err != nil {
			return Null, err
		}
	}

	bi := c.freeBlocks[len(c.freeBlocks)-1]
	b := c.blocks[bi]

	if b.empty() {
		c.emptyBlocks = deleteValue(c.emptyBlocks, bi)
	}

	off := b.newSlot()
	index := bi*BlockSize + off

	if b.full() {
		c.freeBlocks = c.freeBlocks[:len(c.freeBlocks)-1]
	}
	if index >= c.maxSize {
		c.maxSize = index + 1
	}
	c.size++

	return index, nil
}

func (c *Container) addBlock() error {
	b := &block{}
	if c.mem != nil {
		b.charged = c.blockCost()
		if err := c.mem.AcquireMemory(b.charged); err != nil {
			return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
		}
	}
	c.freeBlocks = append(c.freeBlocks, uint32(len(c.blocks)))
	c.blocks = append(c.blocks, b)
	for _, a := range c.attrs {
		if a != nil {
			a.addBlock()
		}
	}
	return nil
}

func (c *Container) blockCost() int64 {
	cost := int64(4 + 4) // refcount and free-list entry
	for _, a := range c.attrs {
		if a != nil {
			cost += a.elemSize()
		}
	}
	return cost * BlockSize
}

func (c *Container) releaseBlock(b *block) {
	if c.mem != nil && b.charged > 0 {
		c.mem.ReleaseMemory(b.charged)
		b.charged = 0
	}
}

// RemoveLine frees slot i regardless of its reference count. Removing a
// free slot is logged and ignored.
func (c *Container) RemoveLine(i uint32) {
	bi, off := i/BlockSize, i%BlockSize
	b := c.blocks[bi]
	if !b.isUsed(off) {
		c.logger.Error("removing non existing line", "container", c.id, "index", i)
		return
	}
	wasFull := b.full()
	b.remove(off)
	c.released(bi, b, wasFull)
}

func (c *Container) released(bi uint32, b *block, wasFull bool) {
	c.size--
	if wasFull {
		c.freeBlocks = append(c.freeBlocks, bi)
	}
	if b.empty() {
		c.emptyBlocks = append(c.emptyBlocks, bi)
	}
}

// Used reports whether slot i is live.
func (c *Container) Used(i uint32) bool {
	if i >= c.maxSize {
		return false
	}
	return c.blocks[i/BlockSize].isUsed(i % BlockSize)
}

// RefLine adds one reference to slot i.
func (c *Container) RefLine(i uint32) {
	c.blocks[i/BlockSize].ref(i % BlockSize)
}

// UnrefLine drops one reference from slot i and frees the slot when the
// count reaches zero. It reports whether the slot was freed.
func (c *Container) UnrefLine(i uint32) bool {
	bi, off := i/BlockSize, i%BlockSize
	b := c.blocks[bi]
	if !b.isUsed(off) {
		c.logger.Error("unreferencing non existing line", "container", c.id, "index", i)
		return false
	}
	wasFull := b.full()
	if !b.unref(off) {
		return false
	}
	c.released(bi, b, wasFull)
	return true
}

// NbRefs returns the reference count of slot i.
func (c *Container) NbRefs(i uint32) uint32 {
	return c.blocks[i/BlockSize].refs[i%BlockSize]
}

// SetNbRefs overwrites the reference count of a live slot. A zero count
// frees the slot.
func (c *Container) SetNbRefs(i, n uint32) {
	if n == 0 {
		c.RemoveLine(i)
		return
	}
	b := c.blocks[i/BlockSize]
	if !b.isUsed(i % BlockSize) {
		c.logger.Error("setting references of non existing line", "container", c.id, "index", i)
		return
	}
	b.refs[i%BlockSize] = n
}

// Begin returns the first live slot, or End if there is none.
func (c *Container) Begin() uint32 {
	i := uint32(0)
	for i < c.maxSize && !c.Used(i) {
		i++
	}
	return i
}

// End returns the past-the-end slot index.
func (c *Container) End() uint32 { return c.maxSize }

// Next returns the live slot following i, or End.
func (c *Container) Next(i uint32) uint32 {
	i++
	for i < c.maxSize && !c.Used(i) {
		i++
	}
	return i
}

// Lines iterates over the live slots in ascending order.
func (c *Container) Lines() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for i := c.Begin(); i != c.End(); i = c.Next(i) {
			if !yield(i) {
				return
			}
		}
	}
}

// InitLine resets every column entry of slot i to its zero value.
func (c *Container) InitLine(i uint32) {
	for _, a := range c.attrs {
		if a != nil {
			a.initLine(i)
		}
	}
}

// InitMarkersOfLine clears every marker of slot i.
func (c *Container) InitMarkersOfLine(i uint32) {
	if c.nbMarkers == 0 {
		return
	}
	for _, a := range c.attrs {
		if m, ok := a.(*MarkerColumn); ok {
			m.Unmark(i)
		}
	}
}

// CopyLine copies every column entry of slot src to slot dst.
func (c *Container) CopyLine(dst, src uint32) {
	for _, a := range c.attrs {
		if a != nil {
			a.copyLine(dst, src)
		}
	}
}

// Compact moves live slots into the lowest holes, trims trailing blocks
// and returns the old-to-new mapping for every index below the previous
// MaxSize. Dead indices map to Null.
func (c *Container) Compact() []uint32 {
	mapOldNew := make([]uint32, c.maxSize)
	for i := range mapOldNew {
		if c.Used(uint32(i)) {
			mapOldNew[i] = uint32(i)
		} else {
			mapOldNew[i] = Null
		}
	}

	lo, hi := uint32(0), c.maxSize
	for {
		for lo < hi && c.Used(lo) {
			lo++
		}
		for hi > lo && !c.Used(hi-1) {
			hi--
		}
		if lo >= hi {
			break
		}
		c.moveLine(hi-1, lo)
		mapOldNew[hi-1] = lo
	}

	n := len(c.blocks)
	for n > 0 && c.blocks[n-1].used == 0 {
		n--
	}
	for _, b := range c.blocks[n:] {
		c.releaseBlock(b)
	}
	clear(c.blocks[n:])
	c.blocks = c.blocks[:n]
	for _, b := range c.blocks {
		b.compressFree()
	}
	for _, a := range c.attrs {
		if a != nil {
			a.setNbBlocks(n)
		}
	}

	c.freeBlocks = c.freeBlocks[:0]
	c.emptyBlocks = c.emptyBlocks[:0]
	if n > 0 && !c.blocks[n-1].full() {
		c.freeBlocks = append(c.freeBlocks, uint32(n-1))
	}
	c.maxSize = c.size

	return mapOldNew
}

func (c *Container) moveLine(src, dst uint32) {
	for _, a := range c.attrs {
		if a != nil {
			a.overwrite(src, dst)
		}
	}
	c.blocks[dst/BlockSize].overwrite(dst%BlockSize, c.blocks[src/BlockSize], src%BlockSize)
}

// Clear drops every slot. With removeAttrib the columns are detached as
// well, otherwise they are kept empty.
func (c *Container) Clear(removeAttrib bool) {
	for _, b := range c.blocks {
		c.releaseBlock(b)
	}
	c.blocks = nil
	c.freeBlocks = nil
	c.emptyBlocks = nil
	c.size = 0
	c.maxSize = 0

	for _, a := range c.attrs {
		if a != nil {
			a.clear()
		}
	}
	if removeAttrib {
		c.attrs = nil
		c.freeIndices = nil
		c.nbMarkers = 0
	}
}

// Swap exchanges the whole content of c and other.
func (c *Container) Swap(other *Container) {
	*c, *other = *other, *c
}

func (c *Container) attach(a Attribute) {
	a.setNbBlocks(len(c.blocks))
	if n := len(c.freeIndices); n > 0 {
		i := c.freeIndices[n-1]
		c.freeIndices = c.freeIndices[:n-1]
		c.attrs[i] = a
		a.setIndex(i)
		return
	}
	a.setIndex(len(c.attrs))
	c.attrs = append(c.attrs, a)
}

// AttributeIndex returns the index of the column named name, or Unknown.
func (c *Container) AttributeIndex(name string) int {
	for i, a := range c.attrs {
		if a != nil && a.Name() == name {
			return i
		}
	}
	return Unknown
}

// Attribute returns the column named name, or nil.
func (c *Container) Attribute(name string) Attribute {
	if i := c.AttributeIndex(name); i != Unknown {
		return c.attrs[i]
	}
	return nil
}

// AttributeAt returns the column at index i, or nil.
func (c *Container) AttributeAt(i int) Attribute {
	if i < 0 || i >= len(c.attrs) {
		return nil
	}
	return c.attrs[i]
}

// RemoveAttribute detaches the column named name.
func (c *Container) RemoveAttribute(name string) bool {
	i := c.AttributeIndex(name)
	if i == Unknown {
		c.logger.Warn("removing non existing attribute", "container", c.id, "name", name)
		return false
	}
	return c.RemoveAttributeAt(i)
}

// RemoveAttributeAt detaches the column at index i.
func (c *Container) RemoveAttributeAt(i int) bool {
	if i < 0 || i >= len(c.attrs) || c.attrs[i] == nil {
		c.logger.Warn("removing non existing attribute", "container", c.id, "index", i)
		return false
	}
	if _, ok := c.attrs[i].(*MarkerColumn); ok {
		c.nbMarkers--
	}
	c.attrs[i].clear()
	c.attrs[i] = nil
	if i == len(c.attrs)-1 {
		c.attrs = c.attrs[:i]
	} else {
		c.freeIndices = append(c.freeIndices, i)
	}
	return true
}

// NbAttributes returns the number of attached columns, markers included.
func (c *Container) NbAttributes() int {
	n := 0
	for _, a := range c.attrs {
		if a != nil {
			n++
		}
	}
	return n
}

// AttributeNames returns the names of the attached columns in index order.
func (c *Container) AttributeNames() []string {
	names := make([]string, 0, len(c.attrs))
	for _, a := range c.attrs {
		if a != nil {
			names = append(names, a.Name())
		}
	}
	return names
}

func deleteValue(s []uint32, v uint32) []uint32 {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}
