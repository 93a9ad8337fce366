package container

// block is a fixed-capacity group of reference-counted slots.
//
// Offsets below top have been handed out at least once; offsets at or above
// top were never used. Released offsets below top are kept on the free stack.
type block struct {
	refs    [BlockSize]uint32
	free    []uint32
	top     uint32
	used    uint32
	charged int64
}

func (b *block) full() bool  { return b.used == BlockSize }
func (b *block) empty() bool { return b.used == 0 }

func (b *block) isUsed(off uint32) bool { return b.refs[off] != 0 }

// newSlot takes a free offset (recycled first) and sets its count to 1.
func (b *block) newSlot() uint32 {
	var off uint32
	if n := len(b.free); n > 0 {
		off = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		off = b.top
		b.top++
	}
	b.refs[off] = 1
	b.used++
	return off
}

func (b *block) remove(off uint32) {
	b.refs[off] = 0
	b.free = append(b.free, off)
	b.used--
}

func (b *block) ref(off uint32) { b.refs[off]++ }

// unref drops one reference and reports whether the slot was released.
func (b *block) unref(off uint32) bool {
	b.refs[off]--
	if b.refs[off] == 0 {
		b.free = append(b.free, off)
		b.used--
		return true
	}
	return false
}

// overwrite moves the slot src.off into the hole at off.
func (b *block) overwrite(off uint32, src *block, srcOff uint32) {
	b.refs[off] = src.refs[srcOff]
	src.refs[srcOff] = 0
	b.used++
	src.used--
}

// compressFree rebuilds the block state after compaction, assuming the live
// slots are packed at the start. It reports whether the block is now empty.
func (b *block) compressFree() bool {
	b.free = b.free[:0]
	b.top = b.used
	return b.used == 0
}

func (b *block) reset() {
	clear(b.refs[:b.top])
	b.free = b.free[:0]
	b.top = 0
	b.used = 0
}
