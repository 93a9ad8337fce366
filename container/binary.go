package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

const headerFields = 7

// SaveBin writes the container as a length-prefixed binary dump:
//
//	Header: id, BlockSize, nbBlocks, nbFreeBlocks, nbAttributes, size, maxSize (uint32 each)
//	Columns (nbAttributes):
//	  Name (string), TypeName (string), Compression (uint8)
//	  PayloadLength (uint32), Payload (MaxSize encoded elements)
//	Blocks (nbBlocks):
//	  Top, Used, NbFree (uint32), Free (NbFree uint32), Refs (Top uint32)
//	FreeBlocks (nbFreeBlocks uint32)
//
// Marker columns are not saved.
func (c *Container) SaveBin(w io.Writer) error {
	buf, err := c.AppendBinary(nil)
	if err != nil {
		return err
	}
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(buf)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// LoadBin replaces the content of c with a dump written by SaveBin.
func (c *Container) LoadBin(r io.Reader) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return err
	}
	buf := make([]byte, binary.LittleEndian.Uint32(prefix[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return c.DecodeBinary(buf)
}

// LoadBinID reads the container id of a dump written by SaveBin without
// consuming more than its header.
func LoadBinID(r io.Reader) (uint32, error) {
	var hdr [4 + 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(hdr[4:]), nil
}

func (c *Container) persistedColumns() []persistable {
	cols := make([]persistable, 0, len(c.attrs))
	for _, a := range c.attrs {
		if p, ok := a.(persistable); ok {
			cols = append(cols, p)
		}
	}
	return cols
}

// AppendBinary appends the SaveBin payload (without length prefix) to dst.
func (c *Container) AppendBinary(dst []byte) ([]byte, error) {
	cols := c.persistedColumns()
	pb := newPayloadBuffer(dst)

	pb.writeUint32(c.id)
	pb.writeUint32(BlockSize)
	pb.writeUint32(uint32(len(c.blocks)))
	pb.writeUint32(uint32(len(c.freeBlocks)))
	pb.writeUint32(uint32(len(cols)))
	pb.writeUint32(c.size)
	pb.writeUint32(c.maxSize)

	for _, col := range cols {
		raw, err := col.appendElems(nil, c.maxSize)
		if err != nil {
			return dst, err
		}
		payload, err := compressPayload(raw, c.compression)
		if err != nil {
			return dst, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		pb.writeString(col.Name())
		pb.writeString(col.TypeName())
		pb.writeUint8(uint8(c.compression))
		pb.writeBytes(payload)
	}

	for _, b := range c.blocks {
		pb.writeUint32(b.top)
		pb.writeUint32(b.used)
		pb.writeUint32(uint32(len(b.free)))
		for _, off := range b.free {
			pb.writeUint32(off)
		}
		for _, r := range b.refs[:b.top] {
			pb.writeUint32(r)
		}
	}

	for _, bi := range c.freeBlocks {
		pb.writeUint32(bi)
	}

	return pb.buf, pb.err
}

// DecodeBinary replaces the content of c with the payload produced by
// AppendBinary. Columns are detached first. On error the container holds
// whatever was decoded so far.
func (c *Container) DecodeBinary(data []byte) error {
	pb := newPayloadBuffer(data)

	var hdr [headerFields]uint32
	for i := range hdr {
		hdr[i] = pb.readUint32()
	}
	if pb.err != nil {
		return pb.err
	}
	id, blockSize, nbBlocks, nbFreeBlocks, nbAttrs, size, maxSize :=
		hdr[0], hdr[1], hdr[2], hdr[3], hdr[4], hdr[5], hdr[6]

	if blockSize != BlockSize {
		c.logger.Error("block size mismatch", "container", id, "expected", BlockSize, "got", blockSize)
		return fmt.Errorf("%w: expected %d, got %d", ErrBlockSizeMismatch, BlockSize, blockSize)
	}
	if maxSize > nbBlocks*BlockSize || size > maxSize || nbFreeBlocks > nbBlocks {
		return fmt.Errorf("%w: size %d, maxSize %d, blocks %d, free blocks %d",
			ErrInconsistentState, size, maxSize, nbBlocks, nbFreeBlocks)
	}

	c.Clear(true)
	c.id = id

	// Columns are decoded after the blocks exist so they get the right length.
	type pendingColumn struct {
		col     persistable
		ct      Compression
		payload []byte
	}
	pending := make([]pendingColumn, 0, nbAttrs)
	for i := uint32(0); i < nbAttrs; i++ {
		name := pb.readString()
		typeName := pb.readString()
		ct := Compression(pb.readUint8())
		payload := pb.readBytes()
		if pb.err != nil {
			return pb.err
		}
		e, ok := lookupTypeName(typeName)
		if !ok {
			c.logger.Warn("skipping attribute of unregistered type", "container", id, "name", name, "type", typeName)
			continue
		}
		col, ok := e.newColumn(name).(persistable)
		if !ok {
			continue
		}
		c.attach(col)
		pending = append(pending, pendingColumn{col: col, ct: ct, payload: payload})
	}

	var live uint32
	for i := uint32(0); i < nbBlocks; i++ {
		b := &block{}
		b.top = pb.readUint32()
		b.used = pb.readUint32()
		nbFree := pb.readUint32()
		if pb.err != nil {
			return pb.err
		}
		if b.top > BlockSize || b.used > b.top || nbFree != b.top-b.used {
			return fmt.Errorf("%w: block %d top %d used %d free %d",
				ErrInconsistentState, i, b.top, b.used, nbFree)
		}
		b.free = make([]uint32, nbFree)
		for j := range b.free {
			b.free[j] = pb.readUint32()
		}
		var inUse uint32
		for j := uint32(0); j < b.top; j++ {
			b.refs[j] = pb.readUint32()
			if b.refs[j] != 0 {
				inUse++
			}
		}
		if pb.err != nil {
			return pb.err
		}
		if inUse != b.used {
			return fmt.Errorf("%w: block %d counts %d used slots, refs show %d",
				ErrInconsistentState, i, b.used, inUse)
		}
		for _, off := range b.free {
			if off >= b.top || b.refs[off] != 0 {
				return fmt.Errorf("%w: block %d free offset %d", ErrInconsistentState, i, off)
			}
		}
		if c.mem != nil {
			b.charged = c.blockCost()
			if err := c.mem.AcquireMemory(b.charged); err != nil {
				return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
			}
		}
		c.blocks = append(c.blocks, b)
		for _, a := range c.attrs {
			if a != nil {
				a.addBlock()
			}
		}
		live += b.used
	}
	if live != size {
		return fmt.Errorf("%w: blocks hold %d live slots, header says %d", ErrInconsistentState, live, size)
	}

	c.freeBlocks = make([]uint32, nbFreeBlocks)
	for i := range c.freeBlocks {
		c.freeBlocks[i] = pb.readUint32()
		if c.freeBlocks[i] >= nbBlocks {
			return fmt.Errorf("%w: free block index %d out of range", ErrInconsistentState, c.freeBlocks[i])
		}
	}
	if pb.err != nil {
		return pb.err
	}
	for i, b := range c.blocks {
		if b.empty() && b.top > 0 {
			c.emptyBlocks = append(c.emptyBlocks, uint32(i))
		}
	}
	c.size = size
	c.maxSize = maxSize

	for _, p := range pending {
		raw, err := decompressPayload(p.payload, p.ct)
		if err != nil {
			return fmt.Errorf("column %q: %w", p.col.Name(), err)
		}
		if err := p.col.decodeElems(raw, maxSize); err != nil {
			return err
		}
	}
	return nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint8(v uint8) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > 65535 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) writeBytes(b []byte) {
	p.writeUint32(uint32(len(b)))
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, b...)
}

func (p *payloadBuffer) readUint8() uint8 {
	if p.err != nil {
		return 0
	}
	if p.pos+1 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := p.buf[p.pos]
	p.pos++
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readString() string {
	if p.err != nil {
		return ""
	}
	if p.pos+2 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2
	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}

func (p *payloadBuffer) readBytes() []byte {
	l := int(p.readUint32())
	if p.err != nil {
		return nil
	}
	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	b := p.buf[p.pos : p.pos+l]
	p.pos += l
	return b
}
