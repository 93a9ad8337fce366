package container

import (
	"fmt"
	"reflect"
)

// Attribute is a column of a Container. Implementations live in this
// package: Column[T] for typed data and MarkerColumn for boolean marks.
type Attribute interface {
	// Name returns the name the column was registered under.
	Name() string
	// TypeName returns the registry name of the element type.
	TypeName() string
	// Index returns the position of the column in its container.
	Index() int

	setIndex(i int)
	addBlock()
	setNbBlocks(n int)
	clear()
	initLine(i uint32)
	copyLine(dst, src uint32)
	overwrite(src, dst uint32)
	elemSize() int64
}

// persistable is implemented by columns whose contents are saved.
type persistable interface {
	Attribute
	appendElems(dst []byte, n uint32) ([]byte, error)
	decodeElems(src []byte, n uint32) error
	formatLine(i uint32) (string, error)
	parseLine(i uint32, s string) error
}

// Column is a typed parallel array indexed by container slot.
type Column[T any] struct {
	name     string
	typeName string
	index    int
	codec    Codec[T]
	size     int64
	blocks   []*[BlockSize]T
}

func newColumn[T any](name, typeName string, codec Codec[T]) *Column[T] {
	var zero T
	return &Column[T]{
		name:     name,
		typeName: typeName,
		codec:    codec,
		index:    Unknown,
		size:     int64(reflect.TypeOf(&zero).Elem().Size()),
	}
}

func (c *Column[T]) Name() string     { return c.name }
func (c *Column[T]) TypeName() string { return c.typeName }
func (c *Column[T]) Index() int       { return c.index }

// Get returns the value stored at slot i.
func (c *Column[T]) Get(i uint32) T {
	return c.blocks[i/BlockSize][i%BlockSize]
}

// Set stores v at slot i.
func (c *Column[T]) Set(i uint32, v T) {
	c.blocks[i/BlockSize][i%BlockSize] = v
}

// Ref returns a pointer to the value stored at slot i. The pointer stays
// valid until the next compaction or clear.
func (c *Column[T]) Ref(i uint32) *T {
	return &c.blocks[i/BlockSize][i%BlockSize]
}

// Fill sets every allocated entry to v.
func (c *Column[T]) Fill(v T) {
	for _, b := range c.blocks {
		for j := range b {
			b[j] = v
		}
	}
}

// NbBlocks returns the number of blocks backing the column.
func (c *Column[T]) NbBlocks() int { return len(c.blocks) }

func (c *Column[T]) setIndex(i int)  { c.index = i }
func (c *Column[T]) elemSize() int64 { return c.size }

func (c *Column[T]) addBlock() {
	c.blocks = append(c.blocks, new([BlockSize]T))
}

func (c *Column[T]) setNbBlocks(n int) {
	if n < len(c.blocks) {
		clear(c.blocks[n:])
		c.blocks = c.blocks[:n]
		return
	}
	for len(c.blocks) < n {
		c.addBlock()
	}
}

func (c *Column[T]) clear() {
	clear(c.blocks)
	c.blocks = c.blocks[:0]
}

func (c *Column[T]) initLine(i uint32) {
	var zero T
	c.Set(i, zero)
}

func (c *Column[T]) copyLine(dst, src uint32) {
	c.Set(dst, c.Get(src))
}

func (c *Column[T]) overwrite(src, dst uint32) {
	c.Set(dst, c.Get(src))
	c.initLine(src)
}

func (c *Column[T]) appendElems(dst []byte, n uint32) ([]byte, error) {
	var err error
	for i := uint32(0); i < n; i++ {
		if dst, err = c.codec.Append(dst, c.Get(i)); err != nil {
			return dst, fmt.Errorf("column %q slot %d: %w", c.name, i, err)
		}
	}
	return dst, nil
}

func (c *Column[T]) decodeElems(src []byte, n uint32) error {
	for i := uint32(0); i < n; i++ {
		m, err := c.codec.Decode(src, c.Ref(i))
		if err != nil {
			return fmt.Errorf("column %q slot %d: %w", c.name, i, err)
		}
		src = src[m:]
	}
	return nil
}

func (c *Column[T]) formatLine(i uint32) (string, error) {
	return c.codec.Format(c.Get(i))
}

func (c *Column[T]) parseLine(i uint32, s string) error {
	v, err := c.codec.Parse(s)
	if err != nil {
		return fmt.Errorf("column %q slot %d: %w", c.name, i, err)
	}
	c.Set(i, v)
	return nil
}

// AddAttribute adds a column of element type T named name. The column gets
// one zeroed block per existing container block.
func AddAttribute[T any](c *Container, name string) (*Column[T], error) {
	if isReservedName(name) {
		return nil, fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	if c.AttributeIndex(name) != Unknown {
		return nil, fmt.Errorf("%w: %q", ErrAttributeExists, name)
	}
	typeName, codec := lookupType[T]()
	col := newColumn[T](name, typeName, codec)
	c.attach(col)
	return col, nil
}

// GetAttribute returns the column named name, or nil if it does not exist
// or has a different element type.
func GetAttribute[T any](c *Container, name string) *Column[T] {
	i := c.AttributeIndex(name)
	if i == Unknown {
		return nil
	}
	col, _ := c.attrs[i].(*Column[T])
	return col
}

// GetOrAddAttribute returns the column named name, adding it when missing.
func GetOrAddAttribute[T any](c *Container, name string) (*Column[T], error) {
	if col := GetAttribute[T](c, name); col != nil {
		return col, nil
	}
	return AddAttribute[T](c, name)
}
