package container

import (
	"encoding/xml"
	"fmt"
	"io"
)

// XMLContainer is the XML form of a Container.
type XMLContainer struct {
	XMLName   xml.Name      `xml:"Attributes_Container"`
	ID        uint32        `xml:"id,attr"`
	BlockSize uint32        `xml:"BlockSize,attr"`
	Size      uint32        `xml:"size,attr"`
	Names     XMLAttributes `xml:"Attributes_Names"`
	Lines     XMLLines      `xml:"Data_Lines"`
}

// XMLAttributes lists the saved columns.
type XMLAttributes struct {
	Nb         int                `xml:"nb,attr"`
	Attributes []XMLAttributeName `xml:"Attribute"`
}

// XMLAttributeName describes one saved column.
type XMLAttributeName struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	ID   int    `xml:"id,attr"`
}

// XMLLines holds one Line per slot below MaxSize.
type XMLLines struct {
	Size  uint32    `xml:"size,attr"`
	Lines []XMLLine `xml:"Line"`
}

// reservedNames are the XMLLine attributes a column cannot be named after.
var reservedNames = [...]string{"id", "refs"}

func isReservedName(name string) bool {
	for _, r := range reservedNames {
		if name == r {
			return true
		}
	}
	return false
}

// XMLLine is one slot. Live slots carry one attribute per column, named
// after the column.
type XMLLine struct {
	ID     uint32     `xml:"id,attr"`
	Refs   uint32     `xml:"refs,attr"`
	Values []xml.Attr `xml:",any,attr"`
}

// MarshalXMLContainer builds the XML form of c. Column names must be valid
// XML attribute names.
func (c *Container) MarshalXMLContainer() (*XMLContainer, error) {
	cols := c.persistedColumns()
	x := &XMLContainer{
		ID:        c.id,
		BlockSize: BlockSize,
		Size:      c.size,
		Names:     XMLAttributes{Nb: len(cols)},
		Lines:     XMLLines{Size: c.maxSize, Lines: make([]XMLLine, 0, c.maxSize)},
	}
	for _, col := range cols {
		x.Names.Attributes = append(x.Names.Attributes, XMLAttributeName{
			Name: col.Name(),
			Type: col.TypeName(),
			ID:   col.Index(),
		})
	}

	for i := uint32(0); i < c.maxSize; i++ {
		line := XMLLine{ID: i, Refs: c.NbRefs(i)}
		if line.Refs > 0 {
			line.Values = make([]xml.Attr, 0, len(cols))
			for _, col := range cols {
				v, err := col.formatLine(i)
				if err != nil {
					return nil, fmt.Errorf("column %q slot %d: %w", col.Name(), i, err)
				}
				line.Values = append(line.Values, xml.Attr{Name: xml.Name{Local: col.Name()}, Value: v})
			}
		}
		x.Lines.Lines = append(x.Lines.Lines, line)
	}
	return x, nil
}

// SaveXML writes the XML form of c.
func (c *Container) SaveXML(w io.Writer) error {
	x, err := c.MarshalXMLContainer()
	if err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return err
	}
	return enc.Flush()
}

// LoadXML replaces the content of c with a document written by SaveXML.
func (c *Container) LoadXML(r io.Reader) error {
	var x XMLContainer
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return err
	}
	return c.UnmarshalXMLContainer(&x)
}

// UnmarshalXMLContainer replaces the content of c with x. On error the
// container holds whatever was restored so far.
func (c *Container) UnmarshalXMLContainer(x *XMLContainer) error {
	if x.BlockSize != BlockSize {
		c.logger.Error("block size mismatch", "container", x.ID, "expected", BlockSize, "got", x.BlockSize)
		return fmt.Errorf("%w: expected %d, got %d", ErrBlockSizeMismatch, BlockSize, x.BlockSize)
	}
	if x.Names.Nb != len(x.Names.Attributes) {
		return fmt.Errorf("%w: %d attribute names announced, %d found",
			ErrInconsistentState, x.Names.Nb, len(x.Names.Attributes))
	}
	maxSize := x.Lines.Size
	if uint32(len(x.Lines.Lines)) != maxSize {
		return fmt.Errorf("%w: %d lines announced, %d found", ErrInconsistentState, maxSize, len(x.Lines.Lines))
	}

	c.Clear(true)
	c.id = x.ID

	cols := make(map[string]persistable, len(x.Names.Attributes))
	for _, an := range x.Names.Attributes {
		e, ok := lookupTypeName(an.Type)
		if !ok {
			c.logger.Warn("skipping attribute of unregistered type", "container", x.ID, "name", an.Name, "type", an.Type)
			continue
		}
		col, ok := e.newColumn(an.Name).(persistable)
		if !ok {
			continue
		}
		c.attach(col)
		cols[an.Name] = col
	}

	nbBlocks := (maxSize + BlockSize - 1) / BlockSize
	for range nbBlocks {
		if err := c.addBlock(); err != nil {
			return err
		}
	}
	c.freeBlocks = c.freeBlocks[:0]

	for i, line := range x.Lines.Lines {
		if line.ID != uint32(i) {
			return fmt.Errorf("%w: line %d has id %d", ErrInconsistentState, i, line.ID)
		}
		b := c.blocks[line.ID/BlockSize]
		off := line.ID % BlockSize
		b.refs[off] = line.Refs
		b.top = off + 1
		if line.Refs == 0 {
			b.free = append(b.free, off)
			continue
		}
		b.used++
		c.size++
		for _, v := range line.Values {
			col, ok := cols[v.Name.Local]
			if !ok {
				continue
			}
			if err := col.parseLine(line.ID, v.Value); err != nil {
				return err
			}
		}
	}
	c.maxSize = maxSize

	for i := len(c.blocks) - 1; i >= 0; i-- {
		b := c.blocks[i]
		if !b.full() {
			c.freeBlocks = append(c.freeBlocks, uint32(i))
		}
		if b.empty() {
			c.emptyBlocks = append(c.emptyBlocks, uint32(i))
		}
	}

	if c.size != x.Size {
		return fmt.Errorf("%w: %d live lines, header says %d", ErrInconsistentState, c.size, x.Size)
	}
	return nil
}
