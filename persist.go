package topomap

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/topomap/container"
	"github.com/hupe1980/topomap/internal/hash"
	"github.com/hupe1980/topomap/internal/resource"
)

const (
	// FormatMagic starts every binary map dump ("TMAP").
	FormatMagic uint32 = 0x50414D54
	// FormatVersion is the version of the binary map dump.
	FormatVersion uint32 = 1
)

// SaveBin writes m as a binary dump:
//
//	Magic, Version, Dimension, OrbitMask (uint32 each)
//	Containers (one per bit of OrbitMask, DART first):
//	  Length (uint32), container payload
//	Boundaries (MaxDimension+1):
//	  Length (uint32), roaring bitmap
//	Checksum: CRC32-C of everything above (uint32)
//
// Scratch markers are not saved. The write is throttled by WithIOLimit.
func SaveBin(ctx context.Context, m Map, w io.Writer) (err error) {
	g := m.Generic()
	start := time.Now()
	var n int64
	defer func() {
		g.logger.LogSave(ctx, "binary", n, err)
		g.metrics.RecordSave(n, time.Since(start), err)
	}()

	buf, err := appendMap(nil, g, m.Dimension())
	if err != nil {
		return err
	}
	buf = hash.AppendCRC32C(buf)

	rw := resource.NewRateLimitedWriter(ctx, w, g.rc)
	_, err = rw.Write(buf)
	n = rw.BytesWritten()
	return err
}

func appendMap(dst []byte, g *GenericMap, dim uint) ([]byte, error) {
	var mask uint32
	for orbit, c := range g.containers {
		if c != nil {
			mask |= 1 << orbit
		}
	}
	dst = binary.LittleEndian.AppendUint32(dst, FormatMagic)
	dst = binary.LittleEndian.AppendUint32(dst, FormatVersion)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(dim))
	dst = binary.LittleEndian.AppendUint32(dst, mask)

	for orbit, c := range g.containers {
		if c == nil {
			continue
		}
		lenAt := len(dst)
		dst = binary.LittleEndian.AppendUint32(dst, 0)
		var err error
		dst, err = c.AppendBinary(dst)
		if err != nil {
			return nil, fmt.Errorf("container %s: %w", Orbit(orbit), err)
		}
		binary.LittleEndian.PutUint32(dst[lenAt:], uint32(len(dst)-lenAt-4))
	}

	for _, b := range g.boundary {
		raw, err := b.ToBytes()
		if err != nil {
			return nil, err
		}
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(raw)))
		dst = append(dst, raw...)
	}
	return dst, nil
}

// LoadBin replaces the content of m with a dump written by SaveBin. The
// dimension of the dump must match m. On error m may hold a partial load
// and should be cleared by the caller.
func LoadBin(ctx context.Context, m Map, r io.Reader) (err error) {
	g := m.Generic()
	start := time.Now()
	var n int64
	defer func() {
		g.logger.LogLoad(ctx, "binary", n, err)
		g.metrics.RecordLoad(n, time.Since(start), err)
	}()

	rr := resource.NewRateLimitedReader(ctx, r, g.rc)
	data, err := io.ReadAll(rr)
	n = rr.BytesRead()
	if err != nil {
		return err
	}
	if len(data) < 5*4 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidFormat, len(data))
	}
	if binary.LittleEndian.Uint32(data) != FormatMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	body, ok := hash.SplitCRC32C(data)
	if !ok {
		return ErrChecksumMismatch
	}
	return decodeMap(g, m.Dimension(), body)
}

func decodeMap(g *GenericMap, dim uint, data []byte) error {
	rd := bytes.NewReader(data)
	var hdr [4]uint32
	if err := binary.Read(rd, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if hdr[1] != FormatVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidFormat, hdr[1])
	}
	if hdr[2] != uint32(dim) {
		return fmt.Errorf("%w: dump of dimension %d, map of dimension %d", ErrDimensionMismatch, hdr[2], dim)
	}
	mask := hdr[3]
	if mask&1 == 0 || mask>>NbOrbits != 0 {
		return fmt.Errorf("%w: orbit mask %#x", ErrInvalidFormat, mask)
	}

	g.Clear(true)
	for orbit := DartOrbit; int(orbit) < NbOrbits; orbit++ {
		if mask&(1<<orbit) == 0 {
			continue
		}
		payload, err := readChunk(rd)
		if err != nil {
			return fmt.Errorf("container %s: %w", orbit, err)
		}
		c := g.containers[orbit]
		if c == nil {
			c = g.newContainer(orbit)
			g.containers[orbit] = c
		}
		if err := c.DecodeBinary(payload); err != nil {
			return fmt.Errorf("container %s: %w", orbit, err)
		}
	}

	for i := range g.boundary {
		payload, err := readChunk(rd)
		if err != nil {
			return fmt.Errorf("boundary %d: %w", i, err)
		}
		b := roaring.New()
		if err := b.UnmarshalBinary(payload); err != nil {
			return fmt.Errorf("boundary %d: %w", i, err)
		}
		g.boundary[i] = b
	}
	g.bindColumns()
	return nil
}

func readChunk(rd *bytes.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(rd, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if int64(size) > int64(rd.Len()) {
		return nil, fmt.Errorf("%w: chunk of %d bytes, %d left", ErrInvalidFormat, size, rd.Len())
	}
	buf := make([]byte, size)
	_, _ = io.ReadFull(rd, buf)
	return buf, nil
}

// bindColumns looks up the embedding, quick traversal and relation columns
// of freshly loaded containers. Dart typed columns of the dart container
// are relations.
func (m *GenericMap) bindColumns() {
	darts := m.Darts()
	for orbit := Vertex; int(orbit) < NbOrbits; orbit++ {
		c := m.containers[orbit]
		if c == nil {
			continue
		}
		m.embeddings[orbit] = container.GetAttribute[uint32](darts, EmbeddingName(orbit))
		m.quick[orbit] = container.GetAttribute[Dart](c, QuickTraversalName)
		m.quickStale[orbit] = m.quick[orbit] != nil
		if m.embeddings[orbit] == nil {
			// A cell container without its embedding column is unusable.
			m.containers[orbit] = nil
			m.quick[orbit] = nil
		}
	}
	for _, name := range darts.AttributeNames() {
		if rel := container.GetAttribute[Dart](darts, name); rel != nil {
			m.relations = append(m.relations, rel)
		}
	}
}

type xmlMap struct {
	XMLName    xml.Name                  `xml:"Map"`
	Dimension  uint                      `xml:"dimension,attr"`
	Containers []*container.XMLContainer `xml:"Attributes_Container"`
	Boundaries []xmlBoundary             `xml:"Boundary"`
}

type xmlBoundary struct {
	Dim   uint   `xml:"dim,attr"`
	Darts string `xml:",chardata"`
}

// SaveXML writes m as an XML document: a Map element holding one
// Attributes_Container per embedded orbit, DART first, and one Boundary
// element per non-empty boundary set.
func SaveXML(ctx context.Context, m Map, w io.Writer) (err error) {
	g := m.Generic()
	start := time.Now()
	rw := resource.NewRateLimitedWriter(ctx, w, g.rc)
	defer func() {
		g.logger.LogSave(ctx, "xml", rw.BytesWritten(), err)
		g.metrics.RecordSave(rw.BytesWritten(), time.Since(start), err)
	}()

	doc := xmlMap{Dimension: m.Dimension()}
	for _, c := range g.containers {
		if c == nil {
			continue
		}
		xc, err := c.MarshalXMLContainer()
		if err != nil {
			return err
		}
		doc.Containers = append(doc.Containers, xc)
	}
	for dim, b := range g.boundary {
		if b.IsEmpty() {
			continue
		}
		var sb strings.Builder
		it := b.Iterator()
		for it.HasNext() {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatUint(uint64(it.Next()), 10))
		}
		doc.Boundaries = append(doc.Boundaries, xmlBoundary{Dim: uint(dim), Darts: sb.String()})
	}

	if _, err := io.WriteString(rw, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(rw)
	enc.Indent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// LoadXML replaces the content of m with a document written by SaveXML.
func LoadXML(ctx context.Context, m Map, r io.Reader) (err error) {
	g := m.Generic()
	start := time.Now()
	rr := resource.NewRateLimitedReader(ctx, r, g.rc)
	defer func() {
		g.logger.LogLoad(ctx, "xml", rr.BytesRead(), err)
		g.metrics.RecordLoad(rr.BytesRead(), time.Since(start), err)
	}()

	var doc xmlMap
	if err := xml.NewDecoder(rr).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Dimension != m.Dimension() {
		return fmt.Errorf("%w: document of dimension %d, map of dimension %d",
			ErrDimensionMismatch, doc.Dimension, m.Dimension())
	}

	g.Clear(true)
	for _, xc := range doc.Containers {
		if xc.ID >= uint32(NbOrbits) {
			return fmt.Errorf("%w: container id %d", ErrInvalidFormat, xc.ID)
		}
		orbit := Orbit(xc.ID)
		c := g.containers[orbit]
		if c == nil {
			c = g.newContainer(orbit)
			g.containers[orbit] = c
		}
		if err := c.UnmarshalXMLContainer(xc); err != nil {
			return fmt.Errorf("container %s: %w", orbit, err)
		}
	}
	for _, xb := range doc.Boundaries {
		if xb.Dim > MaxDimension {
			return fmt.Errorf("%w: boundary dimension %d", ErrInvalidFormat, xb.Dim)
		}
		for _, f := range strings.Fields(xb.Darts) {
			d, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return fmt.Errorf("%w: boundary dart %q", ErrInvalidFormat, f)
			}
			g.boundary[xb.Dim].Add(uint32(d))
		}
	}
	g.bindColumns()
	return nil
}
