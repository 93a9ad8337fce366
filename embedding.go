package topomap

import (
	"fmt"

	"github.com/hupe1980/topomap/container"
)

// EmbeddingName returns the name of the dart column holding the embedding of orbit.
func EmbeddingName(orbit Orbit) string {
	return "EMB_" + orbit.String()
}

// IsOrbitEmbedded reports whether the cells of orbit have their own container.
// The DART orbit is always embedded.
func (m *GenericMap) IsOrbitEmbedded(orbit Orbit) bool {
	return orbit == DartOrbit || m.embeddings[orbit] != nil
}

// AddEmbedding creates the container of orbit and the dart column mapping
// each dart to its cell, initialized to Null. It is a no-op if the orbit is
// already embedded.
func (m *GenericMap) AddEmbedding(orbit Orbit) {
	if m.IsOrbitEmbedded(orbit) {
		return
	}
	if m.containers[orbit] == nil {
		m.containers[orbit] = m.newContainer(orbit)
	}
	emb, err := container.AddAttribute[uint32](m.Darts(), EmbeddingName(orbit))
	if err != nil {
		panic(fmt.Sprintf("topomap: embedding of %s: %v", orbit, err))
	}
	emb.Fill(container.Null)
	m.embeddings[orbit] = emb
}

// Embedding returns the cell slot of d in orbit, or container.Null.
func (m *GenericMap) Embedding(orbit Orbit, d Dart) uint32 {
	if orbit == DartOrbit {
		return uint32(d)
	}
	return m.embeddings[orbit].Get(uint32(d))
}

// CellEmbedding returns the cell slot of c.
func (m *GenericMap) CellEmbedding(c Cell) uint32 {
	return m.Embedding(c.Orbit, c.Dart)
}

// NewCell allocates a cell of orbit and returns its slot. The caller owns
// the allocation reference: embedding darts adds references, UnrefCell
// drops the allocation one. It panics if orbit is not embedded.
func (m *GenericMap) NewCell(orbit Orbit) uint32 {
	if orbit == DartOrbit || !m.IsOrbitEmbedded(orbit) {
		panic(fmt.Sprintf("topomap: NewCell: %v: %s", ErrOrbitNotEmbedded, orbit))
	}
	c := m.containers[orbit]
	i := c.InsertLine()
	m.InitCell(orbit, i)
	return i
}

// InitCell resets every attribute of the cell slot i.
func (m *GenericMap) InitCell(orbit Orbit, i uint32) {
	m.containers[orbit].InitLine(i)
	if q := m.quick[orbit]; q != nil {
		q.Set(i, NIL)
	}
}

// CopyCell copies every attribute of the cell slot src to dst.
func (m *GenericMap) CopyCell(orbit Orbit, dst, src uint32) {
	var rep Dart
	q := m.quick[orbit]
	if q != nil {
		rep = q.Get(dst)
	}
	m.containers[orbit].CopyLine(dst, src)
	if q != nil {
		q.Set(dst, rep)
	}
}

// RefCell adds one reference to the cell slot i.
func (m *GenericMap) RefCell(orbit Orbit, i uint32) {
	m.containers[orbit].RefLine(i)
}

// UnrefCell drops one reference from the cell slot i and reports whether the
// cell was freed.
func (m *GenericMap) UnrefCell(orbit Orbit, i uint32) bool {
	return m.containers[orbit].UnrefLine(i)
}

// NbRefs returns the reference count of the cell slot i.
func (m *GenericMap) NbRefs(orbit Orbit, i uint32) uint32 {
	return m.containers[orbit].NbRefs(i)
}

// NbCells returns the number of live cells of an embedded orbit.
func (m *GenericMap) NbCells(orbit Orbit) uint32 {
	if !m.IsOrbitEmbedded(orbit) {
		return 0
	}
	return m.containers[orbit].Size()
}

// SetDartEmbedding embeds d to the cell slot emb (or container.Null). The
// previous cell loses a reference, the new one gains one. Every change of an
// embedding goes through here. When d represented its previous cell in the
// quick traversal cache, the next quick traversal promotes another dart.
func (m *GenericMap) SetDartEmbedding(orbit Orbit, d Dart, emb uint32) {
	col := m.embeddings[orbit]
	old := col.Get(uint32(d))
	if old == emb {
		return
	}
	c := m.containers[orbit]
	q := m.quick[orbit]
	if emb != container.Null {
		c.RefLine(emb)
		if q != nil && q.Get(emb) == NIL && !m.isBoundaryAny(d) {
			q.Set(emb, d)
		}
	}
	col.Set(uint32(d), emb)
	if old != container.Null {
		if q != nil && q.Get(old) == d {
			q.Set(old, NIL)
			m.quickStale[orbit] = true
		}
		c.UnrefLine(old)
	}
}

func (m *GenericMap) isBoundaryAny(d Dart) bool {
	for _, b := range m.boundary {
		if b.Contains(uint32(d)) {
			return true
		}
	}
	return false
}

// SetOrbitEmbedding embeds every dart of the orbit of d to the cell slot emb.
func SetOrbitEmbedding(m Map, orbit Orbit, d Dart, emb uint32) {
	g := m.Generic()
	m.ForeachDartOfOrbit(orbit, d, MainWorker, func(e Dart) bool {
		g.SetDartEmbedding(orbit, e, emb)
		return true
	})
}

// SetOrbitEmbeddingOnNewCell allocates a cell, embeds the orbit of d to it
// and returns its slot. The cell's reference count equals the number of
// darts of the orbit.
func SetOrbitEmbeddingOnNewCell(m Map, orbit Orbit, d Dart) uint32 {
	g := m.Generic()
	emb := g.NewCell(orbit)
	SetOrbitEmbedding(m, orbit, d, emb)
	g.UnrefCell(orbit, emb)
	return emb
}

// EmbedNewCell is SetOrbitEmbeddingOnNewCell followed by copying the
// attributes of the cell slot src into the new cell.
func EmbedNewCell(m Map, orbit Orbit, d Dart, src uint32) uint32 {
	emb := SetOrbitEmbeddingOnNewCell(m, orbit, d)
	m.Generic().CopyCell(orbit, emb, src)
	return emb
}

// InitAllOrbitEmbedding embeds orbit if needed and gives a new cell to every
// orbit whose darts have no embedding yet. With realloc every orbit gets a
// new cell. Orbits are found by dart marking, so partially embedded maps
// are handled.
func InitAllOrbitEmbedding(m Map, orbit Orbit, realloc bool) {
	g := m.Generic()
	g.AddEmbedding(orbit)
	t := NewTraversorCell(m, orbit, WithOptim(ForceDartMarking))
	defer t.Release()
	for c := t.Begin(); c != t.End(); c = t.Next() {
		if realloc || g.Embedding(orbit, c.Dart) == container.Null {
			SetOrbitEmbeddingOnNewCell(m, orbit, c.Dart)
		}
	}
}

// SameCell reports whether a and b belong to the same cell of orbit.
func SameCell(m Map, orbit Orbit, a, b Dart) bool {
	g := m.Generic()
	if g.IsOrbitEmbedded(orbit) {
		if ea := g.Embedding(orbit, a); ea != container.Null {
			return ea == g.Embedding(orbit, b)
		}
	}
	found := false
	m.ForeachDartOfOrbit(orbit, a, MainWorker, func(e Dart) bool {
		found = e == b
		return !found
	})
	return found
}
