package cmap2

import (
	"github.com/hupe1980/topomap"
	"github.com/hupe1980/topomap/container"
)

// newCycle creates n darts linked in a phi1 cycle and returns the first.
func (m *Map) newCycle(n int) topomap.Dart {
	first := m.NewDart()
	prev := first
	for i := 1; i < n; i++ {
		d := m.NewDart()
		m.phi1sew(prev, d)
		prev = d
	}
	return first
}

// phi1sew exchanges the successors of d and e: it splits a cycle holding
// both darts or merges the two cycles holding them.
func (m *Map) phi1sew(d, e topomap.Dart) {
	f := m.Phi1(d)
	g := m.Phi1(e)
	m.phi1.Set(uint32(d), g)
	m.phi1.Set(uint32(e), f)
	m.phiM1.Set(uint32(g), d)
	m.phiM1.Set(uint32(f), e)
}

func (m *Map) phi2sew(d, e topomap.Dart) {
	m.phi2.Set(uint32(d), e)
	m.phi2.Set(uint32(e), d)
}

func (m *Map) phi2unsew(d topomap.Dart) {
	e := m.Phi2(d)
	m.phi2.Set(uint32(d), d)
	m.phi2.Set(uint32(e), e)
}

func (m *Map) deleteCycle(d topomap.Dart) {
	buf := m.AskDartBuffer(topomap.MainWorker)
	m.foreachDartOfFace(d, func(e topomap.Dart) bool {
		buf = append(buf, e)
		return true
	})
	for _, e := range buf {
		m.DeleteDartLine(e)
	}
	m.ReleaseDartBuffer(topomap.MainWorker, buf)
}

func (m *Map) markBoundaryFace(d topomap.Dart) {
	m.foreachDartOfFace(d, func(e topomap.Dart) bool {
		m.MarkBoundary(Dimension, e)
		return true
	})
}

// IsBoundary reports whether d belongs to a boundary face.
func (m *Map) IsBoundary(d topomap.Dart) bool {
	return m.IsBoundaryMarked(Dimension, d)
}

// IsBoundaryEdge reports whether the edge of d borders a boundary face.
func (m *Map) IsBoundaryEdge(d topomap.Dart) bool {
	return m.IsBoundary(d) || m.IsBoundary(m.Phi2(d))
}

// IsBoundaryVertex reports whether the vertex of d touches a boundary face.
func (m *Map) IsBoundaryVertex(d topomap.Dart) bool {
	return m.findBoundaryDartOfVertex(d) != topomap.NIL
}

// findBoundaryDartOfVertex returns a boundary dart starting at the vertex
// of d, or NIL.
func (m *Map) findBoundaryDartOfVertex(d topomap.Dart) topomap.Dart {
	found := topomap.NIL
	m.foreachDartOfVertex(d, func(e topomap.Dart) bool {
		if m.IsBoundary(e) {
			found = e
			return false
		}
		return true
	})
	return found
}

// sameOrbit reports whether b is reachable from a in orbit, ignoring
// embeddings.
func (m *Map) sameOrbit(orbit topomap.Orbit, a, b topomap.Dart) bool {
	found := false
	m.ForeachDartOfOrbit(orbit, a, topomap.MainWorker, func(e topomap.Dart) bool {
		found = e == b
		return !found
	})
	return found
}

// NewFace creates a face of n edges and returns one of its darts.
//
// With withBoundary the face is closed by a boundary face and every
// embedded orbit gets new cells for its vertices, edges and face.
// Without it the edges are free: each dart gets its own vertex and edge
// cell, and the face one face cell.
func (m *Map) NewFace(n int, withBoundary bool) topomap.Dart {
	d := m.newCycle(n)
	if !withBoundary {
		m.foreachDartOfFace(d, func(e topomap.Dart) bool {
			for _, orbit := range [...]topomap.Orbit{topomap.Vertex, topomap.Edge} {
				if m.IsOrbitEmbedded(orbit) {
					emb := m.NewCell(orbit)
					m.SetDartEmbedding(orbit, e, emb)
					m.UnrefCell(orbit, emb)
				}
			}
			return true
		})
		if m.IsOrbitEmbedded(topomap.Face) {
			topomap.SetOrbitEmbeddingOnNewCell(m, topomap.Face, d)
		}
		return d
	}

	e := m.newCycle(n)
	m.markBoundaryFace(e)
	it := d
	for {
		m.phi2sew(it, e)
		it = m.Phi1(it)
		e = m.PhiM1(e)
		if it == d {
			break
		}
	}
	m.embedFace(d)
	return d
}

// embedFace gives new cells to the vertices, edges and face of d that
// have no embedding.
func (m *Map) embedFace(d topomap.Dart) {
	for _, orbit := range [...]topomap.Orbit{topomap.Vertex, topomap.Edge} {
		if !m.IsOrbitEmbedded(orbit) {
			continue
		}
		m.foreachDartOfFace(d, func(e topomap.Dart) bool {
			if m.Embedding(orbit, e) == container.Null {
				topomap.SetOrbitEmbeddingOnNewCell(m, orbit, e)
			}
			return true
		})
	}
	if m.IsOrbitEmbedded(topomap.Face) && !m.IsBoundary(d) && m.Embedding(topomap.Face, d) == container.Null {
		topomap.SetOrbitEmbeddingOnNewCell(m, topomap.Face, d)
	}
}

// SewFaces glues the edges of d and e, which must belong to distinct
// faces and be both free or both bordered by boundary faces. In the
// bordered case the boundary edges are removed. The vertex and edge cells
// of e merge into those of d.
func (m *Map) SewFaces(d, e topomap.Dart) {
	if m.Phi2(d) != d || m.Phi2(e) != e {
		dd := m.Phi2(d)
		ee := m.Phi2(e)
		m.phi2unsew(d)
		m.phi2unsew(e)
		if ee != m.PhiM1(dd) {
			m.phi1sew(ee, m.PhiM1(dd))
		}
		if dd != m.PhiM1(ee) {
			m.phi1sew(dd, m.PhiM1(ee))
		}
		m.deleteCycle(dd)
	}
	m.phi2sew(d, e)

	if m.IsOrbitEmbedded(topomap.Vertex) {
		topomap.SetOrbitEmbedding(m, topomap.Vertex, d, m.Embedding(topomap.Vertex, d))
		topomap.SetOrbitEmbedding(m, topomap.Vertex, e, m.Embedding(topomap.Vertex, m.Phi1(d)))
		m.refreshQuick(topomap.Vertex, d, e)
	}
	if m.IsOrbitEmbedded(topomap.Edge) {
		m.SetDartEmbedding(topomap.Edge, e, m.Embedding(topomap.Edge, d))
		m.refreshQuick(topomap.Edge, d)
	}
}

// UnsewFaces separates the two faces sharing the edge of d. On a map
// closed by boundary the gap is filled with boundary darts; on a map
// without boundary both edges become free. Vertices that become
// disconnected are split into new cells copying the attributes of the
// original ones.
func (m *Map) UnsewFaces(d topomap.Dart) {
	if m.IsBoundaryEdge(d) || m.Phi2(d) == d {
		return
	}
	dd := m.Phi2(d)
	a, b := m.Phi1(d), m.Phi1(dd)

	if m.NbBoundaryDarts(Dimension) == 0 {
		m.phi2unsew(d)
	} else {
		f0 := m.findBoundaryDartOfVertex(d)
		f1 := m.findBoundaryDartOfVertex(dd)

		e := m.newCycle(2)
		ee := m.Phi1(e)
		m.markBoundaryFace(e)

		m.phi2unsew(d)
		if f0 != topomap.NIL {
			m.phi1sew(e, m.PhiM1(f0))
		}
		if f1 != topomap.NIL {
			m.phi1sew(ee, m.PhiM1(f1))
		}
		m.phi2sew(d, e)
		m.phi2sew(dd, ee)

		if m.IsOrbitEmbedded(topomap.Vertex) {
			m.SetDartEmbedding(topomap.Vertex, e, m.Embedding(topomap.Vertex, a))
			m.SetDartEmbedding(topomap.Vertex, ee, m.Embedding(topomap.Vertex, b))
		}
		if m.IsOrbitEmbedded(topomap.Edge) {
			m.SetDartEmbedding(topomap.Edge, e, m.Embedding(topomap.Edge, d))
		}
	}

	if m.IsOrbitEmbedded(topomap.Vertex) {
		if !m.sameOrbit(topomap.Vertex, d, b) {
			topomap.EmbedNewCell(m, topomap.Vertex, b, m.Embedding(topomap.Vertex, d))
		}
		if !m.sameOrbit(topomap.Vertex, dd, a) {
			topomap.EmbedNewCell(m, topomap.Vertex, a, m.Embedding(topomap.Vertex, dd))
		}
		m.refreshQuick(topomap.Vertex, d, dd, a, b)
	}
	if m.IsOrbitEmbedded(topomap.Edge) {
		topomap.EmbedNewCell(m, topomap.Edge, dd, m.Embedding(topomap.Edge, d))
		m.refreshQuick(topomap.Edge, d, dd)
	}
}

// refreshQuick makes each non-boundary dart the quick traversal
// representative of its cell.
func (m *Map) refreshQuick(orbit topomap.Orbit, darts ...topomap.Dart) {
	for _, d := range darts {
		m.SetQuickRepresentative(orbit, d)
	}
}

// CloseHole fills the hole bordered by the free edge of d with a new face
// and returns a dart of it. With forBoundary the face is a boundary face,
// otherwise it is a regular face with its own face cell.
func (m *Map) CloseHole(d topomap.Dart, forBoundary bool) topomap.Dart {
	first := m.NewDart()
	m.phi2sew(d, first)
	next := d
	for {
		var p topomap.Dart
		for {
			p = m.Phi1(next)
			next = m.Phi2(p)
			if next == p || p == d {
				break
			}
		}
		if p == d {
			break
		}
		n := m.NewDart()
		m.phi1sew(first, n)
		m.phi2sew(next, n)
	}

	f := m.Phi2(d)
	if forBoundary {
		m.markBoundaryFace(f)
	}
	m.foreachDartOfFace(f, func(e topomap.Dart) bool {
		if m.IsOrbitEmbedded(topomap.Vertex) {
			m.SetDartEmbedding(topomap.Vertex, e, m.Embedding(topomap.Vertex, m.Phi1(m.Phi2(e))))
		}
		if m.IsOrbitEmbedded(topomap.Edge) {
			m.SetDartEmbedding(topomap.Edge, e, m.Embedding(topomap.Edge, m.Phi2(e)))
		}
		return true
	})
	if !forBoundary && m.IsOrbitEmbedded(topomap.Face) {
		topomap.SetOrbitEmbeddingOnNewCell(m, topomap.Face, f)
	}
	return f
}

// CloseMap closes every hole with a boundary face and returns the number
// of holes closed. Orbits left without embedding are embedded afterwards.
func (m *Map) CloseMap() int {
	holes := 0
	for d := range m.AllDarts() {
		if m.Phi2(d) == d {
			m.CloseHole(d, true)
			holes++
		}
	}
	if holes > 0 {
		m.embedMissing()
	}
	return holes
}

func (m *Map) embedMissing() {
	for _, orbit := range [...]topomap.Orbit{topomap.Vertex, topomap.Edge, topomap.Face, topomap.Volume} {
		if m.IsOrbitEmbedded(orbit) {
			topomap.InitAllOrbitEmbedding(m, orbit, false)
		}
	}
}

// DeleteFace removes the face of d, which must not be a boundary face.
// Its edges become boundary edges; cells left without darts are freed.
func (m *Map) DeleteFace(d topomap.Dart) {
	if m.IsBoundary(d) {
		return
	}
	it := d
	for {
		if !m.IsBoundaryEdge(it) {
			m.UnsewFaces(it)
		}
		it = m.Phi1(it)
		if it == d {
			break
		}
	}
	dd := m.Phi2(d)
	m.deleteCycle(d)
	if dd != d {
		m.deleteCycle(dd)
	}
}

// NewGrid tiles an nx by ny grid of quads and returns the dart of the
// bottom left quad on its bottom edge. The border is closed by a boundary
// face, or by a regular face when closed is set, making a sphere. Every
// embedded orbit gets one cell per new vertex, edge and face.
func (m *Map) NewGrid(nx, ny int, closed bool) topomap.Dart {
	if nx < 1 || ny < 1 {
		return topomap.NIL
	}
	quads := make([]topomap.Dart, nx*ny)
	for j := range ny {
		for i := range nx {
			quads[j*nx+i] = m.newCycle(4)
		}
	}
	// bottom, right, top and left darts of a quad, in phi1 order
	right := func(q topomap.Dart) topomap.Dart { return m.Phi1(q) }
	top := func(q topomap.Dart) topomap.Dart { return m.Phi1(m.Phi1(q)) }
	left := func(q topomap.Dart) topomap.Dart { return m.PhiM1(q) }

	for j := range ny {
		for i := range nx {
			q := quads[j*nx+i]
			if i+1 < nx {
				m.phi2sew(right(q), left(quads[j*nx+i+1]))
			}
			if j+1 < ny {
				m.phi2sew(top(q), quads[(j+1)*nx+i])
			}
		}
	}

	m.CloseHole(quads[0], !closed)
	m.embedMissing()
	return quads[0]
}

// EmbedOrbit embeds orbit and gives a cell to every orbit of it that has
// none yet.
func (m *Map) EmbedOrbit(orbit topomap.Orbit) {
	topomap.InitAllOrbitEmbedding(m, orbit, false)
}

// SameVertex reports whether a and b start at the same vertex.
func (m *Map) SameVertex(a, b topomap.Dart) bool {
	return m.sameOrbit(topomap.Vertex, a, b)
}
