package cmap2

import (
	"iter"

	"github.com/hupe1980/topomap"
)

// VertexEdges yields one dart per edge incident to the vertex of d, each
// starting at that vertex.
func (m *Map) VertexEdges(d topomap.Dart) iter.Seq[topomap.Dart] {
	return func(yield func(topomap.Dart) bool) {
		m.foreachDartOfVertex(d, yield)
	}
}

// VertexFaces yields one dart per non-boundary face incident to the vertex
// of d.
func (m *Map) VertexFaces(d topomap.Dart) iter.Seq[topomap.Dart] {
	return func(yield func(topomap.Dart) bool) {
		m.foreachDartOfVertex(d, func(e topomap.Dart) bool {
			if m.IsBoundary(e) {
				return true
			}
			return yield(e)
		})
	}
}

// VertexNeighbors yields one dart per vertex adjacent to the vertex of d
// through an edge.
func (m *Map) VertexNeighbors(d topomap.Dart) iter.Seq[topomap.Dart] {
	return func(yield func(topomap.Dart) bool) {
		m.foreachDartOfVertex(d, func(e topomap.Dart) bool {
			return yield(m.Phi1(e))
		})
	}
}

// FaceVertices yields one dart per vertex of the face of d.
func (m *Map) FaceVertices(d topomap.Dart) iter.Seq[topomap.Dart] {
	return func(yield func(topomap.Dart) bool) {
		m.foreachDartOfFace(d, yield)
	}
}

// FaceEdges yields one dart per edge of the face of d.
func (m *Map) FaceEdges(d topomap.Dart) iter.Seq[topomap.Dart] {
	return m.FaceVertices(d)
}

// Degree returns the number of edges of the face of d.
func (m *Map) Degree(d topomap.Dart) int {
	n := 0
	m.foreachDartOfFace(d, func(topomap.Dart) bool {
		n++
		return true
	})
	return n
}
