package cmap2

import (
	"github.com/hupe1980/topomap"
	"github.com/hupe1980/topomap/container"
)

// Relation names in the dart container.
const (
	Phi1Name  = "phi1"
	PhiM1Name = "phi_1"
	Phi2Name  = "phi2"
)

// Dimension is the topological dimension of a Map.
const Dimension = 2

// Map is a 2-dimensional combinatorial map.
type Map struct {
	*topomap.GenericMap

	phi1  *container.Column[topomap.Dart]
	phiM1 *container.Column[topomap.Dart]
	phi2  *container.Column[topomap.Dart]
}

// New creates an empty map.
func New(optFns ...topomap.Option) *Map {
	m := &Map{GenericMap: topomap.NewGenericMap(optFns...)}
	m.link()
	return m
}

func (m *Map) link() {
	m.phi1 = m.AddRelation(Phi1Name)
	m.phiM1 = m.AddRelation(PhiM1Name)
	m.phi2 = m.AddRelation(Phi2Name)
}

// Dimension implements topomap.Map.
func (m *Map) Dimension() uint { return Dimension }

// Phi1 returns the next dart of the face of d.
func (m *Map) Phi1(d topomap.Dart) topomap.Dart { return m.phi1.Get(uint32(d)) }

// PhiM1 returns the previous dart of the face of d.
func (m *Map) PhiM1(d topomap.Dart) topomap.Dart { return m.phiM1.Get(uint32(d)) }

// Phi2 returns the opposite dart of d, or d itself on a free edge.
func (m *Map) Phi2(d topomap.Dart) topomap.Dart { return m.phi2.Get(uint32(d)) }

// ForeachDartOfOrbit implements topomap.Map.
func (m *Map) ForeachDartOfOrbit(orbit topomap.Orbit, d topomap.Dart, w topomap.WorkerID, fn func(topomap.Dart) bool) {
	switch orbit {
	case topomap.DartOrbit:
		fn(d)
	case topomap.Vertex:
		m.foreachDartOfVertex(d, fn)
	case topomap.Edge:
		if fn(d) {
			if e := m.Phi2(d); e != d {
				fn(e)
			}
		}
	case topomap.Face:
		m.foreachDartOfFace(d, fn)
	case topomap.Volume:
		m.foreachDartOfVolume(d, w, fn)
	}
}

// foreachDartOfVertex turns around the vertex of d with phi2(phi_1(e)). A
// free edge ends the fan; the walk then resumes from d the other way with
// phi1(phi2(e)).
func (m *Map) foreachDartOfVertex(d topomap.Dart, fn func(topomap.Dart) bool) {
	e := d
	for {
		if !fn(e) {
			return
		}
		p := m.PhiM1(e)
		e = m.Phi2(p)
		if e == p {
			break
		}
		if e == d {
			return
		}
	}
	for e = d; ; {
		o := m.Phi2(e)
		if o == e {
			return
		}
		e = m.Phi1(o)
		if !fn(e) {
			return
		}
	}
}

func (m *Map) foreachDartOfFace(d topomap.Dart, fn func(topomap.Dart) bool) {
	e := d
	for {
		if !fn(e) {
			return
		}
		e = m.Phi1(e)
		if e == d {
			return
		}
	}
}

// foreachDartOfVolume walks the connected component of d breadth first.
func (m *Map) foreachDartOfVolume(d topomap.Dart, w topomap.WorkerID, fn func(topomap.Dart) bool) {
	mk := topomap.NewDartMarker(m.GenericMap, w)
	defer mk.Release()
	queue := m.AskDartBuffer(w)
	defer func() { m.ReleaseDartBuffer(w, queue) }()

	mk.Mark(d)
	queue = append(queue, d)
	for i := 0; i < len(queue); i++ {
		e := queue[i]
		if !fn(e) {
			return
		}
		for _, n := range [2]topomap.Dart{m.Phi1(e), m.Phi2(e)} {
			if !mk.IsMarked(n) {
				mk.Mark(n)
				queue = append(queue, n)
			}
		}
	}
}

// Clear removes every dart and cell. The relations survive removeAttrib.
func (m *Map) Clear(removeAttrib bool) {
	m.GenericMap.Clear(removeAttrib)
	m.link()
}

var _ topomap.Map = (*Map)(nil)
