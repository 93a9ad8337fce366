package topomap

import (
	"github.com/hupe1980/topomap/container"
)

// CellMarker marks cells of an embedded orbit. It holds a pooled marker
// column until Release.
type CellMarker struct {
	m     *GenericMap
	orbit Orbit
	w     WorkerID
	mk    *container.MarkerColumn
}

// NewCellMarker asks worker w's pool for a cell marker of orbit. It panics
// if orbit is not embedded.
func NewCellMarker(m *GenericMap, orbit Orbit, w WorkerID) *CellMarker {
	return &CellMarker{m: m, orbit: orbit, w: w, mk: m.AskMarker(orbit, w)}
}

// Mark marks the cell of d.
func (cm *CellMarker) Mark(d Dart) { cm.mk.Mark(cm.m.Embedding(cm.orbit, d)) }

// Unmark unmarks the cell of d.
func (cm *CellMarker) Unmark(d Dart) { cm.mk.Unmark(cm.m.Embedding(cm.orbit, d)) }

// IsMarked reports whether the cell of d is marked.
func (cm *CellMarker) IsMarked(d Dart) bool { return cm.mk.IsMarked(cm.m.Embedding(cm.orbit, d)) }

// MarkCell marks the cell slot i.
func (cm *CellMarker) MarkCell(i uint32) { cm.mk.Mark(i) }

// IsCellMarked reports whether the cell slot i is marked.
func (cm *CellMarker) IsCellMarked(i uint32) bool { return cm.mk.IsMarked(i) }

// UnmarkAll clears every mark.
func (cm *CellMarker) UnmarkAll() { cm.mk.UnmarkAll() }

// Release returns the marker to the pool. The CellMarker must not be used
// afterwards.
func (cm *CellMarker) Release() {
	if cm.mk != nil {
		cm.m.ReleaseMarker(cm.orbit, cm.w, cm.mk)
		cm.mk = nil
	}
}

// DartMarker marks darts. It holds a pooled marker column until Release.
type DartMarker struct {
	m  *GenericMap
	w  WorkerID
	mk *container.MarkerColumn
}

// NewDartMarker asks worker w's pool for a dart marker.
func NewDartMarker(m *GenericMap, w WorkerID) *DartMarker {
	return &DartMarker{m: m, w: w, mk: m.AskMarker(DartOrbit, w)}
}

// Mark marks d.
func (dm *DartMarker) Mark(d Dart) { dm.mk.Mark(uint32(d)) }

// Unmark unmarks d.
func (dm *DartMarker) Unmark(d Dart) { dm.mk.Unmark(uint32(d)) }

// IsMarked reports whether d is marked.
func (dm *DartMarker) IsMarked(d Dart) bool { return dm.mk.IsMarked(uint32(d)) }

// MarkOrbit marks every dart of the orbit of d.
func (dm *DartMarker) MarkOrbit(m Map, orbit Orbit, d Dart) {
	m.ForeachDartOfOrbit(orbit, d, dm.w, func(e Dart) bool {
		dm.mk.Mark(uint32(e))
		return true
	})
}

// UnmarkOrbit unmarks every dart of the orbit of d.
func (dm *DartMarker) UnmarkOrbit(m Map, orbit Orbit, d Dart) {
	m.ForeachDartOfOrbit(orbit, d, dm.w, func(e Dart) bool {
		dm.mk.Unmark(uint32(e))
		return true
	})
}

// UnmarkAll clears every mark.
func (dm *DartMarker) UnmarkAll() { dm.mk.UnmarkAll() }

// Release returns the marker to the pool.
func (dm *DartMarker) Release() {
	if dm.mk != nil {
		dm.m.ReleaseMarker(DartOrbit, dm.w, dm.mk)
		dm.mk = nil
	}
}
