package topomap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/topomap/container"
)

// WorkerID designates one slot of the scratch pool of a map. Each goroutine
// working on a map concurrently with others must use its own WorkerID.
type WorkerID int

// MainWorker is the slot of the goroutine that owns the map.
const MainWorker WorkerID = 0

const (
	bufferInitialCap = 128
	bufferShrinkCap  = 1024
)

// workerScratch is only touched by the goroutine holding its WorkerID.
type workerScratch struct {
	darts   [][]Dart
	uints   [][]uint32
	markers [NbOrbits][]*container.MarkerColumn
}

type scratchPool struct {
	mu       sync.Mutex
	taken    []bool
	workers  []*workerScratch
	external atomic.Bool

	markerMu  [NbOrbits]sync.Mutex
	markerSeq [NbOrbits]int
}

func newScratchPool(n int, external bool) *scratchPool {
	p := &scratchPool{
		taken:   make([]bool, n),
		workers: make([]*workerScratch, n),
	}
	for i := range p.workers {
		p.workers[i] = &workerScratch{}
	}
	p.taken[MainWorker] = true
	p.external.Store(external)
	return p
}

func (p *scratchPool) acquire() (WorkerID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.taken {
		if !t {
			p.taken[i] = true
			return WorkerID(i), true
		}
	}
	return 0, false
}

func (p *scratchPool) release(w WorkerID) {
	if w == MainWorker {
		return
	}
	p.mu.Lock()
	p.taken[w] = false
	p.mu.Unlock()
}

func (p *scratchPool) free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.taken {
		if !t {
			n++
		}
	}
	return n
}

func (p *scratchPool) resetMarkers() {
	for _, ws := range p.workers {
		ws.markers = [NbOrbits][]*container.MarkerColumn{}
	}
}

// MaxWorkers returns the number of worker slots, the main worker included.
func (m *GenericMap) MaxWorkers() int { return len(m.scratch.workers) }

// FreeWorkers returns the number of worker slots not in use.
func (m *GenericMap) FreeWorkers() int { return m.scratch.free() }

// SetExternalWorkersAuthorization allows or forbids RegisterWorker.
func (m *GenericMap) SetExternalWorkersAuthorization(ok bool) {
	m.scratch.external.Store(ok)
}

// RegisterWorker reserves a worker slot for a goroutine created outside the
// map. It fails unless external workers are authorized.
func (m *GenericMap) RegisterWorker() (WorkerID, error) {
	if !m.scratch.external.Load() {
		return 0, ErrExternalWorkersDisabled
	}
	w, ok := m.scratch.acquire()
	if !ok {
		return 0, ErrNoFreeWorker
	}
	return w, nil
}

// ReleaseWorker returns the slot w to the pool.
func (m *GenericMap) ReleaseWorker(w WorkerID) {
	m.scratch.release(w)
}

// AskDartBuffer returns an empty dart buffer owned by worker w until
// ReleaseDartBuffer.
func (m *GenericMap) AskDartBuffer(w WorkerID) []Dart {
	ws := m.scratch.workers[w]
	if n := len(ws.darts); n > 0 {
		b := ws.darts[n-1]
		ws.darts = ws.darts[:n-1]
		return b[:0]
	}
	return make([]Dart, 0, bufferInitialCap)
}

// ReleaseDartBuffer returns b to the pool of worker w. Oversized buffers are
// replaced by small ones.
func (m *GenericMap) ReleaseDartBuffer(w WorkerID, b []Dart) {
	if cap(b) > bufferShrinkCap {
		b = make([]Dart, 0, bufferInitialCap)
	}
	ws := m.scratch.workers[w]
	ws.darts = append(ws.darts, b[:0])
}

// AskUintBuffer returns an empty index buffer owned by worker w until
// ReleaseUintBuffer.
func (m *GenericMap) AskUintBuffer(w WorkerID) []uint32 {
	ws := m.scratch.workers[w]
	if n := len(ws.uints); n > 0 {
		b := ws.uints[n-1]
		ws.uints = ws.uints[:n-1]
		return b[:0]
	}
	return make([]uint32, 0, bufferInitialCap)
}

// ReleaseUintBuffer returns b to the pool of worker w.
func (m *GenericMap) ReleaseUintBuffer(w WorkerID, b []uint32) {
	if cap(b) > bufferShrinkCap {
		b = make([]uint32, 0, bufferInitialCap)
	}
	ws := m.scratch.workers[w]
	ws.uints = append(ws.uints, b[:0])
}

// AskMarker returns an unmarked marker column on the container of orbit,
// owned by worker w until ReleaseMarker. A recycled marker is cleared here;
// a new one is created clean, under the orbit's lock.
func (m *GenericMap) AskMarker(orbit Orbit, w WorkerID) *container.MarkerColumn {
	ws := m.scratch.workers[w]
	if n := len(ws.markers[orbit]); n > 0 {
		mk := ws.markers[orbit][n-1]
		ws.markers[orbit] = ws.markers[orbit][:n-1]
		mk.UnmarkAll()
		return mk
	}
	return m.newMarker(orbit)
}

func (m *GenericMap) newMarker(orbit Orbit) *container.MarkerColumn {
	c := m.containers[orbit]
	if c == nil {
		panic(fmt.Sprintf("topomap: marker: %v: %s", ErrOrbitNotEmbedded, orbit))
	}

	p := m.scratch
	p.markerMu[orbit].Lock()
	defer p.markerMu[orbit].Unlock()

	for {
		name := fmt.Sprintf("marker_%s%03d", orbit, p.markerSeq[orbit])
		p.markerSeq[orbit]++
		mk, err := c.AddMarkerAttribute(name)
		if err == nil {
			return mk
		}
	}
}

// ReleaseMarker returns mk to the pool of worker w. It is not cleared until
// it is asked again.
func (m *GenericMap) ReleaseMarker(orbit Orbit, w WorkerID, mk *container.MarkerColumn) {
	ws := m.scratch.workers[w]
	ws.markers[orbit] = append(ws.markers[orbit], mk)
}
