package topomap

import (
	"fmt"
	"time"

	"github.com/hupe1980/topomap/container"
)

// ForEachCell calls fn once for every non-boundary cell of orbit.
func ForEachCell(m Map, orbit Orbit, fn func(Cell), optFns ...TraversorOption) {
	ForEachCellUntil(m, orbit, func(c Cell) bool {
		fn(c)
		return true
	}, optFns...)
}

// ForEachCellUntil calls fn for the cells of orbit until fn returns false.
// It returns the number of cells passed to fn.
func ForEachCellUntil(m Map, orbit Orbit, fn func(Cell) bool, optFns ...TraversorOption) int {
	start := time.Now()
	t := NewTraversorCell(m, orbit, optFns...)
	defer t.Release()

	n := 0
	for c := range t.All() {
		n++
		if !fn(c) {
			break
		}
	}
	m.Generic().metrics.RecordTraversal(orbit, t.Strategy(), n, time.Since(start))
	return n
}

// ForEachCellEvenOdd runs passes pairs of sweeps over the cells of orbit:
// an even sweep calling f, then an odd sweep calling g. The odd sweep
// unmarks what the even one marked, so the marks are never cleared in
// between and are clean again after each pair.
func ForEachCellEvenOdd(m Map, orbit Orbit, f, g func(Cell), passes int, optFns ...TraversorOption) {
	t := NewTraversorCell(m, orbit, optFns...)
	defer t.Release()

	even := NewTraversorCellEven(t)
	odd := NewTraversorCellOdd(t)
	for range passes {
		for c := even.Begin(); c != even.End(); c = even.Next() {
			f(c)
		}
		for c := odd.Begin(); c != odd.End(); c = odd.Next() {
			g(c)
		}
	}
}

// CountCells returns the number of non-boundary cells of orbit.
func CountCells(m Map, orbit Orbit, optFns ...TraversorOption) int {
	t := NewTraversorCell(m, orbit, optFns...)
	defer t.Release()

	n := 0
	for range t.All() {
		n++
	}
	return n
}

// EnableQuickTraversal embeds orbit if needed and builds its quick traversal
// cache: one representative non-boundary dart per cell. SetDartEmbedding
// keeps the cache current; a cell whose representative left it gets a new
// one before the next quick traversal. The DART orbit has no cache.
func EnableQuickTraversal(m Map, orbit Orbit) {
	if orbit == DartOrbit {
		return
	}
	g := m.Generic()
	if g.quick[orbit] != nil {
		UpdateQuickTraversal(m, orbit)
		return
	}
	g.AddEmbedding(orbit)
	q, err := container.AddAttribute[Dart](g.containers[orbit], QuickTraversalName)
	if err != nil {
		panic(fmt.Sprintf("topomap: quick traversal of %s: %v", orbit, err))
	}
	fillQuickTraversal(m, orbit, q)
	g.quick[orbit] = q
}

// UpdateQuickTraversal rebuilds the quick traversal cache of orbit.
func UpdateQuickTraversal(m Map, orbit Orbit) {
	g := m.Generic()
	q := g.quick[orbit]
	if q == nil {
		return
	}
	g.quick[orbit] = nil
	fillQuickTraversal(m, orbit, q)
	g.quick[orbit] = q
	g.quickStale[orbit] = false
}

// repairQuickTraversal gives a representative to every live cell of orbit
// that lost its own, scanning the darts once. It does nothing while no
// representative was dropped since the last repair.
func (m *GenericMap) repairQuickTraversal(orbit Orbit) {
	q := m.quick[orbit]
	if q == nil || !m.quickStale[orbit] {
		return
	}
	m.quickStale[orbit] = false
	col := m.embeddings[orbit]
	for d := range m.AllDarts() {
		emb := col.Get(uint32(d))
		if emb != container.Null && q.Get(emb) == NIL && !m.isBoundaryAny(d) {
			q.Set(emb, d)
		}
	}
}

func fillQuickTraversal(m Map, orbit Orbit, q *container.Column[Dart]) {
	q.Fill(NIL)
	g := m.Generic()
	t := NewTraversorCell(m, orbit, WithOptim(ForceCellMarking))
	defer t.Release()
	for c := range t.All() {
		q.Set(g.Embedding(orbit, c.Dart), c.Dart)
	}
}

// DisableQuickTraversal drops the quick traversal cache of orbit.
func (m *GenericMap) DisableQuickTraversal(orbit Orbit) {
	if m.quick[orbit] == nil {
		return
	}
	m.containers[orbit].RemoveAttribute(QuickTraversalName)
	m.quick[orbit] = nil
	m.quickStale[orbit] = false
}

// HasQuickTraversal reports whether orbit has a quick traversal cache.
func (m *GenericMap) HasQuickTraversal(orbit Orbit) bool {
	return m.quick[orbit] != nil
}

// SetQuickRepresentative makes d the quick traversal representative of its
// cell of orbit. Boundary darts and unembedded darts are ignored.
func (m *GenericMap) SetQuickRepresentative(orbit Orbit, d Dart) {
	q := m.quick[orbit]
	if q == nil || m.isBoundaryAny(d) {
		return
	}
	if emb := m.Embedding(orbit, d); emb != container.Null {
		q.Set(emb, d)
	}
}
