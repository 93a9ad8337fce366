package topomap

import (
	"fmt"
	"iter"

	"github.com/hupe1980/topomap/container"
)

// TraversalOptim selects how a TraversorCell finds each cell once.
type TraversalOptim uint8

const (
	// Auto uses the quick traversal cache when present, cell marking when
	// the orbit is embedded and dart marking otherwise.
	Auto TraversalOptim = iota
	// ForceDartMarking marks every dart of each produced cell.
	ForceDartMarking
	// ForceCellMarking marks each produced cell. The orbit must be embedded.
	ForceCellMarking
	// ForceQuickTraversal iterates the quick traversal cache, which must exist.
	ForceQuickTraversal
)

func (o TraversalOptim) String() string {
	switch o {
	case Auto:
		return "auto"
	case ForceDartMarking:
		return "dart_marking"
	case ForceCellMarking:
		return "cell_marking"
	case ForceQuickTraversal:
		return "quick_traversal"
	default:
		return fmt.Sprintf("optim(%d)", uint8(o))
	}
}

type traversorOptions struct {
	optim           TraversalOptim
	forceDartMarker bool
	worker          WorkerID
	bufferCapacity  int
}

// TraversorOption configures a traversal.
type TraversorOption func(*traversorOptions)

// WithOptim selects the traversal strategy.
func WithOptim(o TraversalOptim) TraversorOption {
	return func(opts *traversorOptions) { opts.optim = o }
}

// WithForceDartMarker makes Auto prefer dart marking, for traversals that
// change embeddings while they run.
func WithForceDartMarker() TraversorOption {
	return func(opts *traversorOptions) { opts.forceDartMarker = true }
}

// WithWorker sets the worker whose scratch pool the traversal uses.
func WithWorker(w WorkerID) TraversorOption {
	return func(opts *traversorOptions) { opts.worker = w }
}

// WithBufferCapacity sets the number of cells per worker buffer of
// ParallelForEachCell.
func WithBufferCapacity(n int) TraversorOption {
	return func(opts *traversorOptions) { opts.bufferCapacity = n }
}

func applyTraversorOptions(optFns []TraversorOption) traversorOptions {
	opts := traversorOptions{
		optim:          Auto,
		worker:         MainWorker,
		bufferCapacity: DefaultBufferCapacity,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.bufferCapacity < 1 {
		opts.bufferCapacity = 1
	}
	return opts
}

// strategy enumerates darts representing distinct cells. With odd set the
// marks are read and written inverted.
type strategy interface {
	name() string
	begin(odd bool) Dart
	next(odd bool) Dart
	skip(d Dart)
	reset()
	release()
}

// TraversorCell enumerates each non-boundary cell of an orbit exactly once.
//
//	t := topomap.NewTraversorCell(m, topomap.Vertex)
//	defer t.Release()
//	for c := t.Begin(); c != t.End(); c = t.Next() {
//		...
//	}
//
// Begin restarts the enumeration; calling it again clears the marks left by
// the previous pass. A TraversorCell must not be shared between goroutines.
type TraversorCell struct {
	orbit   Orbit
	s       strategy
	current Dart
	first   bool
}

// NewTraversorCell creates a traversal of the cells of orbit. It panics if a
// forced strategy cannot be used.
func NewTraversorCell(m Map, orbit Orbit, optFns ...TraversorOption) *TraversorCell {
	opts := applyTraversorOptions(optFns)
	return &TraversorCell{
		orbit:   orbit,
		s:       newStrategy(m, orbit, opts),
		current: NIL,
		first:   true,
	}
}

func newStrategy(m Map, orbit Orbit, opts traversorOptions) strategy {
	g := m.Generic()
	dim := m.Dimension()
	q := g.quick[orbit]

	newQuick := func() strategy {
		g.repairQuickTraversal(orbit)
		return &quickStrategy{g: g, dim: dim, cont: g.containers[orbit], cache: q}
	}
	newCell := func() strategy {
		return &markingStrategy{g: g, dim: dim, v: &cellVisitor{
			g: g, orbit: orbit, w: opts.worker, mk: g.AskMarker(orbit, opts.worker),
		}}
	}
	newDart := func() strategy {
		return &markingStrategy{g: g, dim: dim, v: &dartVisitor{
			m: m, orbit: orbit, w: opts.worker, mk: g.AskMarker(DartOrbit, opts.worker),
		}}
	}

	switch opts.optim {
	case ForceDartMarking:
		return newDart()
	case ForceCellMarking:
		if !g.IsOrbitEmbedded(orbit) {
			panic(fmt.Sprintf("topomap: cell marking traversal: %v: %s", ErrOrbitNotEmbedded, orbit))
		}
		return newCell()
	case ForceQuickTraversal:
		if q == nil {
			panic(fmt.Sprintf("topomap: no quick traversal cache for %s", orbit))
		}
		return newQuick()
	default:
		switch {
		case opts.forceDartMarker:
			return newDart()
		case q != nil:
			return newQuick()
		case g.IsOrbitEmbedded(orbit):
			return newCell()
		default:
			return newDart()
		}
	}
}

// Orbit returns the traversed orbit.
func (t *TraversorCell) Orbit() Orbit { return t.orbit }

// Strategy returns the name of the strategy in use.
func (t *TraversorCell) Strategy() string { return t.s.name() }

// Begin starts a new pass and returns its first cell, or End.
func (t *TraversorCell) Begin() Cell {
	if !t.first {
		t.s.reset()
	}
	t.first = false
	t.current = t.s.begin(false)
	return t.cell()
}

// Next returns the next cell, or End.
func (t *TraversorCell) Next() Cell {
	if t.current != NIL {
		t.current = t.s.next(false)
	}
	return t.cell()
}

// End returns the sentinel cell that terminates the enumeration.
func (t *TraversorCell) End() Cell { return Cell{Dart: NIL, Orbit: t.orbit} }

// Skip marks c as visited without producing it. It has no effect on quick
// traversals.
func (t *TraversorCell) Skip(c Cell) { t.s.skip(c.Dart) }

// Release returns the scratch state of the traversal to its pool.
func (t *TraversorCell) Release() { t.s.release() }

// All returns an iterator over one full pass.
func (t *TraversorCell) All() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for c := t.Begin(); c != t.End(); c = t.Next() {
			if !yield(c) {
				return
			}
		}
	}
}

func (t *TraversorCell) cell() Cell { return Cell{Dart: t.current, Orbit: t.orbit} }

// TraversorCellEven is the even pass of a pair of alternating passes
// sharing the marks of one TraversorCell. It marks the cells it produces
// and leaves them marked for the odd pass.
type TraversorCellEven struct {
	t       *TraversorCell
	current Dart
}

// NewTraversorCellEven returns the even pass of t.
func NewTraversorCellEven(t *TraversorCell) *TraversorCellEven {
	return &TraversorCellEven{t: t, current: NIL}
}

// Begin starts the even pass.
func (e *TraversorCellEven) Begin() Cell {
	c := e.t.Begin()
	e.t.first = true
	e.current = c.Dart
	return c
}

// Next returns the next cell of the even pass, or End.
func (e *TraversorCellEven) Next() Cell {
	if e.current != NIL {
		e.current = e.t.s.next(false)
	}
	return Cell{Dart: e.current, Orbit: e.t.orbit}
}

// End returns the sentinel cell.
func (e *TraversorCellEven) End() Cell { return e.t.End() }

// TraversorCellOdd is the odd pass of a pair of alternating passes. It
// visits the cells marked by the even pass and unmarks them, so the marks
// are clean again when it ends.
type TraversorCellOdd struct {
	t       *TraversorCell
	current Dart
}

// NewTraversorCellOdd returns the odd pass of t.
func NewTraversorCellOdd(t *TraversorCell) *TraversorCellOdd {
	return &TraversorCellOdd{t: t, current: NIL}
}

// Begin starts the odd pass.
func (o *TraversorCellOdd) Begin() Cell {
	o.current = o.t.s.begin(true)
	return Cell{Dart: o.current, Orbit: o.t.orbit}
}

// Next returns the next cell of the odd pass, or End.
func (o *TraversorCellOdd) Next() Cell {
	if o.current != NIL {
		o.current = o.t.s.next(true)
	}
	return Cell{Dart: o.current, Orbit: o.t.orbit}
}

// End returns the sentinel cell.
func (o *TraversorCellOdd) End() Cell { return o.t.End() }

// quickStrategy walks the representative dart cache in cell slot order.
type quickStrategy struct {
	g     *GenericMap
	dim   uint
	cont  *container.Container
	cache *container.Column[Dart]
	cur   uint32
}

func (s *quickStrategy) name() string { return ForceQuickTraversal.String() }

func (s *quickStrategy) begin(bool) Dart {
	s.cur = s.cont.Begin()
	return s.scan()
}

func (s *quickStrategy) next(bool) Dart {
	s.cur = s.cont.Next(s.cur)
	return s.scan()
}

func (s *quickStrategy) scan() Dart {
	for ; s.cur != s.cont.End(); s.cur = s.cont.Next(s.cur) {
		d := s.cache.Get(s.cur)
		if d != NIL && !s.g.isBoundary(s.dim, d) {
			return d
		}
	}
	return NIL
}

func (s *quickStrategy) skip(Dart) {}
func (s *quickStrategy) reset()    {}
func (s *quickStrategy) release()  {}

// visitor records which cells a marking traversal has produced.
type visitor interface {
	// eligible reports whether d represents a cell still to produce.
	eligible(d Dart, odd bool) bool
	visit(d Dart, odd bool)
	unmarkAll()
	release()
	name() string
}

// markingStrategy scans the darts and produces the first dart of every
// cell its visitor has not seen.
type markingStrategy struct {
	g   *GenericMap
	dim uint
	v   visitor
	cur Dart
}

func (s *markingStrategy) name() string { return s.v.name() }

func (s *markingStrategy) begin(odd bool) Dart {
	s.cur = s.g.Begin()
	return s.scan(odd)
}

func (s *markingStrategy) next(odd bool) Dart {
	s.cur = s.g.Next(s.cur)
	return s.scan(odd)
}

func (s *markingStrategy) scan(odd bool) Dart {
	end := s.g.End()
	for ; s.cur != end; s.cur = s.g.Next(s.cur) {
		if !s.g.isBoundary(s.dim, s.cur) && s.v.eligible(s.cur, odd) {
			s.v.visit(s.cur, odd)
			return s.cur
		}
	}
	s.cur = NIL
	return NIL
}

func (s *markingStrategy) skip(d Dart) {
	if s.v.eligible(d, false) {
		s.v.visit(d, false)
	}
}

func (s *markingStrategy) reset()   { s.v.unmarkAll() }
func (s *markingStrategy) release() { s.v.release() }

type cellVisitor struct {
	g     *GenericMap
	orbit Orbit
	w     WorkerID
	mk    *container.MarkerColumn
}

func (v *cellVisitor) name() string { return ForceCellMarking.String() }

func (v *cellVisitor) eligible(d Dart, odd bool) bool {
	e := v.g.Embedding(v.orbit, d)
	return e != container.Null && v.mk.IsMarked(e) == odd
}

func (v *cellVisitor) visit(d Dart, odd bool) {
	e := v.g.Embedding(v.orbit, d)
	if odd {
		v.mk.Unmark(e)
	} else {
		v.mk.Mark(e)
	}
}

func (v *cellVisitor) unmarkAll() { v.mk.UnmarkAll() }

func (v *cellVisitor) release() {
	if v.mk != nil {
		v.g.ReleaseMarker(v.orbit, v.w, v.mk)
		v.mk = nil
	}
}

type dartVisitor struct {
	m     Map
	orbit Orbit
	w     WorkerID
	mk    *container.MarkerColumn
}

func (v *dartVisitor) name() string { return ForceDartMarking.String() }

func (v *dartVisitor) eligible(d Dart, odd bool) bool {
	return v.mk.IsMarked(uint32(d)) == odd
}

func (v *dartVisitor) visit(d Dart, odd bool) {
	v.m.ForeachDartOfOrbit(v.orbit, d, v.w, func(e Dart) bool {
		if odd {
			v.mk.Unmark(uint32(e))
		} else {
			v.mk.Mark(uint32(e))
		}
		return true
	})
}

func (v *dartVisitor) unmarkAll() { v.mk.UnmarkAll() }

func (v *dartVisitor) release() {
	if v.mk != nil {
		v.m.Generic().ReleaseMarker(DartOrbit, v.w, v.mk)
		v.mk = nil
	}
}
