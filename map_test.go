package topomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/topomap/container"
)

// pointMap is a map of isolated darts: every orbit holds a single dart.
type pointMap struct {
	*GenericMap
}

func newPointMap(optFns ...Option) *pointMap {
	return &pointMap{GenericMap: NewGenericMap(optFns...)}
}

func (*pointMap) Dimension() uint { return 0 }

func (*pointMap) ForeachDartOfOrbit(_ Orbit, d Dart, _ WorkerID, fn func(Dart) bool) {
	fn(d)
}

func TestNewDart_NullEmbedding(t *testing.T) {
	m := newPointMap()
	m.AddEmbedding(Vertex)

	d := m.NewDart()
	assert.True(t, m.IsDartValid(d))
	assert.Equal(t, container.Null, m.Embedding(Vertex, d))
	assert.Equal(t, uint32(d), m.Embedding(DartOrbit, d))
	assert.Zero(t, m.NbCells(Vertex))
	assert.False(t, m.IsDartValid(NIL))
}

func TestAddEmbedding_ExistingDarts(t *testing.T) {
	m := newPointMap()
	darts := []Dart{m.NewDart(), m.NewDart()}

	assert.False(t, m.IsOrbitEmbedded(Edge))
	assert.True(t, m.IsOrbitEmbedded(DartOrbit))
	m.AddEmbedding(Edge)
	m.AddEmbedding(Edge)
	assert.True(t, m.IsOrbitEmbedded(Edge))
	for _, d := range darts {
		assert.Equal(t, container.Null, m.Embedding(Edge, d))
	}
}

func TestEmbedding_RefCounts(t *testing.T) {
	m := newPointMap()
	m.AddEmbedding(Vertex)

	d := m.NewDart()
	emb := SetOrbitEmbeddingOnNewCell(m, Vertex, d)
	assert.Equal(t, uint32(1), m.NbRefs(Vertex, emb))

	e := m.NewDart()
	m.CopyDartLine(e, d)
	assert.Equal(t, emb, m.Embedding(Vertex, e))
	assert.Equal(t, uint32(2), m.NbRefs(Vertex, emb))

	m.DeleteDartLine(d)
	assert.Equal(t, uint32(1), m.NbRefs(Vertex, emb))
	assert.Equal(t, uint32(1), m.NbCells(Vertex))

	m.DeleteDartLine(e)
	assert.Zero(t, m.NbCells(Vertex))
	assert.False(t, m.Container(Vertex).Used(emb))

	// The freed slot comes back on the next allocation.
	reused := m.NewCell(Vertex)
	assert.Equal(t, emb, reused)
	assert.Equal(t, uint32(1), m.NbRefs(Vertex, reused))
	m.UnrefCell(Vertex, reused)
}

func TestNewDart_ReusedLineHasNullEmbeddings(t *testing.T) {
	m := newPointMap()
	m.AddEmbedding(Vertex)
	m.AddEmbedding(Edge)
	m.AddEmbedding(Face)

	d := m.NewDart()
	for _, orbit := range []Orbit{Vertex, Edge, Face} {
		SetOrbitEmbeddingOnNewCell(m, orbit, d)
	}
	keep := m.NewDart()
	m.CopyDartLine(keep, d)

	m.DeleteDartLine(d)
	e := m.NewDart()
	require.Equal(t, d, e)
	for _, orbit := range []Orbit{Vertex, Edge, Face} {
		assert.Equal(t, container.Null, m.Embedding(orbit, e), "%s", orbit)
		assert.Equal(t, uint32(1), m.NbRefs(orbit, m.Embedding(orbit, keep)), "%s", orbit)
	}
}

func TestNewCell_ManualEmbedding(t *testing.T) {
	m := newPointMap()
	m.AddEmbedding(Face)

	emb := m.NewCell(Face)
	assert.Equal(t, uint32(1), m.NbRefs(Face, emb))

	d := m.NewDart()
	m.SetDartEmbedding(Face, d, emb)
	assert.Equal(t, uint32(2), m.NbRefs(Face, emb))
	assert.False(t, m.UnrefCell(Face, emb))
	assert.Equal(t, uint32(1), m.NbRefs(Face, emb))

	// Moving the dart to another cell frees the first one.
	other := m.NewCell(Face)
	m.SetDartEmbedding(Face, d, other)
	m.UnrefCell(Face, other)
	assert.False(t, m.Container(Face).Used(emb))
	assert.Equal(t, uint32(1), m.NbCells(Face))

	m.SetDartEmbedding(Face, d, container.Null)
	assert.Zero(t, m.NbCells(Face))
}

func TestNewCell_NotEmbedded(t *testing.T) {
	m := newPointMap()
	assert.Panics(t, func() { m.NewCell(Vertex) })
	assert.Panics(t, func() { m.NewCell(DartOrbit) })
}

func TestEmbedNewCell_CopiesAttributes(t *testing.T) {
	m := newPointMap()
	weight, err := AddAttribute[float64](m.GenericMap, Vertex, "weight")
	require.NoError(t, err)
	_, err = AddAttribute[float64](m.GenericMap, Vertex, "weight")
	require.ErrorIs(t, err, ErrAttributeExists)
	_, err = AddAttribute[float64](m.GenericMap, Vertex, "refs")
	require.ErrorIs(t, err, container.ErrReservedName)
	require.NotErrorIs(t, err, ErrAttributeExists)

	d := m.NewDart()
	src := SetOrbitEmbeddingOnNewCell(m, Vertex, d)
	weight.Set(src, 2.5)

	e := m.NewDart()
	dst := EmbedNewCell(m, Vertex, e, src)
	assert.NotEqual(t, src, dst)
	assert.Equal(t, 2.5, weight.Get(dst))
	assert.Same(t, weight, GetAttribute[float64](m.GenericMap, Vertex, "weight"))
	assert.Nil(t, GetAttribute[float64](m.GenericMap, Edge, "weight"))
}

func TestInitAllOrbitEmbedding(t *testing.T) {
	m := newPointMap()
	for range 5 {
		m.NewDart()
	}

	InitAllOrbitEmbedding(m, Edge, false)
	assert.Equal(t, uint32(5), m.NbCells(Edge))
	before := m.Embedding(Edge, m.Begin())

	InitAllOrbitEmbedding(m, Edge, false)
	assert.Equal(t, before, m.Embedding(Edge, m.Begin()))

	InitAllOrbitEmbedding(m, Edge, true)
	assert.Equal(t, uint32(5), m.NbCells(Edge))
	for d := range m.AllDarts() {
		assert.Equal(t, uint32(1), m.NbRefs(Edge, m.Embedding(Edge, d)))
	}
}

func TestSameCell(t *testing.T) {
	m := newPointMap()
	a, b := m.NewDart(), m.NewDart()

	assert.True(t, SameCell(m, Vertex, a, a))
	assert.False(t, SameCell(m, Vertex, a, b))

	m.AddEmbedding(Vertex)
	emb := SetOrbitEmbeddingOnNewCell(m, Vertex, a)
	m.SetDartEmbedding(Vertex, b, emb)
	assert.True(t, SameCell(m, Vertex, a, b))
}

func TestRelations(t *testing.T) {
	m := newPointMap()
	a := m.NewDart()

	rel := m.AddRelation("next")
	assert.Same(t, rel, m.AddRelation("next"))
	assert.Same(t, rel, m.Relation("next"))
	assert.Nil(t, m.Relation("prev"))
	assert.Equal(t, a, rel.Get(uint32(a)))

	b := m.NewDart()
	assert.Equal(t, b, rel.Get(uint32(b)))
	rel.Set(uint32(a), b)

	c := m.NewDart()
	m.CopyDartLine(c, a)
	assert.Equal(t, b, rel.Get(uint32(c)))
}

func TestBoundaryMarks(t *testing.T) {
	m := newPointMap()
	a, b := m.NewDart(), m.NewDart()

	m.MarkBoundary(0, a)
	assert.True(t, m.IsBoundaryMarked(0, a))
	assert.False(t, m.IsBoundaryMarked(1, a))
	assert.Equal(t, uint64(1), m.NbBoundaryDarts(0))

	m.CopyDartLine(b, a)
	assert.True(t, m.IsBoundaryMarked(0, b))

	m.UnmarkBoundary(0, b)
	m.DeleteDartLine(a)
	assert.Zero(t, m.NbBoundaryDarts(0))

	// A recycled dart carries no mark.
	m.MarkBoundary(0, b)
	m.DeleteDartLine(b)
	assert.False(t, m.IsBoundaryMarked(0, m.NewDart()))
}

func TestClear(t *testing.T) {
	m := newPointMap()
	_, err := AddAttribute[int32](m.GenericMap, Face, "label")
	require.NoError(t, err)
	d := m.NewDart()
	SetOrbitEmbeddingOnNewCell(m, Face, d)

	m.Clear(false)
	assert.Zero(t, m.NbDarts())
	assert.Zero(t, m.NbCells(Face))
	assert.True(t, m.IsOrbitEmbedded(Face))
	assert.NotNil(t, GetAttribute[int32](m.GenericMap, Face, "label"))

	m.Clear(true)
	assert.False(t, m.IsOrbitEmbedded(Face))
	assert.Nil(t, GetAttribute[int32](m.GenericMap, Face, "label"))
}

func TestCompact_PointMap(t *testing.T) {
	m := newPointMap()
	label, err := AddAttribute[int32](m.GenericMap, Vertex, "label")
	require.NoError(t, err)
	next := m.AddRelation("next")

	var darts []Dart
	for i := range 10 {
		d := m.NewDart()
		emb := SetOrbitEmbeddingOnNewCell(m, Vertex, d)
		label.Set(emb, int32(i))
		darts = append(darts, d)
	}
	for i, d := range darts {
		next.Set(uint32(d), darts[(i+1)%len(darts)])
	}
	m.MarkBoundary(0, darts[9])
	EnableQuickTraversal(m, Vertex)

	// Drop the even darts and relink the odd ones.
	for i := 0; i < len(darts); i += 2 {
		m.DeleteDartLine(darts[i])
	}
	for i := 1; i < len(darts); i += 2 {
		next.Set(uint32(darts[i]), darts[(i+2)%len(darts)])
	}

	m.Compact()

	assert.Equal(t, uint32(5), m.NbDarts())
	assert.Equal(t, uint32(5), m.Darts().MaxSize())
	assert.Equal(t, uint32(5), m.Container(Vertex).MaxSize())
	assert.Equal(t, uint64(1), m.NbBoundaryDarts(0))

	var labels []int32
	for d := range m.AllDarts() {
		labels = append(labels, label.Get(m.Embedding(Vertex, d)))
		n := next.Get(uint32(d))
		require.True(t, m.IsDartValid(n))
		assert.Equal(t, (label.Get(m.Embedding(Vertex, d))+2)%10, label.Get(m.Embedding(Vertex, n)))
	}
	assert.ElementsMatch(t, []int32{1, 3, 5, 7, 9}, labels)

	// The boundary dart is the one labelled 9.
	for d := range m.AllDarts() {
		assert.Equal(t, label.Get(m.Embedding(Vertex, d)) == 9, m.IsBoundaryMarked(0, d))
	}
	assert.Equal(t, 4, CountCells(m, Vertex, WithOptim(ForceQuickTraversal)))
	assert.Equal(t, 4, CountCells(m, Vertex, WithOptim(ForceCellMarking)))
}
