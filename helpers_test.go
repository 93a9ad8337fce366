package topomap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/topomap"
	"github.com/hupe1980/topomap/cmap2"
	"github.com/hupe1980/topomap/container"
)

const positionName = "position"

// newGrid builds an nx by ny grid with every cell orbit embedded and a
// position on each vertex.
func newGrid(t *testing.T, nx, ny int, optFns ...topomap.Option) (*cmap2.Map, *container.Column[[3]float32]) {
	t.Helper()
	m := cmap2.New(optFns...)
	pos, err := topomap.AddAttribute[[3]float32](m.GenericMap, topomap.Vertex, positionName)
	require.NoError(t, err)
	m.AddEmbedding(topomap.Edge)
	m.AddEmbedding(topomap.Face)

	m.NewGrid(nx, ny, false)
	i := float32(0)
	topomap.ForEachCell(m, topomap.Vertex, func(c topomap.Cell) {
		pos.Set(m.CellEmbedding(c), [3]float32{i, 2 * i, 0})
		i++
	})
	return m, pos
}

// requireSameMap checks that b holds the darts, relations, cells and
// boundary of a.
func requireSameMap(t *testing.T, a, b *cmap2.Map) {
	t.Helper()
	require.Equal(t, a.NbDarts(), b.NbDarts())
	for d := range a.AllDarts() {
		require.True(t, b.IsDartValid(d))
		require.Equal(t, a.Phi1(d), b.Phi1(d))
		require.Equal(t, a.PhiM1(d), b.PhiM1(d))
		require.Equal(t, a.Phi2(d), b.Phi2(d))
		require.Equal(t, a.IsBoundary(d), b.IsBoundary(d))
		for _, orbit := range []topomap.Orbit{topomap.Vertex, topomap.Edge, topomap.Face} {
			require.Equal(t, a.Embedding(orbit, d), b.Embedding(orbit, d))
		}
	}
	for _, orbit := range []topomap.Orbit{topomap.Vertex, topomap.Edge, topomap.Face} {
		require.Equal(t, a.NbCells(orbit), b.NbCells(orbit), "%s cells", orbit)
		for i := range a.Container(orbit).Lines() {
			require.Equal(t, a.NbRefs(orbit, i), b.NbRefs(orbit, i), "%s cell %d", orbit, i)
		}
	}
}

// volumeMap is a map of another dimension, used to check dimension checks.
type volumeMap struct {
	*topomap.GenericMap
}

func (volumeMap) Dimension() uint { return 3 }

func (volumeMap) ForeachDartOfOrbit(_ topomap.Orbit, d topomap.Dart, _ topomap.WorkerID, fn func(topomap.Dart) bool) {
	fn(d)
}
