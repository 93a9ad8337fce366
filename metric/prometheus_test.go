package metric_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/topomap"
	"github.com/hupe1980/topomap/cmap2"
	"github.com/hupe1980/topomap/metric"
)

func TestPrometheusCollector_Map(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metric.NewPrometheusCollector(reg)

	m := cmap2.New(topomap.WithMetricsCollector(c))
	m.AddEmbedding(topomap.Vertex)
	m.NewGrid(3, 3, false)

	assert.Equal(t, 16, topomap.CountCells(m, topomap.Vertex))
	topomap.ForEachCell(m, topomap.Vertex, func(topomap.Cell) {})
	require.NoError(t, topomap.ParallelForEachCell(m, topomap.Vertex, func(topomap.Cell, topomap.WorkerID) {}, 2))
	m.Compact()

	var buf bytes.Buffer
	require.NoError(t, m.SaveBin(context.Background(), &buf))
	size := buf.Len()
	require.NoError(t, cmap2.New(topomap.WithMetricsCollector(c)).LoadBin(context.Background(), &buf))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Traversals().WithLabelValues("VERTEX", "cell_marking")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Traversals().WithLabelValues("VERTEX", "parallel")))
	assert.Equal(t, 16.0, testutil.ToFloat64(c.TraversedCells().WithLabelValues("VERTEX", "parallel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Compactions().WithLabelValues("DART")))
	assert.Equal(t, 16.0, testutil.ToFloat64(c.LiveLines().WithLabelValues("VERTEX")))
	assert.Equal(t, float64(size), testutil.ToFloat64(c.IOBytes().WithLabelValues("save")))
	assert.Equal(t, float64(size), testutil.ToFloat64(c.IOBytes().WithLabelValues("load")))
}

func TestPrometheusCollector_Errors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metric.NewPrometheusCollector(reg)

	c.RecordSave(10, time.Millisecond, nil)
	c.RecordLoad(3, time.Millisecond, errors.New("boom"))

	n, err := testutil.GatherAndCount(reg, "topomap_io_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 10.0, testutil.ToFloat64(c.IOBytes().WithLabelValues("save")))
}

func TestPrometheusCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metric.NewPrometheusCollector(reg)
	assert.Panics(t, func() { metric.NewPrometheusCollector(reg) })
}
