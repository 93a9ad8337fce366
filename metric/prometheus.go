// Package metric exports map metrics to Prometheus.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/topomap"
)

// Namespace prefixes every metric name.
const Namespace = "topomap"

// PrometheusCollector implements topomap.MetricsCollector.
type PrometheusCollector struct {
	traversals      *prometheus.CounterVec
	traversedCells  *prometheus.CounterVec
	traversalTime   *prometheus.HistogramVec
	parallelWorkers prometheus.Histogram
	compactions     *prometheus.CounterVec
	liveLines       *prometheus.GaugeVec
	ioBytes         *prometheus.CounterVec
	ioLatency       *prometheus.HistogramVec
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &PrometheusCollector{
		traversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "traversals_total",
			Help:      "Cell traversals completed",
		}, []string{"orbit", "strategy"}),
		traversedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "traversed_cells_total",
			Help:      "Cells produced by traversals",
		}, []string{"orbit", "mode"}),
		traversalTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "traversal_duration_seconds",
			Help:      "Duration of cell traversals",
			Buckets:   prometheus.DefBuckets,
		}, []string{"orbit", "mode"}),
		parallelWorkers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "parallel_workers",
			Help:      "Workers per parallel traversal",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 6),
		}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "compactions_total",
			Help:      "Container compactions",
		}, []string{"orbit"}),
		liveLines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "live_lines",
			Help:      "Live lines of a container after its last compaction",
		}, []string{"orbit"}),
		ioBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "io_bytes_total",
			Help:      "Bytes saved or loaded",
		}, []string{"op"}),
		ioLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "io_duration_seconds",
			Help:      "Duration of saves and loads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}
	reg.MustRegister(
		c.traversals,
		c.traversedCells,
		c.traversalTime,
		c.parallelWorkers,
		c.compactions,
		c.liveLines,
		c.ioBytes,
		c.ioLatency,
	)
	return c
}

// RecordTraversal implements topomap.MetricsCollector.
func (c *PrometheusCollector) RecordTraversal(orbit topomap.Orbit, strategy string, cells int, d time.Duration) {
	c.traversals.WithLabelValues(orbit.String(), strategy).Inc()
	c.traversedCells.WithLabelValues(orbit.String(), "sequential").Add(float64(cells))
	c.traversalTime.WithLabelValues(orbit.String(), "sequential").Observe(d.Seconds())
}

// RecordParallelTraversal implements topomap.MetricsCollector.
func (c *PrometheusCollector) RecordParallelTraversal(orbit topomap.Orbit, workers, cells int, d time.Duration) {
	c.traversals.WithLabelValues(orbit.String(), "parallel").Inc()
	c.traversedCells.WithLabelValues(orbit.String(), "parallel").Add(float64(cells))
	c.traversalTime.WithLabelValues(orbit.String(), "parallel").Observe(d.Seconds())
	c.parallelWorkers.Observe(float64(workers))
}

// RecordCompact implements topomap.MetricsCollector.
func (c *PrometheusCollector) RecordCompact(orbit topomap.Orbit, live uint32, _ time.Duration) {
	c.compactions.WithLabelValues(orbit.String()).Inc()
	c.liveLines.WithLabelValues(orbit.String()).Set(float64(live))
}

// RecordSave implements topomap.MetricsCollector.
func (c *PrometheusCollector) RecordSave(bytes int64, d time.Duration, err error) {
	c.recordIO("save", bytes, d, err)
}

// RecordLoad implements topomap.MetricsCollector.
func (c *PrometheusCollector) RecordLoad(bytes int64, d time.Duration, err error) {
	c.recordIO("load", bytes, d, err)
}

func (c *PrometheusCollector) recordIO(op string, bytes int64, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.ioBytes.WithLabelValues(op).Add(float64(bytes))
	c.ioLatency.WithLabelValues(op, status).Observe(d.Seconds())
}

var _ topomap.MetricsCollector = (*PrometheusCollector)(nil)

// Traversals returns the traversal counter, labelled by orbit and strategy.
func (c *PrometheusCollector) Traversals() *prometheus.CounterVec { return c.traversals }

// TraversedCells returns the cell counter, labelled by orbit and mode.
func (c *PrometheusCollector) TraversedCells() *prometheus.CounterVec { return c.traversedCells }

// Compactions returns the compaction counter, labelled by orbit.
func (c *PrometheusCollector) Compactions() *prometheus.CounterVec { return c.compactions }

// LiveLines returns the live line gauge, labelled by orbit.
func (c *PrometheusCollector) LiveLines() *prometheus.GaugeVec { return c.liveLines }

// IOBytes returns the save/load byte counter, labelled by op.
func (c *PrometheusCollector) IOBytes() *prometheus.CounterVec { return c.ioBytes }
