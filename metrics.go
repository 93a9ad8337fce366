package topomap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// The metric package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordTraversal is called after each ForEachCell-style traversal.
	RecordTraversal(orbit Orbit, strategy string, cells int, duration time.Duration)

	// RecordParallelTraversal is called after each parallel traversal.
	RecordParallelTraversal(orbit Orbit, workers, cells int, duration time.Duration)

	// RecordCompact is called after compacting the container of an orbit.
	RecordCompact(orbit Orbit, live uint32, duration time.Duration)

	// RecordSave is called after each save. err is nil if successful.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordLoad is called after each load. err is nil if successful.
	RecordLoad(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTraversal(Orbit, string, int, time.Duration)      {}
func (NoopMetricsCollector) RecordParallelTraversal(Orbit, int, int, time.Duration) {}
func (NoopMetricsCollector) RecordCompact(Orbit, uint32, time.Duration)             {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error)                 {}
func (NoopMetricsCollector) RecordLoad(int64, time.Duration, error)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TraversalCount      atomic.Int64
	TraversalCells      atomic.Int64
	TraversalTotalNanos atomic.Int64
	ParallelCount       atomic.Int64
	ParallelCells       atomic.Int64
	CompactCount        atomic.Int64
	SaveCount           atomic.Int64
	SaveErrors          atomic.Int64
	SaveBytes           atomic.Int64
	LoadCount           atomic.Int64
	LoadErrors          atomic.Int64
	LoadBytes           atomic.Int64
}

// RecordTraversal implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTraversal(_ Orbit, _ string, cells int, duration time.Duration) {
	b.TraversalCount.Add(1)
	b.TraversalCells.Add(int64(cells))
	b.TraversalTotalNanos.Add(duration.Nanoseconds())
}

// RecordParallelTraversal implements MetricsCollector.
func (b *BasicMetricsCollector) RecordParallelTraversal(_ Orbit, _ int, cells int, _ time.Duration) {
	b.ParallelCount.Add(1)
	b.ParallelCells.Add(int64(cells))
}

// RecordCompact implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompact(Orbit, uint32, time.Duration) {
	b.CompactCount.Add(1)
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveBytes.Add(bytes)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int64, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadBytes.Add(bytes)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		TraversalCount:    b.TraversalCount.Load(),
		TraversalCells:    b.TraversalCells.Load(),
		TraversalAvgNanos: b.getAvgTraversalNanos(),
		ParallelCount:     b.ParallelCount.Load(),
		ParallelCells:     b.ParallelCells.Load(),
		CompactCount:      b.CompactCount.Load(),
		SaveCount:         b.SaveCount.Load(),
		SaveErrors:        b.SaveErrors.Load(),
		SaveBytes:         b.SaveBytes.Load(),
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		LoadBytes:         b.LoadBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgTraversalNanos() int64 {
	count := b.TraversalCount.Load()
	if count == 0 {
		return 0
	}
	return b.TraversalTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	TraversalCount    int64
	TraversalCells    int64
	TraversalAvgNanos int64
	ParallelCount     int64
	ParallelCells     int64
	CompactCount      int64
	SaveCount         int64
	SaveErrors        int64
	SaveBytes         int64
	LoadCount         int64
	LoadErrors        int64
	LoadBytes         int64
}
