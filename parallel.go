package topomap

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/topomap/internal/barrier"
)

const (
	// DefaultBufferCapacity is the number of cells handed to a worker per round.
	DefaultBufferCapacity = 128
	// MinParallelWorkers is the smallest worker count of a parallel traversal.
	MinParallelWorkers = 2
)

// ParallelForEachCell calls fn once for every non-boundary cell of orbit,
// spread over nbWorkers goroutines. The cells are enumerated by a single
// TraversorCell on the calling goroutine and dealt round-robin into one
// buffer per worker; the buffers are refilled while the workers drain the
// previous round. fn receives the WorkerID to use for any scratch state it
// needs. It must not change the topology or the embeddings of the map.
//
// Fewer than MinParallelWorkers workers are raised to MinParallelWorkers.
// It fails with ErrNoFreeWorker if the map has not enough free worker slots.
func ParallelForEachCell(m Map, orbit Orbit, fn func(Cell, WorkerID), nbWorkers int, optFns ...TraversorOption) error {
	g := m.Generic()
	if nbWorkers < MinParallelWorkers {
		g.logger.WithOrbit(orbit).Warn("parallel traversal needs more workers",
			"requested", nbWorkers,
			"using", MinParallelWorkers,
		)
		nbWorkers = MinParallelWorkers
	}

	ids := make([]WorkerID, 0, nbWorkers)
	defer func() {
		for _, w := range ids {
			g.scratch.release(w)
		}
	}()
	for range nbWorkers {
		w, ok := g.scratch.acquire()
		if !ok {
			return fmt.Errorf("parallel traversal with %d workers: %w", nbWorkers, ErrNoFreeWorker)
		}
		ids = append(ids, w)
	}

	start := time.Now()
	opts := applyTraversorOptions(optFns)
	t := NewTraversorCell(m, orbit, optFns...)
	defer t.Release()

	capacity := opts.bufferCapacity
	bufs := make([][]Cell, nbWorkers)
	spare := make([][]Cell, nbWorkers)
	for i := range bufs {
		bufs[i] = make([]Cell, 0, capacity)
		spare[i] = make([]Cell, 0, capacity)
	}

	c := t.Begin()
	fill := func(dst [][]Cell) int {
		n := 0
		for ; n < nbWorkers*capacity && c != t.End(); n++ {
			dst[n%nbWorkers] = append(dst[n%nbWorkers], c)
			c = t.Next()
		}
		return n
	}
	total := fill(bufs)

	ex := barrier.NewExchange(nbWorkers)
	var eg errgroup.Group
	for i, w := range ids {
		eg.Go(func() error {
			for {
				for _, cell := range bufs[i] {
					fn(cell, w)
				}
				bufs[i] = bufs[i][:0]
				if ex.WorkerYield() == barrier.Stop {
					return nil
				}
			}
		})
	}

	for c != t.End() {
		total += fill(spare)
		ex.ProducerDrain()
		for i := range bufs {
			bufs[i], spare[i] = spare[i], bufs[i]
		}
		ex.ProducerRelease(barrier.Resume)
	}
	ex.ProducerDrain()
	ex.ProducerRelease(barrier.Stop)
	if err := eg.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	g.logger.LogParallel(context.Background(), orbit, nbWorkers, total, elapsed)
	g.metrics.RecordParallelTraversal(orbit, nbWorkers, total, elapsed)
	return nil
}
