// Package barrier provides the synchronization primitives of the parallel
// traversal pipeline.
package barrier

import "sync"

// Barrier is a reusable counting barrier: Wait blocks until the configured
// number of parties have called it, then releases them all.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation uint64
}

// New returns a Barrier for parties goroutines.
func New(parties int) *Barrier {
	if parties < 1 {
		panic("barrier: parties must be positive")
	}
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Parties returns the number of goroutines the barrier waits for.
func (b *Barrier) Parties() int { return b.parties }

// Wait blocks until all parties have arrived.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// Signal is the instruction a producer hands to its workers when it
// releases them.
type Signal uint8

const (
	// Resume tells workers that their buffers were refilled.
	Resume Signal = iota
	// Stop tells workers to exit.
	Stop
)

func (s Signal) String() string {
	if s == Stop {
		return "stop"
	}
	return "resume"
}

// Exchange is a two-phase handoff between one producer and a fixed set of
// workers. In phase A every worker reports its buffer drained; in phase B
// the producer, having refilled the buffers, releases the workers with a
// Signal. Buffer ownership alternates at each phase boundary.
type Exchange struct {
	drained  *Barrier
	refilled *Barrier
	signal   Signal
}

// NewExchange returns an Exchange for workers consumers and one producer.
func NewExchange(workers int) *Exchange {
	return &Exchange{
		drained:  New(workers + 1),
		refilled: New(workers + 1),
	}
}

// WorkerYield hands the worker's drained buffer back to the producer and
// blocks until the producer releases the workers. It returns the signal the
// producer sent.
func (e *Exchange) WorkerYield() Signal {
	e.drained.Wait()
	e.refilled.Wait()
	return e.signal
}

// ProducerDrain blocks until every worker has drained its buffer.
func (e *Exchange) ProducerDrain() {
	e.drained.Wait()
}

// ProducerRelease publishes s and releases the workers waiting in
// WorkerYield. It must follow ProducerDrain.
func (e *Exchange) ProducerRelease(s Signal) {
	e.signal = s
	e.refilled.Wait()
}
