package barrier

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrier_Reusable(t *testing.T) {
	const parties, rounds = 4, 50
	b := New(parties)

	var arrived atomic.Int64
	var wg sync.WaitGroup
	for range parties {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rounds {
				arrived.Add(1)
				b.Wait()
				// Nobody can be a full round ahead.
				assert.GreaterOrEqual(t, arrived.Load(), int64((r+1)*parties))
				b.Wait()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(parties*rounds), arrived.Load())
}

func TestBarrier_InvalidParties(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}

func TestExchange_Pipeline(t *testing.T) {
	const workers, rounds = 3, 20
	ex := NewExchange(workers)

	buffers := make([][]int, workers)
	for i := range buffers {
		buffers[i] = []int{i}
	}

	var mu sync.Mutex
	var consumed []int
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				for _, v := range buffers[w] {
					mu.Lock()
					consumed = append(consumed, v)
					mu.Unlock()
				}
				buffers[w] = buffers[w][:0]
				if ex.WorkerYield() == Stop {
					return
				}
			}
		}()
	}

	next := workers
	for range rounds {
		ex.ProducerDrain()
		for w := range workers {
			assert.Empty(t, buffers[w])
			buffers[w] = append(buffers[w], next)
			next++
		}
		ex.ProducerRelease(Resume)
	}
	ex.ProducerDrain()
	ex.ProducerRelease(Stop)
	wg.Wait()

	require.Len(t, consumed, next)
	seen := make(map[int]bool, next)
	for _, v := range consumed {
		assert.False(t, seen[v], "value %d consumed twice", v)
		seen[v] = true
	}
	assert.Equal(t, "stop", Stop.String())
}
