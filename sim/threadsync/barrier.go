package threadsync

import (
	"log"
	"sync"
	"time"
)

// A Barrier is a reusable N-party rendezvous. Each party calls Wait exactly
// once per round; the call blocks until the Nth arrival, then all parties
// are released together and the generation advances, making the barrier
// immediately reusable for the next round.
//
// Calling Wait with the wrong party count, or twice in one round from the
// same party, is undefined at this layer.
type Barrier struct {
	mu   sync.Mutex
	cond *sync.Cond

	parties    int
	count      int
	generation uint64
}

// NewBarrier creates a barrier for the given number of parties.
func NewBarrier(parties int) *Barrier {
	if parties <= 0 {
		log.Panic("barrier party count must be positive")
	}

	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)

	return b
}

// Wait blocks the calling thread until all parties have arrived for the
// current round. It returns the time this caller spent blocked.
func (b *Barrier) Wait() time.Duration {
	start := time.Now()

	b.mu.Lock()
	gen := b.generation

	b.count++
	if b.count == b.parties {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
	} else {
		for gen == b.generation {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()

	return time.Since(start)
}
