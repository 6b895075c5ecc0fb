// Package rng implements the shared random-number facility described in
// spec.md §5: a process-wide, thread-safe producer of uniform reals,
// uniform integers and normal deviates, with a user-settable producer
// thread count and buffer size. The core never shares mutable RNG state
// between concurrent evaluations; every draw comes from this facility.
package rng

import (
	"math/rand"
	"sync"
)

// Source is the contract the core assumes for randomness. It is the "random
// number factory" external collaborator named in spec.md §1 as out of scope
// for the core's algorithms, but the engine still needs a concrete, safe
// implementation to run; Default below is that implementation.
type Source interface {
	// Float64 returns a uniform real in [0,1).
	Float64() float64
	// Intn returns a uniform integer in [0,n).
	Intn(n int) int
	// NormFloat64 returns a standard-normal deviate.
	NormFloat64() float64
}

// Default is a thread-safe Source backed by a pool of producer goroutines,
// each running its own *rand.Rand (so no two producers share mutable state),
// feeding a bounded channel per draw kind that callers pull from. This
// mirrors the "process-wide singleton with short critical sections" pattern
// used elsewhere in this module for the broker's queues.
type Default struct {
	floats  chan float64
	ints    chan int
	norms   chan float64
	nBucket int

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewDefault starts producerThreads goroutines, each buffering up to
// bufferSize pending draws of each kind. producerThreads and bufferSize are
// both clamped to >= 1.
func NewDefault(producerThreads, bufferSize int, nBucket int, seed int64) *Default {
	if producerThreads < 1 {
		producerThreads = 1
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	if nBucket < 1 {
		nBucket = 1
	}
	d := &Default{
		floats:  make(chan float64, bufferSize),
		ints:    make(chan int, bufferSize),
		norms:   make(chan float64, bufferSize),
		nBucket: nBucket,
		stop:    make(chan struct{}),
	}
	for i := 0; i < producerThreads; i++ {
		d.wg.Add(1)
		// Vary the seed per producer so independent goroutines never share a
		// math/rand source; this is the "no shared mutable state" guarantee
		// spec.md §5 requires between concurrent evaluations' draws.
		go d.produce(seed + int64(i)*2654435761)
	}
	return d
}

func (d *Default) produce(seed int64) {
	defer d.wg.Done()
	r := rand.New(rand.NewSource(seed))
	for {
		select {
		case <-d.stop:
			return
		case d.floats <- r.Float64():
		case d.ints <- r.Intn(d.nBucket):
		case d.norms <- r.NormFloat64():
		}
	}
}

// Float64 returns a uniform real in [0,1).
func (d *Default) Float64() float64 { return <-d.floats }

// Intn returns a uniform integer in [0,n). When n equals the bucket size
// used at construction the draw comes from the integer channel; any other n
// is derived from a Float64 draw.
func (d *Default) Intn(n int) int {
	if n == d.nBucket {
		return <-d.ints
	}
	return int(d.Float64() * float64(n))
}

// NormFloat64 returns a standard-normal deviate.
func (d *Default) NormFloat64() float64 { return <-d.norms }

// Close stops all producer goroutines and waits for them to exit.
func (d *Default) Close() {
	close(d.stop)
	d.wg.Wait()
}
