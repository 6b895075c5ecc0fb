package exec

import (
	"context"
	"runtime"
	"sync"

	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
)

// Multithreaded owns a fixed-size pool of worker goroutines and evaluates a
// range by handing each individual its own task, blocking until all tasks
// finish, per spec.md §4.3/§5. Individuals at different population positions
// are disjoint and share no mutable state, so tasks mutate their own slot of
// pop.Individuals directly — unlike the brokered backend, no cross-process
// boundary is crossed here, so there is no need to round-trip individuals
// through a serialization codec the way the teacher's
// ParallelPopulationEpochExecutor does for organisms over a channel.
type Multithreaded struct {
	// NThreads bounds in-flight tasks; 0 means runtime.NumCPU().
	NThreads int
}

// NewMultithreaded returns a Multithreaded executor with the given worker
// count (0 = hardware default).
func NewMultithreaded(nThreads int) *Multithreaded {
	return &Multithreaded{NThreads: nThreads}
}

func (m *Multithreaded) workers() int {
	if m.NThreads > 0 {
		return m.NThreads
	}
	return runtime.NumCPU()
}

// taskError pairs an error with the population index of the task that
// produced it, letting the caller surface which individual's task failed
// without aborting the rest of the range mid-flight, per spec.md §5.
type taskError struct {
	index int
	err   error
}

func (m *Multithreaded) runPool(n int, task func(i int) error) error {
	if n == 0 {
		return nil
	}
	sem := make(chan struct{}, m.workers())
	errs := make(chan taskError, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := task(idx); err != nil {
				errs <- taskError{index: idx, err: err}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	var first error
	count := 0
	for te := range errs {
		count++
		if first == nil {
			first = te.err
		}
	}
	if first != nil {
		return errorsAggregate(count, first)
	}
	return nil
}

func (m *Multithreaded) AdaptRange(_ context.Context, pop *population.Population, lo, hi int) error {
	if hi > pop.Len() {
		hi = pop.Len()
	}
	n := hi - lo
	if n <= 0 {
		return nil
	}
	return m.runPool(n, func(i int) error {
		pop.Individuals[lo+i].Adapt()
		return nil
	})
}

func (m *Multithreaded) EvaluateRange(_ context.Context, pop *population.Population, lo, hi int, _ TimeoutPolicy) (Result, error) {
	if hi > pop.Len() {
		hi = pop.Len()
	}
	n := hi - lo
	if n <= 0 {
		return Result{}, nil
	}
	retained := make([]individual.Individual, n)
	copy(retained, pop.Individuals[lo:hi])

	err := m.runPool(n, func(i int) error {
		retained[i].Fitness(0, true, false)
		return nil
	})
	return Result{Retained: retained}, err
}
