// Package exec implements the executor (C3): the layer that runs a
// generation's adapt and evaluate calls under a chosen backend (serial,
// multithreaded, or brokered) and reports which individuals completed.
package exec

import (
	"context"

	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
)

// TimeoutPolicy controls how long evaluate_range waits for outstanding
// results before giving up on the remainder of a range, per spec.md §4.3.
type TimeoutPolicy struct {
	// WaitFactor multiplies the first completion's latency to compute the
	// deadline for the rest of the range (brokered backend only).
	WaitFactor float64
	// Deadline is carried with the policy but is not read by any backend in
	// this package.
	Deadline context.Context
}

// Result is the outcome of evaluate_range: Retained holds individuals that
// completed within the range (fitness written, clean); Old holds items that
// completed late from earlier generations and must flow through population
// repair (spec.md §4.5) rather than being placed back in range.
type Result struct {
	Retained []individual.Individual
	Old      []individual.Individual
}

// Executor runs a batch of adapt/evaluate calls under a specific backend.
type Executor interface {
	// AdaptRange mutates every individual in [lo, hi) of pop, setting their
	// dirty flags. Parallel in threaded/brokered backends, sequential in the
	// serial backend.
	AdaptRange(ctx context.Context, pop *population.Population, lo, hi int) error

	// EvaluateRange triggers fitness computation for every individual in
	// [lo, hi) of pop and returns the survivors plus any late arrivals.
	EvaluateRange(ctx context.Context, pop *population.Population, lo, hi int, policy TimeoutPolicy) (Result, error)
}
