package exec

import (
	"context"

	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
)

// Serial runs adapt and evaluate calls one at a time in the caller's
// goroutine. It never produces late ("old") items, per spec.md §4.3.
type Serial struct{}

// NewSerial returns a Serial executor. It carries no state.
func NewSerial() *Serial { return &Serial{} }

func (s *Serial) AdaptRange(_ context.Context, pop *population.Population, lo, hi int) error {
	for i := lo; i < hi && i < pop.Len(); i++ {
		pop.Individuals[i].Adapt()
	}
	return nil
}

func (s *Serial) EvaluateRange(_ context.Context, pop *population.Population, lo, hi int, _ TimeoutPolicy) (Result, error) {
	if hi > pop.Len() {
		hi = pop.Len()
	}
	retained := make([]individual.Individual, 0, hi-lo)
	for i := lo; i < hi; i++ {
		ind := pop.Individuals[i]
		ind.Fitness(0, true, false)
		retained = append(retained, ind)
	}
	return Result{Retained: retained}, nil
}
