package driver

import (
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
)

// Phase names the point in the generation loop at which the monitor hook
// fires, per spec.md §4.7.
type Phase int

const (
	// PhaseInit fires once before the first generation runs.
	PhaseInit Phase = iota
	// PhaseProcessing fires once per completed generation.
	PhaseProcessing
	// PhaseEnd fires once after the run terminates.
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseProcessing:
		return "PROCESSING"
	case PhaseEnd:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// View is a read-only snapshot handed to an Observer: the population
// reference plus the generation number. Observers must not mutate the
// population; View only exposes accessors that do not permit it, breaking
// the cyclic "population <-> best-individual monitor" reference the source
// carried, per spec.md §9.
type View struct {
	Generation int
	population *population.Population
}

// Len returns the observed population's current size.
func (v View) Len() int { return v.population.Len() }

// Best returns the population's current parent-0 individual (read-only;
// callers must not mutate it), or nil if the population is empty.
func (v View) Best() individual.Individual {
	if v.population.Len() == 0 {
		return nil
	}
	return v.population.Individuals[0]
}

// Stats returns descriptive statistics over the current parents' primary
// fitness, for observers that want to plot or log a generation's spread
// rather than just its best individual.
func (v View) Stats() population.FitnessStats {
	return v.population.ParentFitnessStats()
}

// Observer is the optional monitoring hook of spec.md §4.7: side-effect-only
// (logging, plot emission, best-individual snapshotting), never given
// write access to the population.
type Observer interface {
	Observe(phase Phase, view View)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(phase Phase, view View)

// Observe implements Observer.
func (f ObserverFunc) Observe(phase Phase, view View) { f(phase, view) }
