// Package population implements the ordered individual sequence (data model
// §3) that the executor and driver operate on: nominal size (mu+lambda),
// parent count (mu), clone/load-from semantics, scheduled growth, and the
// post-dispatch repair procedure of spec.md §4.5.
package population

import (
	"fmt"

	"github.com/evocore/popforge/individual"
)

// Population is an ordered sequence of individuals, owning them exclusively.
type Population struct {
	Individuals []individual.Individual
	// Mu is the parent count.
	Mu int
	// MuPlusLambda is the nominal population size.
	MuPlusLambda int
}

// New wraps an already-built individual slice, recording the nominal sizes.
func New(individuals []individual.Individual, mu, muPlusLambda int) *Population {
	return &Population{Individuals: individuals, Mu: mu, MuPlusLambda: muPlusLambda}
}

// Len returns the current number of individuals held.
func (p *Population) Len() int { return len(p.Individuals) }

// Parents returns the slice view [0, Mu).
func (p *Population) Parents() []individual.Individual {
	if p.Mu > len(p.Individuals) {
		return p.Individuals
	}
	return p.Individuals[:p.Mu]
}

// Children returns the slice view [Mu, len).
func (p *Population) Children() []individual.Individual {
	if p.Mu >= len(p.Individuals) {
		return nil
	}
	return p.Individuals[p.Mu:]
}

// AnyDirty reports whether any individual in [0, n) is dirty, and the index
// of the first one found (or -1). Used to enforce invariant I2 before
// selection and checkpointing.
func (p *Population) AnyDirty(n int) (int, bool) {
	if n > len(p.Individuals) {
		n = len(p.Individuals)
	}
	for i := 0; i < n; i++ {
		if p.Individuals[i].Dirty() {
			return i, true
		}
	}
	return -1, false
}

// Grow applies the scheduled linear growth policy of spec.md §4.1 step 1: if
// growthRate > 0 and the current nominal size is below maxSize, the nominal
// size increases by growthRate (capped at maxSize) and the gap is filled
// with clones of the last individual. Mu is left unchanged. Returns the new
// nominal size.
func (p *Population) Grow(growthRate, maxSize int) int {
	if growthRate <= 0 || p.MuPlusLambda >= maxSize {
		return p.MuPlusLambda
	}
	next := p.MuPlusLambda + growthRate
	if next > maxSize {
		next = maxSize
	}
	gap := next - p.MuPlusLambda
	if len(p.Individuals) > 0 {
		last := p.Individuals[len(p.Individuals)-1]
		for i := 0; i < gap; i++ {
			p.Individuals = append(p.Individuals, last.Clone())
		}
	}
	p.MuPlusLambda = next
	return next
}

// Trim discards the tail so the population holds exactly MuPlusLambda
// individuals, per spec.md §4.5 step "finally the population is trimmed".
func (p *Population) Trim() {
	if len(p.Individuals) > p.MuPlusLambda {
		p.Individuals = p.Individuals[:p.MuPlusLambda]
	}
}

// FillToNominal clones the last individual of the population until its
// length equals MuPlusLambda, per spec.md §4.5 step 5. Returns an error if
// the last individual is dirty (repair is impossible) or the population is
// empty.
func (p *Population) FillToNominal() error {
	if len(p.Individuals) == 0 {
		return fmt.Errorf("population: cannot repair an empty population to nominal size")
	}
	last := p.Individuals[len(p.Individuals)-1]
	if last.Dirty() {
		return fmt.Errorf("population: last individual is dirty; repair is impossible")
	}
	for len(p.Individuals) < p.MuPlusLambda {
		p.Individuals = append(p.Individuals, last.Clone())
	}
	return nil
}

// PartitionParentsFirst stably reorders Individuals so that every
// traits.IsParent==true individual comes before every traits.IsParent==false
// individual. Relative order within each group need not be preserved per
// spec.md §4.5 step 3, but a stable partition is used anyway since it is no
// more expensive and keeps output deterministic for a fixed input order.
func (p *Population) PartitionParentsFirst() {
	parents := make([]individual.Individual, 0, len(p.Individuals))
	children := make([]individual.Individual, 0, len(p.Individuals))
	for _, ind := range p.Individuals {
		if ind.Traits().IsParent {
			parents = append(parents, ind)
		} else {
			children = append(children, ind)
		}
	}
	p.Individuals = append(parents, children...)
}

// Append adds items to the end of the population.
func (p *Population) Append(items ...individual.Individual) {
	p.Individuals = append(p.Individuals, items...)
}

// TagFirstGeneration marks the first Mu individuals as parents and the rest
// as children, per spec.md §4.5 step 6 (used only in generation 0, after
// repair, when nothing is guaranteed about pre-selection order).
func (p *Population) TagFirstGeneration() {
	for i, ind := range p.Individuals {
		t := ind.Traits()
		t.PopulationPosition = i
		if i < p.Mu {
			t.MakeParent()
		} else {
			t.MakeChild()
		}
	}
}

// StampPositions refreshes traits.PopulationPosition to match current index,
// to be called after any reordering (selection, repair, trim).
func (p *Population) StampPositions() {
	for i, ind := range p.Individuals {
		ind.Traits().PopulationPosition = i
	}
}
