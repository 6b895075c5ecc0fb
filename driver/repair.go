package driver

import (
	"github.com/evocore/popforge/evolog"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/pkg/errors"
)

// Repair implements the post-dispatch population-repair algorithm of
// spec.md §4.5. pop.Individuals is expected to already hold whatever
// evaluate_range retained (parents plus whichever children completed in
// time); old holds items evaluate_range classified as late arrivals from
// earlier generations.
func Repair(pop *population.Population, old []individual.Individual, generation int) error {
	kept := old[:0:0]
	for _, item := range old {
		t := item.Traits()
		if t.IsParent && t.AssignedIteration != generation {
			continue // obsolete parent: drop
		}
		t.AssignedIteration = generation
		kept = append(kept, item)
	}

	pop.PartitionParentsFirst()
	pop.Append(kept...)

	if pop.Len() == 0 {
		return errors.New("driver: population repair impossible, no individuals survived dispatch")
	}

	childrenReturned := false
	for _, ind := range pop.Individuals {
		if !ind.Traits().IsParent {
			childrenReturned = true
			break
		}
	}
	if !childrenReturned {
		evolog.Warn("driver: no children returned this generation; repair will clone to fill nominal size")
	}

	if err := pop.FillToNominal(); err != nil {
		return errors.Wrap(err, "driver: post-dispatch repair failed")
	}

	if generation == 0 {
		pop.TagFirstGeneration()
	}
	return nil
}
