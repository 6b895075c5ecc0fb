package driver_test

import (
	"testing"

	"github.com/evocore/popforge/driver"
	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairFillsToNominalSize(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 40)
	defer source.Close()

	inds := make([]individual.Individual, 3) // short of mu+lambda=5
	for i := range inds {
		s := sphere.New(2, 10, 0.1, source)
		s.Fitness(0, true, false)
		inds[i] = s
	}
	pop := population.New(inds, 2, 5)

	require.NoError(t, driver.Repair(pop, nil, 1))
	assert.Equal(t, 5, pop.Len())
	for _, ind := range pop.Individuals {
		assert.False(t, ind.Dirty())
	}
}

func TestRepairDropsObsoleteParents(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 41)
	defer source.Close()

	inds := make([]individual.Individual, 4)
	for i := range inds {
		s := sphere.New(2, 10, 0.1, source)
		s.Fitness(0, true, false)
		inds[i] = s
	}
	pop := population.New(inds, 2, 6)

	stale := sphere.New(2, 10, 0.1, source)
	stale.Fitness(0, true, false)
	stale.Traits().MakeParent()
	stale.Traits().AssignedIteration = 0 // obsolete: current generation is 2

	fresh := sphere.New(2, 10, 0.1, source)
	fresh.Fitness(0, true, false)
	fresh.Traits().AssignedIteration = 2

	old := []individual.Individual{stale, fresh}
	require.NoError(t, driver.Repair(pop, old, 2))

	for _, ind := range pop.Individuals {
		assert.NotSame(t, stale, ind)
	}
}

func TestRepairFirstGenerationTagging(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 42)
	defer source.Close()

	inds := make([]individual.Individual, 5)
	for i := range inds {
		s := sphere.New(2, 10, 0.1, source)
		s.Fitness(0, true, false)
		inds[i] = s
	}
	pop := population.New(inds, 2, 5)

	require.NoError(t, driver.Repair(pop, nil, 0))
	for i, ind := range pop.Individuals {
		assert.Equal(t, i < 2, ind.Traits().IsParent)
	}
}

func TestRepairFailsOnDirtyLastIndividual(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 43)
	defer source.Close()

	inds := make([]individual.Individual, 3)
	for i := range inds {
		s := sphere.New(2, 10, 0.1, source)
		if i < 2 {
			s.Fitness(0, true, false)
		}
		inds[i] = s
	}
	pop := population.New(inds, 1, 5)

	err := driver.Repair(pop, nil, 1)
	assert.Error(t, err)
}
