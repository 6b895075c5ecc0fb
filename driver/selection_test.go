package driver_test

import (
	"testing"

	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/driver"
	"github.com/evocore/popforge/examples/parabola"
	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluatedSphereSlice(t *testing.T, source rng.Source, n int) []individual.Individual {
	t.Helper()
	inds := make([]individual.Individual, n)
	for i := range inds {
		ind := sphere.New(2, 10, 0.5, source)
		ind.Fitness(0, true, false)
		inds[i] = ind
	}
	return inds
}

func TestSelectMuPlusLambdaTagsParentRange(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 30)
	defer source.Close()

	pop := population.New(evaluatedSphereSlice(t, source, 8), 3, 8)
	driver.Select(pop, config.SortingMuPlusLambda, 1, source)

	for i, ind := range pop.Individuals {
		assert.Equal(t, i < 3, ind.Traits().IsParent)
	}
}

func TestSelectMuPlusLambdaIsMonotone(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 31)
	defer source.Close()

	pop := population.New(evaluatedSphereSlice(t, source, 6), 2, 6)
	driver.Select(pop, config.SortingMuPlusLambda, 0, source)
	bestGen0 := pop.Individuals[0].Fitness(0, false, false)

	// simulate next generation: re-evaluate children, keep parents clean.
	for i := pop.Mu; i < pop.Len(); i++ {
		pop.Individuals[i].Adapt()
		pop.Individuals[i].Fitness(0, true, false)
	}
	driver.Select(pop, config.SortingMuPlusLambda, 1, source)
	bestGen1 := pop.Individuals[0].Fitness(0, false, false)

	assert.LessOrEqual(t, bestGen1, bestGen0)
}

func TestSelectMuLambdaDegradesInGeneration0(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 32)
	defer source.Close()

	pop := population.New(evaluatedSphereSlice(t, source, 6), 2, 6)
	driver.Select(pop, config.SortingMuLambda, 0, source)
	for i, ind := range pop.Individuals {
		assert.Equal(t, i < 2, ind.Traits().IsParent)
	}
}

func TestSelectMuOneRetainDegradesWhenMuIsOne(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 33)
	defer source.Close()

	pop := population.New(evaluatedSphereSlice(t, source, 4), 1, 4)
	driver.Select(pop, config.SortingMuOneRetain, 1, source)
	assert.True(t, pop.Individuals[0].Traits().IsParent)
}

func TestDominatesIsReflexive(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 34)
	defer source.Close()

	ind := parabola.New(5, 0.5, source)
	ind.Fitness(0, true, false)
	assert.True(t, driver.Dominates(ind, ind))
}

func TestParetoSelectionProducesNonDominatedParents(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 35)
	defer source.Close()

	inds := make([]individual.Individual, 12)
	for i := range inds {
		ind := parabola.New(5, 0.5, source)
		ind.Fitness(0, true, false)
		inds[i] = ind
	}
	pop := population.New(inds, 4, 12)
	driver.Select(pop, config.SortingMuPlusLambdaPareto, 0, source)

	require.Equal(t, 12, pop.Len())
	parents := pop.Parents()
	for i, a := range parents {
		for j, b := range parents {
			if i == j {
				continue
			}
			dominated := driver.Dominates(b, a) && !driver.Dominates(a, b)
			assert.False(t, dominated, "parent %d should not be dominated by parent %d", i, j)
		}
	}
}

func TestAcceptSACoolsTemperature(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 36)
	defer source.Close()

	pop := population.New(evaluatedSphereSlice(t, source, 4), 1, 4)
	for i := pop.Mu; i < pop.Len(); i++ {
		pop.Individuals[i].Adapt()
		pop.Individuals[i].Fitness(0, true, false)
	}
	next := driver.AcceptSA(pop, 10, 0.9, source)
	assert.InDelta(t, 9.0, next, 1e-9)
	assert.True(t, pop.Individuals[0].Traits().IsParent)
}
