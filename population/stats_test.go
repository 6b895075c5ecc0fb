package population_test

import (
	"testing"

	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
	"github.com/stretchr/testify/assert"
)

func TestParentFitnessStatsComputesMeanAndSpread(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 60)
	defer source.Close()

	inds := make([]individual.Individual, 3)
	values := []float64{1, 2, 3}
	for i, v := range values {
		s := sphere.New(1, 10, 0.1, source)
		s.RestoreCheckpoint([]float64{0}, []float64{v}, true)
		inds[i] = s
	}
	pop := population.New(inds, 3, 3)

	stats := pop.ParentFitnessStats()
	assert.InDelta(t, 2.0, stats.Mean, 1e-9)
	assert.InDelta(t, 1.0, stats.Variance, 1e-9)
	assert.InDelta(t, 1.0, stats.Min, 1e-9)
	assert.InDelta(t, 3.0, stats.Max, 1e-9)
}

func TestParentFitnessStatsEmptyPopulation(t *testing.T) {
	pop := population.New(nil, 0, 0)
	stats := pop.ParentFitnessStats()
	assert.True(t, stats.Mean != stats.Mean) // NaN
}
