package driver_test

import (
	"bytes"
	"testing"

	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/driver"
	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTripBinary(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 50)
	defer source.Close()

	inds := make([]individual.Individual, 3)
	for i := range inds {
		s := sphere.New(2, 10, 0.1, source)
		s.Fitness(0, true, false)
		inds[i] = s
	}
	pop := population.New(inds, 3, 3)

	var buf bytes.Buffer
	require.NoError(t, driver.Checkpoint(pop, config.CheckpointBinary, &buf))

	savedFitness := make([]float64, pop.Mu)
	for i, p := range pop.Parents() {
		savedFitness[i] = p.Fitness(0, false, false)
	}

	// load into a fresh population of dirty individuals.
	loadInds := make([]individual.Individual, 3)
	for i := range loadInds {
		loadInds[i] = sphere.New(2, 10, 0.1, source)
	}
	loadPop := population.New(loadInds, 3, 3)
	require.NoError(t, driver.LoadCheckpoint(loadPop, config.CheckpointBinary, bytes.NewReader(buf.Bytes())))

	for i, ind := range loadPop.Individuals {
		assert.Equal(t, savedFitness[i], ind.Fitness(0, false, false))
		assert.False(t, ind.Dirty())
	}
}

func TestCheckpointFailsOnDirtyParent(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 51)
	defer source.Close()

	inds := []individual.Individual{sphere.New(2, 10, 0.1, source)}
	pop := population.New(inds, 1, 1)

	var buf bytes.Buffer
	err := driver.Checkpoint(pop, config.CheckpointBinary, &buf)
	assert.Error(t, err)
}

func TestLoadCheckpointAppendsShortfall(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 52)
	defer source.Close()

	saved := sphere.New(2, 10, 0.1, source)
	saved.Fitness(0, true, false)
	savedPop := population.New([]individual.Individual{saved}, 1, 1)

	var buf bytes.Buffer
	require.NoError(t, driver.Checkpoint(savedPop, config.CheckpointBinary, &buf))

	loadInds := []individual.Individual{sphere.New(2, 10, 0.1, source)}
	loadPop := population.New(loadInds, 3, 3)
	require.NoError(t, driver.LoadCheckpoint(loadPop, config.CheckpointBinary, bytes.NewReader(buf.Bytes())))

	assert.GreaterOrEqual(t, loadPop.Len(), 3)
}
