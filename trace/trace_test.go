package trace_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/driver"
	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/exec"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
	"github.com/evocore/popforge/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderIgnoresInitAndEndPhases(t *testing.T) {
	r := trace.NewRecorder()
	r.Observe(driver.PhaseInit, driver.View{})
	r.Observe(driver.PhaseEnd, driver.View{})
	assert.Empty(t, r.Generations)
}

func TestRecorderRecordsProcessingPhaseViaDriver(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 70)
	defer source.Close()

	inds := make([]individual.Individual, 4)
	for i := range inds {
		inds[i] = sphere.New(2, 10, 0.5, source)
	}
	pop := population.New(inds, 2, 4)

	opts := &config.Options{
		NParents:      2,
		Size:          4,
		MaxIterations: 3,
		SortingMethod: config.SortingMuPlusLambda,
		Alpha:         1,
	}

	r := trace.NewRecorder()
	d := driver.New(pop, exec.NewSerial(), opts, source, individual.Minimize)
	d.Monitor = r
	_, err := d.Optimize(context.Background())
	require.NoError(t, err)

	assert.Len(t, r.Generations, opts.MaxIterations)
	assert.Len(t, r.Best, opts.MaxIterations)
}

func TestRecorderWriteNPZProducesNonEmptyOutput(t *testing.T) {
	r := trace.NewRecorder()
	r.Generations = []int{0, 1, 2}
	r.Best = []float64{3, 2, 1}
	r.Mean = []float64{4, 3, 2}
	r.Variance = []float64{1, 1, 1}
	r.StdDev = []float64{1, 1, 1}
	r.Min = []float64{2, 1, 0}
	r.Max = []float64{5, 4, 3}

	var buf bytes.Buffer
	require.NoError(t, r.WriteNPZ(&buf))
	assert.NotZero(t, buf.Len())
}
