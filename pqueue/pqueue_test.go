package pqueue_test

import (
	"testing"

	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/pqueue"
	"github.com/evocore/popforge/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetainsBestCapacity(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 1)
	defer source.Close()

	q := pqueue.New(3, individual.Minimize)

	values := []float64{5, 1, 9, 2, 0.5, 7}
	for _, v := range values {
		ind := sphere.New(1, 100, 0.1, source)
		ind.Params()[0] = v
		_ = ind.Fitness(0, true, false)
		q.Add(ind)
	}

	assert.Equal(t, 3, q.Len())
	snap := q.Snapshot()
	require.Len(t, snap, 3)
	// best-first for minimization: smallest primary fitness (v^2) first
	assert.InDelta(t, 0.25, snap[0].Fitness(0, false, false), 1e-9)
	assert.InDelta(t, 1.0, snap[1].Fitness(0, false, false), 1e-9)
	assert.InDelta(t, 4.0, snap[2].Fitness(0, false, false), 1e-9)
}

func TestQueueTieBreakByInsertionOrder(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 2)
	defer source.Close()

	q := pqueue.New(2, individual.Minimize)
	first := sphere.New(1, 100, 0.1, source)
	first.Params()[0] = 3
	_ = first.Fitness(0, true, false)
	q.Add(first)

	second := sphere.New(1, 100, 0.1, source)
	second.Params()[0] = -3
	_ = second.Fitness(0, true, false)
	q.Add(second)

	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.InDelta(t, 9.0, snap[0].Fitness(0, false, false), 1e-9)
	assert.InDelta(t, 9.0, snap[1].Fitness(0, false, false), 1e-9)
}

func TestQueueReplace(t *testing.T) {
	source := rng.NewDefault(1, 4, 10, 3)
	defer source.Close()

	q := pqueue.New(5, individual.Maximize)
	for i := 0; i < 5; i++ {
		ind := sphere.New(1, 100, 0.1, source)
		ind.Params()[0] = float64(i)
		_ = ind.Fitness(0, true, false)
		q.Add(ind)
	}
	assert.Equal(t, 5, q.Len())

	inds := make([]individual.Individual, 0, 2)
	for i := 0; i < 2; i++ {
		ind := sphere.New(1, 100, 0.1, source)
		ind.Params()[0] = float64(i + 10)
		_ = ind.Fitness(0, true, false)
		inds = append(inds, ind)
	}
	q.Replace(inds)
	assert.Equal(t, 2, q.Len())
}

func TestQueueBestNilWhenEmpty(t *testing.T) {
	q := pqueue.New(3, individual.Minimize)
	assert.Nil(t, q.Best())
}
