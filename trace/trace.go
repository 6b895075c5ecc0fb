// Package trace records a per-generation fitness/temperature history and
// dumps it to NPZ for offline plotting, mirroring the teacher's
// experiment.Experiment.WriteNPZ facility (gonum/mat + sbinet/npyio/npz)
// adapted from per-trial NEAT epoch data to per-generation optimization
// stats.
package trace

import (
	"io"

	"github.com/evocore/popforge/driver"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// Recorder is a driver.Observer that accumulates one row per PhaseProcessing
// notification: generation index, best primary fitness, and the parent
// population's mean/variance/stddev/min/max.
type Recorder struct {
	Generations []int
	Best        []float64
	Mean        []float64
	Variance    []float64
	StdDev      []float64
	Min         []float64
	Max         []float64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Observe implements driver.Observer. Only PhaseProcessing notifications are
// recorded; PhaseInit/PhaseEnd carry no new generation's worth of stats.
func (r *Recorder) Observe(phase driver.Phase, view driver.View) {
	if phase != driver.PhaseProcessing {
		return
	}
	best := view.Best()
	if best == nil {
		return
	}
	stats := view.Stats()
	r.Generations = append(r.Generations, view.Generation)
	r.Best = append(r.Best, best.Fitness(0, false, false))
	r.Mean = append(r.Mean, stats.Mean)
	r.Variance = append(r.Variance, stats.Variance)
	r.StdDev = append(r.StdDev, stats.StdDev)
	r.Min = append(r.Min, stats.Min)
	r.Max = append(r.Max, stats.Max)
}

// WriteNPZ dumps the recorded history to w as an NPZ archive with one
// len(Generations)-by-1 column per tracked series.
func (r *Recorder) WriteNPZ(w io.Writer) error {
	n := len(r.Generations)
	out := npz.NewWriter(w)

	generations := make([]float64, n)
	for i, g := range r.Generations {
		generations[i] = float64(g)
	}

	series := []struct {
		name   string
		values []float64
	}{
		{"generation", generations},
		{"best_fitness", r.Best},
		{"mean_fitness", r.Mean},
		{"variance_fitness", r.Variance},
		{"stddev_fitness", r.StdDev},
		{"min_fitness", r.Min},
		{"max_fitness", r.Max},
	}
	for _, s := range series {
		col := mat.NewDense(n, 1, s.values)
		if err := out.Write(s.name, col); err != nil {
			return err
		}
	}
	return out.Close()
}
