package population

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FitnessStats holds descriptive statistics over a slice of primary-fitness
// values, mirroring the role the teacher's experiment.Floats helper plays
// around gonum.org/v1/gonum/stat for reporting a generation's spread.
type FitnessStats struct {
	Mean     float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64
}

// ParentFitnessStats computes FitnessStats over the native-direction primary
// fitness (criterion 0, useTransformed=false) of the population's current
// parents. Fitness is read without triggering reevaluation, so callers must
// ensure parents are clean first (e.g. after Select).
func (p *Population) ParentFitnessStats() FitnessStats {
	parents := p.Parents()
	if len(parents) == 0 {
		return FitnessStats{Mean: math.NaN(), Variance: math.NaN(), StdDev: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	values := make([]float64, len(parents))
	for i, ind := range parents {
		values[i] = ind.Fitness(0, false, false)
	}
	mean, variance := stat.MeanVariance(values, nil)
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return FitnessStats{
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      min,
		Max:      max,
	}
}
