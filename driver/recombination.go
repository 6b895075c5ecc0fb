package driver

import (
	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
)

// chooseParent picks a single source-parent index in [0, mu) for one child,
// per spec.md §4.2's two recombination disciplines. Value duplication falls
// back to random duplication in generation 0, since parents carry no
// reliable fitness yet.
func chooseParent(method config.RecombinationMethod, mu, generation int, source rng.Source) int {
	if mu <= 1 {
		return 0
	}
	if method == config.RecombinationValue && generation > 0 {
		return valueDuplicationChoice(mu, source)
	}
	return source.Intn(mu)
}

// valueDuplicationChoice implements the descending-weight scheme of spec.md
// §4.2: parent i gets weight w_i = (1/(i+2)) / sum_j(1/(j+2)), weights
// cumulatively summed, last forced to 1; a uniform draw picks the first
// index whose cumulative weight exceeds it.
func valueDuplicationChoice(mu int, source rng.Source) int {
	weights := make([]float64, mu)
	sum := 0.0
	for i := 0; i < mu; i++ {
		weights[i] = 1.0 / float64(i+2)
		sum += weights[i]
	}
	cumulative := 0.0
	u := source.Float64()
	for i := 0; i < mu; i++ {
		cumulative += weights[i] / sum
		if i == mu-1 {
			cumulative = 1
		}
		if cumulative > u {
			return i
		}
	}
	return mu - 1
}

// ValueDuplicationWeights exposes the normalized weight vector for a given
// mu, used by tests to check testable property 3 (weights sum to 1).
func ValueDuplicationWeights(mu int) []float64 {
	weights := make([]float64, mu)
	sum := 0.0
	for i := 0; i < mu; i++ {
		weights[i] = 1.0 / float64(i+2)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	weights[mu-1] = 1 - sumExceptLast(weights)
	return weights
}

func sumExceptLast(weights []float64) float64 {
	total := 0.0
	for i := 0; i < len(weights)-1; i++ {
		total += weights[i]
	}
	return total
}

// Recombine fills pop's children range [mu, muPlusLambda) by, for each
// child: overwriting it from a chosen source parent, then — with
// probability amalgamationLikelihood and if mu >= 2 — replacing it with an
// amalgamation of the best parent (index 0) and a uniformly random parent
// from [1, mu-1], per spec.md §4.2.
func Recombine(pop *population.Population, opts *config.Options, generation int, source rng.Source) {
	mu := pop.Mu
	parents := pop.Parents()
	for i := mu; i < pop.Len(); i++ {
		child := pop.Individuals[i]
		srcIdx := chooseParent(opts.RecombinationMethod, mu, generation, source)
		child.LoadFrom(parents[srcIdx])

		if mu >= 2 && source.Float64() < opts.AmalgamationLikelihood {
			otherIdx := 1 + source.Intn(mu-1)
			amalgamated := parents[0].Amalgamate(parents[otherIdx])
			child.LoadFrom(amalgamated)
		}

		t := child.Traits()
		t.ParentID = srcIdx
		t.MakeChild()
		t.AssignedIteration = generation
	}
}
