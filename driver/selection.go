package driver

import (
	"math"
	"sort"

	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
)

// transformedFitness is the scalar used for all internal ordering decisions:
// always smaller-is-better, per the `use_transformed` contract of spec.md
// §6.1's fitness() capability.
func transformedFitness(ind individual.Individual) float64 {
	return ind.Fitness(0, false, true)
}

func byTransformedFitness(inds []individual.Individual) func(i, j int) bool {
	return func(i, j int) bool {
		return transformedFitness(inds[i]) < transformedFitness(inds[j])
	}
}

// Dominates reports whether a dominates b: for every fitness criterion, a's
// transformed score is not worse (not greater) than b's, per spec.md §4.2.
// This is a non-strict domination — a dominates itself (testable property 5).
func Dominates(a, b individual.Individual) bool {
	n := a.NumFitnessCriteria()
	for i := 0; i < n; i++ {
		if a.Fitness(i, false, true) > b.Fitness(i, false, true) {
			return false
		}
	}
	return true
}

// Select applies the chosen selection discipline, reordering pop so indices
// [0, mu) are the new parents, per spec.md §4.2.
func Select(pop *population.Population, method config.SortingMethod, generation int, source rng.Source) {
	switch method {
	case config.SortingMuPlusLambda, "":
		selectMuPlusLambda(pop)
	case config.SortingMuLambda:
		selectMuLambda(pop, generation)
	case config.SortingMuOneRetain:
		selectMuOneRetain(pop, generation)
	case config.SortingMuPlusLambdaPareto:
		selectPareto(pop, generation, true, source)
	case config.SortingMuLambdaPareto:
		selectPareto(pop, generation, false, source)
	default:
		selectMuPlusLambda(pop)
	}
}

// selectMuPlusLambda partial-sorts the whole population by primary fitness;
// the mu best become parents. Never degrades.
func selectMuPlusLambda(pop *population.Population) {
	sort.SliceStable(pop.Individuals, byTransformedFitness(pop.Individuals))
	tagParents(pop)
}

// selectMuLambda sorts only the children range and swaps the best mu into
// [0, mu). Previous parents are discarded. Generation 0 has no prior
// parents to discard, so it degrades to mu+lambda.
func selectMuLambda(pop *population.Population, generation int) {
	if generation == 0 {
		selectMuPlusLambda(pop)
		return
	}
	children := pop.Children()
	sort.SliceStable(children, byTransformedFitness(children))
	rebuildFromChildren(pop, children)
}

// selectMuOneRetain is selectMuLambda, except if the best child is worse
// than the best previous parent, parent 0 survives at position 0 and
// positions [1, mu) take the best mu-1 children. mu=1 degrades to mu+lambda.
func selectMuOneRetain(pop *population.Population, generation int) {
	if generation == 0 || pop.Mu <= 1 {
		selectMuPlusLambda(pop)
		return
	}
	bestParent := pop.Parents()[0]
	children := pop.Children()
	sort.SliceStable(children, byTransformedFitness(children))

	if transformedFitness(children[0]) < transformedFitness(bestParent) {
		rebuildFromChildren(pop, children)
		return
	}

	newParents := make([]individual.Individual, pop.Mu)
	newParents[0] = bestParent
	for i := 1; i < pop.Mu; i++ {
		newParents[i] = children[i-1]
	}
	rest := children[pop.Mu-1:]
	pop.Individuals = append(append([]individual.Individual{}, newParents...), rest...)
	tagParents(pop)
}

// rebuildFromChildren installs the best mu children as the new parent range,
// followed by the remaining children (including any excess old items), then
// tags parent status.
func rebuildFromChildren(pop *population.Population, children []individual.Individual) {
	mu := pop.Mu
	if mu > len(children) {
		mu = len(children)
	}
	newParents := children[:mu]
	rest := children[mu:]
	pop.Individuals = append(append([]individual.Individual{}, newParents...), rest...)
	tagParents(pop)
}

func tagParents(pop *population.Population) {
	for i, ind := range pop.Individuals {
		t := ind.Traits()
		t.PopulationPosition = i
		if i < pop.Mu {
			t.MakeParent()
		} else {
			t.MakeChild()
		}
	}
}

// selectPareto implements the multi-objective disciplines of spec.md §4.2:
// tag non-dominated candidates, partition tagged-first, fill/trim to
// exactly mu parents, then sort those mu by scalarized fitness so
// value-recombination can rank them. When elitist is false (mu,lambda
// pareto), previous parents are pre-tagged as not-on-front so they cannot
// survive.
func selectPareto(pop *population.Population, generation int, elitist bool, source rng.Source) {
	if !elitist && generation > 0 {
		for _, p := range pop.Parents() {
			p.Traits().OnParetoFront = false
		}
	}

	candidates := pop.Individuals
	if !elitist && generation > 0 {
		candidates = pop.Children()
	}

	for _, c := range candidates {
		c.Traits().OnParetoFront = true
	}
	for _, a := range candidates {
		if !a.Traits().OnParetoFront {
			continue
		}
		for _, b := range candidates {
			if a == b {
				continue
			}
			if Dominates(a, b) && !Dominates(b, a) {
				b.Traits().OnParetoFront = false
			}
		}
	}

	front := make([]individual.Individual, 0, len(candidates))
	tail := make([]individual.Individual, 0, len(candidates))
	for _, c := range candidates {
		if c.Traits().OnParetoFront {
			front = append(front, c)
		} else {
			tail = append(tail, c)
		}
	}

	mu := pop.Mu
	var newParents []individual.Individual
	switch {
	case len(front) > mu:
		shuffle(front, source)
		newParents = front[:mu]
	case len(front) < mu:
		sort.SliceStable(tail, func(i, j int) bool { return tail[i].MinOnlyFitness() < tail[j].MinOnlyFitness() })
		need := mu - len(front)
		if need > len(tail) {
			need = len(tail)
		}
		newParents = append(append([]individual.Individual{}, front...), tail[:need]...)
		tail = tail[need:]
	default:
		newParents = front
	}

	sort.SliceStable(newParents, byTransformedFitness(newParents))

	rest := make([]individual.Individual, 0, len(pop.Individuals)-len(newParents))
	seen := make(map[individual.Individual]bool, len(newParents))
	for _, p := range newParents {
		seen[p] = true
	}
	for _, ind := range pop.Individuals {
		if !seen[ind] {
			rest = append(rest, ind)
		}
	}
	pop.Individuals = append(append([]individual.Individual{}, newParents...), rest...)
	tagParents(pop)
}

// shuffle performs a Fisher-Yates shuffle using source if provided, or a
// deterministic reversal fallback for callers (e.g. tests) that do not wire
// an rng.Source into selectPareto directly.
func shuffle(items []individual.Individual, source rng.Source) {
	if source == nil {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return
	}
	for i := len(items) - 1; i > 0; i-- {
		j := source.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// AcceptSA applies the simulated-annealing Metropolis acceptance rule of
// spec.md §4.2 in place of ordinary selection: after partial-sorting the mu
// best children, each parent p is compared to child mu+p. A strictly better
// child replaces the parent unconditionally; otherwise it replaces with
// probability exp(-|delta|/T). Returns the cooled temperature T*alpha.
func AcceptSA(pop *population.Population, temperature, alpha float64, source rng.Source) float64 {
	mu := pop.Mu
	children := pop.Children()
	sort.SliceStable(children, byTransformedFitness(children))

	parents := pop.Parents()
	for p := 0; p < mu && p < len(children); p++ {
		parent := parents[p]
		child := children[p]
		pf := transformedFitness(parent)
		cf := transformedFitness(child)
		delta := cf - pf
		accept := false
		switch {
		case cf < pf:
			accept = true
		default:
			prob := math.Exp(-math.Abs(delta) / temperature)
			accept = source.Float64() < prob
		}
		if accept {
			parent.LoadFrom(child)
		}
	}

	sort.SliceStable(parents, byTransformedFitness(parents))
	tagParents(pop)
	return temperature * alpha
}
