// Package driver implements the parent-child driver (C5): per-generation
// orchestration of recombine, adapt, dispatch-via-executor, select, and
// bookkeeping, for both the evolutionary-algorithm and simulated-annealing
// variants described in spec.md §4.
package driver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/evolog"
	"github.com/evocore/popforge/exec"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/pqueue"
	"github.com/evocore/popforge/rng"
	"github.com/pkg/errors"
)

// TerminationCause records why a run ended, per spec.md §4.1's postcondition.
type TerminationCause string

const (
	TerminationIterationCap TerminationCause = "iteration_cap"
	TerminationWallClockCap TerminationCause = "wall_clock_cap"
	TerminationQualityTarget TerminationCause = "quality_target"
	TerminationHalted        TerminationCause = "halted"
)

// Driver runs the generational loop of spec.md §4.1 over a population,
// using a pluggable executor for adapt/evaluate and an optional Observer
// for monitoring.
type Driver struct {
	Pop    *population.Population
	Exec   exec.Executor
	Opts   *config.Options
	Source rng.Source

	// GlobalBest retains the best-ever individuals across the whole run.
	GlobalBest *pqueue.Queue
	// IterationBest retains the best-of-iteration set for the current
	// generation; replaced (not accumulated) each generation.
	IterationBest *pqueue.Queue

	Monitor Observer

	// qualityTarget, if set (via SetQualityTarget), ends the run early once
	// the best primary fitness is at or below it.
	qualityTarget    float64
	hasQualityTarget bool

	temperature float64
	iteration   int
	startedAt   time.Time
	halted      int32
	cause       TerminationCause
}

// New constructs a Driver ready to run Optimize. direction selects whether
// the priority queues retain min-first or max-first.
func New(pop *population.Population, executor exec.Executor, opts *config.Options, source rng.Source, direction individual.Direction) *Driver {
	return &Driver{
		Pop:           pop,
		Exec:          executor,
		Opts:          opts,
		Source:        source,
		GlobalBest:    pqueue.New(10, direction),
		IterationBest: pqueue.New(opts.NParents, direction),
		temperature:   opts.T0,
	}
}

// SetQualityTarget installs an early-termination threshold on best primary
// fitness (native-direction scale). The run ends once that fitness is at or
// below target; the comparison is the same for Minimize and Maximize runs.
func (d *Driver) SetQualityTarget(target float64) {
	d.qualityTarget = target
	d.hasQualityTarget = true
}

// Halt requests the run stop at the next generation boundary, per spec.md
// §5's "driver polls a halt flag once per generation; in-flight evaluations
// are allowed to complete" cancellation model.
func (d *Driver) Halt() {
	atomic.StoreInt32(&d.halted, 1)
}

func (d *Driver) isHalted() bool {
	return atomic.LoadInt32(&d.halted) != 0
}

// Optimize runs the generational loop until termination, and returns the
// primary fitness of the best individual ever seen.
func (d *Driver) Optimize(ctx context.Context) (float64, error) {
	if d.Pop.Len() == 0 {
		return 0, errors.New("driver: population must hold at least one individual")
	}
	if d.Opts.NParents <= 0 || d.Pop.MuPlusLambda <= 0 {
		return 0, errors.New("driver: mu and mu+lambda must both be > 0")
	}

	d.startedAt = time.Now()
	d.notify(ctx, PhaseInit)

	for {
		if err := d.runGeneration(ctx); err != nil {
			return 0, err
		}
		d.notify(ctx, PhaseProcessing)

		if done, cause := d.checkTermination(); done {
			d.cause = cause
			break
		}
		d.iteration++
	}

	d.notify(ctx, PhaseEnd)

	best := d.GlobalBest.Best()
	if best == nil {
		return 0, errors.New("driver: run completed with no individuals in the global best queue")
	}
	return best.Fitness(0, false, false), nil
}

// Cause returns the termination cause recorded by the most recent Optimize
// call.
func (d *Driver) Cause() TerminationCause { return d.cause }

// Temperature returns the current simulated-annealing temperature. It is
// meaningful only when Opts.SortingMethod is config.SortingSA.
func (d *Driver) Temperature() float64 { return d.temperature }

func (d *Driver) notify(_ context.Context, phase Phase) {
	if d.Monitor == nil {
		return
	}
	d.Monitor.Observe(phase, View{Generation: d.iteration, population: d.Pop})
}

func (d *Driver) checkTermination() (bool, TerminationCause) {
	if d.isHalted() {
		return true, TerminationHalted
	}
	if d.Opts.MaxIterations > 0 && d.iteration+1 >= d.Opts.MaxIterations {
		return true, TerminationIterationCap
	}
	if d.Opts.MaxMinutes > 0 && time.Since(d.startedAt) >= time.Duration(d.Opts.MaxMinutes)*time.Minute {
		return true, TerminationWallClockCap
	}
	if d.hasQualityTarget {
		if best := d.GlobalBest.Best(); best != nil && best.Fitness(0, false, false) <= d.qualityTarget {
			return true, TerminationQualityTarget
		}
	}
	return false, ""
}

func (d *Driver) runGeneration(ctx context.Context) error {
	// 1. Scheduled growth. Skipped on generation 0: growth applies after the
	// first iteration (geneva's afterFirstIteration() guard), so a run that
	// starts at size 10 begins generation 0 at 10, not 10+rate.
	if d.iteration > 0 && d.Opts.GrowthRate > 0 {
		d.Pop.Grow(d.Opts.GrowthRate, d.Opts.MaxPopulationSize)
	}

	// 2. Recombine lambda children from mu parents.
	if d.Pop.Mu != d.Opts.NParents {
		d.Pop.Mu = d.Opts.NParents
	}
	Recombine(d.Pop, d.Opts, d.iteration, d.Source)

	// 3. Adapt children. Parents are never re-adapted: in generation 0 they
	// arrive already freshly (dirty) initialized by user code, and in later
	// generations they are either clean from a prior round or about to be
	// discarded by selection.
	childLo, hi := d.Pop.Mu, d.Pop.Len()
	if err := d.Exec.AdaptRange(ctx, d.Pop, childLo, hi); err != nil {
		return errors.Wrap(err, "driver: adapt_range failed")
	}

	// 4. Evaluate the unevaluated range: children always, plus parents too
	// in generation 0 since they have never been scored (spec.md §4.1 step 4).
	lo := childLo
	if d.iteration == 0 {
		lo = 0
	}
	result, err := d.Exec.EvaluateRange(ctx, d.Pop, lo, hi, exec.TimeoutPolicy{WaitFactor: d.Opts.WaitFactor})
	if err != nil {
		return errors.Wrap(err, "driver: evaluate_range failed")
	}

	if d.iteration == 0 {
		// Per spec.md §8's boundary behavior, a brokered executor returning
		// zero results in generation 0 must not discard the only individuals
		// in play: fall back to the dispatched range itself so Repair has
		// something to stamp/clone from instead of erroring out.
		if len(result.Retained) == 0 {
			d.Pop.Individuals = append([]individual.Individual{}, d.Pop.Individuals[lo:hi]...)
		} else {
			d.Pop.Individuals = result.Retained
		}
	} else {
		d.Pop.Individuals = append(append([]individual.Individual{}, d.Pop.Parents()...), result.Retained...)
	}

	// 5. Post-evaluation repair.
	if err := Repair(d.Pop, result.Old, d.iteration); err != nil {
		return err
	}

	// 6. Select new parents (or SA acceptance).
	if d.Opts.SortingMethod == config.SortingSA {
		d.temperature = AcceptSA(d.Pop, d.temperature, d.Opts.Alpha, d.Source)
	} else {
		Select(d.Pop, d.Opts.SortingMethod, d.iteration, d.Source)
	}

	d.Pop.Trim()
	d.Pop.StampPositions()

	// 7. Update monitors and priority queues.
	d.updateBestQueues()

	return nil
}

func (d *Driver) updateBestQueues() {
	if d.Opts.SortingMethod == config.SortingMuPlusLambdaPareto || d.Opts.SortingMethod == config.SortingMuLambdaPareto {
		front := make([]individual.Individual, 0, d.Pop.Mu)
		for _, p := range d.Pop.Parents() {
			if p.Traits().OnParetoFront {
				front = append(front, p)
			}
		}
		d.IterationBest.Replace(front)
		d.GlobalBest.AddMany(front)
		return
	}

	best := d.Pop.Parents()[0]
	d.IterationBest.Replace([]individual.Individual{best})
	d.GlobalBest.Add(best)
}
