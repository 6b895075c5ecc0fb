package exec

import (
	"context"
	"time"

	"github.com/evocore/popforge/broker"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
)

// Brokered dispatches a range's evaluations through a broker.Broker instead
// of running them locally: each individual becomes a broker.WorkItem pushed
// to the producer's outbound queue, to be picked up by whatever consumer the
// broker is wired to (typically a broker.Server bridging remote TCP
// workers). Adaptation still runs locally — only fitness evaluation crosses
// the broker, per spec.md §4.3.
type Brokered struct {
	Broker *broker.Broker
	// WaitFactor multiplies the first-return latency to compute the deadline
	// for the rest of a dispatched range, per spec.md §4.3/§5.
	WaitFactor float64
	// FirstItemTimeout bounds how long EvaluateRange waits for the very
	// first result before giving up on the whole range.
	FirstItemTimeout time.Duration

	port    broker.PortID
	hasPort bool
}

// NewBrokered returns a Brokered executor attached to b. It acquires its
// port lazily, on first use, and keeps it for the lifetime of the executor.
func NewBrokered(b *broker.Broker, waitFactor float64, firstItemTimeout time.Duration) *Brokered {
	return &Brokered{Broker: b, WaitFactor: waitFactor, FirstItemTimeout: firstItemTimeout}
}

func (e *Brokered) ensurePort() broker.PortID {
	if !e.hasPort {
		e.port = e.Broker.GetPort()
		e.hasPort = true
	}
	return e.port
}

// Detach tears down this executor's broker port. Call once the run that
// constructed it is over, per spec.md §4.4's buffer-pair lifetime contract.
func (e *Brokered) Detach() {
	if e.hasPort {
		e.Broker.ReturnPort(e.port)
		e.hasPort = false
	}
}

// AdaptRange adapts [lo, hi) locally and in parallel, one task per
// individual on a hardware-sized pool.
func (e *Brokered) AdaptRange(ctx context.Context, pop *population.Population, lo, hi int) error {
	return NewMultithreaded(0).AdaptRange(ctx, pop, lo, hi)
}

// EvaluateRange pushes every individual in [lo, hi) as a work item, then
// collects completions until either the whole range is accounted for, or
// the wait-policy deadline computed from the first return's latency
// expires. Anything still outstanding at that point is simply absent from
// Result — the caller (driver, via population repair, spec.md §4.5) fills
// the resulting shortfall by cloning.
func (e *Brokered) EvaluateRange(ctx context.Context, pop *population.Population, lo, hi int, policy TimeoutPolicy) (Result, error) {
	if hi > pop.Len() {
		hi = pop.Len()
	}
	n := hi - lo
	if n <= 0 {
		return Result{}, nil
	}
	port := e.ensurePort()
	dispatchedAt := time.Now()

	for i := lo; i < hi; i++ {
		e.Broker.Push(port, broker.WorkItem{
			Individual: pop.Individuals[i],
			PortID:     port,
			Index:      i,
		})
	}

	retained := make([]individual.Individual, 0, n)
	old := make([]individual.Individual, 0)

	firstCtx, firstCancel := context.WithTimeout(ctx, e.firstTimeout())
	item, ok := e.Broker.PopResult(firstCtx, port)
	firstCancel()
	if !ok {
		// nobody returned anything within the first-item window; the whole
		// range is lost and repair must refill it.
		return Result{}, nil
	}
	firstLatency := time.Since(dispatchedAt)
	retained = appendByOrigin(retained, &old, lo, hi, item)

	deadline := e.deadline(firstLatency, policy)
	for len(retained) < n {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		rangeCtx, cancel := context.WithTimeout(ctx, remaining)
		item, ok := e.Broker.PopResult(rangeCtx, port)
		cancel()
		if !ok {
			break
		}
		retained = appendByOrigin(retained, &old, lo, hi, item)
	}

	return Result{Retained: retained, Old: old}, nil
}

func (e *Brokered) firstTimeout() time.Duration {
	if e.FirstItemTimeout > 0 {
		return e.FirstItemTimeout
	}
	return 30 * time.Second
}

// deadline computes the remaining-range deadline as wait-factor times the
// latency observed for the first returned item, measured from the moment
// that item arrives (per spec.md §5: "a deadline computed from a wait
// factor times the first-item latency").
func (e *Brokered) deadline(firstLatency time.Duration, policy TimeoutPolicy) time.Time {
	wf := e.WaitFactor
	if policy.WaitFactor > 0 {
		wf = policy.WaitFactor
	}
	if wf <= 0 {
		wf = 1
	}
	if firstLatency <= 0 {
		firstLatency = time.Millisecond
	}
	return time.Now().Add(time.Duration(float64(firstLatency) * wf))
}

// appendByOrigin classifies a returned item as belonging to the in-flight
// range (retained) or to an earlier generation's dispatch (old), per
// spec.md §4.4's "no ordering guarantee... results may arrive... from any
// generation" contract.
func appendByOrigin(retained []individual.Individual, old *[]individual.Individual, lo, hi int, item broker.WorkItem) []individual.Individual {
	if item.Individual == nil {
		return retained
	}
	if item.Index >= lo && item.Index < hi {
		return append(retained, item.Individual)
	}
	*old = append(*old, item.Individual)
	return retained
}
