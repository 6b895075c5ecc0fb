// Package broker implements the matchmaker (C4) between work items produced
// by the brokered executor and remote worker clients: per-producer buffer
// pairs keyed by port id, and a fair round-robin consumer pop. The broker
// knows nothing about optimization; it only moves WorkItems between
// producers and consumers.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/evocore/popforge/individual"
)

// PortID identifies a producer's buffer pair.
type PortID int64

// WorkItem is an individual plus the generation in which it was dispatched,
// per the data model in spec.md §3.
type WorkItem struct {
	Individual individual.Individual
	Generation int
	PortID     PortID
	// Index is this item's position within the dispatched range; carried so
	// the executor can reassemble dropped/duplicate returns deterministically.
	Index int
}

type bufferPair struct {
	outbound []WorkItem // queue of items awaiting a worker
	inbound  []WorkItem // queue of completed items
	returned bool        // true once the producer has torn this port down
}

// Broker is the process-wide matchmaker singleton described in spec.md §4.4
// and §5. Producers acquire a port for the lifetime of one evaluate_range
// call; consumers (workers, or the TCP server acting on their behalf) pull
// fairly across all live ports. Its internal queues use short critical
// sections guarded by a single mutex/condition-variable pair, per spec.md §5.
type Broker struct {
	mu   sync.Mutex
	cond *sync.Cond

	ports    map[PortID]*bufferPair
	order    []PortID // round-robin serving order
	nextIdx  int
	nextPort int64
}

// New returns an empty broker.
func New() *Broker {
	b := &Broker{ports: make(map[PortID]*bufferPair)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// GetPort creates a new producer buffer pair and returns its id.
func (b *Broker) GetPort() PortID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextPort++
	id := PortID(b.nextPort)
	b.ports[id] = &bufferPair{}
	b.order = append(b.order, id)
	return id
}

// ReturnPort tears down a producer's buffer pair. Any result pushed to this
// port afterward is discarded silently, per spec.md §4.4's lifetime contract.
func (b *Broker) ReturnPort(id PortID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bp, ok := b.ports[id]; ok {
		bp.returned = true
	}
	delete(b.ports, id)
	for i, pid := range b.order {
		if pid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.cond.Broadcast()
}

// Push enqueues a work item to the given port's outbound queue (producer side).
func (b *Broker) Push(id PortID, item WorkItem) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bp, ok := b.ports[id]
	if !ok {
		return
	}
	item.PortID = id
	bp.outbound = append(bp.outbound, item)
	b.cond.Broadcast()
}

// PopWorkItem blocks until any port has an outbound item, pulling fairly
// round-robin across ports, or until ctx is done.
func (b *Broker) PopWorkItem(ctx context.Context) (WorkItem, bool) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.cond.Broadcast()
			b.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if item, ok := b.popLocked(); ok {
			return item, true
		}
		if ctx.Err() != nil {
			return WorkItem{}, false
		}
		b.cond.Wait()
	}
}

// PopOrTimeout is the atomic pop-or-give-up variant for workers willing to
// stop waiting, per spec.md §4.4's pop_or_timeout contract.
func (b *Broker) PopOrTimeout(dt time.Duration) (WorkItem, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), dt)
	defer cancel()
	return b.PopWorkItem(ctx)
}

// TryPop is a non-blocking pop, used by the TCP consumer to answer a `ready`
// request immediately with nosuccess when no work is queued, per spec.md
// §6.2 step 3.
func (b *Broker) TryPop() (WorkItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.popLocked()
}

// popLocked must be called with b.mu held. It walks the round-robin order
// once looking for a non-empty outbound queue.
func (b *Broker) popLocked() (WorkItem, bool) {
	n := len(b.order)
	for i := 0; i < n; i++ {
		idx := (b.nextIdx + i) % n
		id := b.order[idx]
		bp := b.ports[id]
		if bp != nil && len(bp.outbound) > 0 {
			item := bp.outbound[0]
			bp.outbound = bp.outbound[1:]
			b.nextIdx = (idx + 1) % n
			return item, true
		}
	}
	return WorkItem{}, false
}

// PushResult delivers a completed work item back to its origin port's
// inbound queue (consumer side). If the port has already been returned, the
// result is discarded silently, per spec.md §4.4.
func (b *Broker) PushResult(id PortID, item WorkItem) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bp, ok := b.ports[id]
	if !ok {
		return
	}
	bp.inbound = append(bp.inbound, item)
	b.cond.Broadcast()
}

// PopResult blocks (producer side) until a completed item is available on
// the given port's inbound queue, or ctx is done.
func (b *Broker) PopResult(ctx context.Context, id PortID) (WorkItem, bool) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.cond.Broadcast()
			b.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		bp, ok := b.ports[id]
		if !ok {
			return WorkItem{}, false
		}
		if len(bp.inbound) > 0 {
			item := bp.inbound[0]
			bp.inbound = bp.inbound[1:]
			return item, true
		}
		if ctx.Err() != nil {
			return WorkItem{}, false
		}
		b.cond.Wait()
	}
}
