// Package pqueue implements the bounded best-N collector (C2) used to retain
// the best-ever individuals across generations and the best-of-iteration set.
package pqueue

import (
	"container/heap"
	"sync"

	"github.com/evocore/popforge/individual"
)

type entry struct {
	ind   individual.Individual
	order int64
}

// innerHeap is a min-heap (by "worseness") over entries, so that the root is
// always the current worst-held item and can be evicted in O(log n). It
// implements container/heap.Interface; Queue owns one under its mutex.
type innerHeap struct {
	items     []entry
	direction individual.Direction
}

func (h *innerHeap) Len() int { return len(h.items) }

func (h *innerHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	fa := a.ind.Fitness(0, false, false)
	fb := b.ind.Fitness(0, false, false)
	if fa == fb {
		// later insertion is more easily removable on ties
		return a.order > b.order
	}
	if h.direction == individual.Maximize {
		return fa < fb
	}
	return fa > fb
}

func (h *innerHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *innerHeap) Push(x interface{}) { h.items = append(h.items, x.(entry)) }

func (h *innerHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	e := old[n-1]
	h.items = old[:n-1]
	return e
}

// Queue is a bounded multiset of cloned individuals ordered by primary
// fitness: min-first for minimization, max-first for maximization. Adding
// beyond capacity evicts the worst held item. Ties are broken by insertion
// order: among equal fitness, earlier insertions are favored.
type Queue struct {
	mu       sync.Mutex
	capacity int
	h        innerHeap
	seq      int64
}

// New returns an empty queue bounded to capacity, ordered per direction.
func New(capacity int, direction individual.Direction) *Queue {
	return &Queue{
		capacity: capacity,
		h:        innerHeap{direction: direction},
	}
}

// Len returns the current number of items held.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h.items)
}

// Add clones ind and inserts it, evicting the current worst held item if the
// queue is already at capacity and the new item is better than that worst item.
func (q *Queue) Add(ind individual.Individual) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addLocked(ind)
}

func (q *Queue) addLocked(ind individual.Individual) {
	if q.capacity <= 0 {
		return
	}
	e := entry{ind: ind.Clone(), order: q.seq}
	q.seq++
	if len(q.h.items) < q.capacity {
		heap.Push(&q.h, e)
		return
	}
	worst := q.h.items[0]
	if q.better(e, worst) {
		heap.Pop(&q.h)
		heap.Push(&q.h, e)
	}
}

// AddMany clones and adds every individual in inds, keeping only the best
// capacity entries overall.
func (q *Queue) AddMany(inds []individual.Individual) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ind := range inds {
		q.addLocked(ind)
	}
}

// Replace clears the queue and repopulates it from inds ("add-many-with-replace").
func (q *Queue) Replace(inds []individual.Individual) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.h.items = q.h.items[:0]
	for _, ind := range inds {
		q.addLocked(ind)
	}
}

// Snapshot returns a defensive-copy slice of the held individuals, best
// first, ordered by primary fitness and, among ties, insertion order.
func (q *Queue) Snapshot() []individual.Individual {
	q.mu.Lock()
	defer q.mu.Unlock()

	sorted := make([]entry, len(q.h.items))
	copy(sorted, q.h.items)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && q.better(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := make([]individual.Individual, len(sorted))
	for i, e := range sorted {
		out[i] = e.ind
	}
	return out
}

// Best returns the single best-held individual, or nil if the queue is empty.
func (q *Queue) Best() individual.Individual {
	items := q.Snapshot()
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// better reports whether a ranks strictly ahead of b: better fitness first,
// and for equal fitness the earlier-inserted (lower order) entry wins.
func (q *Queue) better(a, b entry) bool {
	fa := a.ind.Fitness(0, false, false)
	fb := b.ind.Fitness(0, false, false)
	if fa == fb {
		return a.order < b.order
	}
	if q.h.direction == individual.Maximize {
		return fa > fb
	}
	return fa < fb
}
