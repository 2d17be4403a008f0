// Package heap keeps the allocation registry shared by every context of a
// group. Go's collector owns the actual memory; this registry decides what
// counts as live for the memory budget and for usage statistics.
package heap

import (
	"sync"
	"sync/atomic"

	"tern/internal/limits"
	"tern/internal/object"
)

// Owner identifies the context an allocation belongs to.
type Owner uint64

type cell struct {
	size  int64
	owner Owner
}

type Heap struct {
	mu        sync.Mutex
	budget    *limits.Budget
	cells     map[object.Value]cell
	protected map[object.Value]int
	peak      int64
	cycles    int

	collecting atomic.Bool
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Size      int64
	Capacity  int64
	Objects   int
	Protected int
	Cycles    int
}

// New returns a heap whose budget is limited to maxBytes; zero is unlimited.
func New(maxBytes int64) *Heap {
	return &Heap{
		budget:    limits.NewBudget(maxBytes),
		cells:     map[object.Value]cell{},
		protected: map[object.Value]int{},
	}
}

// Allocate registers v for owner and charges its size. A value that is
// already registered is not charged again.
func (h *Heap) Allocate(owner Owner, v object.Value) error {
	if v == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.cells[v]; ok {
		return nil
	}
	size := object.CostOf(v)
	if err := h.budget.Charge(size); err != nil {
		return err
	}
	h.cells[v] = cell{size: size, owner: owner}
	if used := h.budget.Used(); used > h.peak {
		h.peak = used
	}
	return nil
}

// Protect keeps v alive across collections until a matching Unprotect.
func (h *Heap) Protect(v object.Value) {
	if v == nil {
		return
	}
	h.mu.Lock()
	h.protected[v]++
	h.mu.Unlock()
}

func (h *Heap) Unprotect(v object.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := h.protected[v]; n > 1 {
		h.protected[v] = n - 1
	} else {
		delete(h.protected, v)
	}
}

func (h *Heap) IsProtected(v object.Value) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.protected[v] > 0
}

func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statsLocked()
}

func (h *Heap) statsLocked() Stats {
	capacity := h.budget.Limit()
	if capacity == 0 {
		capacity = h.peak
	}
	return Stats{
		Size:      h.budget.Used(),
		Capacity:  capacity,
		Objects:   len(h.cells),
		Protected: len(h.protected),
		Cycles:    h.cycles,
	}
}

// Roots reports the values a collection must keep, through m.
type Roots func(m *Marker)

// Collect marks from roots and from every protected value, keeps all
// allocations of the pinned owners, and releases everything else. It
// returns false without doing anything if a collection is already running.
func (h *Heap) Collect(roots Roots, pinned map[Owner]bool) (Stats, bool) {
	if !h.collecting.CompareAndSwap(false, true) {
		return Stats{}, false
	}
	defer h.collecting.Store(false)

	h.mu.Lock()
	defer h.mu.Unlock()

	m := newMarker()
	for v := range h.protected {
		m.Value(v)
	}
	// Pinned owners may be running on another goroutine, so their values
	// are kept without being traced.
	for v, c := range h.cells {
		if pinned[c.owner] {
			m.marked[v] = true
		}
	}
	if roots != nil {
		roots(m)
	}
	m.drain()

	for v, c := range h.cells {
		if m.marked[v] {
			continue
		}
		delete(h.cells, v)
		h.budget.Release(c.size)
	}
	h.cycles++
	return h.statsLocked(), true
}

// Marker accumulates reachable values during a collection.
type Marker struct {
	marked map[object.Value]bool
	scopes map[*object.Environment]bool
	stack  []object.Value
}

func newMarker() *Marker {
	return &Marker{
		marked: map[object.Value]bool{},
		scopes: map[*object.Environment]bool{},
	}
}

func (m *Marker) Value(v object.Value) {
	if v == nil || m.marked[v] {
		return
	}
	m.marked[v] = true
	m.stack = append(m.stack, v)
}

func (m *Marker) Scope(env *object.Environment) {
	if env == nil {
		return
	}
	object.TraceScope(env, m.Value, m.scopes)
}

func (m *Marker) Values(vs []object.Value) {
	for _, v := range vs {
		m.Value(v)
	}
}

func (m *Marker) drain() {
	for len(m.stack) > 0 {
		v := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		object.Refs(v, m.Value, m.Scope)
	}
}
