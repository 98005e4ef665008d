package interpreter

import (
	"slices"

	"tacvm/pkg/value"
)

const (
	DefaultHeapSize = 100
	HeapGrowth      = 50

	// MaxHeapSize bounds the number of allocated slots and the heap length
	// accepted from an imported state.
	MaxHeapSize = 1 << 20
)

// Heap is a growable array of value slots. Every index is either on the free
// list or allocated, never both. Freed slots are reused in FIFO order.
type Heap struct {
	slots   []value.Value
	free    []int
	freeSet map[int]struct{}
}

// NewHeap creates a heap with size free slots.
func NewHeap(size int) *Heap {
	h := &Heap{freeSet: make(map[int]struct{})}
	h.grow(size)
	return h
}

func (h *Heap) grow(n int) {
	start := len(h.slots)
	h.slots = append(h.slots, make([]value.Value, n)...)
	for idx := start; idx < len(h.slots); idx++ {
		h.pushFree(idx)
	}
}

func (h *Heap) pushFree(idx int) {
	h.free = append(h.free, idx)
	h.freeSet[idx] = struct{}{}
}

func (h *Heap) popFree() int {
	if len(h.free) == 0 {
		h.grow(HeapGrowth)
	}
	idx := h.free[0]
	h.free = h.free[1:]
	delete(h.freeSet, idx)
	return idx
}

// Allocate reserves count slots, initialised to absent, and returns the first
// index taken. count must be positive.
func (h *Heap) Allocate(count int) (int, *Fault) {
	if count <= 0 {
		return 0, faultf(FaultInvalidSize, "ALLOC_HEAP size must be a positive integer, got '%d'", count)
	}

	if inUse := len(h.slots) - len(h.free); count > MaxHeapSize-inUse {
		return 0, faultf(FaultInvalidSize, "ALLOC_HEAP size %d exceeds the heap limit of %d slots (%d in use)", count, MaxHeapSize, inUse)
	}

	base := -1
	for n := 0; n < count; n++ {
		idx := h.popFree()
		h.slots[idx] = value.Absent()
		if base < 0 {
			base = idx
		}
	}
	return base, nil
}

// Free clears the slot at addr and queues it for reuse. Freeing a free slot
// is a no-op; an out-of-range address reports false.
func (h *Heap) Free(addr int) bool {
	if !h.InRange(addr) {
		return false
	}

	h.slots[addr] = value.Absent()
	if _, ok := h.freeSet[addr]; !ok {
		h.pushFree(addr)
	}
	return true
}

func (h *Heap) InRange(addr int) bool {
	return addr >= 0 && addr < len(h.slots)
}

// Load returns the slot at addr; callers check InRange first.
func (h *Heap) Load(addr int) value.Value {
	return h.slots[addr]
}

// Store overwrites the slot at addr; callers check InRange first.
func (h *Heap) Store(addr int, v value.Value) {
	h.slots[addr] = v
}

func (h *Heap) Len() int {
	return len(h.slots)
}

// IsFree reports whether addr is on the free list.
func (h *Heap) IsFree(addr int) bool {
	_, ok := h.freeSet[addr]
	return ok
}

// FreeList returns the free indices in reuse order.
func (h *Heap) FreeList() []int {
	return slices.Clone(h.free)
}

// Slots returns a copy of the backing array.
func (h *Heap) Slots() []value.Value {
	return slices.Clone(h.slots)
}

// Allocated returns every allocated slot keyed by index.
func (h *Heap) Allocated() map[int]value.Value {
	out := make(map[int]value.Value)
	for idx, v := range h.slots {
		if !h.IsFree(idx) {
			out[idx] = v
		}
	}
	return out
}

// restoreHeap rebuilds a heap from allocated slots. The free list is every
// other index in ascending order.
func restoreHeap(size int, allocated map[int]value.Value) *Heap {
	h := &Heap{
		slots:   make([]value.Value, size),
		freeSet: make(map[int]struct{}),
	}
	for idx := range h.slots {
		if v, ok := allocated[idx]; ok {
			h.slots[idx] = v
			continue
		}
		h.pushFree(idx)
	}
	return h
}
