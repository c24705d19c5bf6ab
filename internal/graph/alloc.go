package graph

import "github.com/lumenforge/denoise/internal/tensor"

// noAlloc marks the absence of a prev/next neighbor in the allocation
// arena, an index-based rephrasing of a nil pointer.
const noAlloc = -1

// TensorAlloc is the planner's per-transient record. Allocations live
// in a Graph's arena and reference each other by index (prev/next)
// rather than by pointer, so the planner can iterate chains without
// any aliasing concerns.
type TensorAlloc struct {
	Desc     tensor.TensorDesc
	ByteSize uint64
	// FirstOpID/LastOpID is the inclusive op-ID range this tensor must
	// remain live across: initialized to the producing op's ID, then
	// extended to each consuming op's ID.
	FirstOpID int
	LastOpID  int
	// Prev/Next are arena indices, or noAlloc.
	Prev int
	Next int
	// ByteOffset is assigned by the planner.
	ByteOffset uint64
	// Tensor is bound at finalize time.
	Tensor tensor.Tensor
}

// arena owns every TensorAlloc created while building a graph, indexed
// by position.
type arena struct {
	allocs []TensorAlloc
}

// newAlloc appends a fresh allocation with no chain neighbors and
// returns its index.
func (a *arena) newAlloc(desc tensor.TensorDesc, opID int) int {
	a.allocs = append(a.allocs, TensorAlloc{
		Desc:      desc,
		ByteSize:  desc.AlignedByteSize(),
		FirstOpID: opID,
		LastOpID:  opID,
		Prev:      noAlloc,
		Next:      noAlloc,
	})
	return len(a.allocs) - 1
}

func (a *arena) get(i int) *TensorAlloc { return &a.allocs[i] }

func (a *arena) reset() { a.allocs = nil }

// link chains prev -> next. It is a fatal build error for either side
// to already have a neighbor on the conflicting side, or for the link
// to introduce a cycle; callers are expected to check chainable first.
func (a *arena) link(prev, next int) {
	a.allocs[prev].Next = next
	a.allocs[next].Prev = prev
}

// chainable reports whether prev can be linked to next without
// violating the "at most one predecessor per node" invariant or
// introducing a cycle.
func (a *arena) chainable(prev, next int) bool {
	if a.allocs[prev].Next != noAlloc || a.allocs[next].Prev != noAlloc {
		return false
	}
	// A cycle can only arise if next is already a (transitive)
	// predecessor of prev; walk prev's chain backward to check.
	for p := a.allocs[prev].Prev; p != noAlloc; p = a.allocs[p].Prev {
		if p == next {
			return false
		}
	}
	return true
}
