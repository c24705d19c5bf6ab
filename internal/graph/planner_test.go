package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mkAlloc appends a raw TensorAlloc with the given size and inclusive
// op-ID range, bypassing TensorDesc so the test can use the spec's
// scenario byte sizes exactly instead of alignment-rounded ones.
func mkAlloc(a *arena, size uint64, firstOpID, lastOpID int) int {
	a.allocs = append(a.allocs, TensorAlloc{
		ByteSize: size, FirstOpID: firstOpID, LastOpID: lastOpID,
		Prev: noAlloc, Next: noAlloc,
	})
	return len(a.allocs) - 1
}

func TestPlanAllocationsIdentity(t *testing.T) {
	var a arena
	i0 := mkAlloc(&a, 100, 0, 0)
	i1 := mkAlloc(&a, 200, 1, 1)
	i2 := mkAlloc(&a, 300, 2, 2)

	hwm := planAllocations(&a)

	require.Equal(t, uint64(0), a.get(i0).ByteOffset)
	require.Equal(t, uint64(0), a.get(i1).ByteOffset)
	require.Equal(t, uint64(0), a.get(i2).ByteOffset)
	require.Equal(t, uint64(300), hwm)
}

func TestPlanAllocationsConflict(t *testing.T) {
	var a arena
	i0 := mkAlloc(&a, 100, 0, 5)
	i1 := mkAlloc(&a, 100, 3, 7)

	hwm := planAllocations(&a)

	offsets := map[uint64]bool{a.get(i0).ByteOffset: true, a.get(i1).ByteOffset: true}
	require.True(t, offsets[0])
	require.True(t, offsets[100])
	require.NotEqual(t, a.get(i0).ByteOffset, a.get(i1).ByteOffset)
	require.Equal(t, uint64(200), hwm)
}

func TestPlanAllocationsChain(t *testing.T) {
	var a arena
	ai := mkAlloc(&a, 50, 0, 10)
	bi := mkAlloc(&a, 70, 0, 10)
	ci := mkAlloc(&a, 30, 0, 10)
	a.link(ai, bi)
	a.link(bi, ci)
	di := mkAlloc(&a, 40, 5, 9)

	hwm := planAllocations(&a)

	require.Equal(t, uint64(0), a.get(ai).ByteOffset)
	require.Equal(t, uint64(50), a.get(bi).ByteOffset)
	require.Equal(t, uint64(120), a.get(ci).ByteOffset)
	require.Equal(t, uint64(150), a.get(di).ByteOffset)
	require.Equal(t, uint64(190), hwm)
}

func TestArenaChainableRejectsCycle(t *testing.T) {
	var a arena
	ai := mkAlloc(&a, 10, 0, 0)
	bi := mkAlloc(&a, 10, 0, 0)
	require.True(t, a.chainable(ai, bi))
	a.link(ai, bi)
	require.False(t, a.chainable(bi, ai))
}
