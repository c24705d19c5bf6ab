package graph

import "sort"

// chunk is the planner's view of a chain as a single allocation of
// combined size and combined time interval; an unchained allocation is
// a chunk of one member.
type chunk struct {
	members   []int // arena indices, in chain order (head first)
	byteSize  uint64
	firstOpID int
	lastOpID  int
}

// formChunks walks every allocation with no prev (a chain head, or an
// unchained allocation) and follows next links to build its chunk.
func formChunks(allocs *arena) []chunk {
	var chunks []chunk
	for i := range allocs.allocs {
		if allocs.allocs[i].Prev != noAlloc {
			continue
		}
		c := chunk{firstOpID: allocs.allocs[i].FirstOpID, lastOpID: allocs.allocs[i].LastOpID}
		for idx := i; idx != noAlloc; idx = allocs.allocs[idx].Next {
			a := &allocs.allocs[idx]
			c.members = append(c.members, idx)
			c.byteSize += a.ByteSize
			if a.FirstOpID < c.firstOpID {
				c.firstOpID = a.FirstOpID
			}
			if a.LastOpID > c.lastOpID {
				c.lastOpID = a.LastOpID
			}
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// placed is an already-placed allocation tracked by the planner,
// ordered by ascending ByteOffset.
type placed struct {
	idx        int
	byteOffset uint64
	byteSize   uint64
	firstOpID  int
	lastOpID   int
}

// planAllocations assigns a ByteOffset to every TensorAlloc in allocs,
// minimizing (heuristically) the resulting high-water mark. It returns
// that high-water mark, i.e. the scratch bytes required for transient
// tensors (excluding per-op scratch).
//
// Best-fit offset-allocation over chunks ordered by decreasing size:
// for each chunk, walk the already-placed allocations in offset order
// and remember the smallest gap that both fits the chunk and
// time-overlaps it; allocations with no time overlap are ignored
// entirely, letting them share bytes with the chunk being placed.
func planAllocations(allocs *arena) uint64 {
	chunks := formChunks(allocs)
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].byteSize > chunks[j].byteSize })

	var active []placed
	var highWaterMark uint64

	for _, c := range chunks {
		offset := bestFitOffset(active, c)

		memberOffset := offset
		for _, idx := range c.members {
			a := allocs.get(idx)
			a.ByteOffset = memberOffset
			if end := memberOffset + a.ByteSize; end > highWaterMark {
				highWaterMark = end
			}
			insertPlaced(&active, placed{
				idx:        idx,
				byteOffset: memberOffset,
				byteSize:   a.ByteSize,
				firstOpID:  a.FirstOpID,
				lastOpID:   a.LastOpID,
			})
			memberOffset += a.ByteSize
		}
	}
	return highWaterMark
}

// bestFitOffset finds the smallest gap among active (sorted by
// ByteOffset) that fits c.byteSize and time-overlaps c, falling back to
// appending at the high-water mark if none is found.
func bestFitOffset(active []placed, c chunk) uint64 {
	var curOffset uint64
	bestOffset := curOffset
	bestGap := uint64(0)
	haveBest := false

	for _, a := range active {
		overlaps := a.lastOpID >= c.firstOpID && a.firstOpID <= c.lastOpID
		if overlaps {
			if a.byteOffset > curOffset {
				gap := a.byteOffset - curOffset
				if gap >= c.byteSize && (!haveBest || gap < bestGap) {
					bestGap = gap
					bestOffset = curOffset
					haveBest = true
				}
			}
			if end := a.byteOffset + a.byteSize; end > curOffset {
				curOffset = end
			}
		}
	}
	if haveBest {
		return bestOffset
	}
	return curOffset
}

// insertPlaced inserts p into active, keeping it sorted by ByteOffset.
func insertPlaced(active *[]placed, p placed) {
	i := sort.Search(len(*active), func(i int) bool { return (*active)[i].byteOffset >= p.byteOffset })
	*active = append(*active, placed{})
	copy((*active)[i+1:], (*active)[i:])
	(*active)[i] = p
}
