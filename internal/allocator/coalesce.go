package allocator

// coalesce merges a newly-freed block b (already written with
// allocated=false, not currently on any free list) with whichever of
// its address-adjacent neighbors are also free. It returns the
// resulting block's address but does NOT insert it into any free list
// — callers choose the destination class once they know the merged
// size.
func (h *Heap) coalesce(b uintptr) uintptr {
	size := h.header(b).size()
	prevFree := !h.header(b).prevAllocated()

	next := b + size
	nextFree := !h.header(next).allocated() && !h.header(next).cluster()

	switch {
	case !prevFree && !nextFree:
		// Case 1: both neighbors allocated. Nothing to merge.
		return b

	case !prevFree && nextFree:
		// Case 2: next is free. Absorb it into b.
		nextSize := h.header(next).size()
		h.remove(classOf(nextSize), next)
		h.writeBlock(b, size+nextSize, false, true, false)

		return b

	case prevFree && !nextFree:
		// Case 3: prev is free. Absorb b into prev.
		prev := h.prevBlock(b)
		prevSize := h.header(prev).size()
		h.remove(classOf(prevSize), prev)
		h.writeBlock(prev, prevSize+size, false, true, false)

		return prev

	default:
		// Case 4: both neighbors free. Absorb both into prev.
		prev := h.prevBlock(b)
		prevSize := h.header(prev).size()
		nextSize := h.header(next).size()

		h.remove(classOf(prevSize), prev)
		h.remove(classOf(nextSize), next)
		h.writeBlock(prev, prevSize+size+nextSize, false, true, false)

		return prev
	}
}
