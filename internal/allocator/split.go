package allocator

// split carves an allocated block b of total size totalSize down to the
// requested rounded size requested. If the remainder is at least
// minBlockSize it becomes a new free block pushed onto the class its
// size belongs to; otherwise b is used whole. Either way, the following
// block's prev_allocated bit is left correctly set.
func (h *Heap) split(b, totalSize, requested uintptr) {
	prevAllocated := h.header(b).prevAllocated()
	remainder := totalSize - requested

	if remainder >= minBlockSize {
		h.writeBlock(b, requested, true, prevAllocated, false)

		tail := b + requested
		h.writeBlock(tail, remainder, false, true, false)
		h.pushFront(classOf(remainder), tail)

		h.setPrevAllocated(h.nextBlock(tail), false)

		return
	}

	h.writeBlock(b, totalSize, true, prevAllocated, false)
	h.setPrevAllocated(h.nextBlock(b), true)
}
