package allocator

// findFit selects a free block able to satisfy a request of rounded
// size asize, using a different scan policy per class kind: first-fit
// for the exact classes, good-fit for the range classes, and first-fit
// again for the unbounded top class. It returns the chosen block still
// attached to its free list; the caller is responsible for removing it.
func (h *Heap) findFit(asize uintptr) (uintptr, bool) {
	class := classOf(asize)

	switch {
	case isExactClass(class):
		return h.findExact(class, asize)
	case class == classTop:
		return h.scanFirstFit(class, asize)
	default:
		return h.findGoodFit(class, asize)
	}
}

// findExact implements first-fit within an exact-size class: every
// block on the class's list already equals asize, so any head suffices.
// On a miss it advances class-by-class (skipping only classes whose
// size range cannot satisfy asize, which classOf already guarantees by
// starting one class above) doing first-fit in each.
func (h *Heap) findExact(class int, asize uintptr) (uintptr, bool) {
	if h.classes[class].head != nilAddr {
		return h.classes[class].head, true
	}

	for c := class + 1; c < numClasses; c++ {
		if node, ok := h.scanFirstFit(c, asize); ok {
			return node, true
		}
	}

	return 0, false
}

// findGoodFit scans the starting range class for either an exact size
// match (returned immediately) or the first block large enough to
// leave a cleanly splittable remainder (size >= asize+minBlockSize).
// If neither exists in the starting class, it advances class-by-class
// and returns the first block meeting the splittable threshold.
func (h *Heap) findGoodFit(class int, asize uintptr) (uintptr, bool) {
	threshold := asize + minBlockSize

	var candidate uintptr = nilAddr

	h.iterate(class, func(node uintptr) bool {
		sz := h.header(node).size()
		if sz == asize {
			candidate = node

			return false
		}

		if candidate == nilAddr && sz >= threshold {
			candidate = node
		}

		return true
	})

	if candidate != nilAddr {
		return candidate, true
	}

	for c := class + 1; c < numClasses; c++ {
		if node, ok := h.scanThreshold(c, threshold); ok {
			return node, true
		}
	}

	return 0, false
}

// scanFirstFit returns the first block in class with size >= minSize.
func (h *Heap) scanFirstFit(class int, minSize uintptr) (uintptr, bool) {
	found := nilAddr

	h.iterate(class, func(node uintptr) bool {
		if h.header(node).size() >= minSize {
			found = node

			return false
		}

		return true
	})

	if found == nilAddr {
		return 0, false
	}

	return found, true
}

// scanThreshold returns the first block in class with size >= threshold.
func (h *Heap) scanThreshold(class int, threshold uintptr) (uintptr, bool) {
	return h.scanFirstFit(class, threshold)
}

// acquireRawBlock finds, removes, and returns a free block of at least
// asize bytes, extending the arena on a total miss. It does NOT split
// or mark the block allocated — callers do so themselves (both the
// ordinary acquire path and the cluster path split immediately; the
// cluster path then opens a cluster on the 128-byte result).
func (h *Heap) acquireRawBlock(asize uintptr) (uintptr, bool) {
	node, ok := h.findFit(asize)
	if !ok {
		if !h.extend(maxUintptr(asize, h.cfg.ChunkSize)) {
			return 0, false
		}

		node, ok = h.findFit(asize)
		if !ok {
			return 0, false
		}
	}

	h.remove(classOf(h.header(node).size()), node)

	return node, true
}
