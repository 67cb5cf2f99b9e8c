package allocator

import "log"

// CheckHeap walks the entire arena and every free list, verifying
// block alignment, header/footer agreement, prev_allocated
// consistency, coalescing completeness, free-list/implicit-list
// agreement, and cluster bitmap/list-membership consistency. When debug
// mode is enabled it logs each violation it finds, tagged with the
// caller-supplied line; either way it returns whether the heap is
// consistent. Expensive: intended for
// debug builds and tests, not the allocation hot path.
func (h *Heap) CheckHeap(line int) bool {
	ok := true

	report := func(format string, args ...any) {
		ok = false
		if h.cfg.EnableDebug {
			log.Printf("allocator: CheckHeap failed at line %d: "+format, append([]any{line}, args...)...)
		}
	}

	implicitFree := 0
	prevWasAllocated := true

	for b := h.heapStart; b != h.epilogue; {
		t := h.header(b)
		size := t.size()

		if size%16 != 0 {
			report("block %#x size %d is not a multiple of 16", b, size)
		}

		if size < minBlockSize {
			report("block %#x size %d is below minBlockSize", b, size)
		}

		if t.prevAllocated() != prevWasAllocated {
			report("block %#x prev_allocated=%v but predecessor allocated=%v", b, t.prevAllocated(), prevWasAllocated)
		}

		if !t.allocated() && !t.cluster() {
			footer := h.readTag(footerAddr(b, size))
			if footer != t {
				report("free block %#x header %#x does not match footer %#x", b, t, footer)
			}
		}

		if t.cluster() {
			if bitmapOK := h.checkCluster(b, report); !bitmapOK {
				ok = false
			}
		}

		if !t.allocated() {
			implicitFree++

			next := b + size
			if next != h.epilogue && !h.header(next).allocated() && !h.header(next).cluster() {
				report("adjacent free blocks %#x and %#x were not coalesced", b, next)
			}
		}

		prevWasAllocated = t.allocated()
		b = h.nextBlock(b)
	}

	listFree := 0

	for class := 0; class < numClasses; class++ {
		h.iterate(class, func(node uintptr) bool {
			t := h.header(node)

			if class != classTop && !t.cluster() {
				if t.size() == 0 || classOf(t.size()) != class {
					report("block %#x of size %d found on class %d free list", node, t.size(), class)
				}
			}

			if t.allocated() && !t.cluster() {
				report("allocated block %#x found on free list class %d", node, class)
			}

			if t.cluster() {
				// Clusters are singly-linked (pushSingle): the node's
				// would-be prev word is the occupancy bitmap instead,
				// so there is no back-pointer to verify here.
				return true
			}

			listFree++

			prev := h.getPrev(node)
			if prev != nilAddr && h.getNext(prev) != node {
				report("free list class %d: node %#x's prev %#x does not point back", class, node, prev)
			}

			return true
		})
	}

	if listFree != implicitFree {
		report("implicit-list free count %d does not match free-list count %d", implicitFree, listFree)
	}

	return ok
}

// checkCluster verifies that a cluster block's occupancy bitmap agrees
// with its class-16 list membership: a cluster with at least one free
// slot must be on the list, and a full cluster must not be.
func (h *Heap) checkCluster(cluster uintptr, report func(format string, args ...any)) bool {
	ok := true
	bm := h.clusterBitmap(cluster)
	full := bm == (uint64(1)<<clusterSlots)-1

	onList := false
	h.iterate(0, func(node uintptr) bool {
		if node == cluster {
			onList = true

			return false
		}

		return true
	})

	if full && onList {
		report("full cluster %#x is still on the class-16 free list", cluster)
		ok = false
	}

	if !full && !onList {
		report("cluster %#x with free slots is not on the class-16 free list", cluster)
		ok = false
	}

	return ok
}
