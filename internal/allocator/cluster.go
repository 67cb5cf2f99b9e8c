package allocator

// clusterReserveLookup[bitmap] gives the ordinal (0..5) of the lowest
// clear bit in a 6-bit occupancy bitmap, or clusterSlots (6) if the
// bitmap is full (0b111111). Precomputed once rather than scanned
// bit-by-bit on every reservation.
var clusterReserveLookup [64]int

func init() {
	for bm := range clusterReserveLookup {
		clusterReserveLookup[bm] = lowestClearBitSlow(bm)
	}
}

func lowestClearBitSlow(bm int) int {
	for i := 0; i < clusterSlots; i++ {
		if bm&(1<<i) == 0 {
			return i
		}
	}

	return clusterSlots
}

// clusterBitmap reads a cluster's occupancy bitmap.
func (h *Heap) clusterBitmap(cluster uintptr) uint64 {
	return h.readWord(cluster + clusterBitmapOffset)
}

func (h *Heap) setClusterBitmap(cluster uintptr, bm uint64) {
	h.writeWord(cluster+clusterBitmapOffset, bm)
}

// miniSlotAddr returns the address of mini-block ordinal i's header
// within cluster.
func miniSlotAddr(cluster uintptr, i int) uintptr {
	return cluster + clusterHeaderSize + uintptr(i)*16
}

func miniPayloadAddr(cluster uintptr, i int) uintptr {
	return miniSlotAddr(cluster, i) + wordSize
}

// miniHeaderTag encodes mini-block ordinal i as a tag word with the
// cluster bit set and the ordinal packed into the size field (i*16,
// always a multiple of 16). Release, given only a payload address,
// must be able to tell whether the word immediately before it is an
// outer block header or a mini-block header purely by its cluster
// bit — an arbitrary small integer in that word would collide with
// that bit for some ordinals, so the mini-header is a real tag rather
// than a raw ordinal.
func miniHeaderTag(i int) tag { return packTag(uintptr(i)*16, false, false, true) }

func miniOrdinal(t tag) int { return int(t.size() / 16) }

// openCluster converts an allocated, just-split 128-byte block into a
// cluster: it sets the cluster bit, clears the occupancy bitmap, stamps
// each mini-block's ordinal, and parks the cluster on the class-16 free
// list (it has six free slots). The outer block stays allocated=1 for
// as long as the cluster is in service: a cluster is never "free" at
// the outer level, only through its bitmap.
func (h *Heap) openCluster(b uintptr) {
	prevAllocated := h.header(b).prevAllocated()
	h.writeBlock(b, clusterSize, true, prevAllocated, true)
	h.setClusterBitmap(b, 0)

	for i := 0; i < clusterSlots; i++ {
		h.writeTagAt(miniSlotAddr(b, i), miniHeaderTag(i))
	}

	h.pushSingle(0, b)
}

// reserveMini finds the lowest free mini-block ordinal in cluster, marks
// it occupied, removes the cluster from the class-16 list if this fills
// it, and returns the mini-block's payload address.
func (h *Heap) reserveMini(cluster uintptr) uintptr {
	bm := h.clusterBitmap(cluster)

	ord := clusterReserveLookup[bm]
	if ord == clusterSlots {
		panic("allocator: reserveMini called on a full cluster")
	}

	bm |= uint64(1) << uint(ord)
	h.setClusterBitmap(cluster, bm)

	if bm == (uint64(1)<<clusterSlots)-1 {
		h.removeSingle(0, cluster)
	}

	return miniPayloadAddr(cluster, ord)
}

// releaseMini frees the mini-block whose payload starts at p. If the
// owning cluster was previously full it is re-parked on the class-16
// list; if the release empties the cluster entirely, the cluster is
// taken off the class-16 list, reverts to an ordinary free 128-byte
// block, and is handed to the coalescer.
func (h *Heap) releaseMini(p uintptr) {
	ord := miniOrdinal(h.readTag(p - wordSize))
	cluster := p - wordSize - clusterHeaderSize - uintptr(ord)*16

	bm := h.clusterBitmap(cluster)
	wasFull := bm == (uint64(1)<<clusterSlots)-1

	bm &^= uint64(1) << uint(ord)
	h.setClusterBitmap(cluster, bm)

	if bm == 0 {
		h.removeSingle(0, cluster)
		h.closeCluster(cluster)
		return
	}

	if wasFull {
		h.pushSingle(0, cluster)
	}
}

// closeCluster reverts an all-free cluster back to an ordinary free
// block and routes it through the coalescer, mirroring how any other
// newly-freed block is handled.
func (h *Heap) closeCluster(cluster uintptr) {
	prevAllocated := h.header(cluster).prevAllocated()
	h.writeBlock(cluster, clusterSize, false, prevAllocated, false)
	h.setPrevAllocated(h.nextBlock(cluster), false)

	merged := h.coalesce(cluster)
	h.pushFront(classOf(h.header(merged).size()), merged)
}

// acquireMini services an 8-byte-class request: it reuses the head of
// the class-16 list if a cluster with a free slot exists, otherwise it
// acquires a fresh 128-byte block through the normal placement path and
// opens a cluster on it.
func (h *Heap) acquireMini() uintptr {
	if h.classes[0].head != nilAddr {
		return h.reserveMini(h.classes[0].head)
	}

	b, ok := h.acquireRawBlock(clusterSize)
	if !ok {
		return nilAddr
	}

	h.split(b, h.header(b).size(), clusterSize)
	h.openCluster(b)

	return h.reserveMini(b)
}
