package allocator

import "encoding/binary"

// nilAddr is the sentinel "no block" address, used for free-list links
// and for the result of walking off either end of the implicit list.
const nilAddr = ^uintptr(0)

// minBlockSize is header + next + prev + footer, rounded to a 16-byte
// multiple: 8 + 8 + 8 + 8 = 32.
const minBlockSize = 4 * wordSize

// clusterSize is the fixed outer size of a mini-block cluster: an 8-byte
// header, the singly-linked list's 8-byte next-pointer word (reused
// from the generic free-node layout), an 8-byte bitmap word (reusing
// the generic free-node's "prev" slot, since the cluster list never
// uses one), an 8-byte pad word that puts every mini-block payload on
// a 16-byte boundary, and six 16-byte mini-block slots: 128 bytes.
const clusterSize = 128

// clusterSlots is the number of 8-byte payload mini-blocks a cluster
// subdivides into.
const clusterSlots = 6

// clusterHeaderSize is the space consumed by the cluster's own header,
// next-link, bitmap, and pad words, before the first mini-block slot.
const clusterHeaderSize = 4 * wordSize

// clusterBitmapOffset is the offset from the cluster's block address to
// its occupancy bitmap word.
const clusterBitmapOffset = 2 * wordSize

// readWord/writeWord are the sole points where this package talks to the
// Extender's byte view; every other accessor is built on top of them.
func (h *Heap) readWord(addr uintptr) uint64 {
	return binary.LittleEndian.Uint64(h.ext.At(addr, wordSize))
}

func (h *Heap) writeWord(addr uintptr, v uint64) {
	binary.LittleEndian.PutUint64(h.ext.At(addr, wordSize), v)
}

func (h *Heap) readTag(addr uintptr) tag       { return tag(h.readWord(addr)) }
func (h *Heap) writeTagAt(addr uintptr, t tag) { h.writeWord(addr, uint64(t)) }

// header returns the tag at the start of block b.
func (h *Heap) header(b uintptr) tag { return h.readTag(b) }

// footerAddr returns the address of the footer word of a block of the
// given size starting at b.
func footerAddr(b, size uintptr) uintptr { return b + size - wordSize }

// payloadAddr returns the address of the payload of block b (immediately
// after its one-word header).
func payloadAddr(b uintptr) uintptr { return b + wordSize }

// blockFromPayload recovers a block's address from a payload pointer
// address.
func blockFromPayload(p uintptr) uintptr { return p - wordSize }

// writeBlock is the single centralized point that rewrites a block's
// header and, for free non-cluster blocks, its footer. Every operation
// that changes a block's size, allocation state, or cluster bit goes
// through here, and setPrevAllocated below is the one helper that
// changes only the prev_allocated bit, so a free block's header and
// footer can never drift out of sync.
func (h *Heap) writeBlock(b, size uintptr, allocated, prevAllocated, cluster bool) tag {
	t := packTag(size, allocated, prevAllocated, cluster)
	h.writeTagAt(b, t)

	if !allocated && !cluster {
		h.writeTagAt(footerAddr(b, size), t)
	}

	return t
}

// setPrevAllocated rewrites block b's prev_allocated bit in place,
// preserving every other field, and keeps its footer (if any) in sync.
// This is the centralized helper the design notes call for: every
// split, coalesce, acquire, release, and cluster open/close that
// changes whether the block at `next(b)` sees b as allocated routes
// through here.
func (h *Heap) setPrevAllocated(b uintptr, v bool) {
	t := h.header(b)
	nt := t.withPrevAllocated(v)
	h.writeTagAt(b, nt)

	if !t.allocated() && !t.cluster() {
		h.writeTagAt(footerAddr(b, t.size()), nt)
	}
}

// nextBlock returns the address of the block immediately following b in
// address order.
func (h *Heap) nextBlock(b uintptr) uintptr {
	return b + h.header(b).size()
}

// prevBlock returns the address of the block immediately preceding b in
// address order. Only valid when b.prev_allocated() is false: the
// caller must consult that bit before calling this, since an allocated
// predecessor has no footer to read.
func (h *Heap) prevBlock(b uintptr) uintptr {
	prevFooter := h.readTag(b - wordSize)
	return b - prevFooter.size()
}

// getNext/setNext/getPrev/setPrev access the doubly-linked free-list
// node embedded in a free block's payload: next at payload+0, prev at
// payload+8. A cluster parked on the class-16 list only ever uses
// getNext/setNext — its payload+8 word is the occupancy bitmap instead.
func (h *Heap) getNext(b uintptr) uintptr {
	v := h.readWord(payloadAddr(b))
	if v == uint64(nilAddr) {
		return nilAddr
	}

	return uintptr(v)
}

func (h *Heap) setNext(b, v uintptr) { h.writeWord(payloadAddr(b), uint64(v)) }

func (h *Heap) getPrev(b uintptr) uintptr {
	v := h.readWord(payloadAddr(b) + wordSize)
	if v == uint64(nilAddr) {
		return nilAddr
	}

	return uintptr(v)
}

func (h *Heap) setPrev(b, v uintptr) { h.writeWord(payloadAddr(b)+wordSize, uint64(v)) }

// roundUp rounds size up to the next multiple of n.
func roundUp(size, n uintptr) uintptr {
	return n * ((size + n - 1) / n)
}

func maxUintptr(a, b uintptr) uintptr {
	if a > b {
		return a
	}

	return b
}
