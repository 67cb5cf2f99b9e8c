package allocator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckHeapPassesAfterMixedWorkload(t *testing.T) {
	h := newTestHeap(t)

	var ptrs []uintptr
	sizes := []uintptr{8, 16, 24, 40, 100, 4, 6000}

	for _, sz := range sizes {
		p := h.Acquire(sz)
		require.NotNil(t, p)
		ptrs = append(ptrs, addrOf(p))
	}

	require.True(t, h.CheckHeap(0))

	for i, addr := range ptrs {
		if i%2 == 0 {
			h.Release(h.ptrAt(addr))
		}
	}

	require.True(t, h.CheckHeap(0))
}

func TestCheckHeapDetectsMissingCoalesce(t *testing.T) {
	h := newTestHeap(t)

	a := h.Acquire(32)
	b := h.Acquire(32)
	require.NotNil(t, a)
	require.NotNil(t, b)

	ba := blockFromPayload(addrOf(a))
	bb := blockFromPayload(addrOf(b))

	prevAllocated := h.header(ba).prevAllocated()
	h.writeBlock(ba, h.header(ba).size(), false, prevAllocated, false)
	h.setPrevAllocated(h.nextBlock(ba), false)

	prevAllocatedB := h.header(bb).prevAllocated()
	h.writeBlock(bb, h.header(bb).size(), false, prevAllocatedB, false)
	h.setPrevAllocated(h.nextBlock(bb), false)

	require.False(t, h.CheckHeap(0), "two adjacent free blocks should fail CheckHeap")
}
