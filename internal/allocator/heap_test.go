package allocator

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newTestHeap(t *testing.T) *Heap {
	t.Helper()

	h, err := New(nil, WithChunkSize(512), WithMaxArena(1<<20))
	require.NoError(t, err)

	return h
}

func readByte(p unsafe.Pointer, off uintptr) byte {
	return *(*byte)(unsafe.Pointer(uintptr(p) + off))
}

func writeByte(p unsafe.Pointer, off uintptr, v byte) {
	*(*byte)(unsafe.Pointer(uintptr(p) + off)) = v
}

// S2: acquire/release/acquire of the same size returns the same
// pointer.
func TestAcquireReleaseReuse(t *testing.T) {
	h := newTestHeap(t)

	p := h.Acquire(24)
	require.NotNil(t, p)

	h.Release(p)

	q := h.Acquire(24)
	require.Equal(t, p, q)
	require.True(t, h.CheckHeap(0))
}

// S3: two 4080-byte acquires trigger exactly one arena extension.
func TestAcquireTriggersSingleExtension(t *testing.T) {
	h := newTestHeap(t)

	a := h.Acquire(4080)
	require.NotNil(t, a)

	epilogueBefore := h.epilogue

	b := h.Acquire(4080)
	require.NotNil(t, b)
	require.NotEqual(t, a, b)

	require.Equal(t, epilogueBefore+4096, h.epilogue, "expected exactly one 4096-byte extension")
	require.True(t, h.CheckHeap(0))
}

// S4: three 32-byte blocks freed out of order coalesce into one block.
func TestReleaseCoalescesOutOfOrder(t *testing.T) {
	h := newTestHeap(t)

	a := h.Acquire(32)
	b := h.Acquire(32)
	c := h.Acquire(32)
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, c)

	h.Release(a)
	h.Release(c)
	h.Release(b)

	ba := blockFromPayload(addrOf(a))
	t0 := h.header(ba)
	require.False(t, t0.allocated())
	require.GreaterOrEqual(t, t0.size(), 3*asizeFor(32))
	require.True(t, h.CheckHeap(0))
}

// S6: resize grows an allocation while preserving its prefix.
func TestResizePreservesData(t *testing.T) {
	h := newTestHeap(t)

	a := h.Acquire(100)
	require.NotNil(t, a)

	for i := uintptr(0); i < 100; i++ {
		writeByte(a, i, byte(i))
	}

	a2 := h.Resize(a, 200)
	require.NotNil(t, a2)

	for i := uintptr(0); i < 100; i++ {
		require.Equal(t, byte(i), readByte(a2, i))
	}

	h.Release(a2)
	require.True(t, h.CheckHeap(0))
}

func TestAcquireZeroReturnsNil(t *testing.T) {
	h := newTestHeap(t)
	require.Nil(t, h.Acquire(0))
}

func TestReleaseNilIsNoOp(t *testing.T) {
	h := newTestHeap(t)
	h.Release(nil)
	require.True(t, h.CheckHeap(0))
}

func TestZeroedAcquireOverflowReturnsNil(t *testing.T) {
	h := newTestHeap(t)
	require.Nil(t, h.ZeroedAcquire(^uintptr(0), 2))
}

func TestZeroedAcquireZeroesPayload(t *testing.T) {
	h := newTestHeap(t)

	p := h.ZeroedAcquire(8, 4)
	require.NotNil(t, p)

	for i := uintptr(0); i < 32; i++ {
		require.Equal(t, byte(0), readByte(p, i))
	}

	require.True(t, h.CheckHeap(0))
}

func asizeFor(n uintptr) uintptr {
	return maxUintptr(roundUp(n+wordSize, 16), minBlockSize)
}
