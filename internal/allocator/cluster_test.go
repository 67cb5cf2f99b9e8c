package allocator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S1: two 8-byte acquires land 16 bytes apart inside the same cluster,
// with bitmap bits 0 and 1 set.
func TestMiniAcquireLayout(t *testing.T) {
	h := newTestHeap(t)

	p1 := h.Acquire(8)
	p2 := h.Acquire(8)
	require.NotNil(t, p1)
	require.NotNil(t, p2)

	require.Equal(t, uintptr(16), addrOf(p2)-addrOf(p1))

	cluster := blockFromPayload(addrOf(p1)) - clusterHeaderSize
	require.Equal(t, uint64(0b11), h.clusterBitmap(cluster))
	require.True(t, h.CheckHeap(0))
}

// S5: six mini-acquires followed by six releases leave one >= 128-byte
// free block behind, with no cluster remaining.
func TestMiniAcquireReleaseDrainsCluster(t *testing.T) {
	h := newTestHeap(t)

	var ptrs [6]uintptr
	for i := range ptrs {
		p := h.Acquire(8)
		require.NotNil(t, p)
		ptrs[i] = addrOf(p)
	}

	cluster := blockFromPayload(ptrs[0]) - clusterHeaderSize
	require.Equal(t, uint64(0b111111), h.clusterBitmap(cluster))

	for _, addr := range ptrs {
		h.Release(h.ptrAt(addr))
	}

	require.False(t, h.header(cluster).cluster())
	require.False(t, h.header(cluster).allocated())
	require.GreaterOrEqual(t, h.header(cluster).size(), uintptr(clusterSize))
	require.True(t, h.CheckHeap(0))
}

// A full cluster falls off the class-16 list, and a new cluster is
// opened for the next mini request.
func TestMiniAcquireOpensSecondCluster(t *testing.T) {
	h := newTestHeap(t)

	var first uintptr
	for i := 0; i < 6; i++ {
		p := h.Acquire(8)
		require.NotNil(t, p)

		if i == 0 {
			first = addrOf(p)
		}
	}

	cluster1 := blockFromPayload(first) - clusterHeaderSize
	require.Equal(t, nilAddr, h.classes[0].head, "a full cluster must fall off the class-16 list")

	p := h.Acquire(8)
	require.NotNil(t, p)

	cluster2 := blockFromPayload(addrOf(p)) - clusterHeaderSize
	require.NotEqual(t, cluster1, cluster2)
	require.True(t, h.CheckHeap(0))
}

// Releasing high-ordinal mini-blocks (whose ordinal value alone would
// alias the cluster flag bit if mini-headers were raw integers) must
// not be mistaken for releasing an outer block.
func TestMiniReleaseHighOrdinal(t *testing.T) {
	h := newTestHeap(t)

	var ptrs [6]uintptr
	for i := range ptrs {
		p := h.Acquire(8)
		require.NotNil(t, p)
		ptrs[i] = addrOf(p)
	}

	h.Release(h.ptrAt(ptrs[4]))
	h.Release(h.ptrAt(ptrs[5]))

	cluster := blockFromPayload(ptrs[0]) - clusterHeaderSize
	require.Equal(t, uint64(0b001111), h.clusterBitmap(cluster))
	require.True(t, h.header(cluster).cluster())
	require.True(t, h.CheckHeap(0))
}
