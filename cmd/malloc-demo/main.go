// Command malloc-demo exercises the segregated-fit heap allocator
// end to end: mixed-size acquires, a resize, a release pass, and a
// final invariant check.
package main

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/qbacpey/malloc/internal/allocator"
)

func main() {
	fmt.Println("=== segregated-fit allocator demo ===")

	h, err := allocator.New(nil, allocator.WithChunkSize(4096), allocator.WithDebug(true))
	if err != nil {
		panic(fmt.Sprintf("failed to create heap: %v", err))
	}

	fmt.Println("\n1. Mixed-size acquires...")
	start := time.Now()

	sizes := []uintptr{8, 4, 16, 32, 100, 2048, 8}

	ptrs := make([]unsafe.Pointer, 0, len(sizes))
	for i, sz := range sizes {
		p := h.Acquire(sz)
		if p == nil {
			panic(fmt.Sprintf("acquire %d failed", i))
		}

		ptrs = append(ptrs, p)
	}

	fmt.Printf("✓ %d allocations completed in %v\n", len(sizes), time.Since(start))

	fmt.Println("\n2. Resizing the 100-byte allocation to 500 bytes...")

	grown := h.Resize(ptrs[4], 500)
	if grown == nil {
		panic("resize failed")
	}

	ptrs[4] = grown
	fmt.Println("✓ resize preserved the allocation")

	fmt.Println("\n3. Releasing every other allocation...")

	for i, p := range ptrs {
		if i%2 == 0 {
			h.Release(p)
		}
	}

	fmt.Println("\n4. Checking heap consistency...")

	if !h.CheckHeap(0) {
		panic("heap failed its consistency check")
	}

	fmt.Println("✓ heap is consistent")
}
